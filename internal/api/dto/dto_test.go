package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestDueDateParsing(t *testing.T) {
	cases := []struct {
		body string
		want *time.Time
		err  bool
	}{
		{`{"dueDate": null}`, nil, false},
		{`{}`, nil, false},
		{`{"dueDate": ""}`, nil, false},
		{`{"dueDate": "2024-06-15"}`, ptr(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)), false},
		{`{"dueDate": "2024-06-15T10:00:00-03:00"}`, ptr(time.Date(2024, 6, 15, 13, 0, 0, 0, time.UTC)), false},
		{`{"dueDate": "15/06/2024"}`, nil, true},
		{`{"dueDate": 12}`, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.body, func(t *testing.T) {
			var req InProcessRequest
			err := json.Unmarshal([]byte(tc.body), &req)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tc.want == nil {
				assert.Nil(t, req.DueDate.Time)
				return
			}
			require.NotNil(t, req.DueDate.Time)
			assert.True(t, tc.want.Equal(*req.DueDate.Time))
		})
	}
}

func TestUserResponseIsSanitized(t *testing.T) {
	user := &domain.User{
		ID:           "u-1",
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: "$2a$10$hash",
		IsActive:     true,
		IsConfirmed:  true,
		UpdatedAt:    time.Now(),
	}

	raw, err := json.Marshal(NewUserResponse(user))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, hidden := range []string{"password", "passwordHash", "PasswordHash", "isActive", "isConfirmed", "updatedAt"} {
		assert.NotContains(t, fields, hidden)
	}
	assert.Equal(t, []any{}, fields["permissions"])
	assert.NotContains(t, fields, "avatar")
}

func TestTicketResponseProjections(t *testing.T) {
	ticket := &domain.Ticket{
		ID:        "t-1",
		Status:    domain.TicketStatusPending,
		CreatedBy: &domain.UserSummary{ID: "u-1", Email: "ana@example.com", Avatar: domain.Avatar{URL: "https://cdn/x.png", PublicID: "x.png"}},
	}

	raw, err := json.Marshal(NewTicketResponse(ticket))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "t-1", "title": "", "shortDescription": "", "description": "", "category": "",
		"status": "pending", "dueDate": null, "assignedTo": null,
		"createdBy": {"id": "u-1", "name": "", "lastName": "", "email": "ana@example.com", "permissions": [],
			"avatar": {"url": "https://cdn/x.png", "publicId": "x.png"}, "createdAt": "0001-01-01T00:00:00Z"},
		"createdAt": "0001-01-01T00:00:00Z", "updatedAt": "0001-01-01T00:00:00Z"
	}`, string(raw))
}

func ptr(t time.Time) *time.Time { return &t }
