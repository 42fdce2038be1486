package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ConfirmAccountRequest carries the emailed code.
type ConfirmAccountRequest struct {
	Token string `json:"token"`
}

// UpdateUserRequest payload. Blank fields are ignored.
type UpdateUserRequest struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
}

// AvatarResponse references the stored image.
type AvatarResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// UserResponse is the sanitized user. It never carries credentials or account flags.
type UserResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	LastName    string              `json:"lastName"`
	Email       string              `json:"email"`
	Permissions []domain.Capability `json:"permissions"`
	Avatar      *AvatarResponse     `json:"avatar,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// AuthResponse standard response for login.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// NewUserResponse sanitizes a user.
func NewUserResponse(user *domain.User) UserResponse {
	return NewUserSummaryResponse(user.Summary())
}

// NewUserSummaryResponse renders a projection.
func NewUserSummaryResponse(summary *domain.UserSummary) UserResponse {
	resp := UserResponse{
		ID:          summary.ID,
		Name:        summary.Name,
		LastName:    summary.LastName,
		Email:       summary.Email,
		Permissions: summary.Permissions,
		CreatedAt:   summary.CreatedAt,
	}
	if resp.Permissions == nil {
		resp.Permissions = []domain.Capability{}
	}
	if summary.Avatar.URL != "" {
		resp.Avatar = &AvatarResponse{URL: summary.Avatar.URL, PublicID: summary.Avatar.PublicID}
	}
	return resp
}

// NewUserResponses sanitizes a list of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
