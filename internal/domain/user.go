package domain

import (
	"slices"
	"time"
)

// Capability is a permission tag granted to a user.
type Capability string

const (
	CapabilityDefault Capability = "default"
	CapabilitySupport Capability = "support"
)

// Avatar references an image held in external object storage.
type Avatar struct {
	URL      string
	PublicID string
}

// User is the identity record for everyone who signs in.
type User struct {
	ID           string
	Name         string
	LastName     string
	Email        string
	PasswordHash string
	Permissions  []Capability
	IsActive     bool
	IsConfirmed  bool
	Avatar       Avatar
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Can reports whether the user holds the capability.
func (u *User) Can(c Capability) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Permissions, c)
}

// FullName joins name and last name for display in notifications.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	if u.LastName == "" {
		return u.Name
	}
	return u.Name + " " + u.LastName
}

// Summary returns the sanitized projection embedded in other resources.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:          u.ID,
		Name:        u.Name,
		LastName:    u.LastName,
		Email:       u.Email,
		Permissions: slices.Clone(u.Permissions),
		Avatar:      u.Avatar,
		CreatedAt:   u.CreatedAt,
	}
}

// UserSummary is a user without credentials or internal bookkeeping.
type UserSummary struct {
	ID          string
	Name        string
	LastName    string
	Email       string
	Permissions []Capability
	Avatar      Avatar
	CreatedAt   time.Time
}

// FullName mirrors User.FullName for projections.
func (s *UserSummary) FullName() string {
	if s == nil {
		return ""
	}
	if s.LastName == "" {
		return s.Name
	}
	return s.Name + " " + s.LastName
}

// ConfirmationToken is a short-lived one-time code proving control of an email address.
type ConfirmationToken struct {
	Token     string
	UserID    string
	CreatedAt time.Time
}
