package models

import "time"

// UserRole represents the available roles. The service knows a single
// implicit admin role next to regular commission owners.
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// User represents an account profile stored in the profiles table.
type User struct {
	ID                  string    `db:"id" json:"id"`
	Email               string    `db:"email" json:"email"`
	PasswordHash        string    `db:"password_hash" json:"-"`
	DisplayName         string    `db:"display_name" json:"display_name"`
	Avatar              *string   `db:"avatar" json:"avatar,omitempty"`
	Bio                 *string   `db:"bio" json:"bio,omitempty"`
	Role                UserRole  `db:"role" json:"role"`
	OnboardingCompleted bool      `db:"onboarding_completed" json:"onboarding_completed"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
