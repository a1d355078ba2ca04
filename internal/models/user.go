package models

import (
	"time"
)

// Role represents a user's role in the system
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered user
type User struct {
	ID              int        `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Username        *string    `json:"username,omitempty"`
	Role            Role       `json:"role"`
	DailyKcalTarget *float64   `json:"daily_kcal_target,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}

// RegisterRequest is the request body for user registration
type RegisterRequest struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	Username        *string  `json:"username,omitempty"`
	DailyKcalTarget *float64 `json:"daily_kcal_target,omitempty"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned after successful authentication
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// UpdateUserRequest is the request body for updating a user profile
type UpdateUserRequest struct {
	Username        *string  `json:"username,omitempty"`
	DailyKcalTarget *float64 `json:"daily_kcal_target,omitempty"`
}

// ChangePasswordRequest is the request body for changing a password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
