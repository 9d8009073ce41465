package domain

import "time"

// User is an application identity. The engine never sees it directly.
type User struct {
	ID          string
	Username    string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
}

// Role is a named bundle of permissions.
type Role struct {
	Name        string
	Description string
	Permissions []Permission
}

// CreateUserRequest holds parameters for creating a user.
type CreateUserRequest struct {
	Username    string `validate:"required,max=128"`
	Email       string `validate:"omitempty,email"`
	DisplayName string `validate:"max=256"`
	IsAdmin     bool
}
