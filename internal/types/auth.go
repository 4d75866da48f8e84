package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// LoginRequest is the stub login request. Any non-empty username is accepted.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=128"`
}

// User is the demo dashboard user returned by the stub login.
type User struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role string    `json:"role"`
}

// LoginResponse represents the login response with user data and authentication token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
