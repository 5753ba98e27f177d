package dto

import "github.com/jotter/jotter/internal/model"

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=50,utf8,nonul"`
	Email    string `json:"email" validate:"required,email,max=255,utf8,nonul"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,utf8,nonul"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries a new session.
type AuthResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
}

// UserResponse carries the current user.
type UserResponse struct {
	Success bool             `json:"success"`
	User    model.PublicUser `json:"user"`
}
