// Package service provides business logic for the application.
package service

import "errors"

// Service errors.
var (
	ErrRegistrationFieldsRequired = errors.New("username, email, and password are required")
	ErrPasswordTooShort           = errors.New("password must be at least 6 characters long")
	ErrLoginFieldsRequired        = errors.New("email and password are required")
	ErrUserExists                 = errors.New("username or email already exists")
	ErrInvalidCredentials         = errors.New("invalid email or password")
	ErrUserNotFound               = errors.New("user not found")

	ErrTitleContentRequired = errors.New("title and content are required")
	ErrNoFieldsToUpdate     = errors.New("no fields to update")
	ErrNoteNotFound         = errors.New("note not found")

	ErrSummaryUnavailable = errors.New("ai summarization is not available")
	ErrSummaryFailed      = errors.New("error generating summary")
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6
