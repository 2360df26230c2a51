// Package errors provides the application error type shared by services and handlers.
// Services return *AppError values so handlers can respond with a stable code and a
// human-readable message without leaking internal details.
package errors

import (
	"errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Is reports whether err carries the same code as sentinel.
// Copies made by Wrap and WithMessage still match their sentinel.
func Is(err error, sentinel *AppError) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == sentinel.Code
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrNotAllowed         = &AppError{Code: "NOT_ALLOWED", Message: "You are not allowed. Your account is being tracked for suspicious activity !", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrMaintenance    = &AppError{Code: "MAINTENANCE_WINDOW", Message: "Regular maintenance break ! Please try again 1 minute later.", StatusCode: http.StatusServiceUnavailable}
	ErrDuplicateTitle = &AppError{Code: "DUPLICATE_TITLE", Message: "Title is already exists ! Please try another one.", StatusCode: http.StatusConflict}
	ErrDateOutOfMonth = &AppError{Code: "DATE_OUT_OF_MONTH", Message: "Shopping date must be within this month and year!", StatusCode: http.StatusBadRequest}
)

// User errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "A user with this username or email already exists", StatusCode: http.StatusConflict}
)

// Room and membership errors.
var (
	ErrRoomNotFound       = &AppError{Code: "ROOM_NOT_FOUND", Message: "Room not found", StatusCode: http.StatusNotFound}
	ErrMembershipNotFound = &AppError{Code: "MEMBERSHIP_NOT_FOUND", Message: "You are not a member of any room", StatusCode: http.StatusNotFound}
	ErrMemberNotFound     = &AppError{Code: "MEMBER_NOT_FOUND", Message: "Member not found", StatusCode: http.StatusNotFound}
	ErrAlreadyMember      = &AppError{Code: "ALREADY_MEMBER", Message: "You already belong to a room", StatusCode: http.StatusConflict}
	ErrMaintainerLimit    = &AppError{Code: "MAINTAINER_LIMIT", Message: "Your room has already 6 maintainers. You cannot assign more !", StatusCode: http.StatusConflict}
)

// Meal errors.
var (
	ErrMealNotFound       = &AppError{Code: "MEAL_NOT_FOUND", Message: "Meal entry not found", StatusCode: http.StatusNotFound}
	ErrMealEntryExists    = &AppError{Code: "MEAL_ENTRY_EXISTS", Message: "You already have a meal entry for today. Please update it !", StatusCode: http.StatusConflict}
	ErrNoMealEntryToday   = &AppError{Code: "MEAL_NOT_FOUND", Message: "You don't have any meal entry for today to update! Please Entry first.", StatusCode: http.StatusNotFound}
	ErrMealRequestMissing = &AppError{Code: "REQUEST_NOT_FOUND", Message: "Meal update request not found", StatusCode: http.StatusNotFound}
)

// Ledger field and item errors.
var (
	ErrFieldNotFound    = &AppError{Code: "FIELD_NOT_FOUND", Message: "Field not found", StatusCode: http.StatusNotFound}
	ErrShoppingNotFound = &AppError{Code: "SHOPPING_NOT_FOUND", Message: "Shopping item not found", StatusCode: http.StatusNotFound}
)
