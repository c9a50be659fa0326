package types

import "time"

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest fields are all optional; absent fields are untouched.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=100"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
}

type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,max=100"`
	Description string    `json:"description,omitempty" validate:"omitempty,max=500"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Location    string    `json:"location,omitempty" validate:"omitempty,max=200"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,max=200"`
}
