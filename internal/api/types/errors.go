package types

import (
	"errors"
	"net/http"

	appErr "github.com/whenworks/calendar-api/pkg/errors"
)

func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	code := string(appErr.CodeUnknown)
	if e, ok := err.(*appErr.AppError); ok {
		code = string(e.Code)
		return &APIError{Code: code, Message: e.Message}
	}
	return &APIError{Code: code, Message: err.Error()}
}

// HTTPStatus maps an error's code to the wire status. Uniqueness conflicts
// are reported as 400, matching the API's long-standing contract.
func HTTPStatus(err error) int {
	var e *appErr.AppError
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case appErr.CodeInvalid, appErr.CodeConflict:
		return http.StatusBadRequest
	case appErr.CodeUnauthorized:
		return http.StatusUnauthorized
	case appErr.CodeForbidden:
		return http.StatusForbidden
	case appErr.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
