package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/whenworks/calendar-api/internal/api/middleware"
	"github.com/whenworks/calendar-api/internal/api/types"
	"github.com/whenworks/calendar-api/internal/models"
	"github.com/whenworks/calendar-api/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := types.HTTPStatus(err)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, types.APIResponse{Success: false, Error: types.FromAppError(err)})
}

func writeErrorStr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.APIResponse{Success: false, Error: &types.APIError{Code: "invalid", Message: msg}})
}

// currentUser resolves the token subject stashed by the auth middleware to a
// user row. A subject whose account no longer exists gets the same 401 as a
// bad token.
func currentUser(r *http.Request, users services.UserService) (*models.User, bool) {
	username := middleware.GetUsername(r.Context())
	if username == "" {
		return nil, false
	}
	u, err := users.GetByUsername(r.Context(), username)
	if err != nil {
		return nil, false
	}
	return u, true
}

func writeChallenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, types.APIResponse{
		Success: false,
		Error:   &types.APIError{Code: "unauthorized", Message: "Could not validate credentials"},
	})
}

func pathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
