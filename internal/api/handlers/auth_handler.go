package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/whenworks/calendar-api/internal/api/types"
	"github.com/whenworks/calendar-api/internal/services"
)

type AuthHandler struct {
	auth     services.AuthService
	users    services.UserService
	tokenTTL time.Duration
	validate interface{ Struct(any) error }
}

func NewAuthHandler(auth services.AuthService, users services.UserService, tokenTTL time.Duration, v interface{ Struct(any) error }) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	return &AuthHandler{auth: auth, users: users, tokenTTL: tokenTTL, validate: v}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: u})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}

	token, _, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: types.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenTTL.Seconds()),
	}})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: u})
}

func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}

	var req types.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.users.UpdateSelf(r.Context(), u, &services.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: updated})
}

func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	if err := h.users.DeleteSelf(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
