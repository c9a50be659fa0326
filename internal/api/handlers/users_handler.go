package handlers

import (
	"net/http"
	"strconv"

	"github.com/whenworks/calendar-api/internal/api/types"
	"github.com/whenworks/calendar-api/internal/services"
)

type UsersHandler struct {
	users services.UserService
}

func NewUsersHandler(users services.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// List returns the directory so users can find someone to share with.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	start := (page - 1) * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    items[start:end],
		Meta:    &types.Meta{Page: page, PageSize: size, Total: int64(len(items))},
	})
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid user id")
		return
	}
	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: u})
}
