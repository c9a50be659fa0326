package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/whenworks/calendar-api/internal/api/types"
	"github.com/whenworks/calendar-api/internal/services"
)

type SharingHandler struct {
	sharing  services.SharingService
	users    services.UserService
	validate interface{ Struct(any) error }
}

func NewSharingHandler(sharing services.SharingService, users services.UserService, v interface{ Struct(any) error }) *SharingHandler {
	return &SharingHandler{sharing: sharing, users: users, validate: v}
}

// ListSharedByMe lists the users the caller has shared their calendar with.
func (h *SharingHandler) ListSharedByMe(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	items, err := h.sharing.ListSharedByMe(r.Context(), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

func (h *SharingHandler) Share(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	targetID, err := pathID(r, "user_id")
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid user id")
		return
	}
	target, err := h.sharing.ShareWith(r.Context(), u, targetID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: target})
}

func (h *SharingHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	targetID, err := pathID(r, "user_id")
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.sharing.UnshareWith(r.Context(), u, targetID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSharedWithMe lists the users who have shared their calendars with the caller.
func (h *SharingHandler) ListSharedWithMe(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	items, err := h.sharing.ListSharedWithMe(r.Context(), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

func (h *SharingHandler) AcceptShare(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	ownerID, err := pathID(r, "user_id")
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid user id")
		return
	}
	me, err := h.sharing.AcceptIncomingShare(r.Context(), u, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: me})
}

func (h *SharingHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	ownerID, err := pathID(r, "user_id")
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.sharing.RevokeIncomingShare(r.Context(), u, ownerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SharingHandler) GetSharedCalendar(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	ownerID, err := pathID(r, "user_id")
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid user id")
		return
	}
	owner, err := h.sharing.GetSharedCalendar(r.Context(), u, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: owner})
}

func (h *SharingHandler) ListSharedEvents(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	ownerID, err := pathID(r, "user_id")
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid user id")
		return
	}
	items, err := h.sharing.ListSharedEvents(r.Context(), u, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

// CreateSharedEvent copies an event from a shared calendar into the caller's own.
func (h *SharingHandler) CreateSharedEvent(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	ownerID, err := pathID(r, "user_id")
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req types.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.sharing.CreateSharedEvent(r.Context(), u, ownerID, &services.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: e})
}

func (h *SharingHandler) DeleteSharedEvent(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	ownerID, err := pathID(r, "user_id")
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid user id")
		return
	}
	eventID, err := pathID(r, "event_id")
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid event id")
		return
	}
	if err := h.sharing.DeleteSharedEvent(r.Context(), u, ownerID, eventID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
