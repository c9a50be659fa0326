package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/whenworks/calendar-api/internal/api/types"
	"github.com/whenworks/calendar-api/internal/ical"
	"github.com/whenworks/calendar-api/internal/services"
)

type EventsHandler struct {
	events   services.EventService
	users    services.UserService
	validate interface{ Struct(any) error }
}

func NewEventsHandler(events services.EventService, users services.UserService, v interface{ Struct(any) error }) *EventsHandler {
	return &EventsHandler{events: events, users: users, validate: v}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	items, err := h.events.ListForOwner(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
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

	e, err := h.events.Create(r.Context(), u.ID, &services.CreateEventInput{
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

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req types.UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.events.Update(r.Context(), u.ID, id, &services.UpdateEventInput{
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
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: e})
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid event id")
		return
	}
	if err := h.events.Delete(r.Context(), u.ID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportICS renders the caller's calendar as an iCalendar document for feed
// subscriptions.
func (h *EventsHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r, h.users)
	if !ok {
		writeChallenge(w)
		return
	}
	items, err := h.events.ListForOwner(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	if err := ical.WriteCalendar(w, items); err != nil {
		writeErrorStr(w, http.StatusInternalServerError, "calendar export failed")
	}
}
