package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/lessonlines/lessonlines/pkg/ports"
)

type TimelineHandler struct {
	service ports.TimelineService
	logger  *slog.Logger
}

func NewTimelineHandler(service ports.TimelineService, logger *slog.Logger) *TimelineHandler {
	return &TimelineHandler{service: service, logger: logger}
}

type reorderRequest struct {
	Positions []uuid.UUID `json:"positions"`
}

func (h *TimelineHandler) CreateTimeline(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.TimelineSettings
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	timeline, err := h.service.CreateTimeline(r.Context(), me.UserID, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, timeline)
}

func (h *TimelineHandler) ListTimelines(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	timelines, err := h.service.ListTimelines(r.Context(), me.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, timelines)
}

func (h *TimelineHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	timeline, err := h.service.GetTimeline(r.Context(), me.UserID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline)
}

func (h *TimelineHandler) UpdateTimeline(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req domain.TimelineUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	timeline, err := h.service.UpdateTimeline(r.Context(), me.UserID, id, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline)
}

func (h *TimelineHandler) DeleteTimeline(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteTimeline(r.Context(), me.UserID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddEntry inserts an entry in date order
func (h *TimelineHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req domain.NewEntry
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	timeline, err := h.service.AddEntry(r.Context(), me.UserID, id, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, timeline)
}

// RemoveEntry deletes the entry at {position}
func (h *TimelineHandler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	pos, err := pathInt(r, "position")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	timeline, err := h.service.RemoveEntry(r.Context(), me.UserID, id, pos)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline)
}

func (h *TimelineHandler) ReorderEntries(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	timeline, err := h.service.ReorderEntries(r.Context(), me.UserID, id, req.Positions)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline)
}
