package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/lessonlines/lessonlines/pkg/ports"
)

type CatalogHandler struct {
	service ports.CatalogService
	logger  *slog.Logger
}

func NewCatalogHandler(service ports.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: service, logger: logger}
}

func (h *CatalogHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.ListTopics(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *CatalogHandler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		TopicSlug: q.Get("topic"),
		Query:     q.Get("q"),
		Tag:       q.Get("tag"),
		Grade:     q.Get("grade"),
	}
	if v := q.Get("standard"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, r, h.logger, fmt.Errorf("%w: standard must be a UUID", domain.ErrInvalidInput))
			return
		}
		filter.StandardID = &id
	}

	events, err := h.service.SearchEvents(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *CatalogHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	event, err := h.service.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *CatalogHandler) ListFrameworks(w http.ResponseWriter, r *http.Request) {
	frameworks, err := h.service.ListFrameworks(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, frameworks)
}

func (h *CatalogHandler) SearchStandards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	standards, err := h.service.SearchStandards(r.Context(), domain.StandardFilter{
		Framework: q.Get("framework"),
		Grade:     q.Get("grade"),
		Query:     q.Get("q"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, standards)
}

func (h *CatalogHandler) GetStandard(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	standard, err := h.service.GetStandard(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, standard)
}
