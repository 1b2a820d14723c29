package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/lessonlines/lessonlines/pkg/ports"
)

type CandidateHandler struct {
	service ports.CandidateService
	logger  *slog.Logger
}

func NewCandidateHandler(service ports.CandidateService, logger *slog.Logger) *CandidateHandler {
	return &CandidateHandler{service: service, logger: logger}
}

type batchCandidatesRequest struct {
	BatchID    *uuid.UUID              `json:"batch_id"`
	Candidates []domain.CandidateEvent `json:"candidates"`
}

func (h *CandidateHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req domain.CandidateEvent
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	created, err := h.service.CreateCandidates(r.Context(), nil, []domain.CandidateEvent{req})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created[0])
}

func (h *CandidateHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchCandidatesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	created, err := h.service.CreateCandidates(r.Context(), req.BatchID, req.Candidates)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"created":    len(created),
		"candidates": created,
	})
}

// ListCandidates shows pending candidates unless ?status= says otherwise.
// An empty status lists all of them.
func (h *CandidateHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCandidateFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	candidates, err := h.service.ListCandidates(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (h *CandidateHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	candidate, err := h.service.GetCandidate(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

func (h *CandidateHandler) ReviewCandidate(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req domain.CandidateReview
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	candidate, err := h.service.ReviewCandidate(r.Context(), me.UserID, id, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

func parseCandidateFilter(r *http.Request) (domain.CandidateFilter, error) {
	q := r.URL.Query()
	filter := domain.CandidateFilter{
		Status:     domain.CandidatePending,
		SourceName: q.Get("source_name"),
		Query:      q.Get("q"),
	}
	if values, ok := q["status"]; ok {
		filter.Status = domain.CandidateStatus(values[0])
	}

	if v := q.Get("topic_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, fmt.Errorf("%w: topic_id must be a UUID", domain.ErrInvalidInput)
		}
		filter.TopicID = &id
	}
	if v := q.Get("harvest_batch_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, fmt.Errorf("%w: harvest_batch_id must be a UUID", domain.ErrInvalidInput)
		}
		filter.HarvestBatchID = &id
	}
	if v := q.Get("has_existing_event"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("%w: has_existing_event must be a boolean", domain.ErrInvalidInput)
		}
		filter.HasExistingEvent = &b
	}
	var err error
	filter.Limit, filter.Offset, err = parsePage(q)
	return filter, err
}

func parsePage(q url.Values) (limit, offset int, err error) {
	for name, dst := range map[string]*int{"limit": &limit, "offset": &offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return 0, 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
			}
			*dst = n
		}
	}
	return limit, offset, nil
}

func (h *CandidateHandler) ListHarvestBatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.HarvestBatchFilter{
		TopicSlug: q.Get("topic"),
		Status:    domain.HarvestStatus(q.Get("status")),
	}
	var err error
	if filter.Limit, filter.Offset, err = parsePage(q); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	batches, err := h.service.ListHarvestBatches(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

func (h *CandidateHandler) CreateHarvestBatch(w http.ResponseWriter, r *http.Request) {
	var req domain.HarvestBatch
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	batch, err := h.service.CreateHarvestBatch(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}

func (h *CandidateHandler) UpdateHarvestBatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req domain.HarvestBatchUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	batch, err := h.service.UpdateHarvestBatch(r.Context(), id, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}
