package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/lessonlines/lessonlines/pkg/ports"
)

const (
	defaultCandidateLimit = 50
	maxCandidateLimit     = 100
)

type CandidateService struct {
	repo   ports.CandidateRepository
	events ports.EventLookup
}

// NewCandidateService builds the review workflow. events resolves the
// catalog event a candidate proposes to change.
func NewCandidateService(repo ports.CandidateRepository, events ports.EventLookup) *CandidateService {
	return &CandidateService{repo: repo, events: events}
}

// CreateCandidates stores the whole batch or nothing. Candidates that do not
// name a harvest batch are filed under batchID when it is set.
func (s *CandidateService) CreateCandidates(ctx context.Context, batchID *uuid.UUID, candidates []domain.CandidateEvent) ([]domain.CandidateEvent, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates given", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	batch := make([]*domain.CandidateEvent, len(candidates))
	for i := range candidates {
		c := candidates[i]
		if strings.TrimSpace(c.Title) == "" {
			return nil, fmt.Errorf("%w: candidate %d needs a title", domain.ErrInvalidInput, i)
		}
		if c.DateStart.IsZero() {
			return nil, fmt.Errorf("%w: candidate %d needs a date_start", domain.ErrInvalidInput, i)
		}
		if c.SourceName == "" {
			return nil, fmt.Errorf("%w: candidate %d needs a source_name", domain.ErrInvalidInput, i)
		}
		if c.ConfidenceScore != nil && (*c.ConfidenceScore < 0 || *c.ConfidenceScore > 1) {
			return nil, fmt.Errorf("%w: candidate %d confidence_score must be within 0 and 1", domain.ErrInvalidInput, i)
		}
		if c.HarvestBatchID == nil && batchID != nil {
			id := *batchID
			c.HarvestBatchID = &id
		}
		c.ID = uuid.New()
		c.Status = domain.CandidatePending
		c.DatePrecision = orDefault(c.DatePrecision, "day")
		c.ReviewNotes, c.ReviewedAt, c.ReviewedBy = nil, nil, nil
		c.CreatedAt = now
		batch[i] = &c
	}

	if batchID != nil {
		if _, err := s.harvestBatch(ctx, *batchID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.CreateCandidates(ctx, batch); err != nil {
		return nil, err
	}

	out := make([]domain.CandidateEvent, len(batch))
	for i, c := range batch {
		out[i] = *c
	}
	return out, nil
}

// GetCandidate returns the candidate with the catalog event it would change,
// if any.
func (s *CandidateService) GetCandidate(ctx context.Context, id uuid.UUID) (*domain.CandidateDetail, error) {
	c, err := s.candidate(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &domain.CandidateDetail{CandidateEvent: *c}
	if c.ExistingEventID != nil && s.events != nil {
		event, err := s.events.GetEvent(ctx, *c.ExistingEventID)
		if err != nil {
			return nil, fmt.Errorf("existing event %s: %w", *c.ExistingEventID, err)
		}
		detail.ExistingEvent = event
	}
	return detail, nil
}

func (s *CandidateService) candidate(ctx context.Context, id uuid.UUID) (*domain.CandidateEvent, error) {
	c, err := s.repo.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("candidate %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (s *CandidateService) ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.CandidateEvent, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	filter.Limit, filter.Offset = page(filter.Limit, filter.Offset)

	candidates, err := s.repo.ListCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []domain.CandidateEvent{}
	}
	return candidates, nil
}

// ReviewCandidate records an admin decision and who made it
func (s *CandidateService) ReviewCandidate(ctx context.Context, reviewerID, id uuid.UUID, review domain.CandidateReview) (*domain.CandidateEvent, error) {
	if !review.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, review.Status)
	}

	c, err := s.candidate(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c.Status = review.Status
	if review.ReviewNotes != nil {
		c.ReviewNotes = review.ReviewNotes
	}
	c.ReviewedAt = &now
	c.ReviewedBy = &reviewerID

	if err := s.repo.UpdateCandidate(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateHarvestBatch opens a running batch with no candidates yet
func (s *CandidateService) CreateHarvestBatch(ctx context.Context, batch domain.HarvestBatch) (*domain.HarvestBatch, error) {
	if batch.TopicID == uuid.Nil {
		return nil, fmt.Errorf("%w: topic_id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(batch.SourceName) == "" {
		return nil, fmt.Errorf("%w: source_name is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(batch.Strategy) == "" {
		return nil, fmt.Errorf("%w: strategy is required", domain.ErrInvalidInput)
	}

	batch.ID = uuid.New()
	batch.Status = domain.HarvestRunning
	batch.EventCount = 0
	batch.StartedAt = time.Now().UTC()
	batch.CompletedAt = nil

	if err := s.repo.CreateHarvestBatch(ctx, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

func (s *CandidateService) ListHarvestBatches(ctx context.Context, filter domain.HarvestBatchFilter) ([]domain.HarvestBatch, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	filter.Limit, filter.Offset = page(filter.Limit, filter.Offset)

	batches, err := s.repo.ListHarvestBatches(ctx, filter)
	if err != nil {
		return nil, err
	}
	if batches == nil {
		batches = []domain.HarvestBatch{}
	}
	return batches, nil
}

// UpdateHarvestBatch applies a partial update. Moving to completed or failed
// stamps completed_at.
func (s *CandidateService) UpdateHarvestBatch(ctx context.Context, id uuid.UUID, update domain.HarvestBatchUpdate) (*domain.HarvestBatch, error) {
	batch, err := s.harvestBatch(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, *update.Status)
		}
		batch.Status = *update.Status
		if batch.Status.Finished() {
			now := time.Now().UTC()
			batch.CompletedAt = &now
		}
	}
	if update.EventCount != nil {
		if *update.EventCount < 0 {
			return nil, fmt.Errorf("%w: event_count must not be negative", domain.ErrInvalidInput)
		}
		batch.EventCount = *update.EventCount
	}
	if update.Metadata != nil {
		batch.Metadata = update.Metadata
	}

	if err := s.repo.UpdateHarvestBatch(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *CandidateService) harvestBatch(ctx context.Context, id uuid.UUID) (*domain.HarvestBatch, error) {
	batch, err := s.repo.GetHarvestBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("harvest batch %s: %w", id, domain.ErrNotFound)
	}
	return batch, nil
}

// page applies the default and maximum page size
func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultCandidateLimit
	}
	if limit > maxCandidateLimit {
		limit = maxCandidateLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
