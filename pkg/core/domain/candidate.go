package domain

import (
	"time"

	"github.com/google/uuid"
)

type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "pending"
	CandidateApproved CandidateStatus = "approved"
	CandidateRejected CandidateStatus = "rejected"
)

func (s CandidateStatus) Valid() bool {
	switch s {
	case CandidatePending, CandidateApproved, CandidateRejected:
		return true
	}
	return false
}

// CandidateEvent is a harvested event awaiting admin review
type CandidateEvent struct {
	ID              uuid.UUID       `json:"id"`
	TopicID         uuid.UUID       `json:"topic_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	DateStart       Date            `json:"date_start"`
	DateEnd         *Date           `json:"date_end"`
	DateDisplay     string          `json:"date_display"`
	DatePrecision   string          `json:"date_precision"`
	Location        string          `json:"location"`
	SourceURL       string          `json:"source_url"`
	ImageURL        string          `json:"image_url"`
	ExistingEventID *uuid.UUID      `json:"existing_event_id"`
	Status          CandidateStatus `json:"status"`
	SourceName      string          `json:"source_name"`
	HarvestBatchID  *uuid.UUID      `json:"harvest_batch_id"`
	ConfidenceScore *float64        `json:"confidence_score"`
	ReviewNotes     *string         `json:"review_notes"`
	ReviewedAt      *time.Time      `json:"reviewed_at"`
	ReviewedBy      *uuid.UUID      `json:"reviewed_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CandidateDetail is a candidate plus the catalog event it proposes to change
type CandidateDetail struct {
	CandidateEvent
	ExistingEvent *Event `json:"existing_event"`
}

// CandidateFilter mirrors the admin list query. Status defaults to pending.
type CandidateFilter struct {
	Status           CandidateStatus
	TopicID          *uuid.UUID
	SourceName       string
	HarvestBatchID   *uuid.UUID
	HasExistingEvent *bool
	Query            string
	Limit            int
	Offset           int
}

// CandidateReview is an admin decision on a candidate
type CandidateReview struct {
	Status      CandidateStatus `json:"status"`
	ReviewNotes *string         `json:"review_notes"`
}

type HarvestStatus string

const (
	HarvestRunning   HarvestStatus = "running"
	HarvestCompleted HarvestStatus = "completed"
	HarvestFailed    HarvestStatus = "failed"
)

func (s HarvestStatus) Valid() bool {
	switch s {
	case HarvestRunning, HarvestCompleted, HarvestFailed:
		return true
	}
	return false
}

// Finished reports whether the batch has stopped producing candidates
func (s HarvestStatus) Finished() bool {
	return s == HarvestCompleted || s == HarvestFailed
}

// HarvestBatch groups the candidates produced by one harvesting run
type HarvestBatch struct {
	ID          uuid.UUID      `json:"id"`
	TopicID     uuid.UUID      `json:"topic_id"`
	SourceName  string         `json:"source_name"`
	SourceURL   string         `json:"source_url"`
	Strategy    string         `json:"strategy"`
	EventCount  int            `json:"event_count"`
	Status      HarvestStatus  `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	Metadata    map[string]any `json:"metadata_json"`
}

// HarvestBatchFilter narrows the batch list. Empty fields do not filter.
type HarvestBatchFilter struct {
	TopicSlug string
	Status    HarvestStatus
	Limit     int
	Offset    int
}

// HarvestBatchUpdate is a partial update. Nil fields are left unchanged.
type HarvestBatchUpdate struct {
	Status     *HarvestStatus `json:"status"`
	EventCount *int           `json:"event_count"`
	Metadata   map[string]any `json:"metadata_json"`
}
