package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/lessonlines/lessonlines/pkg/core/position"
)

// TimelineStore defines storage operations for timelines and their entries.
// Get* methods return nil, nil when the row does not exist.
type TimelineStore interface {
	position.Writer

	CreateTimeline(ctx context.Context, timeline *domain.Timeline) error
	GetTimeline(ctx context.Context, id uuid.UUID) (*domain.Timeline, error) // Entries not loaded
	ListTimelines(ctx context.Context, userID uuid.UUID) ([]domain.Timeline, error)
	UpdateTimeline(ctx context.Context, timeline *domain.Timeline) error
	DeleteTimeline(ctx context.Context, id uuid.UUID) error // Cascades to entries

	// Entries
	ListEntries(ctx context.Context, timelineID uuid.UUID) ([]domain.TimelineEntry, error) // Position order
	GetEntryAt(ctx context.Context, timelineID uuid.UUID, position int) (*domain.TimelineEntry, error)
	CreateEntry(ctx context.Context, entry *domain.TimelineEntry) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}

// TimelineRepository is a TimelineStore that can scope writes in a transaction.
// If fn returns an error nothing it wrote is kept.
type TimelineRepository interface {
	TimelineStore
	WithTx(ctx context.Context, fn func(tx TimelineStore) error) error
}

// EventLookup resolves catalog events for the position engine
type EventLookup interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
}

// CatalogStore defines storage operations for the curated catalog
type CatalogStore interface {
	EventLookup
	ListTopics(ctx context.Context) ([]domain.Topic, error)
	GetTopicBySlug(ctx context.Context, slug string) (*domain.Topic, error)
	UpsertTopic(ctx context.Context, topic *domain.Topic) error
	ListTags(ctx context.Context, category string) ([]domain.Tag, error)
	UpsertTag(ctx context.Context, tag *domain.Tag) error
	CreateEvent(ctx context.Context, event *domain.Event) error
	// FindEvent looks an event up by its natural key
	FindEvent(ctx context.Context, topicID uuid.UUID, title string, dateStart domain.Date) (*domain.Event, error)
	SearchEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)

	// Standards
	ListFrameworks(ctx context.Context) ([]domain.Framework, error)
	UpsertFramework(ctx context.Context, framework *domain.Framework) error
	SearchStandards(ctx context.Context, filter domain.StandardFilter) ([]domain.Standard, error)
	GetStandard(ctx context.Context, id uuid.UUID) (*domain.Standard, error)
	GetStandardByCode(ctx context.Context, frameworkCode, code string) (*domain.Standard, error)
	UpsertStandard(ctx context.Context, standard *domain.Standard) error
}

// CatalogRepository is a CatalogStore that can scope writes in a transaction
type CatalogRepository interface {
	CatalogStore
	WithCatalogTx(ctx context.Context, fn func(tx CatalogStore) error) error
}

// CandidateRepository defines storage operations for harvested candidates
type CandidateRepository interface {
	// CreateCandidates stores all or nothing and adds each candidate to its
	// harvest batch's event_count.
	CreateCandidates(ctx context.Context, candidates []*domain.CandidateEvent) error
	GetCandidate(ctx context.Context, id uuid.UUID) (*domain.CandidateEvent, error)
	ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.CandidateEvent, error)
	UpdateCandidate(ctx context.Context, candidate *domain.CandidateEvent) error

	// Harvest batches
	CreateHarvestBatch(ctx context.Context, batch *domain.HarvestBatch) error
	GetHarvestBatch(ctx context.Context, id uuid.UUID) (*domain.HarvestBatch, error)
	ListHarvestBatches(ctx context.Context, filter domain.HarvestBatchFilter) ([]domain.HarvestBatch, error)
	UpdateHarvestBatch(ctx context.Context, batch *domain.HarvestBatch) error
}

// TimelineService defines the timeline operations available to the owning user
type TimelineService interface {
	CreateTimeline(ctx context.Context, userID uuid.UUID, settings domain.TimelineSettings) (*domain.Timeline, error)
	GetTimeline(ctx context.Context, userID, timelineID uuid.UUID) (*domain.Timeline, error)
	ListTimelines(ctx context.Context, userID uuid.UUID) ([]domain.Timeline, error)
	UpdateTimeline(ctx context.Context, userID, timelineID uuid.UUID, update domain.TimelineUpdate) (*domain.Timeline, error)
	DeleteTimeline(ctx context.Context, userID, timelineID uuid.UUID) error

	// Position engine
	AddEntry(ctx context.Context, userID, timelineID uuid.UUID, entry domain.NewEntry) (*domain.Timeline, error)
	RemoveEntry(ctx context.Context, userID, timelineID uuid.UUID, position int) (*domain.Timeline, error)
	ReorderEntries(ctx context.Context, userID, timelineID uuid.UUID, order []uuid.UUID) (*domain.Timeline, error)
}

// CatalogService defines read access to the catalog
type CatalogService interface {
	ListTopics(ctx context.Context) ([]domain.Topic, error)
	ListTags(ctx context.Context, category string) ([]domain.Tag, error)
	SearchEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	ListFrameworks(ctx context.Context) ([]domain.Framework, error)
	SearchStandards(ctx context.Context, filter domain.StandardFilter) ([]domain.Standard, error)
	GetStandard(ctx context.Context, id uuid.UUID) (*domain.Standard, error)
}

// CandidateService defines the admin review workflow
type CandidateService interface {
	// CreateCandidates files candidates without a batch under batchID when it is set
	CreateCandidates(ctx context.Context, batchID *uuid.UUID, candidates []domain.CandidateEvent) ([]domain.CandidateEvent, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*domain.CandidateDetail, error)
	ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.CandidateEvent, error)
	ReviewCandidate(ctx context.Context, reviewerID, id uuid.UUID, review domain.CandidateReview) (*domain.CandidateEvent, error)

	CreateHarvestBatch(ctx context.Context, batch domain.HarvestBatch) (*domain.HarvestBatch, error)
	ListHarvestBatches(ctx context.Context, filter domain.HarvestBatchFilter) ([]domain.HarvestBatch, error)
	UpdateHarvestBatch(ctx context.Context, id uuid.UUID, update domain.HarvestBatchUpdate) (*domain.HarvestBatch, error)
}
