package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/lessonlines/lessonlines/pkg/core/position"
	"github.com/lessonlines/lessonlines/pkg/logging"
	"github.com/lessonlines/lessonlines/pkg/metrics"
	"github.com/lessonlines/lessonlines/pkg/ports"
)

// TimelineOptions tunes the position engine
type TimelineOptions struct {
	ReorderPolicy position.Policy
	Locking       bool // Serialize writes per timeline within this process
	Metrics       *metrics.Recorder
	Logger        *slog.Logger
}

type TimelineService struct {
	repo    ports.TimelineRepository
	events  ports.EventLookup
	policy  position.Policy
	locks   *timelineLocks
	metrics *metrics.Recorder
	logger  *slog.Logger
}

func NewTimelineService(repo ports.TimelineRepository, events ports.EventLookup, opts TimelineOptions) *TimelineService {
	s := &TimelineService{
		repo:    repo,
		events:  events,
		policy:  opts.ReorderPolicy,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if opts.Locking {
		s.locks = newTimelineLocks()
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	return s
}

func (s *TimelineService) CreateTimeline(ctx context.Context, userID uuid.UUID, settings domain.TimelineSettings) (*domain.Timeline, error) {
	title := strings.TrimSpace(settings.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	timeline := &domain.Timeline{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Subtitle:    settings.Subtitle,
		ColorScheme: orDefault(settings.ColorScheme, domain.DefaultColorScheme),
		Layout:      orDefault(settings.Layout, domain.DefaultLayout),
		Font:        orDefault(settings.Font, domain.DefaultFont),
		CreatedAt:   now,
		UpdatedAt:   now,
		Entries:     []domain.TimelineEntry{},
	}
	if err := s.repo.CreateTimeline(ctx, timeline); err != nil {
		return nil, err
	}
	return timeline, nil
}

func (s *TimelineService) GetTimeline(ctx context.Context, userID, timelineID uuid.UUID) (*domain.Timeline, error) {
	timeline, err := owned(ctx, s.repo, userID, timelineID)
	if err != nil {
		return nil, err
	}
	return withEntries(ctx, s.repo, timeline)
}

func (s *TimelineService) ListTimelines(ctx context.Context, userID uuid.UUID) ([]domain.Timeline, error) {
	timelines, err := s.repo.ListTimelines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if timelines == nil {
		timelines = []domain.Timeline{}
	}
	return timelines, nil
}

func (s *TimelineService) UpdateTimeline(ctx context.Context, userID, timelineID uuid.UUID, update domain.TimelineUpdate) (*domain.Timeline, error) {
	var out *domain.Timeline
	err := s.repo.WithTx(ctx, func(tx ports.TimelineStore) error {
		timeline, err := owned(ctx, tx, userID, timelineID)
		if err != nil {
			return err
		}

		if update.Title != nil {
			title := strings.TrimSpace(*update.Title)
			if title == "" {
				return fmt.Errorf("%w: title cannot be empty", domain.ErrInvalidInput)
			}
			timeline.Title = title
		}
		if update.Subtitle != nil {
			timeline.Subtitle = update.Subtitle
		}
		if update.ColorScheme != nil {
			timeline.ColorScheme = *update.ColorScheme
		}
		if update.Layout != nil {
			timeline.Layout = *update.Layout
		}
		if update.Font != nil {
			timeline.Font = *update.Font
		}
		if update.IsPublic != nil {
			timeline.IsPublic = *update.IsPublic
		}
		timeline.UpdatedAt = time.Now().UTC()

		if err := tx.UpdateTimeline(ctx, timeline); err != nil {
			return err
		}
		out, err = withEntries(ctx, tx, timeline)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TimelineService) DeleteTimeline(ctx context.Context, userID, timelineID uuid.UUID) error {
	return s.repo.WithTx(ctx, func(tx ports.TimelineStore) error {
		if _, err := owned(ctx, tx, userID, timelineID); err != nil {
			return err
		}
		return tx.DeleteTimeline(ctx, timelineID)
	})
}

// AddEntry inserts an entry at the position its effective date implies and
// shifts later entries up by one.
func (s *TimelineService) AddEntry(ctx context.Context, userID, timelineID uuid.UUID, entry domain.NewEntry) (tl *domain.Timeline, err error) {
	defer s.observe(ctx, "insert", timelineID, time.Now(), &tl, &err)

	if entry.EventID == nil && (entry.CustomTitle == nil || strings.TrimSpace(*entry.CustomTitle) == "") {
		return nil, fmt.Errorf("%w: an entry needs an event_id or a custom_title", domain.ErrInvalidInput)
	}

	// Resolved before the transaction: the lookup may share the store's
	// only connection.
	date := entry.CustomDateStart
	if entry.EventID != nil {
		event, err := s.events.GetEvent(ctx, *entry.EventID)
		if err != nil {
			return nil, fmt.Errorf("look up event %s: %w", *entry.EventID, err)
		}
		if event == nil {
			return nil, fmt.Errorf("event %s: %w", *entry.EventID, domain.ErrNotFound)
		}
		if date == nil {
			d := event.DateStart
			date = &d
		}
	}

	defer s.locks.lock(timelineID)()

	err = s.repo.WithTx(ctx, func(tx ports.TimelineStore) error {
		timeline, err := owned(ctx, tx, userID, timelineID)
		if err != nil {
			return err
		}
		entries, err := tx.ListEntries(ctx, timelineID)
		if err != nil {
			return err
		}

		slots := position.FromEntries(entries)
		index := position.InsertionIndex(slots, date)
		if err := position.Apply(ctx, tx, position.PlanInsert(slots, index)); err != nil {
			return err
		}

		created := &domain.TimelineEntry{
			ID:                uuid.New(),
			TimelineID:        timelineID,
			EventID:           entry.EventID,
			Position:          index,
			CustomTitle:       entry.CustomTitle,
			CustomDescription: entry.CustomDescription,
			CustomDateDisplay: entry.CustomDateDisplay,
			CustomDateStart:   entry.CustomDateStart,
			CreatedAt:         time.Now().UTC(),
		}
		if err := tx.CreateEntry(ctx, created); err != nil {
			return fmt.Errorf("create entry at %d: %w", index, err)
		}

		tl, err = touched(ctx, tx, timeline)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tl, nil
}

// RemoveEntry deletes the entry at pos and closes the gap it leaves
func (s *TimelineService) RemoveEntry(ctx context.Context, userID, timelineID uuid.UUID, pos int) (tl *domain.Timeline, err error) {
	defer s.observe(ctx, "remove", timelineID, time.Now(), &tl, &err)
	defer s.locks.lock(timelineID)()

	err = s.repo.WithTx(ctx, func(tx ports.TimelineStore) error {
		timeline, err := owned(ctx, tx, userID, timelineID)
		if err != nil {
			return err
		}
		target, err := tx.GetEntryAt(ctx, timelineID, pos)
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("no entry at position %d: %w", pos, domain.ErrNotFound)
		}
		if err := tx.DeleteEntry(ctx, target.ID); err != nil {
			return err
		}

		rest, err := tx.ListEntries(ctx, timelineID)
		if err != nil {
			return err
		}
		if err := position.Apply(ctx, tx, position.PlanRemove(position.FromEntries(rest), pos)); err != nil {
			return err
		}

		tl, err = touched(ctx, tx, timeline)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tl, nil
}

// ReorderEntries places order[i] at position i
func (s *TimelineService) ReorderEntries(ctx context.Context, userID, timelineID uuid.UUID, order []uuid.UUID) (tl *domain.Timeline, err error) {
	defer s.observe(ctx, "reorder", timelineID, time.Now(), &tl, &err)
	defer s.locks.lock(timelineID)()

	err = s.repo.WithTx(ctx, func(tx ports.TimelineStore) error {
		timeline, err := owned(ctx, tx, userID, timelineID)
		if err != nil {
			return err
		}
		entries, err := tx.ListEntries(ctx, timelineID)
		if err != nil {
			return err
		}

		plan, err := position.PlanReorder(position.FromEntries(entries), order, s.policy)
		if err != nil {
			return err
		}
		if err := position.Apply(ctx, tx, plan); err != nil {
			return err
		}

		tl, err = touched(ctx, tx, timeline)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !position.Contiguous(position.Positions(tl.Entries)) {
		s.logger.WarnContext(ctx, "reorder left gaps in timeline",
			"timeline_id", timelineID, "positions", position.Positions(tl.Entries))
	}
	return tl, nil
}

func (s *TimelineService) observe(ctx context.Context, op string, timelineID uuid.UUID, start time.Time, tl **domain.Timeline, err *error) {
	s.metrics.Observe(op, start, *err)

	switch {
	case *err == nil:
		s.logger.DebugContext(ctx, "timeline entries updated",
			"op", op, "timeline_id", timelineID, "entries", len((*tl).Entries))
	case errors.Is(*err, domain.ErrConstraintViolation):
		s.logger.ErrorContext(ctx, "position write hit the uniqueness constraint",
			"op", op, "timeline_id", timelineID, "error", *err)
	case errors.Is(*err, domain.ErrNotFound), errors.Is(*err, domain.ErrInvalidInput),
		errors.Is(*err, domain.ErrInvalidPermutation):
		s.logger.DebugContext(ctx, "timeline operation rejected",
			"op", op, "timeline_id", timelineID, "error", *err)
	default:
		s.logger.ErrorContext(ctx, "timeline operation failed",
			"op", op, "timeline_id", timelineID, "error", *err)
	}
}

// owned loads the timeline and hides it from everyone but its owner
func owned(ctx context.Context, store ports.TimelineStore, userID, timelineID uuid.UUID) (*domain.Timeline, error) {
	timeline, err := store.GetTimeline(ctx, timelineID)
	if err != nil {
		return nil, err
	}
	if timeline == nil || timeline.UserID != userID {
		return nil, fmt.Errorf("timeline %s: %w", timelineID, domain.ErrNotFound)
	}
	return timeline, nil
}

func withEntries(ctx context.Context, store ports.TimelineStore, timeline *domain.Timeline) (*domain.Timeline, error) {
	entries, err := store.ListEntries(ctx, timeline.ID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.TimelineEntry{}
	}
	timeline.Entries = entries
	return timeline, nil
}

// touched bumps updated_at after an entry change and reloads the entries
func touched(ctx context.Context, store ports.TimelineStore, timeline *domain.Timeline) (*domain.Timeline, error) {
	timeline.UpdatedAt = time.Now().UTC()
	if err := store.UpdateTimeline(ctx, timeline); err != nil {
		return nil, err
	}
	return withEntries(ctx, store, timeline)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
