// Package memory is an in-process TimelineRepository. Each timeline's
// entries live in an arena indexed by position, and every write is checked
// against it immediately, the way SQLite checks UNIQUE(timeline_id,
// position) per statement. Transactions run against a copy that replaces
// the live state only when the callback succeeds.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/lessonlines/lessonlines/pkg/ports"
)

// FaultFunc can fail a write. op is one of "create_entry", "delete_entry", "set_position".
type FaultFunc func(op string, entryID uuid.UUID, position int) error

type Repository struct {
	mu    sync.Mutex
	st    *state
	fault FaultFunc
}

type state struct {
	timelines map[uuid.UUID]domain.Timeline
	entries   map[uuid.UUID]domain.TimelineEntry
	arena     map[uuid.UUID]map[int]uuid.UUID // timeline -> position -> entry
	events    map[uuid.UUID]domain.Event
}

func newState() *state {
	return &state{
		timelines: map[uuid.UUID]domain.Timeline{},
		entries:   map[uuid.UUID]domain.TimelineEntry{},
		arena:     map[uuid.UUID]map[int]uuid.UUID{},
		events:    map[uuid.UUID]domain.Event{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.timelines {
		c.timelines[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, slots := range s.arena {
		cs := make(map[int]uuid.UUID, len(slots))
		for pos, id := range slots {
			cs[pos] = id
		}
		c.arena[k] = cs
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	return c
}

func NewRepository() *Repository {
	return &Repository{st: newState()}
}

// InjectFault makes subsequent writes consult fn. Pass nil to clear.
func (r *Repository) InjectFault(fn FaultFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fault = fn
}

// PutEvent adds a catalog event so entries can reference it
func (r *Repository) PutEvent(event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.events[event.ID] = event
}

func (r *Repository) GetEvent(_ context.Context, id uuid.UUID) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.st.events[id]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx ports.TimelineStore) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	work := r.st.clone()
	if err := fn(&store{st: work, fault: r.fault}); err != nil {
		return err
	}
	r.st = work
	return nil
}

// autocommit runs a single call outside a transaction
func (r *Repository) autocommit(fn func(s *store) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&store{st: r.st, fault: r.fault})
}

func (r *Repository) CreateTimeline(ctx context.Context, t *domain.Timeline) error {
	return r.autocommit(func(s *store) error { return s.CreateTimeline(ctx, t) })
}

func (r *Repository) GetTimeline(ctx context.Context, id uuid.UUID) (t *domain.Timeline, err error) {
	err = r.autocommit(func(s *store) error { t, err = s.GetTimeline(ctx, id); return err })
	return t, err
}

func (r *Repository) ListTimelines(ctx context.Context, userID uuid.UUID) (ts []domain.Timeline, err error) {
	err = r.autocommit(func(s *store) error { ts, err = s.ListTimelines(ctx, userID); return err })
	return ts, err
}

func (r *Repository) UpdateTimeline(ctx context.Context, t *domain.Timeline) error {
	return r.autocommit(func(s *store) error { return s.UpdateTimeline(ctx, t) })
}

func (r *Repository) DeleteTimeline(ctx context.Context, id uuid.UUID) error {
	return r.autocommit(func(s *store) error { return s.DeleteTimeline(ctx, id) })
}

func (r *Repository) ListEntries(ctx context.Context, timelineID uuid.UUID) (es []domain.TimelineEntry, err error) {
	err = r.autocommit(func(s *store) error { es, err = s.ListEntries(ctx, timelineID); return err })
	return es, err
}

func (r *Repository) GetEntryAt(ctx context.Context, timelineID uuid.UUID, pos int) (e *domain.TimelineEntry, err error) {
	err = r.autocommit(func(s *store) error { e, err = s.GetEntryAt(ctx, timelineID, pos); return err })
	return e, err
}

func (r *Repository) CreateEntry(ctx context.Context, e *domain.TimelineEntry) error {
	return r.autocommit(func(s *store) error { return s.CreateEntry(ctx, e) })
}

func (r *Repository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return r.autocommit(func(s *store) error { return s.DeleteEntry(ctx, id) })
}

func (r *Repository) SetPosition(ctx context.Context, id uuid.UUID, pos int) error {
	return r.autocommit(func(s *store) error { return s.SetPosition(ctx, id, pos) })
}

// store is a view over one state, live or transactional
type store struct {
	st    *state
	fault FaultFunc
}

func (s *store) check(op string, id uuid.UUID, pos int) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(op, id, pos)
}

// claim enforces the uniqueness constraint for one write
func (s *store) claim(timelineID uuid.UUID, pos int, id uuid.UUID) error {
	slots := s.st.arena[timelineID]
	if holder, taken := slots[pos]; taken && holder != id {
		return fmt.Errorf("%w: timeline %s position %d is held by entry %s",
			domain.ErrConstraintViolation, timelineID, pos, holder)
	}
	return nil
}

func (s *store) CreateTimeline(_ context.Context, t *domain.Timeline) error {
	stored := *t
	stored.Entries = nil
	s.st.timelines[t.ID] = stored
	s.st.arena[t.ID] = map[int]uuid.UUID{}
	return nil
}

func (s *store) GetTimeline(_ context.Context, id uuid.UUID) (*domain.Timeline, error) {
	t, ok := s.st.timelines[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *store) ListTimelines(_ context.Context, userID uuid.UUID) ([]domain.Timeline, error) {
	var out []domain.Timeline
	for _, t := range s.st.timelines {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *store) UpdateTimeline(_ context.Context, t *domain.Timeline) error {
	if _, ok := s.st.timelines[t.ID]; !ok {
		return fmt.Errorf("timeline %s: %w", t.ID, domain.ErrNotFound)
	}
	stored := *t
	stored.Entries = nil
	s.st.timelines[t.ID] = stored
	return nil
}

func (s *store) DeleteTimeline(_ context.Context, id uuid.UUID) error {
	for _, entryID := range s.st.arena[id] {
		delete(s.st.entries, entryID)
	}
	delete(s.st.arena, id)
	delete(s.st.timelines, id)
	return nil
}

func (s *store) ListEntries(_ context.Context, timelineID uuid.UUID) ([]domain.TimelineEntry, error) {
	slots := s.st.arena[timelineID]
	positions := make([]int, 0, len(slots))
	for pos := range slots {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	out := make([]domain.TimelineEntry, 0, len(positions))
	for _, pos := range positions {
		out = append(out, s.withEvent(s.st.entries[slots[pos]]))
	}
	return out, nil
}

func (s *store) GetEntryAt(_ context.Context, timelineID uuid.UUID, pos int) (*domain.TimelineEntry, error) {
	id, ok := s.st.arena[timelineID][pos]
	if !ok {
		return nil, nil
	}
	e := s.withEvent(s.st.entries[id])
	return &e, nil
}

func (s *store) withEvent(e domain.TimelineEntry) domain.TimelineEntry {
	e.Event = nil
	if e.EventID == nil {
		return e
	}
	if ev, ok := s.st.events[*e.EventID]; ok {
		e.Event = &domain.EventSummary{
			ID:          ev.ID,
			Title:       ev.Title,
			Description: ev.Description,
			DateStart:   ev.DateStart,
			DateDisplay: ev.DateDisplay,
			Location:    ev.Location,
			ImageURL:    ev.ImageURL,
		}
	}
	return e
}

func (s *store) CreateEntry(_ context.Context, e *domain.TimelineEntry) error {
	if err := s.check("create_entry", e.ID, e.Position); err != nil {
		return err
	}
	if _, ok := s.st.timelines[e.TimelineID]; !ok {
		return fmt.Errorf("timeline %s: %w", e.TimelineID, domain.ErrNotFound)
	}
	if err := s.claim(e.TimelineID, e.Position, e.ID); err != nil {
		return err
	}
	stored := *e
	stored.Event = nil
	s.st.entries[e.ID] = stored
	s.st.arena[e.TimelineID][e.Position] = e.ID
	return nil
}

func (s *store) DeleteEntry(_ context.Context, id uuid.UUID) error {
	e, ok := s.st.entries[id]
	if !ok {
		return nil
	}
	if err := s.check("delete_entry", id, e.Position); err != nil {
		return err
	}
	delete(s.st.arena[e.TimelineID], e.Position)
	delete(s.st.entries, id)
	return nil
}

func (s *store) SetPosition(_ context.Context, id uuid.UUID, pos int) error {
	e, ok := s.st.entries[id]
	if !ok {
		return fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	if err := s.check("set_position", id, pos); err != nil {
		return err
	}
	if err := s.claim(e.TimelineID, pos, id); err != nil {
		return err
	}
	slots := s.st.arena[e.TimelineID]
	delete(slots, e.Position)
	slots[pos] = id
	e.Position = pos
	s.st.entries[id] = e
	return nil
}

var (
	_ ports.TimelineRepository = (*Repository)(nil)
	_ ports.EventLookup        = (*Repository)(nil)
)
