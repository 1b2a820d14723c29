// Package position keeps the entries of one timeline on a gapless,
// zero-based sequence while the store enforces a (timeline, position)
// uniqueness constraint on every row write.
//
// Each operation is expressed as a Plan with two phases. Stage moves every
// affected entry to its own negative temporary position, a range no entry
// occupies at rest. Commit then moves each entry from its temporary to its
// final position. Because the commit targets were either vacated in the
// stage phase or never held, no single write can land on a position that
// another row still holds. Both phases must run inside one transaction.
package position

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
)

// Slot is the part of an entry the planner needs
type Slot struct {
	ID       uuid.UUID
	Position int
	Date     *domain.Date // Effective date, nil when undated
}

// Move sets one entry's position
type Move struct {
	ID uuid.UUID
	To int
}

// Plan is a two-phase position rewrite
type Plan struct {
	Stage  []Move
	Commit []Move
}

// Len reports how many entries the plan moves
func (p Plan) Len() int { return len(p.Commit) }

// Writer persists a single position change. Implementations may reject a
// write that collides with another row's position.
type Writer interface {
	SetPosition(ctx context.Context, entryID uuid.UUID, position int) error
}

// FromEntries converts entries, already in position order, into slots
func FromEntries(entries []domain.TimelineEntry) []Slot {
	slots := make([]Slot, len(entries))
	for i, e := range entries {
		slots[i] = Slot{ID: e.ID, Position: e.Position, Date: e.EffectiveDate()}
	}
	return slots
}

// Apply runs every stage move, then every commit move. The caller owns the
// transaction; an error leaves some rows on temporaries and must roll back.
func Apply(ctx context.Context, w Writer, p Plan) error {
	for _, m := range p.Stage {
		if err := w.SetPosition(ctx, m.ID, m.To); err != nil {
			return fmt.Errorf("stage entry %s to %d: %w", m.ID, m.To, err)
		}
	}
	for _, m := range p.Commit {
		if err := w.SetPosition(ctx, m.ID, m.To); err != nil {
			return fmt.Errorf("commit entry %s to %d: %w", m.ID, m.To, err)
		}
	}
	return nil
}

// InsertionIndex returns where an entry dated date belongs: before the first
// slot whose date is strictly later. Undated entries, and entries with no
// later neighbour, go after the last slot. Undated slots never count as
// later, and a same-dated slot keeps its place ahead of the new entry.
// slots must be in position order.
func InsertionIndex(slots []Slot, date *domain.Date) int {
	if date != nil {
		for _, s := range slots {
			if s.Date != nil && s.Date.After(*date) {
				return s.Position
			}
		}
	}
	return end(slots)
}

// end is one past the last position. It equals len(slots) for a contiguous
// sequence and stays clear of the last slot when a permissive reorder left gaps.
func end(slots []Slot) int {
	if len(slots) == 0 {
		return 0
	}
	return slots[len(slots)-1].Position + 1
}

// PlanInsert opens a hole at index by shifting every slot at or after it up by one
func PlanInsert(slots []Slot, index int) Plan {
	var p Plan
	for _, s := range slots {
		if s.Position < index {
			continue
		}
		p.Stage = append(p.Stage, Move{ID: s.ID, To: -(s.Position + 1)})
		p.Commit = append(p.Commit, Move{ID: s.ID, To: s.Position + 1})
	}
	return p
}

// PlanRemove closes the hole left at removed by shifting every later slot down by one.
// slots are the entries that remain after the delete.
func PlanRemove(slots []Slot, removed int) Plan {
	var p Plan
	for _, s := range slots {
		if s.Position <= removed {
			continue
		}
		p.Stage = append(p.Stage, Move{ID: s.ID, To: -s.Position})
		p.Commit = append(p.Commit, Move{ID: s.ID, To: s.Position - 1})
	}
	return p
}

// PlanReorder places order[i] at position i.
//
// Under Permissive, ids that are not in slots are skipped and the target
// position is still the list index, so unknown ids leave gaps and an
// incomplete list may collide with entries it did not name. Under Strict the
// list must name every slot exactly once. Duplicate ids are rejected under
// both policies.
func PlanReorder(slots []Slot, order []uuid.UUID, policy Policy) (Plan, error) {
	known := make(map[uuid.UUID]bool, len(slots))
	for _, s := range slots {
		known[s.ID] = true
	}

	var p Plan
	seen := make(map[uuid.UUID]bool, len(order))
	matched := 0
	for i, id := range order {
		if seen[id] {
			return Plan{}, fmt.Errorf("%w: entry %s listed more than once", domain.ErrInvalidPermutation, id)
		}
		seen[id] = true

		if !known[id] {
			if policy == Strict {
				return Plan{}, fmt.Errorf("%w: entry %s does not belong to the timeline", domain.ErrInvalidPermutation, id)
			}
			continue
		}
		matched++
		p.Stage = append(p.Stage, Move{ID: id, To: -(i + 1)})
		p.Commit = append(p.Commit, Move{ID: id, To: i})
	}

	if policy == Strict && matched != len(slots) {
		return Plan{}, fmt.Errorf("%w: %d of %d entries listed", domain.ErrInvalidPermutation, matched, len(slots))
	}
	return p, nil
}

// Contiguous reports whether positions are exactly 0..n-1
func Contiguous(positions []int) bool {
	sorted := append([]int(nil), positions...)
	sort.Ints(sorted)
	for i, pos := range sorted {
		if pos != i {
			return false
		}
	}
	return true
}

// Positions extracts entry positions in slice order
func Positions(entries []domain.TimelineEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Position
	}
	return out
}
