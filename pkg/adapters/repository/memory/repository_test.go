package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/lessonlines/lessonlines/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTimeline(t *testing.T, repo *Repository, n int) (*domain.Timeline, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	tl := &domain.Timeline{ID: uuid.New(), UserID: uuid.New(), Title: "Civil Rights", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, repo.CreateTimeline(ctx, tl))

	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
		title := "entry"
		require.NoError(t, repo.CreateEntry(ctx, &domain.TimelineEntry{
			ID: ids[i], TimelineID: tl.ID, Position: i, CustomTitle: &title,
		}))
	}
	return tl, ids
}

func TestCreateEntryRejectsTakenPosition(t *testing.T) {
	repo := NewRepository()
	tl, ids := seedTimeline(t, repo, 2)

	err := repo.CreateEntry(context.Background(), &domain.TimelineEntry{ID: uuid.New(), TimelineID: tl.ID, Position: 1})
	require.ErrorIs(t, err, domain.ErrConstraintViolation)

	entries, err := repo.ListEntries(context.Background(), tl.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ids[1], entries[1].ID)
}

func TestSetPositionRejectsCollision(t *testing.T) {
	repo := NewRepository()
	_, ids := seedTimeline(t, repo, 2)
	ctx := context.Background()

	require.ErrorIs(t, repo.SetPosition(ctx, ids[0], 1), domain.ErrConstraintViolation)
	require.NoError(t, repo.SetPosition(ctx, ids[0], -1))
	require.NoError(t, repo.SetPosition(ctx, ids[1], 0))
	require.NoError(t, repo.SetPosition(ctx, ids[0], 1))
}

func TestSetPositionUnknownEntry(t *testing.T) {
	repo := NewRepository()
	assert.ErrorIs(t, repo.SetPosition(context.Background(), uuid.New(), 0), domain.ErrNotFound)
}

func TestListEntriesInPositionOrder(t *testing.T) {
	repo := NewRepository()
	tl, ids := seedTimeline(t, repo, 3)
	ctx := context.Background()

	require.NoError(t, repo.WithTx(ctx, func(tx ports.TimelineStore) error {
		// rotate 0,1,2 -> 2,0,1
		for i, id := range ids {
			if err := tx.SetPosition(ctx, id, -(i + 1)); err != nil {
				return err
			}
		}
		for i, id := range ids {
			if err := tx.SetPosition(ctx, id, (i+1)%3); err != nil {
				return err
			}
		}
		return nil
	}))

	entries, err := repo.ListEntries(ctx, tl.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[2], ids[0], ids[1]}, []uuid.UUID{entries[0].ID, entries[1].ID, entries[2].ID})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	repo := NewRepository()
	tl, ids := seedTimeline(t, repo, 3)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithTx(ctx, func(tx ports.TimelineStore) error {
		if err := tx.DeleteEntry(ctx, ids[0]); err != nil {
			return err
		}
		if err := tx.SetPosition(ctx, ids[1], -1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	entries, err := repo.ListEntries(ctx, tl.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, ids[i], e.ID)
		assert.Equal(t, i, e.Position)
	}
}

func TestInjectFault(t *testing.T) {
	repo := NewRepository()
	tl, ids := seedTimeline(t, repo, 2)
	ctx := context.Background()
	boom := errors.New("disk full")

	repo.InjectFault(func(op string, id uuid.UUID, pos int) error {
		if op == "set_position" && pos >= 0 {
			return boom
		}
		return nil
	})
	err := repo.WithTx(ctx, func(tx ports.TimelineStore) error {
		if err := tx.SetPosition(ctx, ids[1], -2); err != nil {
			return err
		}
		return tx.SetPosition(ctx, ids[1], 2)
	})
	require.ErrorIs(t, err, boom)

	repo.InjectFault(nil)
	entry, err := repo.GetEntryAt(ctx, tl.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, ids[1], entry.ID)
}

func TestDeleteTimelineCascades(t *testing.T) {
	repo := NewRepository()
	tl, ids := seedTimeline(t, repo, 2)
	ctx := context.Background()

	require.NoError(t, repo.DeleteTimeline(ctx, tl.ID))

	got, err := repo.GetTimeline(ctx, tl.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, repo.SetPosition(ctx, ids[0], 5), domain.ErrNotFound)
}

func TestEntriesCarryEventSummary(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	tl, _ := seedTimeline(t, repo, 0)

	ev := domain.Event{ID: uuid.New(), Title: "Emancipation Proclamation", DateStart: domain.MustParseDate("1863-01-01")}
	repo.PutEvent(ev)
	require.NoError(t, repo.CreateEntry(ctx, &domain.TimelineEntry{ID: uuid.New(), TimelineID: tl.ID, EventID: &ev.ID}))

	entry, err := repo.GetEntryAt(ctx, tl.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, entry.Event)
	assert.Equal(t, "Emancipation Proclamation", entry.Event.Title)
	require.NotNil(t, entry.EffectiveDate())
	assert.Equal(t, "1863-01-01", entry.EffectiveDate().String())

	missing, err := repo.GetEvent(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
