package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/adapters/repository/memory"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/lessonlines/lessonlines/pkg/core/position"
	"github.com/lessonlines/lessonlines/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo    *memory.Repository
	svc     *TimelineService
	user    uuid.UUID
	tl      *domain.Timeline
	metrics *metrics.Recorder
}

func newFixture(t *testing.T, policy position.Policy) *fixture {
	t.Helper()
	repo := memory.NewRepository()
	rec := metrics.NewRecorder(prometheus.NewRegistry())
	svc := NewTimelineService(repo, repo, TimelineOptions{ReorderPolicy: policy, Locking: true, Metrics: rec})

	user := uuid.New()
	tl, err := svc.CreateTimeline(context.Background(), user, domain.TimelineSettings{Title: "Civil War"})
	require.NoError(t, err)
	return &fixture{repo: repo, svc: svc, user: user, tl: tl, metrics: rec}
}

func (f *fixture) add(t *testing.T, title, date string) *domain.Timeline {
	t.Helper()
	entry := domain.NewEntry{CustomTitle: &title}
	if date != "" {
		d := domain.MustParseDate(date)
		entry.CustomDateStart = &d
	}
	tl, err := f.svc.AddEntry(context.Background(), f.user, f.tl.ID, entry)
	require.NoError(t, err)
	return tl
}

func titles(tl *domain.Timeline) []string {
	out := make([]string, len(tl.Entries))
	for i, e := range tl.Entries {
		out[i] = *e.CustomTitle
	}
	return out
}

func ids(tl *domain.Timeline) []uuid.UUID {
	out := make([]uuid.UUID, len(tl.Entries))
	for i, e := range tl.Entries {
		out[i] = e.ID
	}
	return out
}

func assertContiguous(t *testing.T, tl *domain.Timeline) {
	t.Helper()
	for i, e := range tl.Entries {
		assert.Equal(t, i, e.Position, "entry %s", e.ID)
	}
}

func TestCreateTimelineDefaults(t *testing.T) {
	f := newFixture(t, position.Permissive)

	assert.Equal(t, domain.DefaultColorScheme, f.tl.ColorScheme)
	assert.Equal(t, domain.DefaultLayout, f.tl.Layout)
	assert.Equal(t, domain.DefaultFont, f.tl.Font)
	assert.Empty(t, f.tl.Entries)

	_, err := f.svc.CreateTimeline(context.Background(), f.user, domain.TimelineSettings{Title: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTimelineHiddenFromOtherUsers(t *testing.T) {
	f := newFixture(t, position.Permissive)
	ctx := context.Background()
	stranger := uuid.New()

	_, err := f.svc.GetTimeline(ctx, stranger, f.tl.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	title := "x"
	_, err = f.svc.AddEntry(ctx, stranger, f.tl.ID, domain.NewEntry{CustomTitle: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteTimeline(ctx, stranger, f.tl.ID), domain.ErrNotFound)

	list, err := f.svc.ListTimelines(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateTimeline(t *testing.T) {
	f := newFixture(t, position.Permissive)
	ctx := context.Background()
	layout, public := "vertical", true

	tl, err := f.svc.UpdateTimeline(ctx, f.user, f.tl.ID, domain.TimelineUpdate{Layout: &layout, IsPublic: &public})
	require.NoError(t, err)
	assert.Equal(t, "vertical", tl.Layout)
	assert.True(t, tl.IsPublic)
	assert.Equal(t, "Civil War", tl.Title)

	empty := ""
	_, err = f.svc.UpdateTimeline(ctx, f.user, f.tl.ID, domain.TimelineUpdate{Title: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeleteTimeline(t *testing.T) {
	f := newFixture(t, position.Permissive)
	ctx := context.Background()
	f.add(t, "Sumter", "1861-04-12")

	require.NoError(t, f.svc.DeleteTimeline(ctx, f.user, f.tl.ID))
	_, err := f.svc.GetTimeline(ctx, f.user, f.tl.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddEntryPlacesByDate(t *testing.T) {
	f := newFixture(t, position.Permissive)
	f.add(t, "Sumter", "1861-04-12")
	f.add(t, "Gettysburg", "1863-07-01")

	tl := f.add(t, "New Year 1862", "1862-01-01")
	assert.Equal(t, []string{"Sumter", "New Year 1862", "Gettysburg"}, titles(tl))
	assertContiguous(t, tl)
}

func TestAddEntrySameDateGoesAfter(t *testing.T) {
	f := newFixture(t, position.Permissive)
	f.add(t, "first", "1861-04-12")
	f.add(t, "later", "1863-07-01")

	tl := f.add(t, "second", "1861-04-12")
	assert.Equal(t, []string{"first", "second", "later"}, titles(tl))
}

func TestAddEntryUndatedAppends(t *testing.T) {
	f := newFixture(t, position.Permissive)
	f.add(t, "Gettysburg", "1863-07-01")
	f.add(t, "note", "")

	tl := f.add(t, "Sumter", "1861-04-12")
	assert.Equal(t, []string{"Sumter", "Gettysburg", "note"}, titles(tl))

	tl = f.add(t, "another note", "")
	assert.Equal(t, "another note", *tl.Entries[3].CustomTitle)
	assertContiguous(t, tl)
}

func TestAddEntryUsesCatalogDate(t *testing.T) {
	f := newFixture(t, position.Permissive)
	ctx := context.Background()
	f.add(t, "Sumter", "1861-04-12")
	f.add(t, "Gettysburg", "1863-07-01")

	antietam := domain.Event{ID: uuid.New(), Title: "Antietam", DateStart: domain.MustParseDate("1862-09-17")}
	f.repo.PutEvent(antietam)

	tl, err := f.svc.AddEntry(ctx, f.user, f.tl.ID, domain.NewEntry{EventID: &antietam.ID})
	require.NoError(t, err)
	require.NotNil(t, tl.Entries[1].Event)
	assert.Equal(t, "Antietam", tl.Entries[1].Event.Title)

	// an override date wins over the catalog date
	override := domain.MustParseDate("1864-01-01")
	tl, err = f.svc.AddEntry(ctx, f.user, f.tl.ID, domain.NewEntry{EventID: &antietam.ID, CustomDateStart: &override})
	require.NoError(t, err)
	assert.Equal(t, 3, tl.Entries[3].Position)
	assert.Equal(t, antietam.ID, *tl.Entries[3].EventID)
}

func TestAddEntryRejectsBadPayload(t *testing.T) {
	f := newFixture(t, position.Permissive)
	ctx := context.Background()

	_, err := f.svc.AddEntry(ctx, f.user, f.tl.ID, domain.NewEntry{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	missing := uuid.New()
	_, err = f.svc.AddEntry(ctx, f.user, f.tl.ID, domain.NewEntry{EventID: &missing})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	title := "x"
	_, err = f.svc.AddEntry(ctx, f.user, uuid.New(), domain.NewEntry{CustomTitle: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveEntryCompacts(t *testing.T) {
	f := newFixture(t, position.Permissive)
	f.add(t, "a", "1861-01-01")
	f.add(t, "b", "1862-01-01")
	before := f.add(t, "c", "1863-01-01")

	tl, err := f.svc.RemoveEntry(context.Background(), f.user, f.tl.ID, 1)
	require.NoError(t, err)
	require.Len(t, tl.Entries, 2)
	assert.Equal(t, []string{"a", "c"}, titles(tl))
	assertContiguous(t, tl)

	moved := tl.Entries[1]
	original := before.Entries[2]
	assert.Equal(t, original.ID, moved.ID)
	assert.Equal(t, original.CustomDateStart, moved.CustomDateStart)
	assert.Equal(t, original.CreatedAt, moved.CreatedAt)
}

func TestRemoveMissingPositionLeavesTimeline(t *testing.T) {
	f := newFixture(t, position.Permissive)
	ctx := context.Background()
	f.add(t, "a", "1861-01-01")
	f.add(t, "b", "1862-01-01")

	for _, pos := range []int{2, 7, -1} {
		_, err := f.svc.RemoveEntry(ctx, f.user, f.tl.ID, pos)
		assert.ErrorIs(t, err, domain.ErrNotFound, "position %d", pos)
	}

	tl, err := f.svc.GetTimeline(ctx, f.user, f.tl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(tl))
	assertContiguous(t, tl)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.OpsCounter().WithLabelValues("remove", "not_found")))
}

func TestReorder(t *testing.T) {
	f := newFixture(t, position.Strict)
	ctx := context.Background()
	f.add(t, "a", "1861-01-01")
	f.add(t, "b", "1862-01-01")
	tl := f.add(t, "c", "1863-01-01")
	order := ids(tl)

	same, err := f.svc.ReorderEntries(ctx, f.user, f.tl.ID, order)
	require.NoError(t, err)
	assert.Equal(t, order, ids(same))

	reversed := []uuid.UUID{order[2], order[0], order[1]}
	got, err := f.svc.ReorderEntries(ctx, f.user, f.tl.ID, reversed)
	require.NoError(t, err)
	assert.Equal(t, reversed, ids(got))
	assert.Equal(t, []string{"c", "a", "b"}, titles(got))
	assertContiguous(t, got)
}

func TestReorderStrictRejectsBadLists(t *testing.T) {
	f := newFixture(t, position.Strict)
	ctx := context.Background()
	f.add(t, "a", "1861-01-01")
	tl := f.add(t, "b", "1862-01-01")
	order := ids(tl)

	cases := map[string][]uuid.UUID{
		"incomplete": {order[1]},
		"unknown":    {order[1], order[0], uuid.New()},
		"duplicate":  {order[1], order[1]},
	}
	for name, list := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.ReorderEntries(ctx, f.user, f.tl.ID, list)
			assert.ErrorIs(t, err, domain.ErrInvalidPermutation)
		})
	}

	after, err := f.svc.GetTimeline(ctx, f.user, f.tl.ID)
	require.NoError(t, err)
	assert.Equal(t, order, ids(after))
}

func TestReorderPermissiveSkipsUnknown(t *testing.T) {
	f := newFixture(t, position.Permissive)
	ctx := context.Background()
	f.add(t, "a", "1861-01-01")
	tl := f.add(t, "b", "1862-01-01")
	order := ids(tl)

	got, err := f.svc.ReorderEntries(ctx, f.user, f.tl.ID, []uuid.UUID{order[1], order[0], uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, titles(got))

	// an unknown id in front shifts every target by one and leaves a gap at 0
	got, err = f.svc.ReorderEntries(ctx, f.user, f.tl.ID, []uuid.UUID{uuid.New(), order[0], order[1]})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, position.Positions(got.Entries))

	// appending after the gap goes past the last position
	got = f.add(t, "c", "")
	assert.Equal(t, []int{1, 2, 3}, position.Positions(got.Entries))
	assert.Equal(t, []string{"a", "b", "c"}, titles(got))
}

func TestReorderPermissiveIncompleteCollisionRollsBack(t *testing.T) {
	f := newFixture(t, position.Permissive)
	ctx := context.Background()
	f.add(t, "a", "1861-01-01")
	tl := f.add(t, "b", "1862-01-01")
	order := ids(tl)

	// b alone goes to 0 while a still holds it
	_, err := f.svc.ReorderEntries(ctx, f.user, f.tl.ID, []uuid.UUID{order[1]})
	require.ErrorIs(t, err, domain.ErrConstraintViolation)

	after, err := f.svc.GetTimeline(ctx, f.user, f.tl.ID)
	require.NoError(t, err)
	assert.Equal(t, order, ids(after))
	assertContiguous(t, after)
}

func TestFailedShiftRollsBack(t *testing.T) {
	f := newFixture(t, position.Permissive)
	ctx := context.Background()
	f.add(t, "a", "1861-01-01")
	f.add(t, "b", "1862-01-01")
	before := f.add(t, "c", "1863-01-01")

	boom := errors.New("write failed")
	f.repo.InjectFault(func(op string, _ uuid.UUID, pos int) error {
		if op == "set_position" && pos == 3 {
			return boom
		}
		return nil
	})
	title := "early"
	early := domain.MustParseDate("1860-01-01")
	_, err := f.svc.AddEntry(ctx, f.user, f.tl.ID, domain.NewEntry{CustomTitle: &title, CustomDateStart: &early})
	require.ErrorIs(t, err, boom)
	f.repo.InjectFault(nil)

	after, err := f.svc.GetTimeline(ctx, f.user, f.tl.ID)
	require.NoError(t, err)
	assert.Equal(t, ids(before), ids(after))
	assertContiguous(t, after)
}

func TestInsertThenRemoveScenario(t *testing.T) {
	f := newFixture(t, position.Permissive)
	f.add(t, "A", "1861-04-12")
	f.add(t, "B", "1863-07-01")

	tl := f.add(t, "C", "1862-09-17")
	assert.Equal(t, []string{"A", "C", "B"}, titles(tl))
	assert.Equal(t, []int{0, 1, 2}, position.Positions(tl.Entries))

	tl, err := f.svc.RemoveEntry(context.Background(), f.user, f.tl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, titles(tl))
	assert.Equal(t, []int{0, 1}, position.Positions(tl.Entries))

	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.OpsCounter().WithLabelValues("insert", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OpsCounter().WithLabelValues("remove", "ok")))
}

func TestConcurrentInsertsStayContiguous(t *testing.T) {
	f := newFixture(t, position.Permissive)
	ctx := context.Background()

	var wg sync.WaitGroup
	dates := []string{"1861-04-12", "1865-04-09", "1863-07-01", "1862-09-17", "1864-11-15", "1863-01-01"}
	for _, date := range dates {
		wg.Add(1)
		go func(date string) {
			defer wg.Done()
			title := date
			d := domain.MustParseDate(date)
			_, err := f.svc.AddEntry(ctx, f.user, f.tl.ID, domain.NewEntry{CustomTitle: &title, CustomDateStart: &d})
			assert.NoError(t, err)
		}(date)
	}
	wg.Wait()

	tl, err := f.svc.GetTimeline(ctx, f.user, f.tl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1861-04-12", "1862-09-17", "1863-01-01", "1863-07-01", "1864-11-15", "1865-04-09"}, titles(tl))
	assertContiguous(t, tl)
	assert.Zero(t, f.svc.locks.size())
}
