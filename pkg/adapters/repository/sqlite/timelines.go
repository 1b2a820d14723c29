package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
)

const timelineColumns = `id, user_id, title, subtitle, color_scheme, layout, font, is_public, created_at, updated_at`

func scanTimeline(row interface{ Scan(...any) error }) (*domain.Timeline, error) {
	var t domain.Timeline
	var subtitle sql.NullString
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &subtitle, &t.ColorScheme, &t.Layout, &t.Font,
		&t.IsPublic, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Subtitle = stringPtr(subtitle)
	return &t, nil
}

func (s *store) CreateTimeline(ctx context.Context, t *domain.Timeline) error {
	query := `INSERT INTO timelines (` + timelineColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.q.ExecContext(ctx, query, t.ID, t.UserID, t.Title, t.Subtitle, t.ColorScheme, t.Layout, t.Font,
		t.IsPublic, t.CreatedAt, t.UpdatedAt)
	return mapError(err)
}

func (s *store) GetTimeline(ctx context.Context, id uuid.UUID) (*domain.Timeline, error) {
	query := `SELECT ` + timelineColumns + ` FROM timelines WHERE id = ?`
	t, err := scanTimeline(s.q.QueryRowContext(ctx, query, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *store) ListTimelines(ctx context.Context, userID uuid.UUID) ([]domain.Timeline, error) {
	query := `SELECT ` + timelineColumns + ` FROM timelines WHERE user_id = ? ORDER BY updated_at DESC`
	rows, err := s.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var timelines []domain.Timeline
	for rows.Next() {
		t, err := scanTimeline(rows)
		if err != nil {
			return nil, err
		}
		timelines = append(timelines, *t)
	}
	return timelines, rows.Err()
}

func (s *store) UpdateTimeline(ctx context.Context, t *domain.Timeline) error {
	query := `UPDATE timelines SET title = ?, subtitle = ?, color_scheme = ?, layout = ?, font = ?, is_public = ?, updated_at = ?
			  WHERE id = ?`
	res, err := s.q.ExecContext(ctx, query, t.Title, t.Subtitle, t.ColorScheme, t.Layout, t.Font, t.IsPublic, t.UpdatedAt, t.ID)
	if err != nil {
		return mapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("timeline %s: %w", t.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteTimeline removes the entries explicitly so remote connections
// without foreign key enforcement do not leave orphans.
func (s *store) DeleteTimeline(ctx context.Context, id uuid.UUID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM timeline_events WHERE timeline_id = ?`, id); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx, `DELETE FROM timelines WHERE id = ?`, id)
	return err
}

const entrySelect = `SELECT te.id, te.timeline_id, te.event_id, te.position, te.custom_title, te.custom_description,
		te.custom_date_display, te.custom_date_start, te.created_at,
		e.id, e.title, e.description, e.date_start, e.date_display, e.location, e.image_url
	FROM timeline_events te
	LEFT JOIN events e ON e.id = te.event_id`

func scanEntry(row interface{ Scan(...any) error }) (*domain.TimelineEntry, error) {
	var (
		e                                   domain.TimelineEntry
		eventID                             uuid.NullUUID
		title, desc, dateDisplay, dateStart sql.NullString
		evID                                uuid.NullUUID
		evTitle, evDesc, evStart, evDisplay sql.NullString
		evLocation, evImage                 sql.NullString
	)
	err := row.Scan(&e.ID, &e.TimelineID, &eventID, &e.Position, &title, &desc, &dateDisplay, &dateStart, &e.CreatedAt,
		&evID, &evTitle, &evDesc, &evStart, &evDisplay, &evLocation, &evImage)
	if err != nil {
		return nil, err
	}

	e.EventID = uuidPtr(eventID)
	e.CustomTitle = stringPtr(title)
	e.CustomDescription = stringPtr(desc)
	e.CustomDateDisplay = stringPtr(dateDisplay)
	if e.CustomDateStart, err = datePtr(dateStart); err != nil {
		return nil, err
	}

	if evID.Valid {
		summary := &domain.EventSummary{
			ID:          evID.UUID,
			Title:       evTitle.String,
			Description: evDesc.String,
			DateDisplay: evDisplay.String,
			Location:    evLocation.String,
			ImageURL:    evImage.String,
		}
		if err := summary.DateStart.Scan(evStart.String); err != nil {
			return nil, err
		}
		e.Event = summary
	}
	return &e, nil
}

func (s *store) ListEntries(ctx context.Context, timelineID uuid.UUID) ([]domain.TimelineEntry, error) {
	rows, err := s.q.QueryContext(ctx, entrySelect+` WHERE te.timeline_id = ? ORDER BY te.position`, timelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.TimelineEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *store) GetEntryAt(ctx context.Context, timelineID uuid.UUID, position int) (*domain.TimelineEntry, error) {
	e, err := scanEntry(s.q.QueryRowContext(ctx, entrySelect+` WHERE te.timeline_id = ? AND te.position = ?`, timelineID, position))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *store) CreateEntry(ctx context.Context, e *domain.TimelineEntry) error {
	query := `INSERT INTO timeline_events (id, timeline_id, event_id, position, custom_title, custom_description,
				custom_date_display, custom_date_start, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.q.ExecContext(ctx, query, e.ID, e.TimelineID, nullUUID(e.EventID), e.Position, e.CustomTitle,
		e.CustomDescription, e.CustomDateDisplay, e.CustomDateStart, e.CreatedAt)
	return mapError(err)
}

func (s *store) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM timeline_events WHERE id = ?`, id)
	return err
}

// SetPosition writes one row. The uniqueness constraint is checked by this
// statement alone, so callers must never target a position another row holds.
func (s *store) SetPosition(ctx context.Context, id uuid.UUID, position int) error {
	res, err := s.q.ExecContext(ctx, `UPDATE timeline_events SET position = ? WHERE id = ?`, position, id)
	if err != nil {
		return mapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
