package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
)

func (s *store) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, slug, name, description, created_at FROM topics ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []domain.Topic
	for rows.Next() {
		var t domain.Topic
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (s *store) GetTopicBySlug(ctx context.Context, slug string) (*domain.Topic, error) {
	var t domain.Topic
	err := s.q.QueryRowContext(ctx, `SELECT id, slug, name, description, created_at FROM topics WHERE slug = ?`, slug).
		Scan(&t.ID, &t.Slug, &t.Name, &t.Description, &t.CreatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertTopic inserts by slug or updates the existing row, and sets topic.ID
// to the stored id either way.
func (s *store) UpsertTopic(ctx context.Context, topic *domain.Topic) error {
	query := `INSERT INTO topics (id, slug, name, description, created_at) VALUES (?, ?, ?, ?, ?)
			  ON CONFLICT(slug) DO UPDATE SET name = excluded.name, description = excluded.description`
	if _, err := s.q.ExecContext(ctx, query, topic.ID, topic.Slug, topic.Name, topic.Description, topic.CreatedAt); err != nil {
		return mapError(err)
	}
	return s.q.QueryRowContext(ctx, `SELECT id, created_at FROM topics WHERE slug = ?`, topic.Slug).Scan(&topic.ID, &topic.CreatedAt)
}

func (s *store) ListTags(ctx context.Context, category string) ([]domain.Tag, error) {
	query := `SELECT id, name, category FROM tags`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY name`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Category); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// UpsertTag inserts by name, keeping an existing category unless a new one is given
func (s *store) UpsertTag(ctx context.Context, tag *domain.Tag) error {
	query := `INSERT INTO tags (id, name, category) VALUES (?, ?, ?)
			  ON CONFLICT(name) DO UPDATE SET category = CASE WHEN excluded.category = '' THEN tags.category ELSE excluded.category END`
	if _, err := s.q.ExecContext(ctx, query, tag.ID, tag.Name, tag.Category); err != nil {
		return mapError(err)
	}
	return s.q.QueryRowContext(ctx, `SELECT id, category FROM tags WHERE name = ?`, tag.Name).Scan(&tag.ID, &tag.Category)
}

// CreateEvent stores the event with its tag and standard links in one transaction
func (r *Repository) CreateEvent(ctx context.Context, event *domain.Event) error {
	return r.inTx(ctx, func(s *store) error { return s.CreateEvent(ctx, event) })
}

func (s *store) CreateEvent(ctx context.Context, e *domain.Event) error {
	query := `INSERT INTO events (id, topic_id, title, description, date_start, date_end, date_display, date_precision,
				location, source_url, image_url, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.q.ExecContext(ctx, query, e.ID, e.TopicID, e.Title, e.Description, e.DateStart, e.DateEnd, e.DateDisplay,
		e.DatePrecision, e.Location, e.SourceURL, e.ImageURL, e.CreatedAt)
	if err != nil {
		return mapError(err)
	}

	for _, tag := range e.Tags {
		if _, err := s.q.ExecContext(ctx, `INSERT OR IGNORE INTO event_tags (event_id, tag_id) VALUES (?, ?)`, e.ID, tag.ID); err != nil {
			return mapError(err)
		}
	}
	for _, std := range e.Standards {
		if _, err := s.q.ExecContext(ctx, `INSERT OR IGNORE INTO event_standards (event_id, standard_id) VALUES (?, ?)`, e.ID, std.ID); err != nil {
			return mapError(err)
		}
	}
	return nil
}

const eventColumns = `e.id, e.topic_id, e.title, e.description, e.date_start, e.date_end, e.date_display, e.date_precision,
		e.location, e.source_url, e.image_url, e.created_at`

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	var e domain.Event
	var dateEnd sql.NullString
	err := row.Scan(&e.ID, &e.TopicID, &e.Title, &e.Description, &e.DateStart, &dateEnd, &e.DateDisplay,
		&e.DatePrecision, &e.Location, &e.SourceURL, &e.ImageURL, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if e.DateEnd, err = datePtr(dateEnd); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *store) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	e, err := scanEvent(s.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tags, err := s.eventTags(ctx, []uuid.UUID{e.ID})
	if err != nil {
		return nil, err
	}
	e.Tags = tags[e.ID]

	standards, err := s.eventStandards(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Standards = standards
	return e, nil
}

// FindEvent returns the event with the given topic, title and start date, or
// nil when there is none.
func (s *store) FindEvent(ctx context.Context, topicID uuid.UUID, title string, dateStart domain.Date) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.topic_id = ? AND e.title = ? AND e.date_start = ?
			  ORDER BY e.created_at LIMIT 1`
	e, err := scanEvent(s.q.QueryRowContext(ctx, query, topicID, title, dateStart))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// SearchEvents filters by topic slug, text in title or description, tag name
// and aligned standard or grade, ordered by start date.
func (s *store) SearchEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e`
	var where []string
	args := []interface{}{}

	if filter.TopicSlug != "" {
		query += ` JOIN topics t ON t.id = e.topic_id`
		where = append(where, `t.slug = ?`)
		args = append(args, filter.TopicSlug)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, `(e.title LIKE ? OR e.description LIKE ?)`)
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if filter.Tag != "" {
		where = append(where, `EXISTS (SELECT 1 FROM event_tags et JOIN tags tg ON tg.id = et.tag_id
			WHERE et.event_id = e.id AND tg.name = ?)`)
		args = append(args, filter.Tag)
	}
	if filter.StandardID != nil {
		where = append(where, `EXISTS (SELECT 1 FROM event_standards es WHERE es.event_id = e.id AND es.standard_id = ?)`)
		args = append(args, *filter.StandardID)
	}
	if filter.Grade != "" {
		where = append(where, `EXISTS (SELECT 1 FROM event_standards es JOIN curriculum_standards cs ON cs.id = es.standard_id
			WHERE es.event_id = e.id AND cs.grade_level = ?)`)
		args = append(args, filter.Grade)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY e.date_start, e.title`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	var ids []uuid.UUID
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(events) == 0 {
		return events, nil
	}
	tags, err := s.eventTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Tags = tags[events[i].ID]
	}
	return events, nil
}

func (s *store) eventTags(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Tag, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT et.event_id, t.id, t.name, t.category FROM event_tags et
		JOIN tags t ON t.id = et.tag_id
		WHERE et.event_id IN (%s) ORDER BY t.name`, placeholders)
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.Tag, len(ids))
	for rows.Next() {
		var eventID uuid.UUID
		var t domain.Tag
		if err := rows.Scan(&eventID, &t.ID, &t.Name, &t.Category); err != nil {
			return nil, err
		}
		out[eventID] = append(out[eventID], t)
	}
	return out, rows.Err()
}
