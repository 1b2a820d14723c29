package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
)

const candidateColumns = `id, topic_id, title, description, date_start, date_end, date_display, date_precision, location,
		source_url, image_url, existing_event_id, status, source_name, harvest_batch_id, confidence_score, review_notes,
		reviewed_at, reviewed_by, created_at`

func scanCandidate(row interface{ Scan(...any) error }) (*domain.CandidateEvent, error) {
	var (
		c                   domain.CandidateEvent
		topicID, existingID uuid.NullUUID
		batchID, reviewedBy uuid.NullUUID
		dateEnd, notes      sql.NullString
		score               sql.NullFloat64
		reviewedAt          sql.NullTime
	)
	err := row.Scan(&c.ID, &topicID, &c.Title, &c.Description, &c.DateStart, &dateEnd, &c.DateDisplay, &c.DatePrecision,
		&c.Location, &c.SourceURL, &c.ImageURL, &existingID, &c.Status, &c.SourceName, &batchID, &score, &notes,
		&reviewedAt, &reviewedBy, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.TopicID = topicID.UUID
	c.ExistingEventID = uuidPtr(existingID)
	c.HarvestBatchID = uuidPtr(batchID)
	c.ReviewedBy = uuidPtr(reviewedBy)
	c.ReviewNotes = stringPtr(notes)
	if score.Valid {
		c.ConfidenceScore = &score.Float64
	}
	if reviewedAt.Valid {
		c.ReviewedAt = &reviewedAt.Time
	}
	if c.DateEnd, err = datePtr(dateEnd); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCandidates inserts the batch in one transaction and counts each
// candidate against its harvest batch.
func (r *Repository) CreateCandidates(ctx context.Context, candidates []*domain.CandidateEvent) error {
	return r.inTx(ctx, func(s *store) error {
		perBatch := map[uuid.UUID]int{}
		for _, c := range candidates {
			if err := s.insertCandidate(ctx, c); err != nil {
				return fmt.Errorf("candidate %q: %w", c.Title, err)
			}
			if c.HarvestBatchID != nil {
				perBatch[*c.HarvestBatchID]++
			}
		}
		for batchID, n := range perBatch {
			_, err := s.q.ExecContext(ctx, `UPDATE harvest_batches SET event_count = event_count + ? WHERE id = ?`, n, batchID)
			if err != nil {
				return fmt.Errorf("harvest batch %s: %w", batchID, err)
			}
		}
		return nil
	})
}

func (s *store) insertCandidate(ctx context.Context, c *domain.CandidateEvent) error {
	topicID := uuid.NullUUID{UUID: c.TopicID, Valid: c.TopicID != uuid.Nil}
	query := `INSERT INTO candidate_events (` + candidateColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.q.ExecContext(ctx, query, c.ID, topicID, c.Title, c.Description, c.DateStart, c.DateEnd, c.DateDisplay,
		c.DatePrecision, c.Location, c.SourceURL, c.ImageURL, nullUUID(c.ExistingEventID), string(c.Status), c.SourceName,
		nullUUID(c.HarvestBatchID), c.ConfidenceScore, c.ReviewNotes, c.ReviewedAt, nullUUID(c.ReviewedBy), c.CreatedAt)
	return mapError(err)
}

func (s *store) GetCandidate(ctx context.Context, id uuid.UUID) (*domain.CandidateEvent, error) {
	c, err := scanCandidate(s.q.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidate_events WHERE id = ?`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCandidates returns the newest candidates first. An empty status lists every status.
func (s *store) ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.CandidateEvent, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidate_events`
	var where []string
	args := []interface{}{}

	if filter.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, string(filter.Status))
	}
	if filter.TopicID != nil {
		where = append(where, `topic_id = ?`)
		args = append(args, *filter.TopicID)
	}
	if filter.SourceName != "" {
		where = append(where, `source_name = ?`)
		args = append(args, filter.SourceName)
	}
	if filter.HarvestBatchID != nil {
		where = append(where, `harvest_batch_id = ?`)
		args = append(args, *filter.HarvestBatchID)
	}
	if filter.HasExistingEvent != nil {
		if *filter.HasExistingEvent {
			where = append(where, `existing_event_id IS NOT NULL`)
		} else {
			where = append(where, `existing_event_id IS NULL`)
		}
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, `(title LIKE ? OR description LIKE ?)`)
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY created_at DESC, title LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.CandidateEvent
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

// UpdateCandidate persists the review fields
func (s *store) UpdateCandidate(ctx context.Context, c *domain.CandidateEvent) error {
	query := `UPDATE candidate_events SET status = ?, review_notes = ?, reviewed_at = ?, reviewed_by = ? WHERE id = ?`
	res, err := s.q.ExecContext(ctx, query, string(c.Status), c.ReviewNotes, c.ReviewedAt, nullUUID(c.ReviewedBy), c.ID)
	if err != nil {
		return mapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("candidate %s: %w", c.ID, domain.ErrNotFound)
	}
	return nil
}
