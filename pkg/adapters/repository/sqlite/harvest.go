package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
)

const harvestColumns = `id, topic_id, source_name, source_url, strategy, event_count, status, started_at, completed_at, metadata_json`

func scanHarvestBatch(row interface{ Scan(...any) error }) (*domain.HarvestBatch, error) {
	var (
		b           domain.HarvestBatch
		completedAt sql.NullTime
		metadata    sql.NullString
	)
	err := row.Scan(&b.ID, &b.TopicID, &b.SourceName, &b.SourceURL, &b.Strategy, &b.EventCount, &b.Status, &b.StartedAt,
		&completedAt, &metadata)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &b.Metadata); err != nil {
			return nil, fmt.Errorf("harvest batch %s metadata: %w", b.ID, err)
		}
	}
	return &b, nil
}

func encodeMetadata(m map[string]any) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func (s *store) CreateHarvestBatch(ctx context.Context, b *domain.HarvestBatch) error {
	metadata, err := encodeMetadata(b.Metadata)
	if err != nil {
		return fmt.Errorf("%w: metadata_json: %v", domain.ErrInvalidInput, err)
	}
	query := `INSERT INTO harvest_batches (` + harvestColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.q.ExecContext(ctx, query, b.ID, b.TopicID, b.SourceName, b.SourceURL, b.Strategy, b.EventCount,
		string(b.Status), b.StartedAt, b.CompletedAt, metadata)
	return mapError(err)
}

func (s *store) GetHarvestBatch(ctx context.Context, id uuid.UUID) (*domain.HarvestBatch, error) {
	b, err := scanHarvestBatch(s.q.QueryRowContext(ctx, `SELECT `+harvestColumns+` FROM harvest_batches WHERE id = ?`, id))
	if isNoRows(err) {
		return nil, nil
	}
	return b, err
}

// ListHarvestBatches returns the most recently started batches first
func (s *store) ListHarvestBatches(ctx context.Context, filter domain.HarvestBatchFilter) ([]domain.HarvestBatch, error) {
	query := `SELECT ` + harvestColumns + ` FROM harvest_batches`
	var where []string
	args := []interface{}{}

	if filter.TopicSlug != "" {
		where = append(where, `topic_id IN (SELECT id FROM topics WHERE slug = ?)`)
		args = append(args, filter.TopicSlug)
	}
	if filter.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, string(filter.Status))
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY started_at DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []domain.HarvestBatch
	for rows.Next() {
		b, err := scanHarvestBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	return batches, rows.Err()
}

// UpdateHarvestBatch persists status, count, completion time and metadata
func (s *store) UpdateHarvestBatch(ctx context.Context, b *domain.HarvestBatch) error {
	metadata, err := encodeMetadata(b.Metadata)
	if err != nil {
		return fmt.Errorf("%w: metadata_json: %v", domain.ErrInvalidInput, err)
	}
	query := `UPDATE harvest_batches SET status = ?, event_count = ?, completed_at = ?, metadata_json = ? WHERE id = ?`
	res, err := s.q.ExecContext(ctx, query, string(b.Status), b.EventCount, b.CompletedAt, metadata, b.ID)
	if err != nil {
		return mapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("harvest batch %s: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}
