package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/lessonlines/lessonlines/pkg/ports"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - timelines, entries, catalog and candidates
// 2 - curriculum standards, harvest batches, candidate_events.harvest_batch_id
const currentSchemaVersion = 2

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// store runs every query against q. The Repository's store uses the pool,
// WithTx hands out one bound to the transaction.
type store struct {
	q querier
}

type Repository struct {
	*store
	db     *sql.DB
	remote bool
}

// Open connects to dbURL and applies the schema. libsql:// and wss:// URLs go
// to Turso, anything else is a local SQLite file.
func Open(dbURL string) (*Repository, error) {
	driverName := "sqlite"
	remote := strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://")
	if remote {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if !remote {
		// SQLite allows one writer; a single connection also keeps
		// connection-scoped pragmas in force.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Repository{store: &store{q: db}, db: db, remote: remote}, nil
}

func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Ping checks the connection, for health probes
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}

	if version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV2 links candidates to harvest batches. New databases get the
// column from schema.sql; v1 databases need it added.
func migrateToV2(db *sql.DB) error {
	exists, err := hasColumn(db, "candidate_events", "harvest_batch_id")
	if err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	if !exists {
		_, err := db.Exec(`ALTER TABLE candidate_events
			ADD COLUMN harvest_batch_id TEXT REFERENCES harvest_batches(id) ON DELETE SET NULL`)
		if err != nil {
			return fmt.Errorf("migrate to v2: %w", err)
		}
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_candidate_events_batch ON candidate_events(harvest_batch_id)`); err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	return nil
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// SchemaVersion reports the applied schema version
func (r *Repository) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := r.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
	return version, err
}

// WithTx runs fn in a transaction, committing only when fn returns nil
func (r *Repository) WithTx(ctx context.Context, fn func(tx ports.TimelineStore) error) error {
	return r.inTx(ctx, func(s *store) error { return fn(s) })
}

// WithCatalogTx is WithTx for catalog writes
func (r *Repository) WithCatalogTx(ctx context.Context, fn func(tx ports.CatalogStore) error) error {
	return r.inTx(ctx, func(s *store) error { return fn(s) })
}

func (r *Repository) inTx(ctx context.Context, fn func(s *store) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&store{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// mapError turns constraint failures into domain errors. Both drivers only
// expose them through the message text.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", domain.ErrConstraintViolation, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	default:
		return err
	}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

func datePtr(n sql.NullString) (*domain.Date, error) {
	if !n.Valid || n.String == "" {
		return nil, nil
	}
	var d domain.Date
	if err := d.Scan(n.String); err != nil {
		return nil, err
	}
	return &d, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

var (
	_ ports.TimelineRepository  = (*Repository)(nil)
	_ ports.CatalogRepository   = (*Repository)(nil)
	_ ports.CandidateRepository = (*Repository)(nil)
)
