package sqlite

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
)

func (s *store) ListFrameworks(ctx context.Context) ([]domain.Framework, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, code, name, state, subject, grade_levels FROM curriculum_frameworks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frameworks []domain.Framework
	for rows.Next() {
		var f domain.Framework
		if err := rows.Scan(&f.ID, &f.Code, &f.Name, &f.State, &f.Subject, &f.GradeLevels); err != nil {
			return nil, err
		}
		frameworks = append(frameworks, f)
	}
	return frameworks, rows.Err()
}

// UpsertFramework inserts by code or updates the existing row, and sets
// framework.ID to the stored id either way.
func (s *store) UpsertFramework(ctx context.Context, f *domain.Framework) error {
	query := `INSERT INTO curriculum_frameworks (id, code, name, state, subject, grade_levels) VALUES (?, ?, ?, ?, ?, ?)
			  ON CONFLICT(code) DO UPDATE SET name = excluded.name, state = excluded.state,
			  subject = excluded.subject, grade_levels = excluded.grade_levels`
	if _, err := s.q.ExecContext(ctx, query, f.ID, f.Code, f.Name, f.State, f.Subject, f.GradeLevels); err != nil {
		return mapError(err)
	}
	return s.q.QueryRowContext(ctx, `SELECT id FROM curriculum_frameworks WHERE code = ?`, f.Code).Scan(&f.ID)
}

const standardSelect = `SELECT cs.id, cs.framework_id, f.code, cs.code, cs.title, cs.description, cs.grade_level, cs.strand
	FROM curriculum_standards cs JOIN curriculum_frameworks f ON f.id = cs.framework_id`

func scanStandard(row interface{ Scan(...any) error }) (*domain.Standard, error) {
	var st domain.Standard
	err := row.Scan(&st.ID, &st.FrameworkID, &st.FrameworkCode, &st.Code, &st.Title, &st.Description, &st.GradeLevel, &st.Strand)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SearchStandards filters by framework code, grade level and text in the
// code, title or description, ordered by code.
func (s *store) SearchStandards(ctx context.Context, filter domain.StandardFilter) ([]domain.Standard, error) {
	query := standardSelect
	var where []string
	args := []interface{}{}

	if filter.Framework != "" {
		where = append(where, `f.code = ?`)
		args = append(args, filter.Framework)
	}
	if filter.Grade != "" {
		where = append(where, `cs.grade_level = ?`)
		args = append(args, filter.Grade)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, `(cs.title LIKE ? OR cs.description LIKE ? OR cs.code LIKE ?)`)
		args = append(args, "%"+q+"%", "%"+q+"%", "%"+q+"%")
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY cs.code`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var standards []domain.Standard
	for rows.Next() {
		st, err := scanStandard(rows)
		if err != nil {
			return nil, err
		}
		standards = append(standards, *st)
	}
	return standards, rows.Err()
}

func (s *store) GetStandard(ctx context.Context, id uuid.UUID) (*domain.Standard, error) {
	st, err := scanStandard(s.q.QueryRowContext(ctx, standardSelect+` WHERE cs.id = ?`, id))
	if isNoRows(err) {
		return nil, nil
	}
	return st, err
}

func (s *store) GetStandardByCode(ctx context.Context, frameworkCode, code string) (*domain.Standard, error) {
	st, err := scanStandard(s.q.QueryRowContext(ctx, standardSelect+` WHERE f.code = ? AND cs.code = ?`, frameworkCode, code))
	if isNoRows(err) {
		return nil, nil
	}
	return st, err
}

// UpsertStandard inserts by (framework, code) or updates the existing row,
// and sets standard.ID to the stored id either way.
func (s *store) UpsertStandard(ctx context.Context, st *domain.Standard) error {
	query := `INSERT INTO curriculum_standards (id, framework_id, code, title, description, grade_level, strand)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(framework_id, code) DO UPDATE SET title = excluded.title, description = excluded.description,
			  grade_level = excluded.grade_level, strand = excluded.strand`
	_, err := s.q.ExecContext(ctx, query, st.ID, st.FrameworkID, st.Code, st.Title, st.Description, st.GradeLevel, st.Strand)
	if err != nil {
		return mapError(err)
	}
	return s.q.QueryRowContext(ctx, `SELECT id FROM curriculum_standards WHERE framework_id = ? AND code = ?`, st.FrameworkID, st.Code).
		Scan(&st.ID)
}

func (s *store) eventStandards(ctx context.Context, eventID uuid.UUID) ([]domain.StandardBrief, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT cs.id, cs.code, cs.title, f.code, cs.grade_level FROM event_standards es
		JOIN curriculum_standards cs ON cs.id = es.standard_id
		JOIN curriculum_frameworks f ON f.id = cs.framework_id
		WHERE es.event_id = ? ORDER BY cs.code`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standards := []domain.StandardBrief{}
	for rows.Next() {
		var b domain.StandardBrief
		if err := rows.Scan(&b.ID, &b.Code, &b.Title, &b.FrameworkCode, &b.GradeLevel); err != nil {
			return nil, err
		}
		standards = append(standards, b)
	}
	return standards, rows.Err()
}
