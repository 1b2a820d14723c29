package domain

import "errors"

var (
	// ErrNotFound covers a missing timeline, entry-at-position or catalog event
	ErrNotFound = errors.New("not found")

	// ErrInvalidPermutation is returned when a reorder list cannot be applied
	ErrInvalidPermutation = errors.New("invalid permutation")

	// ErrConstraintViolation means the store rejected a write on the
	// (timeline_id, position) uniqueness constraint. It signals a bug in the
	// position engine and must never be retried.
	ErrConstraintViolation = errors.New("position constraint violation")

	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)
