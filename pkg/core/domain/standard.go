package domain

import "github.com/google/uuid"

// Framework is a curriculum standards framework such as Common Core
type Framework struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Subject     string    `json:"subject"`
	GradeLevels string    `json:"grade_levels"`
}

// Standard is one learning standard within a framework. Code is unique per
// framework.
type Standard struct {
	ID            uuid.UUID `json:"id"`
	FrameworkID   uuid.UUID `json:"-"`
	FrameworkCode string    `json:"framework_code"`
	Code          string    `json:"code"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	GradeLevel    string    `json:"grade_level"`
	Strand        string    `json:"strand"`
}

// StandardBrief is the slice of a standard embedded in event details
type StandardBrief struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Title         string    `json:"title"`
	FrameworkCode string    `json:"framework_code"`
	GradeLevel    string    `json:"grade_level"`
}

// StandardFilter narrows standard searches. Empty fields do not filter.
type StandardFilter struct {
	Framework string
	Grade     string
	Query     string
}
