package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultColorScheme = "blue_green"
	DefaultLayout      = "horizontal"
	DefaultFont        = "system"
)

// Timeline is a user-owned ordered collection of entries
type Timeline struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Title       string          `json:"title"`
	Subtitle    *string         `json:"subtitle"`
	ColorScheme string          `json:"color_scheme"`
	Layout      string          `json:"layout"`
	Font        string          `json:"font"`
	IsPublic    bool            `json:"is_public"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Entries     []TimelineEntry `json:"events"` // Ordered by position
}

// TimelineEntry is one slot in a timeline, referencing a catalog event or
// carrying free-text override content
type TimelineEntry struct {
	ID                uuid.UUID     `json:"id"`
	TimelineID        uuid.UUID     `json:"timeline_id"`
	EventID           *uuid.UUID    `json:"event_id"`
	Position          int           `json:"position"`
	CustomTitle       *string       `json:"custom_title"`
	CustomDescription *string       `json:"custom_description"`
	CustomDateDisplay *string       `json:"custom_date_display"`
	CustomDateStart   *Date         `json:"custom_date_start"`
	CreatedAt         time.Time     `json:"created_at"`
	Event             *EventSummary `json:"event"` // Populated when EventID references the catalog
}

// EffectiveDate is the override date, else the referenced event's start date.
// Nil means the entry is undated.
func (e TimelineEntry) EffectiveDate() *Date {
	if e.CustomDateStart != nil {
		return e.CustomDateStart
	}
	if e.Event != nil {
		d := e.Event.DateStart
		return &d
	}
	return nil
}

// NewEntry is the payload for adding an entry to a timeline
type NewEntry struct {
	EventID           *uuid.UUID `json:"event_id"`
	CustomTitle       *string    `json:"custom_title"`
	CustomDescription *string    `json:"custom_description"`
	CustomDateDisplay *string    `json:"custom_date_display"`
	CustomDateStart   *Date      `json:"custom_date_start"`
}

// TimelineSettings holds the fields set when creating a timeline
type TimelineSettings struct {
	Title       string  `json:"title"`
	Subtitle    *string `json:"subtitle"`
	ColorScheme string  `json:"color_scheme"`
	Layout      string  `json:"layout"`
	Font        string  `json:"font"`
}

// TimelineUpdate is a partial update; nil fields are left untouched
type TimelineUpdate struct {
	Title       *string `json:"title"`
	Subtitle    *string `json:"subtitle"`
	ColorScheme *string `json:"color_scheme"`
	Layout      *string `json:"layout"`
	Font        *string `json:"font"`
	IsPublic    *bool   `json:"is_public"`
}
