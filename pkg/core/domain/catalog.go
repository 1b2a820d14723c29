package domain

import (
	"time"

	"github.com/google/uuid"
)

type Topic struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Tag struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
}

// Event is a curated catalog record
type Event struct {
	ID            uuid.UUID       `json:"id"`
	TopicID       uuid.UUID       `json:"topic_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	DateStart     Date            `json:"date_start"`
	DateEnd       *Date           `json:"date_end"`
	DateDisplay   string          `json:"date_display"`
	DatePrecision string          `json:"date_precision"`
	Location      string          `json:"location"`
	SourceURL     string          `json:"source_url"`
	ImageURL      string          `json:"image_url"`
	Tags          []Tag           `json:"tags"`
	Standards     []StandardBrief `json:"standards"`
	CreatedAt     time.Time       `json:"created_at"`
}

// EventSummary is the slice of an event embedded in timeline entries
type EventSummary struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DateStart   Date      `json:"date_start"`
	DateDisplay string    `json:"date_display"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"image_url"`
}

// EventFilter narrows catalog searches. Empty fields do not filter.
type EventFilter struct {
	TopicSlug  string
	Query      string
	Tag        string
	StandardID *uuid.UUID
	Grade      string // grade level of an aligned standard
}
