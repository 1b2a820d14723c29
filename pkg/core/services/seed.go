package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/lessonlines/lessonlines/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Catalog is the YAML seed file layout
type Catalog struct {
	Topics     []SeedTopic     `yaml:"topics"`
	Tags       []SeedTag       `yaml:"tags"`
	Frameworks []SeedFramework `yaml:"frameworks"`
	Events     []SeedEvent     `yaml:"events"`
}

type SeedTopic struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

type SeedTag struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category,omitempty"`
}

type SeedFramework struct {
	Code        string         `yaml:"code"`
	Name        string         `yaml:"name"`
	State       string         `yaml:"state,omitempty"`
	Subject     string         `yaml:"subject,omitempty"`
	GradeLevels string         `yaml:"grade_levels,omitempty"`
	Standards   []SeedStandard `yaml:"standards,omitempty"`
}

type SeedStandard struct {
	Code        string `yaml:"code"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	GradeLevel  string `yaml:"grade_level,omitempty"`
	Strand      string `yaml:"strand,omitempty"`
}

// StandardRef names a standard by framework code and standard code
type StandardRef struct {
	Framework string `yaml:"framework"`
	Code      string `yaml:"code"`
}

// SeedEvent dates are YYYY-MM-DD strings. Quote them in YAML so they are
// not read as timestamps.
type SeedEvent struct {
	Topic         string        `yaml:"topic"`
	Title         string        `yaml:"title"`
	Description   string        `yaml:"description,omitempty"`
	DateStart     string        `yaml:"date_start"`
	DateEnd       string        `yaml:"date_end,omitempty"`
	DateDisplay   string        `yaml:"date_display,omitempty"`
	DatePrecision string        `yaml:"date_precision,omitempty"`
	Location      string        `yaml:"location,omitempty"`
	SourceURL     string        `yaml:"source_url,omitempty"`
	ImageURL      string        `yaml:"image_url,omitempty"`
	Tags          []string      `yaml:"tags,omitempty"`
	Standards     []StandardRef `yaml:"standards,omitempty"`
}

// SeedResult counts what a seed run wrote. Events already in the catalog
// are counted as Skipped.
type SeedResult struct {
	Topics    int
	Tags      int
	Standards int
	Events    int
	Skipped   int
}

// ParseCatalog decodes a seed file, rejecting unknown fields
func ParseCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var catalog Catalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return &catalog, nil
}

// Seed writes the catalog in one transaction, so a failure leaves nothing
// behind. Topics, tags, frameworks and standards are upserted by their natural
// keys. Events are keyed by (topic, title, date_start) and skipped when
// already stored, which makes re-running a seed file a no-op.
func Seed(ctx context.Context, repo ports.CatalogRepository, catalog *Catalog) (SeedResult, error) {
	var res SeedResult
	err := repo.WithCatalogTx(ctx, func(tx ports.CatalogStore) error {
		var err error
		res, err = seedCatalog(ctx, tx, catalog)
		return err
	})
	if err != nil {
		return SeedResult{}, err
	}
	return res, nil
}

func seedCatalog(ctx context.Context, repo ports.CatalogStore, catalog *Catalog) (SeedResult, error) {
	var res SeedResult
	now := time.Now().UTC()

	topics := map[string]uuid.UUID{}
	for _, st := range catalog.Topics {
		if st.Slug == "" || st.Name == "" {
			return res, fmt.Errorf("%w: topic needs a slug and a name", domain.ErrInvalidInput)
		}
		topic := &domain.Topic{ID: uuid.New(), Slug: st.Slug, Name: st.Name, Description: st.Description, CreatedAt: now}
		if err := repo.UpsertTopic(ctx, topic); err != nil {
			return res, fmt.Errorf("upsert topic %s: %w", st.Slug, err)
		}
		topics[st.Slug] = topic.ID
		res.Topics++
	}

	tags := map[string]domain.Tag{}
	for _, st := range catalog.Tags {
		if st.Name == "" {
			return res, fmt.Errorf("%w: tag needs a name", domain.ErrInvalidInput)
		}
		tag := &domain.Tag{ID: uuid.New(), Name: st.Name, Category: st.Category}
		if err := repo.UpsertTag(ctx, tag); err != nil {
			return res, fmt.Errorf("upsert tag %s: %w", st.Name, err)
		}
		tags[st.Name] = *tag
		res.Tags++
	}

	standards := map[StandardRef]domain.StandardBrief{}
	for _, sf := range catalog.Frameworks {
		if sf.Code == "" || sf.Name == "" {
			return res, fmt.Errorf("%w: framework needs a code and a name", domain.ErrInvalidInput)
		}
		framework := &domain.Framework{
			ID: uuid.New(), Code: sf.Code, Name: sf.Name, State: sf.State, Subject: sf.Subject, GradeLevels: sf.GradeLevels,
		}
		if err := repo.UpsertFramework(ctx, framework); err != nil {
			return res, fmt.Errorf("upsert framework %s: %w", sf.Code, err)
		}
		for _, ss := range sf.Standards {
			if ss.Code == "" || ss.Title == "" {
				return res, fmt.Errorf("%w: standard in %s needs a code and a title", domain.ErrInvalidInput, sf.Code)
			}
			standard := &domain.Standard{
				ID: uuid.New(), FrameworkID: framework.ID, FrameworkCode: framework.Code, Code: ss.Code, Title: ss.Title,
				Description: ss.Description, GradeLevel: ss.GradeLevel, Strand: ss.Strand,
			}
			if err := repo.UpsertStandard(ctx, standard); err != nil {
				return res, fmt.Errorf("upsert standard %s %s: %w", sf.Code, ss.Code, err)
			}
			standards[StandardRef{Framework: sf.Code, Code: ss.Code}] = briefOf(standard)
			res.Standards++
		}
	}

	s := &seeder{repo: repo, topics: topics, tags: tags, standards: standards}
	for i, se := range catalog.Events {
		event, err := s.event(ctx, se)
		if err != nil {
			return res, fmt.Errorf("event %d (%s): %w", i, se.Title, err)
		}

		existing, err := repo.FindEvent(ctx, event.TopicID, event.Title, event.DateStart)
		if err != nil {
			return res, fmt.Errorf("find event %s: %w", se.Title, err)
		}
		if existing != nil {
			res.Skipped++
			continue
		}

		event.CreatedAt = now
		if err := repo.CreateEvent(ctx, event); err != nil {
			return res, fmt.Errorf("create event %s: %w", se.Title, err)
		}
		res.Events++
	}
	return res, nil
}

// seeder resolves the names an event refers to, caching what it has seen
type seeder struct {
	repo      ports.CatalogStore
	topics    map[string]uuid.UUID
	tags      map[string]domain.Tag
	standards map[StandardRef]domain.StandardBrief
}

func briefOf(st *domain.Standard) domain.StandardBrief {
	return domain.StandardBrief{
		ID: st.ID, Code: st.Code, Title: st.Title, FrameworkCode: st.FrameworkCode, GradeLevel: st.GradeLevel,
	}
}

func (s *seeder) event(ctx context.Context, se SeedEvent) (*domain.Event, error) {
	if se.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	topicID, ok := s.topics[se.Topic]
	if !ok {
		topic, err := s.repo.GetTopicBySlug(ctx, se.Topic)
		if err != nil {
			return nil, err
		}
		if topic == nil {
			return nil, fmt.Errorf("topic %q: %w", se.Topic, domain.ErrNotFound)
		}
		topicID = topic.ID
		s.topics[se.Topic] = topicID
	}

	start, err := domain.ParseDate(se.DateStart)
	if err != nil {
		return nil, err
	}
	event := &domain.Event{
		ID:            uuid.New(),
		TopicID:       topicID,
		Title:         se.Title,
		Description:   se.Description,
		DateStart:     start,
		DateDisplay:   se.DateDisplay,
		DatePrecision: orDefault(se.DatePrecision, "day"),
		Location:      se.Location,
		SourceURL:     se.SourceURL,
		ImageURL:      se.ImageURL,
	}
	if event.DateDisplay == "" {
		event.DateDisplay = start.Time().Format("January 2, 2006")
	}
	if se.DateEnd != "" {
		end, err := domain.ParseDate(se.DateEnd)
		if err != nil {
			return nil, err
		}
		event.DateEnd = &end
	}

	for _, name := range se.Tags {
		tag, ok := s.tags[name]
		if !ok {
			// tags not declared up front are created with no category
			tag = domain.Tag{ID: uuid.New(), Name: name}
			if err := s.repo.UpsertTag(ctx, &tag); err != nil {
				return nil, fmt.Errorf("upsert tag %s: %w", name, err)
			}
			s.tags[name] = tag
		}
		event.Tags = append(event.Tags, tag)
	}

	for _, ref := range se.Standards {
		brief, ok := s.standards[ref]
		if !ok {
			standard, err := s.repo.GetStandardByCode(ctx, ref.Framework, ref.Code)
			if err != nil {
				return nil, err
			}
			if standard == nil {
				return nil, fmt.Errorf("standard %s %s: %w", ref.Framework, ref.Code, domain.ErrNotFound)
			}
			brief = briefOf(standard)
			s.standards[ref] = brief
		}
		event.Standards = append(event.Standards, brief)
	}
	return event, nil
}
