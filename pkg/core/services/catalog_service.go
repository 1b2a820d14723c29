package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/lessonlines/lessonlines/pkg/ports"
)

type CatalogService struct {
	repo ports.CatalogRepository
}

func NewCatalogService(repo ports.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	topics, err := s.repo.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []domain.Topic{}
	}
	return topics, nil
}

func (s *CatalogService) ListTags(ctx context.Context, category string) ([]domain.Tag, error) {
	tags, err := s.repo.ListTags(ctx, category)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	return tags, nil
}

func (s *CatalogService) SearchEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	events, err := s.repo.SearchEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.Event{}
	}
	return events, nil
}

func (s *CatalogService) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", id, domain.ErrNotFound)
	}
	return event, nil
}

func (s *CatalogService) ListFrameworks(ctx context.Context) ([]domain.Framework, error) {
	frameworks, err := s.repo.ListFrameworks(ctx)
	if err != nil {
		return nil, err
	}
	if frameworks == nil {
		frameworks = []domain.Framework{}
	}
	return frameworks, nil
}

func (s *CatalogService) SearchStandards(ctx context.Context, filter domain.StandardFilter) ([]domain.Standard, error) {
	standards, err := s.repo.SearchStandards(ctx, filter)
	if err != nil {
		return nil, err
	}
	if standards == nil {
		standards = []domain.Standard{}
	}
	return standards, nil
}

func (s *CatalogService) GetStandard(ctx context.Context, id uuid.UUID) (*domain.Standard, error) {
	standard, err := s.repo.GetStandard(ctx, id)
	if err != nil {
		return nil, err
	}
	if standard == nil {
		return nil, fmt.Errorf("standard %s: %w", id, domain.ErrNotFound)
	}
	return standard, nil
}
