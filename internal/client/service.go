// AngelaMos | 2026
// service.go

package client

import (
	"context"

	"github.com/google/uuid"

	"github.com/marketflow/agency-api/internal/audit"
	"github.com/marketflow/agency-api/internal/cache"
)

type Auditor interface {
	RecordQuietly(ctx context.Context, c audit.Change)
}

type Service struct {
	repo  Repository
	cache *cache.Cache
	audit Auditor
}

func NewService(repo Repository, c *cache.Cache, auditor Auditor) *Service {
	return &Service{repo: repo, cache: c, audit: auditor}
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Client, error) {
	scope := cache.Scope{
		Collections: []string{cache.Clients},
		Params:      params,
	}

	return cache.Fetch(ctx, s.cache, scope, func(ctx context.Context) ([]Client, error) {
		return s.repo.List(ctx, params)
	})
}

func (s *Service) Get(ctx context.Context, id string) (*Client, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreateRequest,
) (*Client, error) {
	c := &Client{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Industry:      req.Industry,
		LogoURL:       req.LogoURL,
		MonthlyBudget: req.MonthlyBudget,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.changed(ctx, audit.Change{
		RecordID: c.ID,
		Action:   audit.ActionCreate,
		UserID:   userID,
		New:      c,
	})

	return c, nil
}

func (s *Service) Update(
	ctx context.Context,
	userID, id string,
	req UpdateRequest,
) (*Client, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *c

	req.apply(c)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.changed(ctx, audit.Change{
		RecordID: c.ID,
		Action:   audit.ActionUpdate,
		UserID:   userID,
		Old:      before,
		New:      c,
	})

	return c, nil
}

func (s *Service) Deactivate(
	ctx context.Context,
	userID, id string,
) (*Client, error) {
	c, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, audit.Change{
		RecordID: c.ID,
		Action:   audit.ActionDeactivate,
		UserID:   userID,
		New:      map[string]bool{"is_active": false},
	})

	return c, nil
}

func (s *Service) changed(ctx context.Context, change audit.Change) {
	change.Table = "clients"
	s.audit.RecordQuietly(ctx, change)
	s.cache.InvalidateQuietly(ctx, cache.Clients)
}
