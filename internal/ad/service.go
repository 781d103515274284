// AngelaMos | 2026
// service.go

package ad

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketflow/agency-api/internal/audit"
	"github.com/marketflow/agency-api/internal/cache"
	"github.com/marketflow/agency-api/internal/core"
)

// ErrCompleted is returned when moving an ad that has finished.
var ErrCompleted = fmt.Errorf("ad completed: %w", core.ErrConflict)

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

func (s *Service) List(ctx context.Context, params ListParams) ([]View, error) {
	scope := cache.Scope{
		Collections: []string{cache.Ads},
		Params:      params,
	}

	return cache.Fetch(ctx, s.cache, scope, func(ctx context.Context) ([]View, error) {
		ads, err := s.repo.List(ctx, params)
		if err != nil {
			return nil, err
		}
		return NewViews(ads), nil
	})
}

func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := NewView(*a)
	return &v, nil
}

func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreateRequest,
) (*View, error) {
	if req.EndDate != nil && req.StartDate != "" && *req.EndDate < req.StartDate {
		return nil, fmt.Errorf("end_date before start_date: %w", core.ErrInvalidInput)
	}

	a := &Ad{
		ID:        uuid.New().String(),
		BriefID:   req.BriefID,
		ClientID:  req.ClientID,
		Type:      req.Type,
		Platform:  req.Platform,
		Budget:    req.Budget,
		Spent:     req.Spent,
		Leads:     req.Leads,
		Reach:     req.Reach,
		CTR:       req.CTR,
		Status:    StatusActive,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.changed(ctx, audit.Change{
		RecordID: a.ID,
		Action:   audit.ActionCreate,
		UserID:   userID,
		New:      a,
	})

	v := NewView(*a)
	return &v, nil
}

func (s *Service) Update(
	ctx context.Context,
	userID, id string,
	req UpdateRequest,
) (*View, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *a

	to, moving := req.statusChange(a)
	if moving && a.Status == StatusCompleted {
		return nil, fmt.Errorf("update ad %s: %w", id, ErrCompleted)
	}

	req.apply(a)
	if a.EndDate != nil && *a.EndDate < a.StartDate {
		return nil, fmt.Errorf("end_date before start_date: %w", core.ErrInvalidInput)
	}

	if moving {
		updated, err := s.repo.SetStatus(ctx, id, before.Status, to)
		if err != nil {
			return nil, err
		}
		a.Status = updated.Status
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.changed(ctx, audit.Change{
		RecordID: id,
		Action:   audit.ActionUpdate,
		UserID:   userID,
		Old:      before,
		New:      a,
	})

	v := NewView(*a)
	return &v, nil
}

// Toggle flips an ad between active and paused. Completed ads stay put.
func (s *Service) Toggle(ctx context.Context, userID, id string) (*View, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var to string
	switch a.Status {
	case StatusActive:
		to = StatusPaused
	case StatusPaused:
		to = StatusActive
	default:
		return nil, fmt.Errorf("toggle ad %s: %w", id, ErrCompleted)
	}

	updated, err := s.repo.SetStatus(ctx, id, a.Status, to)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, audit.Change{
		RecordID: id,
		Action:   audit.ActionUpdate,
		UserID:   userID,
		Old:      map[string]string{"status": a.Status},
		New:      map[string]string{"status": to},
	})

	v := NewView(*updated)
	return &v, nil
}

func (s *Service) changed(ctx context.Context, change audit.Change) {
	change.Table = "ads"
	s.audit.RecordQuietly(ctx, change)
	s.cache.InvalidateQuietly(ctx, cache.Ads)
}
