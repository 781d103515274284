// AngelaMos | 2026
// service.go

package analytics

import (
	"context"

	"github.com/marketflow/agency-api/internal/cache"
)

type Service struct {
	repo  Repository
	cache *cache.Cache
}

func NewService(repo Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

func (s *Service) AdSummary(
	ctx context.Context,
	clientID string,
) (AdSummary, error) {
	scope := cache.Scope{
		Collections: []string{cache.Ads},
		Params:      map[string]string{"view": "ads", "client_id": clientID},
	}

	return cache.Fetch(ctx, s.cache, scope,
		func(ctx context.Context) (AdSummary, error) {
			ads, err := s.repo.Ads(ctx, clientID)
			if err != nil {
				return AdSummary{}, err
			}
			return SummarizeAds(ads), nil
		})
}

func (s *Service) ClientSummaries(
	ctx context.Context,
) ([]ClientSummary, error) {
	scope := cache.Scope{
		Collections: []string{cache.Clients, cache.Briefs, cache.Ads},
		Params:      "clients",
	}

	return cache.Fetch(ctx, s.cache, scope,
		func(ctx context.Context) ([]ClientSummary, error) {
			clients, err := s.repo.Clients(ctx)
			if err != nil {
				return nil, err
			}
			briefs, err := s.repo.Briefs(ctx)
			if err != nil {
				return nil, err
			}
			ads, err := s.repo.Ads(ctx, "")
			if err != nil {
				return nil, err
			}
			return SummarizeClients(clients, briefs, ads), nil
		})
}

func (s *Service) Dashboard(ctx context.Context) (DashboardSummary, error) {
	scope := cache.Scope{
		Collections: []string{cache.Tasks, cache.Briefs, cache.Ads},
		Params:      "dashboard",
	}

	return cache.Fetch(ctx, s.cache, scope,
		func(ctx context.Context) (DashboardSummary, error) {
			tasks, err := s.repo.Tasks(ctx)
			if err != nil {
				return DashboardSummary{}, err
			}
			briefs, err := s.repo.Briefs(ctx)
			if err != nil {
				return DashboardSummary{}, err
			}
			ads, err := s.repo.Ads(ctx, "")
			if err != nil {
				return DashboardSummary{}, err
			}
			return Dashboard(tasks, briefs, ads), nil
		})
}
