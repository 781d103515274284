// AngelaMos | 2026
// service.go

package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/marketflow/agency-api/internal/auth"
	"github.com/marketflow/agency-api/internal/cache"
	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/workflow"
)

type Service struct {
	repo  Repository
	cache *cache.Cache
}

func NewService(repo Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(p), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	p, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(p), nil
}

// Create registers a profile without a role.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	p := &Profile{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Name:         name,
		Role:         workflow.RoleNone,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.cache.InvalidateQuietly(ctx, cache.Profiles)

	return toUserInfo(p), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	if id == "" {
		return nil, fmt.Errorf("get profile: %w", core.ErrUnauthorized)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateProfileRequest,
) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.AvatarURL != nil {
		p.AvatarURL = req.AvatarURL
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.cache.InvalidateQuietly(ctx, cache.Profiles)

	return p, nil
}

// AssignRole gives a profile one of the agency roles. Admins cannot change
// their own role.
func (s *Service) AssignRole(
	ctx context.Context,
	requesterID, targetID string,
	role workflow.Role,
) (*Profile, error) {
	if !role.Valid() {
		return nil, fmt.Errorf(
			"assign role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}
	if requesterID == targetID {
		return nil, fmt.Errorf("assign own role: %w", core.ErrForbidden)
	}

	p, err := s.repo.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateQuietly(ctx, cache.Profiles)

	return p, nil
}

// Delete soft deletes a profile. Admin profiles and the requester's own
// profile are protected.
func (s *Service) Delete(ctx context.Context, requesterID, targetID string) error {
	if requesterID == targetID {
		return fmt.Errorf("delete own profile: %w", core.ErrForbidden)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.IsAdmin() {
		return fmt.Errorf("delete admin profile: %w", core.ErrForbidden)
	}

	if err := s.repo.SoftDelete(ctx, targetID); err != nil {
		return err
	}
	s.cache.InvalidateQuietly(ctx, cache.Profiles)

	return nil
}

type Page struct {
	Profiles []ProfileResponse `json:"profiles"`
	Total    int               `json:"total"`
}

func (s *Service) List(ctx context.Context, params ListParams) (Page, error) {
	params.Normalize()

	scope := cache.Scope{
		Collections: []string{cache.Profiles},
		Params:      params,
	}

	return cache.Fetch(ctx, s.cache, scope, func(ctx context.Context) (Page, error) {
		profiles, total, err := s.repo.List(ctx, params)
		if err != nil {
			return Page{}, err
		}
		return Page{Profiles: ToResponseList(profiles), Total: total}, nil
	})
}

func toUserInfo(p *Profile) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           p.ID,
		Email:        p.Email,
		Name:         p.Name,
		PasswordHash: p.PasswordHash,
		Role:         p.Role,
		AvatarURL:    p.AvatarURL,
		TokenVersion: p.TokenVersion,
		CreatedAt:    p.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
