// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/middleware"
	"github.com/marketflow/agency-api/internal/workflow"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
)

// Messages shown to people signing in or up.
const (
	MsgInvalidCredentials = "Invalid email or password. Please try again."
	MsgEmailRegistered    = "This email is already registered. Please log in instead."
)

type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         workflow.Role
	AvatarURL    *string
	TokenVersion int
	CreatedAt    time.Time
}

// UserProvider is the profile store the identity provider signs people
// in against.
type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// TokenIssuer signs and parses tokens.
type TokenIssuer interface {
	CreateAccessToken(claims AccessTokenClaims) (string, error)
	ParseAccessToken(
		ctx context.Context,
		token string,
	) (*middleware.AccessTokenClaims, error)
	CreateRefreshToken(userID, familyID string) (*RefreshTokenData, error)
	AccessTokenTTL() time.Duration
}

// Blacklist remembers revoked access tokens until they expire.
type Blacklist interface {
	Set(
		ctx context.Context,
		key string,
		value any,
		expiration time.Duration,
	) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

type Service struct {
	repo         Repository
	jwt          TokenIssuer
	userProvider UserProvider
	blacklist    Blacklist
}

func NewService(
	repo Repository,
	jwt TokenIssuer,
	userProvider UserProvider,
	blacklist Blacklist,
) *Service {
	return &Service{
		repo:         repo,
		jwt:          jwt,
		userProvider: userProvider,
		blacklist:    blacklist,
	}
}

// VerifyAccessToken parses the token and rejects it when it was revoked
// individually or by a later logout-all.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.ParseAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if claims.ID != "" {
		revoked, err := s.IsAccessTokenBlacklisted(ctx, claims.ID)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "blacklist lookup failed", "error", err)
		case revoked:
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
	}

	err = s.ValidateTokenVersion(ctx, claims.UserID, claims.TokenVersion)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("verify token: profile gone: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return nil, err
	}

	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	var stored *string
	user, err := s.userProvider.GetByEmail(ctx, normalizeEmail(req.Email))
	switch {
	case errors.Is(err, core.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("find profile: %w", err)
	default:
		stored = &user.PasswordHash
	}

	// Unknown emails still pay for a hash so they cannot be told apart.
	valid, upgraded, err := core.VerifyPasswordTimingSafe(req.Password, stored)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if upgraded != "" {
		if err := s.userProvider.UpdatePassword(ctx, user.ID, upgraded); err != nil {
			slog.WarnContext(ctx, "password hash upgrade skipped",
				"profile_id", user.ID,
				"error", err,
			)
		}
	}

	return s.issue(ctx, user, userAgent, ipAddress, "", "")
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(
		ctx,
		normalizeEmail(req.Email),
		passwordHash,
		strings.TrimSpace(req.Name),
	)
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	return s.issue(ctx, user, userAgent, ipAddress, "", "")
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// claimed before the replacement is issued, so of two concurrent refreshes
// only one wins and the other is treated as reuse.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}

	switch {
	case stored.IsUsed:
		return nil, s.reused(ctx, stored)
	case stored.IsRevoked():
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	case stored.IsExpired():
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	nextID := uuid.NewString()
	err = s.repo.MarkAsUsed(ctx, stored.ID, nextID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, s.reused(ctx, stored)
	}
	if err != nil {
		return nil, fmt.Errorf("claim token: %w", err)
	}

	user, err := s.userProvider.GetByID(ctx, stored.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("refresh: profile gone: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}

	return s.issue(ctx, user, userAgent, ipAddress, stored.FamilyID, nextID)
}

// reused signs the whole family out after a refresh token was presented a
// second time.
func (s *Service) reused(ctx context.Context, stored *RefreshToken) error {
	slog.WarnContext(ctx, "refresh token reuse",
		"profile_id", stored.UserID,
		"family_id", stored.FamilyID,
	)
	if err := s.repo.RevokeByFamilyID(ctx, stored.FamilyID); err != nil {
		slog.ErrorContext(ctx, "revoke token family", "error", err)
	}
	return ErrTokenReuse
}

// Logout revokes the refresh token and, when given, the access token the
// request was made with.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken, userID string,
	access *middleware.AccessTokenClaims,
) error {
	if access != nil && access.ID != "" {
		if err := s.RevokeAccessToken(ctx, access.ID, access.ExpiresAt); err != nil {
			slog.WarnContext(ctx, "access token not blacklisted", "error", err)
		}
	}

	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find token: %w", err)
	}
	if stored.UserID != userID {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	err = s.repo.RevokeByID(ctx, stored.ID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// LogoutAll revokes every refresh token and bumps token_version, which
// invalidates access tokens already handed out.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}
	return nil
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}

// RevokeAccessToken blacklists jti until the token would have expired
// anyway.
func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.Set(ctx, blacklistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	n, err := s.blacklist.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return n > 0, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.GetActiveSessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]SessionInfo, len(tokens))
	for i := range tokens {
		sessions[i] = tokens[i].session()
	}
	return sessions, nil
}

// RevokeSession signs out one of the caller's own sessions.
func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	stored, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}
	if stored.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}
	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// ChangePassword replaces the password and signs every session out,
// including the caller's.
func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find profile: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrInvalidCredentials
	}

	hash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userProvider.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

// ValidateTokenVersion fails with ErrTokenRevoked when the profile has
// logged out everywhere since the token was issued.
func (s *Service) ValidateTokenVersion(
	ctx context.Context,
	userID string,
	tokenVersion int,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find profile: %w", err)
	}
	if tokenVersion < user.TokenVersion {
		return fmt.Errorf("token version %d < %d: %w",
			tokenVersion, user.TokenVersion, core.ErrTokenRevoked)
	}
	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// issue signs an access token and stores a new refresh token for user.
// familyID and tokenID are empty for a fresh sign in.
func (s *Service) issue(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID, tokenID string,
) (*AuthResponse, error) {
	access, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refresh, err := s.jwt.CreateRefreshToken(user.ID, familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	if tokenID == "" {
		tokenID = uuid.NewString()
	}
	err = s.repo.Create(ctx, &RefreshToken{
		ID:        tokenID,
		UserID:    user.ID,
		TokenHash: refresh.Hash,
		FamilyID:  refresh.FamilyID,
		ExpiresAt: refresh.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	ttl := s.jwt.AccessTokenTTL()
	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  access,
			RefreshToken: refresh.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    time.Now().Add(ttl),
		},
	}, nil
}

// ActiveSessions counts refresh tokens that can still be exchanged.
func (s *Service) ActiveSessions(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}
