// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/middleware"
	"github.com/marketflow/agency-api/internal/workflow"
)

type fakeTokens struct {
	mu     sync.Mutex
	byID   map[string]*RefreshToken
	swept  int
	active int
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byID: map[string]*RefreshToken{}}
}

func (f *fakeTokens) Create(_ context.Context, t *RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.CreatedAt = time.Now()
	cp := *t
	f.byID[t.ID] = &cp
	return nil
}

func (f *fakeTokens) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeTokens) FindByID(_ context.Context, id string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokens) MarkAsUsed(_ context.Context, id, replacedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || t.IsUsed {
		return core.ErrNotFound
	}
	t.IsUsed = true
	t.ReplacedByID = &replacedBy
	return nil
}

func (f *fakeTokens) revoke(match func(*RefreshToken) bool) {
	now := time.Now()
	for _, t := range f.byID {
		if match(t) && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
}

func (f *fakeTokens) RevokeByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoke(func(t *RefreshToken) bool { return t.ID == id })
	return nil
}

func (f *fakeTokens) RevokeByFamilyID(_ context.Context, family string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoke(func(t *RefreshToken) bool { return t.FamilyID == family })
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoke(func(t *RefreshToken) bool { return t.UserID == userID })
	return nil
}

func (f *fakeTokens) GetActiveSessionsForUser(
	_ context.Context,
	userID string,
) ([]RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RefreshToken
	for _, t := range f.byID {
		if t.UserID == userID && t.IsValid() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTokens) CountActive(context.Context) (int, error) {
	return f.active, nil
}

func (f *fakeTokens) DeleteExpired(context.Context, time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swept++
	return 0, nil
}

type fakeProfiles struct {
	byEmail map[string]*UserInfo
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	return u, nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*UserInfo, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeProfiles) Create(
	_ context.Context,
	email, hash, name string,
) (*UserInfo, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, core.ErrDuplicateKey
	}
	u := &UserInfo{
		ID:           "profile-" + name,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeProfiles) IncrementTokenVersion(_ context.Context, id string) error {
	u, err := f.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	u.TokenVersion++
	return nil
}

func (f *fakeProfiles) UpdatePassword(_ context.Context, id, hash string) error {
	u, err := f.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

type fakeIssuer struct {
	parsed *middleware.AccessTokenClaims
	n      int
}

func (f *fakeIssuer) CreateAccessToken(c AccessTokenClaims) (string, error) {
	return "access-" + c.UserID, nil
}

func (f *fakeIssuer) ParseAccessToken(
	context.Context,
	string,
) (*middleware.AccessTokenClaims, error) {
	if f.parsed == nil {
		return nil, core.ErrTokenInvalid
	}
	return f.parsed, nil
}

func (f *fakeIssuer) CreateRefreshToken(
	userID, familyID string,
) (*RefreshTokenData, error) {
	f.n++
	token := userID + "-refresh-" + time.Now().Format(time.RFC3339Nano) + string(rune('a'+f.n))
	if familyID == "" {
		familyID = "family-" + userID
	}
	return &RefreshTokenData{
		Token:     token,
		Hash:      core.HashToken(token),
		ExpiresAt: time.Now().Add(time.Hour),
		FamilyID:  familyID,
	}, nil
}

func (f *fakeIssuer) AccessTokenTTL() time.Duration {
	return 15 * time.Minute
}

type fakeBlacklist struct {
	keys map[string]bool
}

func (f *fakeBlacklist) Set(
	_ context.Context,
	key string,
	_ any,
	_ time.Duration,
) *redis.StatusCmd {
	f.keys[key] = true
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeBlacklist) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if f.keys[k] {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type fixture struct {
	svc       *Service
	tokens    *fakeTokens
	profiles  *fakeProfiles
	issuer    *fakeIssuer
	blacklist *fakeBlacklist
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hash, err := core.HashPassword("secret123")
	require.NoError(t, err)

	f := &fixture{
		tokens: newFakeTokens(),
		profiles: &fakeProfiles{byEmail: map[string]*UserInfo{
			"dana@agency.test": {
				ID:           "profile-dana",
				Email:        "dana@agency.test",
				Name:         "Dana",
				PasswordHash: hash,
				Role:         workflow.RoleDMManager,
			},
		}},
		issuer:    &fakeIssuer{},
		blacklist: &fakeBlacklist{keys: map[string]bool{}},
	}
	f.svc = NewService(f.tokens, f.issuer, f.profiles, f.blacklist)
	return f
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, LoginRequest{
		Email:    "Dana@Agency.test",
		Password: "secret123",
	}, "ua", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "access-profile-dana", resp.Tokens.AccessToken)
	assert.Equal(t, 900, resp.Tokens.ExpiresIn)
	require.NotNil(t, resp.User.Role)
	assert.Equal(t, workflow.RoleDMManager, *resp.User.Role)

	_, err = f.svc.Login(ctx, LoginRequest{
		Email:    "dana@agency.test",
		Password: "wrong",
	}, "ua", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginRequest{
		Email:    "nobody@agency.test",
		Password: "secret123",
	}, "ua", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, RegisterRequest{
		Email:    "sam@agency.test",
		Password: "hunter22",
		Name:     "Sam",
	}, "ua", "127.0.0.1")
	require.NoError(t, err)
	assert.Nil(t, resp.User.Role)
	assert.Equal(t, "No Role", resp.User.RoleLabel)

	_, err = f.svc.Register(ctx, RegisterRequest{
		Email:    "dana@agency.test",
		Password: "hunter22",
		Name:     "Dana",
	}, "ua", "127.0.0.1")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterRequest{
		Email:    " Sam@Agency.TEST ",
		Password: "hunter22",
		Name:     "Sam",
	}, "ua", "127.0.0.1")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, LoginRequest{
		Email:    "sam@agency.test",
		Password: "hunter22",
	}, "ua", "127.0.0.1")
	assert.NoError(t, err)
}

func TestRefreshRotatesAndDetectsReuse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginRequest{
		Email:    "dana@agency.test",
		Password: "secret123",
	}, "ua", "127.0.0.1")
	require.NoError(t, err)

	rotated, err := f.svc.Refresh(ctx, login.Tokens.RefreshToken, "ua", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	_, err = f.svc.Refresh(ctx, login.Tokens.RefreshToken, "ua", "127.0.0.1")
	assert.ErrorIs(t, err, ErrTokenReuse)

	_, err = f.svc.Refresh(ctx, rotated.Tokens.RefreshToken, "ua", "127.0.0.1")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.svc.Refresh(ctx, "unknown", "ua", "127.0.0.1")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

// racingTokens lets a concurrent refresh claim the token right after it
// was read.
type racingTokens struct {
	*fakeTokens
}

func (r racingTokens) FindByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	t, err := r.fakeTokens.FindByHash(ctx, hash)
	if err == nil {
		_ = r.fakeTokens.MarkAsUsed(ctx, t.ID, "winner")
	}
	return t, err
}

func TestRefreshLosingTheRaceRevokesFamily(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginRequest{
		Email:    "dana@agency.test",
		Password: "secret123",
	}, "ua", "127.0.0.1")
	require.NoError(t, err)

	racing := NewService(racingTokens{f.tokens}, f.issuer, f.profiles, f.blacklist)
	_, err = racing.Refresh(ctx, login.Tokens.RefreshToken, "ua", "127.0.0.1")
	assert.ErrorIs(t, err, ErrTokenReuse)

	sessions, err := f.tokens.GetActiveSessionsForUser(ctx, "profile-dana")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestLogoutBlacklistsAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginRequest{
		Email:    "dana@agency.test",
		Password: "secret123",
	}, "ua", "127.0.0.1")
	require.NoError(t, err)

	claims := &middleware.AccessTokenClaims{
		ID:        "jti-1",
		UserID:    "profile-dana",
		Role:      workflow.RoleDMManager,
		ExpiresAt: time.Now().Add(time.Minute),
	}
	f.issuer.parsed = claims

	_, err = f.svc.VerifyAccessToken(ctx, "token")
	require.NoError(t, err)

	err = f.svc.Logout(ctx, login.Tokens.RefreshToken, "profile-dana", claims)
	require.NoError(t, err)

	_, err = f.svc.VerifyAccessToken(ctx, "token")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	err = f.svc.Logout(ctx, login.Tokens.RefreshToken, "someone-else", nil)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestLogoutAllBumpsTokenVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.issuer.parsed = &middleware.AccessTokenClaims{
		UserID:       "profile-dana",
		TokenVersion: 0,
	}

	require.NoError(t, f.svc.LogoutAll(ctx, "profile-dana"))

	_, err := f.svc.VerifyAccessToken(ctx, "token")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestVerifyRejectsDeletedProfile(t *testing.T) {
	f := newFixture(t)
	f.issuer.parsed = &middleware.AccessTokenClaims{UserID: "gone"}

	_, err := f.svc.VerifyAccessToken(context.Background(), "token")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, "profile-dana", "wrong", "newsecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, f.svc.ChangePassword(ctx, "profile-dana", "secret123", "newsecret"))

	_, err = f.svc.Login(ctx, LoginRequest{
		Email:    "dana@agency.test",
		Password: "newsecret",
	}, "ua", "127.0.0.1")
	assert.NoError(t, err)
	assert.Equal(t, 1, f.profiles.byEmail["dana@agency.test"].TokenVersion)
}

func TestJanitorSweeps(t *testing.T) {
	tokens := newFakeTokens()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartJanitor(ctx, tokens, 5*time.Millisecond, discardLogger())

	assert.Eventually(t, func() bool {
		tokens.mu.Lock()
		defer tokens.mu.Unlock()
		return tokens.swept > 0
	}, time.Second, 5*time.Millisecond)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
