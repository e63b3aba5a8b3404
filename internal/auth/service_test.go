package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

var testJWTConfig = config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 60}

type stubUserRepo struct {
	users map[string]*models.User
	err   error
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if user, ok := s.users[username]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessions struct {
	created   []uint
	revoked   []string
	createErr error
}

func (s *stubSessions) Create(ctx context.Context, userID uint) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.created = append(s.created, userID)
	return "sess-1", nil
}

func (s *stubSessions) Revoke(ctx context.Context, sessionID string) error {
	s.revoked = append(s.revoked, sessionID)
	return nil
}

type stubCarts struct {
	cleared []string
	err     error
}

func (s *stubCarts) Clear(ctx context.Context, sessionID string) error {
	if s.err != nil {
		return s.err
	}
	s.cleared = append(s.cleared, sessionID)
	return nil
}

func newTestService(t *testing.T, repo *stubUserRepo, sessions *stubSessions, carts *stubCarts) *service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		Carts:          carts,
		JWTConfig:      testJWTConfig,
		PasswordConfig: testPasswordConfig,
	})
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Now() }
	return impl
}

func userWithPassword(t *testing.T, id uint, username, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	require.NoError(t, err)
	return &models.User{ID: id, Username: username, Email: username + "@example.com", PasswordHash: hash}
}

func TestLoginSuccessMintsSessionToken(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*models.User{"ana": userWithPassword(t, 3, "ana", "secret1")}}
	sessions := &stubSessions{}
	svc := newTestService(t, repo, sessions, &stubCarts{})

	resp, err := svc.Login(context.Background(), LoginRequest{Username: " ana ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, sessions.created)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, "ana", resp.User.Username)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID())
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*models.User{"ana": userWithPassword(t, 3, "ana", "secret1")}}
	sessions := &stubSessions{}
	svc := newTestService(t, repo, sessions, &stubCarts{})

	_, wrongPassword := svc.Login(context.Background(), LoginRequest{Username: "ana", Password: "nope"})
	_, unknownUser := svc.Login(context.Background(), LoginRequest{Username: "zoe", Password: "secret1"})

	for _, err := range []error{wrongPassword, unknownUser} {
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeAuth, typed.Code())
		assert.Equal(t, invalidCredentialsMessage, typed.Message())
	}
	assert.Empty(t, sessions.created)
}

func TestLoginRepositoryFailureIsInternal(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{err: errors.New("db down")}, &stubSessions{}, &stubCarts{})
	_, err := svc.Login(context.Background(), LoginRequest{Username: "ana", Password: "secret1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestLoginSessionFailureIsDependency(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*models.User{"ana": userWithPassword(t, 3, "ana", "secret1")}}
	svc := newTestService(t, repo, &stubSessions{createErr: errors.New("redis down")}, &stubCarts{})
	_, err := svc.Login(context.Background(), LoginRequest{Username: "ana", Password: "secret1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestLogoutClearsCartAndRevokesSession(t *testing.T) {
	sessions := &stubSessions{}
	carts := &stubCarts{}
	svc := newTestService(t, &stubUserRepo{}, sessions, carts)

	require.NoError(t, svc.Logout(context.Background(), "sess-9"))
	assert.Equal(t, []string{"sess-9"}, carts.cleared)
	assert.Equal(t, []string{"sess-9"}, sessions.revoked)

	err := svc.Logout(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{SessionManager: &stubSessions{}, Carts: &stubCarts{}})
	require.Error(t, err)
	_, err = NewService(ServiceParams{UserRepo: &stubUserRepo{}, Carts: &stubCarts{}})
	require.Error(t, err)
	_, err = NewService(ServiceParams{UserRepo: &stubUserRepo{}, SessionManager: &stubSessions{}})
	require.Error(t, err)
}
