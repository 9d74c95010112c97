package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/internal/audit"
	pkgauth "github.com/ecomjrm/ecomjrm-backend/pkg/auth"
	"github.com/ecomjrm/ecomjrm-backend/pkg/auth/session"
	"github.com/ecomjrm/ecomjrm-backend/pkg/config"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/security"
)

type fakeUserRepo struct {
	users map[string]*models.User
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[strings.ToLower(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

type fakeSessionManager struct {
	generated []string
	rotateErr error
	revoked   []string
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	f.generated = append(f.generated, accessID)
	return "refresh-" + accessID, nil
}

func (f *fakeSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateErr != nil {
		return "", "", f.rotateErr
	}
	newID := session.NewAccessID()
	return newID, "refresh-" + newID, nil
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

type fakeAuditor struct {
	entries []audit.Entry
}

func (f *fakeAuditor) Record(ctx context.Context, entry audit.Entry) {
	f.entries = append(f.entries, entry)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "ecomjrm",
		ExpirationMinutes: 30,
	}
}

// Low-cost argon parameters keep the hash fast in tests.
func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	})
	require.NoError(t, err)
	return hashed
}

func adminUser(t *testing.T, password string, role enums.UserRole) *models.User {
	t.Helper()
	return &models.User{
		ID:           uuid.New(),
		Email:        "admin@ecomjrm.my",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Aisha",
		LastName:     "Rahman",
		Role:         role,
	}
}

func buildAuthTestService(t *testing.T, user *models.User) (Service, *fakeSessionManager, *fakeAuditor) {
	t.Helper()

	repo := &fakeUserRepo{users: map[string]*models.User{}}
	if user != nil {
		repo.users[strings.ToLower(user.Email)] = user
	}
	sessions := &fakeSessionManager{}
	auditor := &fakeAuditor{}

	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		Auditor:        auditor,
		JWTConfig:      testJWTConfig(),
	})
	require.NoError(t, err)
	return svc, sessions, auditor
}

func TestLogin_success(t *testing.T) {
	user := adminUser(t, "s3cret-pass", enums.UserRoleAdmin)
	svc, sessions, auditor := buildAuthTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " Admin@EcomJRM.my ", Password: "s3cret-pass"})
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleAdmin, claims.Role)

	require.Len(t, sessions.generated, 1)
	assert.Equal(t, claims.ID, sessions.generated[0], "jti must match the stored access session id")
	assert.Equal(t, "refresh-"+claims.ID, resp.RefreshToken)
	assert.Equal(t, user.Email, resp.User.Email)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "auth.login", auditor.entries[0].Action)
}

func TestLogin_wrongPassword(t *testing.T) {
	user := adminUser(t, "s3cret-pass", enums.UserRoleAdmin)
	svc, sessions, _ := buildAuthTestService(t, user)

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Equal(t, invalidCredentialsMessage, typed.Message())
	assert.Empty(t, sessions.generated)
}

func TestLogin_unknownUserSameMessage(t *testing.T) {
	svc, _, _ := buildAuthTestService(t, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@ecomjrm.my", Password: "whatever"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Equal(t, invalidCredentialsMessage, typed.Message())
}

func TestLogin_customerRejected(t *testing.T) {
	user := adminUser(t, "s3cret-pass", enums.UserRoleCustomer)
	svc, sessions, _ := buildAuthTestService(t, user)

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "s3cret-pass"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
	assert.Empty(t, sessions.generated)
}

func TestLogin_staffAllowed(t *testing.T) {
	user := adminUser(t, "s3cret-pass", enums.UserRoleStaff)
	svc, _, _ := buildAuthTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "s3cret-pass"})
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleStaff, claims.Role)
}

func TestRefresh_rotatesPair(t *testing.T) {
	user := adminUser(t, "s3cret-pass", enums.UserRoleAdmin)
	svc, _, _ := buildAuthTestService(t, user)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "s3cret-pass"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.AccessToken, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRefresh_invalidToken(t *testing.T) {
	user := adminUser(t, "s3cret-pass", enums.UserRoleAdmin)
	svc, sessions, _ := buildAuthTestService(t, user)
	sessions.rotateErr = session.ErrInvalidRefreshToken

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: "forged",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestLogout_revokesSession(t *testing.T) {
	user := adminUser(t, "s3cret-pass", enums.UserRoleAdmin)
	svc, sessions, _ := buildAuthTestService(t, user)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "s3cret-pass"})
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), login.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims.ID))
	require.Len(t, sessions.revoked, 1)
	assert.Equal(t, claims.ID, sessions.revoked[0])

	err = svc.Logout(context.Background(), " ")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
