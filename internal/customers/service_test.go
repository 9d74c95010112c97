package customers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/internal/audit"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

type fakeRepository struct {
	user    *models.User
	updates map[string]any
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.user, nil
}

func (f *fakeRepository) List(ctx context.Context, params pagination.Params, filters Filters) ([]models.User, *string, error) {
	if f.user == nil {
		return nil, nil, nil
	}
	return []models.User{*f.user}, nil, nil
}

func (f *fakeRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	f.updates = updates
	return nil
}

type recordingAuditor struct {
	entries []audit.Entry
}

func (r *recordingAuditor) Record(ctx context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

func customerRow() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Email:        "aina@example.my",
		PasswordHash: "argon2-hash",
		FirstName:    "Aina",
		Role:         enums.UserRoleCustomer,
	}
}

func newCustomersService(t *testing.T, repo Repository, auditor auditRecorder) Service {
	t.Helper()

	svc, err := NewService(repo, auditor)
	require.NoError(t, err)
	return svc
}

func TestGet_neverExposesPasswordHash(t *testing.T) {
	user := customerRow()
	svc := newCustomersService(t, &fakeRepository{user: user}, &recordingAuditor{})

	customer, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, customer.Email)
	assert.Equal(t, user.FirstName, customer.FirstName)
}

func TestGet_adminAccountResolvesNotFound(t *testing.T) {
	user := customerRow()
	user.Role = enums.UserRoleAdmin
	svc := newCustomersService(t, &fakeRepository{user: user}, &recordingAuditor{})

	_, err := svc.Get(context.Background(), user.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdate_membershipToggleStampsMemberSince(t *testing.T) {
	user := customerRow()
	repo := &fakeRepository{user: user}
	auditor := &recordingAuditor{}
	svc := newCustomersService(t, repo, auditor)

	member := true
	_, err := svc.Update(context.Background(), UpdateInput{
		ID:          user.ID,
		IsMember:    &member,
		ActorUserID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, true, repo.updates["is_member"])
	since, ok := repo.updates["member_since"].(time.Time)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), since, time.Minute)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "customer.update", auditor.entries[0].Action)
}

func TestUpdate_membershipRevokeClearsMemberSince(t *testing.T) {
	user := customerRow()
	user.IsMember = true
	since := time.Now().AddDate(-1, 0, 0)
	user.MemberSince = &since
	repo := &fakeRepository{user: user}
	svc := newCustomersService(t, repo, &recordingAuditor{})

	member := false
	_, err := svc.Update(context.Background(), UpdateInput{
		ID:          user.ID,
		IsMember:    &member,
		ActorUserID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, false, repo.updates["is_member"])
	assert.Nil(t, repo.updates["member_since"])
}

func TestUpdate_noFields(t *testing.T) {
	user := customerRow()
	svc := newCustomersService(t, &fakeRepository{user: user}, &recordingAuditor{})

	_, err := svc.Update(context.Background(), UpdateInput{ID: user.ID, ActorUserID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdate_sameMembershipIsNoChange(t *testing.T) {
	user := customerRow()
	repo := &fakeRepository{user: user}
	svc := newCustomersService(t, repo, &recordingAuditor{})

	member := false
	_, err := svc.Update(context.Background(), UpdateInput{
		ID:          user.ID,
		IsMember:    &member,
		ActorUserID: uuid.New(),
	})
	require.Error(t, err, "a no-op membership flag does not count as an update")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
