package telegram

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/internal/audit"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
	tg "github.com/ecomjrm/ecomjrm-backend/pkg/telegram"
)

type fakeRepository struct {
	rows map[uuid.UUID]*models.TelegramChannel
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{rows: map[uuid.UUID]*models.TelegramChannel{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, channel *models.TelegramChannel) error {
	for _, row := range f.rows {
		if row.ChatID == channel.ChatID {
			return fmt.Errorf("duplicate key value violates unique constraint")
		}
	}
	channel.ID = uuid.New()
	clone := *channel
	f.rows[channel.ID] = &clone
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.TelegramChannel, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *row
	return &clone, nil
}

func (f *fakeRepository) ListAll(ctx context.Context) ([]models.TelegramChannel, error) {
	out := make([]models.TelegramChannel, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (f *fakeRepository) ListEnabledByKind(ctx context.Context, kind enums.TelegramChannelKind) ([]models.TelegramChannel, error) {
	var out []models.TelegramChannel
	for _, row := range f.rows {
		if row.Kind == kind && row.Enabled {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	row, ok := f.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"].(string); ok {
		row.Name = name
	}
	if chatID, ok := updates["chat_id"].(string); ok {
		row.ChatID = chatID
	}
	if kind, ok := updates["kind"].(enums.TelegramChannelKind); ok {
		row.Kind = kind
	}
	if enabled, ok := updates["enabled"].(bool); ok {
		row.Enabled = enabled
	}
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeSender struct {
	sent   []tg.Message
	sendFn func(msg tg.Message) (int64, error)
}

func (f *fakeSender) SendMessage(ctx context.Context, msg tg.Message) (int64, error) {
	f.sent = append(f.sent, msg)
	if f.sendFn != nil {
		return f.sendFn(msg)
	}
	return 42, nil
}

type fakeAuditor struct {
	entries []audit.Entry
}

func (f *fakeAuditor) Record(ctx context.Context, entry audit.Entry) {
	f.entries = append(f.entries, entry)
}

type telegramTestEnv struct {
	svc     Service
	repo    *fakeRepository
	sender  *fakeSender
	auditor *fakeAuditor
}

func newTelegramTestEnv(t *testing.T) *telegramTestEnv {
	t.Helper()

	repo := newFakeRepository()
	sender := &fakeSender{}
	auditor := &fakeAuditor{}

	svc, err := NewService(repo, sender, auditor, logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)

	return &telegramTestEnv{svc: svc, repo: repo, sender: sender, auditor: auditor}
}

func fulfilledOrder() *models.Order {
	courier := "Pos Laju"
	tracking := "TRACK-77"
	return &models.Order{
		OrderNumber:    "JRM-1001",
		CourierName:    &courier,
		TrackingNumber: &tracking,
		Total:          decimal.RequireFromString("129.90"),
	}
}

func TestCreate_defaultsKindAndAudits(t *testing.T) {
	env := newTelegramTestEnv(t)

	row, err := env.svc.Create(context.Background(), CreateInput{
		Name:    "Ops",
		ChatID:  "-100123",
		Enabled: true,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.TelegramChannelKindOrders, row.Kind)
	require.Len(t, env.auditor.entries, 1)
	assert.Equal(t, "telegram_channel.create", env.auditor.entries[0].Action)
}

func TestCreate_validation(t *testing.T) {
	env := newTelegramTestEnv(t)

	_, err := env.svc.Create(context.Background(), CreateInput{Name: " ", ChatID: "-100123"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = env.svc.Create(context.Background(), CreateInput{Name: "Ops", ChatID: "-1", Kind: "everything"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreate_duplicateChatID(t *testing.T) {
	env := newTelegramTestEnv(t)

	_, err := env.svc.Create(context.Background(), CreateInput{Name: "Ops", ChatID: "-100123"})
	require.NoError(t, err)

	_, err = env.svc.Create(context.Background(), CreateInput{Name: "Other", ChatID: "-100123"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestSendTestMessage(t *testing.T) {
	env := newTelegramTestEnv(t)

	row, err := env.svc.Create(context.Background(), CreateInput{Name: "Ops", ChatID: "-100123"})
	require.NoError(t, err)

	result, err := env.svc.SendTestMessage(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.MessageID)
	require.Len(t, env.sender.sent, 1)
	assert.Equal(t, "-100123", env.sender.sent[0].ChatID)
}

func TestSendTestMessage_apiErrorSurfacesCode(t *testing.T) {
	env := newTelegramTestEnv(t)
	env.sender.sendFn = func(msg tg.Message) (int64, error) {
		return 0, &tg.APIError{Code: 400, Description: "chat not found"}
	}

	row, err := env.svc.Create(context.Background(), CreateInput{Name: "Ops", ChatID: "-100123"})
	require.NoError(t, err)

	_, err = env.svc.SendTestMessage(context.Background(), row.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 400, details["telegram_error_code"])
}

func TestSendTestMessage_withoutBot(t *testing.T) {
	repo := newFakeRepository()
	svc, err := NewService(repo, nil, &fakeAuditor{}, logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)

	_, err = svc.SendTestMessage(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotConfigured, pkgerrors.As(err).Code())
}

func TestNotifyOrderFulfilled_fansOutToEnabledOrderChannels(t *testing.T) {
	env := newTelegramTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, CreateInput{Name: "Ops", ChatID: "-1", Kind: enums.TelegramChannelKindOrders, Enabled: true})
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, CreateInput{Name: "Backup", ChatID: "-2", Kind: enums.TelegramChannelKindOrders, Enabled: true})
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, CreateInput{Name: "Chats", ChatID: "-3", Kind: enums.TelegramChannelKindChats, Enabled: true})
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, CreateInput{Name: "Disabled", ChatID: "-4", Kind: enums.TelegramChannelKindOrders, Enabled: false})
	require.NoError(t, err)

	require.NoError(t, env.svc.NotifyOrderFulfilled(ctx, fulfilledOrder()))

	require.Len(t, env.sender.sent, 2)
	for _, msg := range env.sender.sent {
		assert.Contains(t, msg.Text, "JRM-1001")
		assert.Contains(t, msg.Text, "TRACK-77")
		assert.Contains(t, msg.Text, "RM 129.90")
		assert.NotEqual(t, "-3", msg.ChatID)
		assert.NotEqual(t, "-4", msg.ChatID)
	}
}

func TestNotifyOrderFulfilled_collectsPerChannelFailures(t *testing.T) {
	env := newTelegramTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, CreateInput{Name: "Bad", ChatID: "-1", Kind: enums.TelegramChannelKindOrders, Enabled: true})
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, CreateInput{Name: "Good", ChatID: "-2", Kind: enums.TelegramChannelKindOrders, Enabled: true})
	require.NoError(t, err)

	env.sender.sendFn = func(msg tg.Message) (int64, error) {
		if msg.ChatID == "-1" {
			return 0, fmt.Errorf("connection reset")
		}
		return 1, nil
	}

	err = env.svc.NotifyOrderFulfilled(ctx, fulfilledOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad")
	// Both channels were attempted despite the first failure.
	assert.Len(t, env.sender.sent, 2)
}

func TestNotifyOrderFulfilled_noChannelsIsANoop(t *testing.T) {
	env := newTelegramTestEnv(t)

	require.NoError(t, env.svc.NotifyOrderFulfilled(context.Background(), fulfilledOrder()))
	assert.Empty(t, env.sender.sent)
}

func TestUpdateAndDelete(t *testing.T) {
	env := newTelegramTestEnv(t)
	ctx := context.Background()

	row, err := env.svc.Create(ctx, CreateInput{Name: "Ops", ChatID: "-100123", Enabled: true})
	require.NoError(t, err)

	enabled := false
	kind := enums.TelegramChannelKindChats
	updated, err := env.svc.Update(ctx, UpdateInput{ID: row.ID, Enabled: &enabled, Kind: &kind})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.Equal(t, enums.TelegramChannelKindChats, updated.Kind)

	_, err = env.svc.Update(ctx, UpdateInput{ID: row.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	require.NoError(t, env.svc.Delete(ctx, row.ID, uuid.New()))
	err = env.svc.Delete(ctx, row.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
