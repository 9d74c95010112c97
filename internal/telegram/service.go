package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/internal/audit"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
	tg "github.com/ecomjrm/ecomjrm-backend/pkg/telegram"
)

// messageSender is the Bot API surface the service needs.
type messageSender interface {
	SendMessage(ctx context.Context, msg tg.Message) (int64, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service manages notification channels and fans events out to them.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.TelegramChannel, error)
	Get(ctx context.Context, id uuid.UUID) (*models.TelegramChannel, error)
	List(ctx context.Context) ([]models.TelegramChannel, error)
	Update(ctx context.Context, input UpdateInput) (*models.TelegramChannel, error)
	Delete(ctx context.Context, id, actorUserID uuid.UUID) error
	SendTestMessage(ctx context.Context, id uuid.UUID) (*TestResult, error)
	NotifyOrderFulfilled(ctx context.Context, order *models.Order) error
}

type service struct {
	repo   Repository
	sender messageSender
	audit  auditRecorder
	logg   *logger.Logger
}

// NewService builds a telegram channel service. The sender is optional;
// when nil, test messages and notifications report CodeNotConfigured.
func NewService(repo Repository, sender messageSender, auditor auditRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("telegram repository required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, sender: sender, audit: auditor, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.TelegramChannel, error) {
	name := strings.TrimSpace(input.Name)
	chatID := strings.TrimSpace(input.ChatID)
	if name == "" || chatID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel name and chat id are required")
	}
	kind := input.Kind
	if kind == "" {
		kind = enums.TelegramChannelKindOrders
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid channel kind %q", kind))
	}

	row := &models.TelegramChannel{
		Name:    name,
		ChatID:  chatID,
		Kind:    kind,
		Enabled: input.Enabled,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("channel for chat %s already exists", chatID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create telegram channel")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorUserID: input.ActorUserID,
		Action:      "telegram_channel.create",
		Resource:    "telegram_channel",
		ResourceID:  row.ID.String(),
		Details:     map[string]any{"chat_id": chatID, "kind": kind},
	})
	return row, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.TelegramChannel, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel id required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "telegram channel not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load telegram channel")
	}
	return row, nil
}

func (s *service) List(ctx context.Context) ([]models.TelegramChannel, error) {
	channels, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list telegram channels")
	}
	return channels, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.TelegramChannel, error) {
	if input.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel name cannot be blank")
		}
		updates["name"] = name
	}
	if input.ChatID != nil {
		chatID := strings.TrimSpace(*input.ChatID)
		if chatID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat id cannot be blank")
		}
		updates["chat_id"] = chatID
	}
	if input.Kind != nil {
		if !input.Kind.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid channel kind %q", *input.Kind))
		}
		updates["kind"] = *input.Kind
	}
	if input.Enabled != nil {
		updates["enabled"] = *input.Enabled
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates provided")
	}

	if err := s.repo.Update(ctx, input.ID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "telegram channel not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update telegram channel")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorUserID: input.ActorUserID,
		Action:      "telegram_channel.update",
		Resource:    "telegram_channel",
		ResourceID:  input.ID.String(),
	})
	return s.Get(ctx, input.ID)
}

func (s *service) Delete(ctx context.Context, id, actorUserID uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "channel id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "telegram channel not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete telegram channel")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorUserID: actorUserID,
		Action:      "telegram_channel.delete",
		Resource:    "telegram_channel",
		ResourceID:  id.String(),
	})
	return nil
}

// SendTestMessage pushes a short probe message so an admin can verify a
// channel before enabling notifications on it.
func (s *service) SendTestMessage(ctx context.Context, id uuid.UUID) (*TestResult, error) {
	if s.sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotConfigured, "telegram bot is not configured")
	}
	channel, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	messageID, err := s.sender.SendMessage(ctx, tg.Message{
		ChatID: channel.ChatID,
		Text:   fmt.Sprintf("EcomJRM test message for channel %q", channel.Name),
	})
	if err != nil {
		var apiErr *tg.APIError
		if errors.As(err, &apiErr) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "telegram rejected the test message").
				WithDetails(map[string]any{"telegram_error_code": apiErr.Code})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send test message")
	}

	return &TestResult{ChannelID: channel.ID, ChatID: channel.ChatID, MessageID: messageID}, nil
}

// NotifyOrderFulfilled fans a fulfillment summary out to every enabled
// order channel. Per-channel failures are collected, not short-circuited.
func (s *service) NotifyOrderFulfilled(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if s.sender == nil {
		return nil
	}

	channels, err := s.repo.ListEnabledByKind(ctx, enums.TelegramChannelKindOrders)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order notification channels")
	}
	if len(channels) == 0 {
		return nil
	}

	text := fulfillmentMessage(order)
	var errs error
	for _, channel := range channels {
		if _, err := s.sender.SendMessage(ctx, tg.Message{ChatID: channel.ChatID, Text: text}); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("telegram notify failed for channel %s: %v", channel.ChatID, err))
			errs = multierr.Append(errs, fmt.Errorf("channel %s: %w", channel.Name, err))
		}
	}
	return errs
}

func fulfillmentMessage(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s booked for shipment\n", order.OrderNumber)
	if order.CourierName != nil {
		fmt.Fprintf(&b, "Courier: %s\n", *order.CourierName)
	}
	if order.TrackingNumber != nil {
		fmt.Fprintf(&b, "Tracking: %s\n", *order.TrackingNumber)
	}
	if order.ScheduledPickupDate != nil {
		fmt.Fprintf(&b, "Pickup: %s\n", order.ScheduledPickupDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Total: RM %s", order.Total.StringFixed(2))
	return b.String()
}
