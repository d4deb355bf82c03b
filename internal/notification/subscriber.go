package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smartinstall/field-reports/internal/core/events"
)

// UserDirectory resolves the Telegram chat for a user. Returns 0 when
// the user has no reachable chat.
type UserDirectory interface {
	TelegramIDFor(userID int64) (int64, error)
}

// Subscriber turns report workflow events into Telegram messages:
// submissions go to the admin chat, decisions back to the installer.
type Subscriber struct {
	notifier    *Notifier
	users       UserDirectory
	adminChatID int64
	logger      *slog.Logger
}

func NewSubscriber(notifier *Notifier, users UserDirectory, adminChatID int64, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		notifier:    notifier,
		users:       users,
		adminChatID: adminChatID,
		logger:      logger,
	}
}

// Register attaches the subscriber to every report event type.
func (s *Subscriber) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeReportSubmitted, s.onSubmitted)
	bus.Subscribe(events.EventTypeReportApproved, s.onApproved)
	bus.Subscribe(events.EventTypeReportRejected, s.onRejected)
	bus.Subscribe(events.EventTypeReportPaid, s.onPaid)
	bus.Subscribe(events.EventTypeReportConfirmed, s.onConfirmed)
}

func reportEvent(event events.Event) (*events.ReportEvent, error) {
	re, ok := event.(*events.ReportEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected event payload for %s", event.EventType())
	}
	return re, nil
}

func (s *Subscriber) onSubmitted(ctx context.Context, event events.Event) error {
	re, err := reportEvent(event)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("📋 Новый отчёт за %s ожидает проверки.\nСумма: %d ₽", re.Date, re.Earnings)
	s.notifier.Enqueue(s.adminChatID, text)
	return nil
}

func (s *Subscriber) onApproved(ctx context.Context, event events.Event) error {
	re, err := reportEvent(event)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("✅ Ваш отчёт за %s одобрен.\nНачислено: %d ₽", re.Date, re.Earnings)
	return s.notifyUser(re.UserID, text)
}

func (s *Subscriber) onRejected(ctx context.Context, event events.Event) error {
	re, err := reportEvent(event)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("↩️ Ваш отчёт за %s возвращён на доработку.", re.Date)
	return s.notifyUser(re.UserID, text)
}

func (s *Subscriber) onPaid(ctx context.Context, event events.Event) error {
	re, err := reportEvent(event)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("💸 Выплата по отчёту за %s отправлена: %d ₽.\nПодтвердите получение.", re.Date, re.Earnings)
	return s.notifyUser(re.UserID, text)
}

func (s *Subscriber) onConfirmed(ctx context.Context, event events.Event) error {
	re, err := reportEvent(event)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("🏁 Отчёт за %s закрыт: выплата %d ₽ подтверждена.", re.Date, re.Earnings)
	s.notifier.Enqueue(s.adminChatID, text)
	return nil
}

func (s *Subscriber) notifyUser(userID int64, text string) error {
	chatID, err := s.users.TelegramIDFor(userID)
	if err != nil {
		return fmt.Errorf("resolve telegram chat for user %d: %w", userID, err)
	}
	if chatID == 0 {
		s.logger.Warn("user has no telegram chat, skipping notification", "user_id", userID)
		return nil
	}
	s.notifier.Enqueue(chatID, text)
	return nil
}
