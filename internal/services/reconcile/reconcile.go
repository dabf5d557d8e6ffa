// Package reconcile реализует сверку платёжных событий Stripe с записями
// подписчиков: проверку подписи webhook-события, классификацию по типу
// и идемпотентное обновление даты оплаты в хранилище.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/magabrotheeeer/visaslot-backend/internal/models"
	"github.com/magabrotheeeer/visaslot-backend/internal/storage"
)

// Ошибки сверки, по которым обработчик выбирает HTTP-статус ответа.
var (
	// ErrWebhookNotConfigured — секрет подписи не задан, событие не обрабатывается.
	ErrWebhookNotConfigured = errors.New("webhook secret is not configured")
	// ErrInvalidSignature — подпись события не прошла проверку.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMissingCustomerEmail — в завершённой checkout-сессии нет email покупателя.
	ErrMissingCustomerEmail = errors.New("no customer email found in session")
)

// Типы событий, приводящие к изменению состояния. Остальные принимаются и игнорируются.
const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
)

// SubscriberRepository определяет методы хранилища, нужные для сверки.
type SubscriberRepository interface {
	GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	ConfirmPayment(ctx context.Context, email, subscriptionType string, paymentDate time.Time) (int, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

// Cache описывает инвалидацию кеша подписчиков.
type Cache interface {
	Invalidate(key string) error
}

// Notifier публикует сообщение о подтверждённой оплате в очередь уведомлений.
type Notifier interface {
	PublishPaymentConfirmed(confirmation models.PaymentConfirmation) error
}

// Result описывает результат обработки одного webhook-события.
type Result struct {
	EventType        string
	Email            string
	Updated          bool
	AlreadyProcessed bool
}

// Service выполняет сверку платёжных событий. Секрет подписи, хранилище,
// кеш и необязательный notifier передаются явно при создании.
type Service struct {
	repo          SubscriberRepository
	cache         Cache
	notifier      Notifier // может быть nil — публикация уведомлений отключена
	webhookSecret string
	log           *slog.Logger
	now           func() time.Time
}

// New создает новый Service сверки платежей.
func New(repo SubscriberRepository, cache Cache, notifier Notifier, webhookSecret string, log *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		cache:         cache,
		notifier:      notifier,
		webhookSecret: webhookSecret,
		log:           log,
		now:           time.Now,
	}
}

// checkoutSession — именованные поля завершённой checkout-сессии.
// Email обязателен, phone и plan_type приходят в метаданных и необязательны.
type checkoutSession struct {
	ID              string `json:"id"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

// paymentIntent — именованные поля успешного платёжного интента.
// Email берётся из receipt_email либо из billing_details первого charge.
type paymentIntent struct {
	ID           string `json:"id"`
	ReceiptEmail string `json:"receipt_email"`
	Charges      struct {
		Data []struct {
			BillingDetails struct {
				Email string `json:"email"`
			} `json:"billing_details"`
		} `json:"data"`
	} `json:"charges"`
}

// ReconcilePayment проверяет подлинность события и применяет его к хранилищу.
// На одно событие приходится одно чтение и не более одной записи подписчика.
func (s *Service) ReconcilePayment(ctx context.Context, rawBody []byte, signature string) (*Result, error) {
	const op = "reconcile.ReconcilePayment"
	log := s.log.With(slog.String("op", op))

	if s.webhookSecret == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrWebhookNotConfigured)
	}

	event, err := webhook.ConstructEventWithOptions(rawBody, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	}
	log.Info("webhook event verified",
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)))

	processed, err := s.repo.IsEventProcessed(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if processed {
		log.Info("duplicate event delivery, skipping", slog.String("event_id", event.ID))
		return &Result{EventType: string(event.Type), AlreadyProcessed: true}, nil
	}

	var res *Result
	switch string(event.Type) {
	case EventCheckoutCompleted:
		res, err = s.applyCheckoutCompleted(ctx, &event, log)
	case EventPaymentIntentSucceeded:
		res, err = s.applyPaymentIntentSucceeded(ctx, &event, log)
	default:
		log.Info("ignored event type", slog.String("event_type", string(event.Type)))
		res = &Result{EventType: string(event.Type)}
	}
	if err != nil {
		return nil, err
	}

	// Маркер пишется только после применения события: незавершённая
	// доставка при повторе провайдера применяется заново, а не пропускается.
	// Сбой записи маркера не фатален — повторное применение идемпотентно.
	if _, err := s.repo.MarkEventProcessed(ctx, event.ID, string(event.Type)); err != nil {
		log.Warn("failed to mark event processed",
			slog.String("event_id", event.ID), slog.Any("err", err))
	}
	return res, nil
}

// applyCheckoutCompleted — основной путь подтверждения: email обязателен,
// подписчик должен существовать (регистрация предшествует оплате).
func (s *Service) applyCheckoutCompleted(ctx context.Context, event *stripe.Event, log *slog.Logger) (*Result, error) {
	const op = "reconcile.applyCheckoutCompleted"

	var session checkoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if session.CustomerDetails.Email == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingCustomerEmail)
	}
	email := normalizeEmail(session.CustomerDetails.Email)
	planType := session.Metadata["plan_type"]

	sub, err := s.repo.GetSubscriberByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// plan_type перезаписывает сохранённый тип только если он задан и отличается
	newType := ""
	if planType != "" && planType != sub.SubscriptionType {
		newType = planType
	}

	paymentDate := s.now().UTC()
	if _, err := s.repo.ConfirmPayment(ctx, email, newType, paymentDate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("payment date updated from checkout session",
		slog.String("email", email),
		slog.String("session_id", session.ID),
		slog.String("plan_type", planType))

	s.finishUpdate(email, firstNonEmpty(newType, sub.SubscriptionType), paymentDate, log)

	return &Result{EventType: EventCheckoutCompleted, Email: email, Updated: true}, nil
}

// applyPaymentIntentSucceeded — вспомогательный путь: отсутствие email или
// подписчика не является ошибкой, событие принимается без изменения состояния.
func (s *Service) applyPaymentIntentSucceeded(ctx context.Context, event *stripe.Event, log *slog.Logger) (*Result, error) {
	const op = "reconcile.applyPaymentIntentSucceeded"

	var intent paymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	email := intent.ReceiptEmail
	if email == "" && len(intent.Charges.Data) > 0 {
		email = intent.Charges.Data[0].BillingDetails.Email
	}
	if email == "" {
		log.Info("payment intent without customer email, skipping",
			slog.String("intent_id", intent.ID))
		return &Result{EventType: EventPaymentIntentSucceeded}, nil
	}
	email = normalizeEmail(email)

	sub, err := s.repo.GetSubscriberByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrSubscriberNotFound) {
			log.Warn("subscriber not found for payment intent", slog.String("email", email))
			return &Result{EventType: EventPaymentIntentSucceeded, Email: email}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	paymentDate := s.now().UTC()
	if _, err := s.repo.ConfirmPayment(ctx, email, "", paymentDate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("payment date updated from payment intent",
		slog.String("email", email),
		slog.String("intent_id", intent.ID))

	s.finishUpdate(email, sub.SubscriptionType, paymentDate, log)

	return &Result{EventType: EventPaymentIntentSucceeded, Email: email, Updated: true}, nil
}

// finishUpdate инвалидирует кеш и публикует уведомление об оплате.
// Обе операции вспомогательные: их сбой логируется и не влияет на сверку.
func (s *Service) finishUpdate(email, subscriptionType string, paymentDate time.Time, log *slog.Logger) {
	cacheKey := fmt.Sprintf("subscriber:%s", email)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}

	if s.notifier == nil {
		return
	}
	confirmation := models.PaymentConfirmation{
		Email:            email,
		SubscriptionType: subscriptionType,
		PaymentDate:      paymentDate,
	}
	if err := s.notifier.PublishPaymentConfirmed(confirmation); err != nil {
		log.Warn("failed to publish payment confirmation", slog.String("email", email), slog.Any("err", err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
