// Package subscriber содержит бизнес-логику для управления подписчиками:
// регистрация и обновление записи, чтение статуса и ручное подтверждение оплаты.
package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/visaslot-backend/internal/models"
	"github.com/magabrotheeeer/visaslot-backend/internal/storage"
)

// SubscriberRepository определяет методы для работы с подписчиками в хранилище.
type SubscriberRepository interface {
	// GetSubscriberByEmail возвращает подписчика по email.
	GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	// CreateSubscriber добавляет нового подписчика и возвращает его UID.
	CreateSubscriber(ctx context.Context, sub models.Subscriber) (string, error)
	// UpdateSubscriber обновляет изменяемые поля подписчика по email.
	UpdateSubscriber(ctx context.Context, sub models.Subscriber) (int, error)
	// ConfirmPayment устанавливает дату оплаты и тип подписки.
	ConfirmPayment(ctx context.Context, email, subscriptionType string, paymentDate time.Time) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// UpsertResult описывает результат регистрации или обновления подписчика.
type UpsertResult struct {
	Email          string
	Created        bool
	PaymentUpdated bool
}

// SubscriberService реализует бизнес-логику работы с подписчиками, включая кеширование.
type SubscriberService struct {
	repo  SubscriberRepository
	cache Cache
	log   *slog.Logger
}

// NewSubscriberService создает новый экземпляр SubscriberService.
func NewSubscriberService(repo SubscriberRepository, cache Cache, log *slog.Logger) *SubscriberService {
	return &SubscriberService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Upsert создаёт подписчика либо обновляет существующего по email.
// Поле PaymentDate перезаписывается только если оно явно передано в запросе.
func (s *SubscriberService) Upsert(ctx context.Context, req models.DummySubscriber) (*UpsertResult, error) {
	email := NormalizeEmail(req.Email)

	var paymentDate *time.Time
	if req.PaymentDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.PaymentDate)
		if err != nil {
			return nil, fmt.Errorf("invalid payment date: %w", err)
		}
		paymentDate = &parsed
	}

	sub := models.Subscriber{
		Email:            email,
		Phone:            req.Phone,
		CountryFrom:      req.CountryFrom,
		CityFrom:         req.CityFrom,
		CountryTo:        req.CountryTo,
		CityTo:           req.CityTo,
		SubscriptionType: req.SubscriptionType,
		PaymentDate:      paymentDate,
	}

	_, err := s.repo.GetSubscriberByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrSubscriberNotFound) {
			return nil, err
		}
		uid, err := s.repo.CreateSubscriber(ctx, sub)
		if err != nil {
			return nil, err
		}
		s.log.Info("created new subscriber",
			slog.String("email", email), slog.String("uid", uid))
		return &UpsertResult{
			Email:          email,
			Created:        true,
			PaymentUpdated: paymentDate != nil,
		}, nil
	}

	if _, err := s.repo.UpdateSubscriber(ctx, sub); err != nil {
		return nil, err
	}
	s.log.Info("updated existing subscriber", slog.String("email", email))

	s.invalidate(email)

	return &UpsertResult{
		Email:          email,
		Created:        false,
		PaymentUpdated: paymentDate != nil,
	}, nil
}

// Get возвращает подписчика по email, используя кеш или репозиторий.
func (s *SubscriberService) Get(ctx context.Context, email string) (*models.Subscriber, error) {
	email = NormalizeEmail(email)

	var result *models.Subscriber
	cacheKey := cacheKey(email)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return result, nil
	}
	result, err = s.repo.GetSubscriberByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// ConfirmPayment устанавливает дату оплаты и тип подписки существующего
// подписчика. Возвращает storage.ErrSubscriberNotFound, если записи нет.
func (s *SubscriberService) ConfirmPayment(ctx context.Context, email, subscriptionType string, paymentDate time.Time) error {
	email = NormalizeEmail(email)

	count, err := s.repo.ConfirmPayment(ctx, email, subscriptionType, paymentDate)
	if err != nil {
		return err
	}
	if count == 0 {
		return storage.ErrSubscriberNotFound
	}
	s.log.Info("payment confirmed",
		slog.String("email", email),
		slog.String("subscription_type", subscriptionType),
		slog.Time("payment_date", paymentDate))

	s.invalidate(email)
	return nil
}

func (s *SubscriberService) invalidate(email string) {
	key := cacheKey(email)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", key), slog.Any("err", err))
	}
}

// NormalizeEmail приводит email к каноничному виду: нижний регистр без
// окружающих пробелов. В таком виде email хранится и ищется в базе.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cacheKey(email string) string {
	return fmt.Sprintf("subscriber:%s", email)
}
