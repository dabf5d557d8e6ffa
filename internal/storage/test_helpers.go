package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateSubscriber создает тестового подписчика
func (f *TestDataFactory) CreateSubscriber(t *testing.T, email, phone, countryFrom, cityFrom, subscriptionType string) string {
	uid := uuid.New().String()
	_, err := f.storage.DB.Exec(`INSERT INTO subscribers
		(uid, email, phone, country_from, city_from, subscription_type)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uid, email, phone, countryFrom, cityFrom, subscriptionType)
	require.NoError(t, err)
	return uid
}

// CreateSubscriberWithPayment создает подписчика с уже подтверждённой оплатой
func (f *TestDataFactory) CreateSubscriberWithPayment(t *testing.T, email, phone, countryFrom, cityFrom, subscriptionType string,
	paymentDate time.Time) string {
	uid := uuid.New().String()
	_, err := f.storage.DB.Exec(`INSERT INTO subscribers
		(uid, email, phone, country_from, city_from, subscription_type, payment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uid, email, phone, countryFrom, cityFrom, subscriptionType, paymentDate)
	require.NoError(t, err)
	return uid
}

// CreateProcessedEvent фиксирует событие как уже обработанное
func (f *TestDataFactory) CreateProcessedEvent(t *testing.T, eventID, eventType string) {
	_, err := f.storage.DB.Exec(`INSERT INTO processed_events (event_id, event_type)
		VALUES ($1, $2)`,
		eventID, eventType)
	require.NoError(t, err)
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifySubscriberExists проверяет существование подписчика в БД
func (v *TestVerification) VerifySubscriberExists(t *testing.T, email string) {
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM subscribers WHERE email = $1", email).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

// VerifyPaymentDate проверяет дату оплаты подписчика
func (v *TestVerification) VerifyPaymentDate(t *testing.T, email string, expected time.Time) {
	var paymentDate time.Time
	err := v.storage.DB.QueryRow("SELECT payment_date FROM subscribers WHERE email = $1", email).
		Scan(&paymentDate)
	require.NoError(t, err)
	require.WithinDuration(t, expected, paymentDate, time.Second)
}

// VerifySubscriptionType проверяет тип подписки подписчика
func (v *TestVerification) VerifySubscriptionType(t *testing.T, email, expected string) {
	var subscriptionType string
	err := v.storage.DB.QueryRow("SELECT subscription_type FROM subscribers WHERE email = $1", email).
		Scan(&subscriptionType)
	require.NoError(t, err)
	require.Equal(t, expected, subscriptionType)
}

// VerifyEventProcessed проверяет, что событие зафиксировано как обработанное
func (v *TestVerification) VerifyEventProcessed(t *testing.T, eventID string) {
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM processed_events WHERE event_id = $1", eventID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
