// Package storage реализует хранилище данных на основе PostgreSQL
// для управления подписчиками сервиса уведомлений. Предоставляет методы
// создания, чтения и обновления записей, подтверждения оплаты, а также
// учёт уже обработанных событий платёжного провайдера.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/visaslot-backend/internal/models"
)

// ErrSubscriberNotFound возвращается, когда запись с указанным email отсутствует.
var ErrSubscriberNotFound = errors.New("subscriber not found")

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с подписчиками.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscribers'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table subscribers missing or query error: %w", err)
	}
	return nil
}

// CheckReady проверяет готовность базы данных (используется в /health).
func (s *Storage) CheckReady() error {
	return CheckDatabaseReady(s)
}

// GetSubscriberByEmail возвращает подписчика по email (email хранится
// в нижнем регистре). Возвращает ErrSubscriberNotFound, если записи нет.
func (s *Storage) GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	const op = "storage.GetSubscriberByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, phone, country_from, city_from, country_to, city_to,
			      subscription_type, payment_date, created_at, updated_at
			  FROM subscribers
			  WHERE email = $1`
	row := s.DB.QueryRowContext(ctx, query, email)

	sub := &models.Subscriber{}
	var countryTo, cityTo sql.NullString
	var paymentDate sql.NullTime
	if err := row.Scan(&sub.UID, &sub.Email, &sub.Phone, &sub.CountryFrom, &sub.CityFrom,
		&countryTo, &cityTo, &sub.SubscriptionType, &paymentDate,
		&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrSubscriberNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if countryTo.Valid {
		sub.CountryTo = countryTo.String
	}
	if cityTo.Valid {
		sub.CityTo = cityTo.String
	}
	if paymentDate.Valid {
		sub.PaymentDate = &paymentDate.Time
	}
	return sub, nil
}

// CreateSubscriber вставляет новую запись подписчика и возвращает её UID.
func (s *Storage) CreateSubscriber(ctx context.Context, sub models.Subscriber) (string, error) {
	const op = "storage.CreateSubscriber"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscribers (uid, email, phone, country_from, city_from,
			      country_to, city_to, subscription_type, payment_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING uid`
	var newUID string
	err := s.DB.QueryRowContext(ctx, query,
		uuid.New().String(), sub.Email, sub.Phone, sub.CountryFrom, sub.CityFrom,
		nullIfEmpty(sub.CountryTo), nullIfEmpty(sub.CityTo),
		sub.SubscriptionType, sub.PaymentDate).Scan(&newUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// UpdateSubscriber обновляет изменяемые поля подписчика по email и возвращает
// количество изменённых строк. Поле payment_date перезаписывается только если
// оно передано, иначе сохраняется прежнее значение.
func (s *Storage) UpdateSubscriber(ctx context.Context, sub models.Subscriber) (int, error) {
	const op = "storage.UpdateSubscriber"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscribers
			  SET phone = $2, country_from = $3, city_from = $4, country_to = $5,
			      city_to = $6, subscription_type = $7,
			      payment_date = COALESCE($8, payment_date),
			      updated_at = now()
			  WHERE email = $1`
	result, err := s.DB.ExecContext(ctx, query,
		sub.Email, sub.Phone, sub.CountryFrom, sub.CityFrom,
		nullIfEmpty(sub.CountryTo), nullIfEmpty(sub.CityTo),
		sub.SubscriptionType, sub.PaymentDate)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ConfirmPayment устанавливает дату оплаты подписчика. Пустой subscriptionType
// оставляет прежний тип подписки. Выполняется одним условным UPDATE, поэтому
// конкурирующие подтверждения не могут повредить запись — побеждает последнее.
// Возвращает количество изменённых строк (0 — подписчик не найден).
func (s *Storage) ConfirmPayment(ctx context.Context, email, subscriptionType string, paymentDate time.Time) (int, error) {
	const op = "storage.ConfirmPayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscribers
			  SET payment_date = $2,
			      subscription_type = CASE WHEN $3 <> '' THEN $3 ELSE subscription_type END,
			      updated_at = now()
			  WHERE email = $1`
	result, err := s.DB.ExecContext(ctx, query, email, paymentDate, subscriptionType)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// IsEventProcessed сообщает, было ли событие платёжного провайдера
// уже применено. Используется как read-only проверка перед применением.
func (s *Storage) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	const op = "storage.IsEventProcessed"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)`
	if err := s.DB.QueryRowContext(ctx, query, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// MarkEventProcessed фиксирует событие платёжного провайдера как обработанное.
// Вызывается после успешного применения события: до этого момента повторная
// доставка того же event_id применяется заново. Возвращает true, если маркер
// записан впервые, и false, если он уже существовал.
func (s *Storage) MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	const op = "storage.MarkEventProcessed"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO processed_events (event_id, event_type)
			  VALUES ($1, $2)
			  ON CONFLICT (event_id) DO NOTHING`
	result, err := s.DB.ExecContext(ctx, query, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
