package subscriber

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/visaslot-backend/internal/models"
	"github.com/magabrotheeeer/visaslot-backend/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscriber), args.Error(1)
}
func (m *RepoMock) CreateSubscriber(ctx context.Context, sub models.Subscriber) (string, error) {
	args := m.Called(ctx, sub)
	return args.String(0), args.Error(1)
}
func (m *RepoMock) UpdateSubscriber(ctx context.Context, sub models.Subscriber) (int, error) {
	args := m.Called(ctx, sub)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ConfirmPayment(ctx context.Context, email, subscriptionType string, paymentDate time.Time) (int, error) {
	args := m.Called(ctx, email, subscriptionType, paymentDate)
	return args.Int(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newTestService(repo *RepoMock, c *CacheMock) *SubscriberService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewSubscriberService(repo, c, logger)
}

func TestUpsert(t *testing.T) {
	tests := []struct {
		name        string
		req         models.DummySubscriber
		setupMocks  func(*RepoMock, *CacheMock)
		wantErr     bool
		wantCreated bool
		wantPayment bool
		wantEmail   string
	}{
		{
			name: "создание нового подписчика",
			req: models.DummySubscriber{
				Email:            "New@Example.com",
				Phone:            "+77001234567",
				CountryFrom:      "Kazakhstan",
				CityFrom:         "Almaty",
				SubscriptionType: "pro",
			},
			setupMocks: func(repo *RepoMock, _ *CacheMock) {
				repo.On("GetSubscriberByEmail", mock.Anything, "new@example.com").
					Return(nil, storage.ErrSubscriberNotFound)
				repo.On("CreateSubscriber", mock.Anything, mock.MatchedBy(func(sub models.Subscriber) bool {
					return sub.Email == "new@example.com" && sub.PaymentDate == nil
				})).Return("uid-1", nil)
			},
			wantCreated: true,
			wantEmail:   "new@example.com",
		},
		{
			name: "создание с датой оплаты",
			req: models.DummySubscriber{
				Email:            "paid@example.com",
				Phone:            "+77001234567",
				CountryFrom:      "Kazakhstan",
				CityFrom:         "Almaty",
				SubscriptionType: "pro",
				PaymentDate:      "2026-08-01T10:00:00Z",
			},
			setupMocks: func(repo *RepoMock, _ *CacheMock) {
				repo.On("GetSubscriberByEmail", mock.Anything, "paid@example.com").
					Return(nil, storage.ErrSubscriberNotFound)
				repo.On("CreateSubscriber", mock.Anything, mock.MatchedBy(func(sub models.Subscriber) bool {
					return sub.PaymentDate != nil && sub.PaymentDate.Equal(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
				})).Return("uid-2", nil)
			},
			wantCreated: true,
			wantPayment: true,
			wantEmail:   "paid@example.com",
		},
		{
			name: "обновление существующего подписчика",
			req: models.DummySubscriber{
				Email:            "old@example.com",
				Phone:            "+77009876543",
				CountryFrom:      "Kazakhstan",
				CityFrom:         "Astana",
				SubscriptionType: "pro",
			},
			setupMocks: func(repo *RepoMock, c *CacheMock) {
				repo.On("GetSubscriberByEmail", mock.Anything, "old@example.com").
					Return(&models.Subscriber{Email: "old@example.com"}, nil)
				repo.On("UpdateSubscriber", mock.Anything, mock.AnythingOfType("models.Subscriber")).
					Return(1, nil)
				c.On("Invalidate", "subscriber:old@example.com").Return(nil)
			},
			wantEmail: "old@example.com",
		},
		{
			name: "невалидная дата оплаты",
			req: models.DummySubscriber{
				Email:            "bad@example.com",
				Phone:            "+77001234567",
				CountryFrom:      "Kazakhstan",
				CityFrom:         "Almaty",
				SubscriptionType: "pro",
				PaymentDate:      "01.08.2026",
			},
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantErr:    true,
		},
		{
			name: "ошибка хранилища при чтении",
			req: models.DummySubscriber{
				Email:            "fail@example.com",
				Phone:            "+77001234567",
				CountryFrom:      "Kazakhstan",
				CityFrom:         "Almaty",
				SubscriptionType: "pro",
			},
			setupMocks: func(repo *RepoMock, _ *CacheMock) {
				repo.On("GetSubscriberByEmail", mock.Anything, "fail@example.com").
					Return(nil, errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cacheMock := new(CacheMock)
			tt.setupMocks(repo, cacheMock)

			svc := newTestService(repo, cacheMock)
			res, err := svc.Upsert(context.Background(), tt.req)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantEmail, res.Email)
				assert.Equal(t, tt.wantCreated, res.Created)
				assert.Equal(t, tt.wantPayment, res.PaymentUpdated)
			}
			repo.AssertExpectations(t)
			cacheMock.AssertExpectations(t)
		})
	}
}

func TestGet(t *testing.T) {
	paymentDate := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	stored := &models.Subscriber{Email: "user@example.com", SubscriptionType: "pro", PaymentDate: &paymentDate}

	tests := []struct {
		name       string
		email      string
		setupMocks func(*RepoMock, *CacheMock)
		wantErr    error
	}{
		{
			name:  "чтение из репозитория при промахе кеша",
			email: "User@Example.com",
			setupMocks: func(repo *RepoMock, c *CacheMock) {
				c.On("Get", "subscriber:user@example.com", mock.Anything).Return(false, nil)
				repo.On("GetSubscriberByEmail", mock.Anything, "user@example.com").Return(stored, nil)
				c.On("Set", "subscriber:user@example.com", stored, time.Hour).Return(nil)
			},
		},
		{
			name:  "попадание в кеш не трогает репозиторий",
			email: "user@example.com",
			setupMocks: func(_ *RepoMock, c *CacheMock) {
				c.On("Get", "subscriber:user@example.com", mock.Anything).Return(true, nil)
			},
		},
		{
			name:  "ошибка кеша не мешает чтению",
			email: "user@example.com",
			setupMocks: func(repo *RepoMock, c *CacheMock) {
				c.On("Get", "subscriber:user@example.com", mock.Anything).
					Return(false, errors.New("redis: connection refused"))
				repo.On("GetSubscriberByEmail", mock.Anything, "user@example.com").Return(stored, nil)
				c.On("Set", "subscriber:user@example.com", stored, time.Hour).
					Return(errors.New("redis: connection refused"))
			},
		},
		{
			name:  "подписчик не найден",
			email: "ghost@example.com",
			setupMocks: func(repo *RepoMock, c *CacheMock) {
				c.On("Get", "subscriber:ghost@example.com", mock.Anything).Return(false, nil)
				repo.On("GetSubscriberByEmail", mock.Anything, "ghost@example.com").
					Return(nil, storage.ErrSubscriberNotFound)
			},
			wantErr: storage.ErrSubscriberNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cacheMock := new(CacheMock)
			tt.setupMocks(repo, cacheMock)

			svc := newTestService(repo, cacheMock)
			_, err := svc.Get(context.Background(), tt.email)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
			cacheMock.AssertExpectations(t)
		})
	}
}

func TestConfirmPayment(t *testing.T) {
	paymentDate := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		setupMocks func(*RepoMock, *CacheMock)
		wantErr    error
	}{
		{
			name: "успешное подтверждение",
			setupMocks: func(repo *RepoMock, c *CacheMock) {
				repo.On("ConfirmPayment", mock.Anything, "user@example.com", "pro", paymentDate).
					Return(1, nil)
				c.On("Invalidate", "subscriber:user@example.com").Return(nil)
			},
		},
		{
			name: "подписчик не найден",
			setupMocks: func(repo *RepoMock, _ *CacheMock) {
				repo.On("ConfirmPayment", mock.Anything, "user@example.com", "pro", paymentDate).
					Return(0, nil)
			},
			wantErr: storage.ErrSubscriberNotFound,
		},
		{
			name: "ошибка хранилища",
			setupMocks: func(repo *RepoMock, _ *CacheMock) {
				repo.On("ConfirmPayment", mock.Anything, "user@example.com", "pro", paymentDate).
					Return(0, errors.New("connection refused"))
			},
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cacheMock := new(CacheMock)
			tt.setupMocks(repo, cacheMock)

			svc := newTestService(repo, cacheMock)
			err := svc.ConfirmPayment(context.Background(), "User@Example.com", "pro", paymentDate)

			if tt.wantErr != nil {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
			cacheMock.AssertExpectations(t)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
	assert.Equal(t, "user@example.com", NormalizeEmail("user@example.com"))
}
