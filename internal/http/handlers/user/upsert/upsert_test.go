package upsert

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/visaslot-backend/internal/models"
	subservice "github.com/magabrotheeeer/visaslot-backend/internal/services/subscriber"
)

type MockService struct{ mock.Mock }

func (m *MockService) Upsert(ctx context.Context, req models.DummySubscriber) (*subservice.UpsertResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subservice.UpsertResult), args.Error(1)
}

func TestUpsertHandler(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		setupMock    func(*MockService)
		expectedCode int
		expectedBody string
	}{
		{
			name: "создание нового подписчика",
			body: `{"email": "new@example.com", "phone": "+77001234567", "countryFrom": "Kazakhstan", "cityFrom": "Almaty", "subscriptionType": "pro"}`,
			setupMock: func(m *MockService) {
				m.On("Upsert", mock.Anything, mock.AnythingOfType("models.DummySubscriber")).
					Return(&subservice.UpsertResult{Email: "new@example.com", Created: true}, nil)
			},
			expectedCode: http.StatusCreated,
			expectedBody: "User created successfully",
		},
		{
			name: "обновление существующего подписчика",
			body: `{"email": "old@example.com", "phone": "+77001234567", "countryFrom": "Kazakhstan", "cityFrom": "Almaty", "subscriptionType": "pro", "paymentDate": "2026-08-01T10:00:00Z"}`,
			setupMock: func(m *MockService) {
				m.On("Upsert", mock.Anything, mock.AnythingOfType("models.DummySubscriber")).
					Return(&subservice.UpsertResult{Email: "old@example.com", PaymentUpdated: true}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: "User updated successfully",
		},
		{
			name:         "некорректный JSON",
			body:         `{"email": `,
			setupMock:    func(_ *MockService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: "invalid request body",
		},
		{
			name:         "отсутствует обязательное поле email",
			body:         `{"phone": "+77001234567", "countryFrom": "Kazakhstan", "cityFrom": "Almaty", "subscriptionType": "pro"}`,
			setupMock:    func(_ *MockService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: "required field",
		},
		{
			name:         "невалидный email",
			body:         `{"email": "not-an-email", "phone": "+77001234567", "countryFrom": "Kazakhstan", "cityFrom": "Almaty", "subscriptionType": "pro"}`,
			setupMock:    func(_ *MockService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: "must be a valid email address",
		},
		{
			name: "ошибка сервиса",
			body: `{"email": "fail@example.com", "phone": "+77001234567", "countryFrom": "Kazakhstan", "cityFrom": "Almaty", "subscriptionType": "pro"}`,
			setupMock: func(m *MockService) {
				m.On("Upsert", mock.Anything, mock.AnythingOfType("models.DummySubscriber")).
					Return(nil, errors.New("connection refused"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: "could not save subscriber",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody))
			mockService.AssertExpectations(t)
		})
	}
}
