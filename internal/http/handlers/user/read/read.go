// Package read реализует HTTP-обработчик получения статуса подписчика по email.
//
// Handler извлекает email из URL-параметров, вызывает бизнес-логику чтения
// и возвращает данные подписки вместе с признаком активной оплаты.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/visaslot-backend/internal/http/response"
	"github.com/magabrotheeeer/visaslot-backend/internal/lib/sl"
	"github.com/magabrotheeeer/visaslot-backend/internal/models"
	"github.com/magabrotheeeer/visaslot-backend/internal/storage"
)

// Handler обрабатывает запросы на получение подписчика по email.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики чтения подписчика
}

// Service описывает интерфейс бизнес-логики чтения подписчика.
type Service interface {
	Get(ctx context.Context, email string) (*models.Subscriber, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP обрабатывает HTTP-запрос на получение статуса подписки.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	email := chi.URLParam(r, "email")
	if email == "" {
		log.Error("missing email in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("email is required"))
		return
	}

	sub, err := h.service.Get(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrSubscriberNotFound) {
			log.Info("subscriber not found", slog.String("email", email))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("User not found"))
			return
		}
		log.Error("failed to read subscriber", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read subscriber"))
		return
	}

	log.Info("subscriber read", slog.String("email", sub.Email))
	render.JSON(w, r, map[string]any{
		"email":                 sub.Email,
		"subscriptionType":      sub.SubscriptionType,
		"paymentDate":           sub.PaymentDate,
		"hasActiveSubscription": sub.PaymentDate != nil,
	})
}
