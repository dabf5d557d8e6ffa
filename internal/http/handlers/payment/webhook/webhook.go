// Package webhook реализует приёмник платёжных событий Stripe.
//
// Тело запроса читается сырым (без парсинга JSON), чтобы сервис сверки
// мог проверить подпись из заголовка Stripe-Signature до любого доверия
// к содержимому.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/visaslot-backend/internal/http/response"
	"github.com/magabrotheeeer/visaslot-backend/internal/lib/sl"
	"github.com/magabrotheeeer/visaslot-backend/internal/services/reconcile"
	"github.com/magabrotheeeer/visaslot-backend/internal/storage"
)

// Ограничение на размер тела webhook-запроса.
const maxBodyBytes = 1 << 20

// Service описывает интерфейс сверки платёжного события.
type Service interface {
	ReconcilePayment(ctx context.Context, rawBody []byte, signature string) (*reconcile.Result, error)
}

// Handler принимает webhook-события платёжного провайдера.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис сверки платежей
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read request body"))
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("Stripe-Signature")

	result, err := h.service.ReconcilePayment(r.Context(), body, signature)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrWebhookNotConfigured):
			log.Error("webhook secret not configured")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("webhook secret not configured"))
		case errors.Is(err, reconcile.ErrInvalidSignature):
			log.Error("invalid webhook signature", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid webhook signature"))
		case errors.Is(err, reconcile.ErrMissingCustomerEmail):
			log.Error("no customer email in completed session")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("no customer email found in session"))
		case errors.Is(err, storage.ErrSubscriberNotFound):
			log.Error("subscriber not found for completed session")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("User not found"))
		default:
			log.Error("failed to process webhook event", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to process webhook event"))
		}
		return
	}

	log.Info("webhook processed successfully",
		slog.String("event_type", result.EventType),
		slog.String("email", result.Email),
		slog.Bool("updated", result.Updated),
		slog.Bool("already_processed", result.AlreadyProcessed))
	render.JSON(w, r, map[string]any{
		"received": true,
	})
}
