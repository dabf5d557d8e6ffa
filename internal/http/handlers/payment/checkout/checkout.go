// Package checkout реализует HTTP-обработчик создания checkout-сессии
// у платёжного провайдера. Бизнес-логики здесь нет: запрос валидируется
// и передаётся клиенту провайдера, фронтенд получает hosted-ссылку на оплату.
package checkout

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/visaslot-backend/internal/http/response"
	"github.com/magabrotheeeer/visaslot-backend/internal/lib/sl"
	"github.com/magabrotheeeer/visaslot-backend/internal/paymentprovider"
)

// Provider описывает клиент платёжного провайдера.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req paymentprovider.CreateCheckoutSessionRequest) (*paymentprovider.CheckoutSession, error)
}

// Handler управляет HTTP-запросами на создание checkout-сессий.
type Handler struct {
	log      *slog.Logger
	provider Provider
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и клиентом провайдера.
func New(log *slog.Logger, provider Provider) *Handler {
	return &Handler{
		log:      log,
		provider: provider,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req paymentprovider.CreateCheckoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded",
		slog.String("price_id", req.PriceID),
		slog.String("customer_email", req.CustomerEmail))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	session, err := h.provider.CreateCheckoutSession(r.Context(), req)
	if err != nil {
		log.Error("failed to create checkout session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create checkout session"))
		return
	}

	log.Info("checkout session created",
		slog.String("session_id", session.ID),
		slog.String("url", session.URL))
	render.JSON(w, r, map[string]any{
		"url": session.URL,
	})
}
