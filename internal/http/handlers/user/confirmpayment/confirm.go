// Package confirmpayment реализует HTTP-обработчик ручного подтверждения
// оплаты после редиректа от платёжного провайдера.
//
// Handler валидирует запрос, парсит дату оплаты и безусловно обновляет
// дату оплаты и тип подписки существующего подписчика.
package confirmpayment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/visaslot-backend/internal/http/response"
	"github.com/magabrotheeeer/visaslot-backend/internal/lib/sl"
	"github.com/magabrotheeeer/visaslot-backend/internal/models"
	"github.com/magabrotheeeer/visaslot-backend/internal/storage"
)

// Handler управляет HTTP-запросами на ручное подтверждение оплаты.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики подписчиков
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики подтверждения оплаты.
type Service interface {
	ConfirmPayment(ctx context.Context, email, subscriptionType string, paymentDate time.Time) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подтвердить оплату вручную
// @Description Устанавливает дату оплаты и тип подписки существующего подписчика.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param request body models.DummyConfirmPayment true "Данные подтверждения"
// @Success 200 {object} map[string]any "Оплата подтверждена"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 404 {object} response.ErrorResponse "Подписчик не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/users/confirm-payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.confirmpayment"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyConfirmPayment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("email", req.Email))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	paymentDate, err := time.Parse(time.RFC3339, req.PaymentDate)
	if err != nil {
		log.Error("failed to convert, field: paymentDate", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("paymentDate must be a valid RFC 3339 date"))
		return
	}

	if err := h.service.ConfirmPayment(r.Context(), req.Email, req.SubscriptionType, paymentDate); err != nil {
		if errors.Is(err, storage.ErrSubscriberNotFound) {
			log.Error("subscriber not found", slog.String("email", req.Email))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("User not found"))
			return
		}
		log.Error("failed to confirm payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not confirm payment"))
		return
	}

	log.Info("payment confirmed", slog.String("email", req.Email))
	render.JSON(w, r, map[string]any{
		"message":          "Payment confirmed successfully",
		"email":            req.Email,
		"subscriptionType": req.SubscriptionType,
	})
}
