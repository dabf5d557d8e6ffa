// Package upsert реализует HTTP-обработчик регистрации подписчика.
//
// Handler принимает JSON-запрос с данными подписчика, валидирует их,
// вызывает бизнес-логику создания либо обновления записи по email
// и возвращает статус операции в JSON-формате.
//
// В случае ошибок формируются соответствующие HTTP-ответы с описанием проблемы.
package upsert

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
	"github.com/magabrotheeeer/visaslot-backend/internal/models"
	subservice "github.com/magabrotheeeer/visaslot-backend/internal/services/subscriber"
)

// Handler управляет HTTP-запросами на регистрацию и обновление подписчиков.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики подписчиков
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики создания/обновления подписчика.
type Service interface {
	Upsert(ctx context.Context, req models.DummySubscriber) (*subservice.UpsertResult, error)
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
// @Summary Зарегистрировать или обновить подписчика
// @Description Создает подписчика либо обновляет существующую запись по email. Дата оплаты перезаписывается только если передана явно.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param request body models.DummySubscriber true "Данные подписчика"
// @Success 200 {object} map[string]any "Подписчик обновлён"
// @Success 201 {object} map[string]any "Подписчик создан"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/users [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.upsert"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySubscriber
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
	log.Info("all fields are validated")

	res, err := h.service.Upsert(r.Context(), req)
	if err != nil {
		log.Error("failed to upsert subscriber", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save subscriber"))
		return
	}

	message := "User updated successfully"
	status := http.StatusOK
	if res.Created {
		message = "User created successfully"
		status = http.StatusCreated
	}

	log.Info("subscriber saved",
		slog.String("email", res.Email),
		slog.Bool("created", res.Created),
		slog.Bool("payment_updated", res.PaymentUpdated))
	w.WriteHeader(status)
	render.JSON(w, r, map[string]any{
		"message":        message,
		"email":          res.Email,
		"paymentUpdated": res.PaymentUpdated,
	})
}
