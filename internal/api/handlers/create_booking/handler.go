package create_booking

import (
	"errors"
	"net/http"

	"github.com/formadon/TDE-SchedulingService/internal/api/handlers"
	createBooking "github.com/formadon/TDE-SchedulingService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты занятия, ожидается YYYY-MM-DD"
	msgInvalidTime        = "некорректный формат времени, ожидается HH:MM"
	msgResourceConflict   = "запрошенный ресурс уже занят в пересекающемся окне"
	msgDealNotFound       = "сделка не найдена"
	msgProductNotFound    = "продукт каталога не найден"
	msgRoomNotFound       = "аудитория не найдена"
	msgInvalidInput       = "некорректные данные занятия"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Конвертируем HTTP запрос в модель use case (с парсингом даты и времени)
	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		// Определяем тип ошибки парсинга
		if req.Date != nil {
			if _, dateErr := parseDate(*req.Date); dateErr != nil {
				handlers.RespondBadRequest(w, msgInvalidDate)
				return
			}
		}
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		// Обработка ошибок use case
		switch {
		case errors.Is(err, createBooking.ErrResourceConflict):
			h.logger.Warn("POST /bookings - Resource conflict: deal_id=%d, error=%v", req.DealID, err)
			handlers.RespondError(w, http.StatusConflict, msgResourceConflict)

		case errors.Is(err, createBooking.ErrDealNotFound):
			h.logger.Warn("POST /bookings - Deal not found: deal_id=%d", req.DealID)
			handlers.RespondNotFound(w, msgDealNotFound)

		case errors.Is(err, createBooking.ErrProductNotFound):
			h.logger.Warn("POST /bookings - Product not found: deal_id=%d, product=%s", req.DealID, req.ProductRef)
			handlers.RespondNotFound(w, msgProductNotFound)

		case errors.Is(err, createBooking.ErrRoomNotFound):
			h.logger.Warn("POST /bookings - Room not found: deal_id=%d", req.DealID)
			handlers.RespondNotFound(w, msgRoomNotFound)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: deal_id=%d, error=%v", req.DealID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: deal_id=%d, error=%v", req.DealID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// Формируем HTTP ответ
	response := FromUseCaseResponse(result)

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, deal_id=%d, status=%s",
		result.ID, req.DealID, result.Status)
	handlers.RespondJSON(w, http.StatusCreated, response)
}
