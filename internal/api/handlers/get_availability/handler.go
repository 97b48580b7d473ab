package get_availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/formadon/TDE-SchedulingService/internal/api/handlers"
	"github.com/formadon/TDE-SchedulingService/internal/domain"
	getAvailability "github.com/formadon/TDE-SchedulingService/internal/usecase/get_availability"
)

const (
	msgMissingRange = "параметры start и end обязательны"
	msgInvalidDate  = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidRange = "некорректный диапазон дат"
	msgRangeTooLong = "диапазон дат слишком длинный"
)

type Handler struct {
	useCase GetAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем диапазон из query параметров
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		h.logger.Warn("GET /availability - Missing range: start=%q, end=%q", startStr, endStr)
		handlers.RespondBadRequest(w, msgMissingRange)
		return
	}

	start, err := time.Parse(domain.DateFormat, startStr)
	if err != nil {
		h.logger.Warn("GET /availability - Invalid start date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}
	end, err := time.Parse(domain.DateFormat, endStr)
	if err != nil {
		h.logger.Warn("GET /availability - Invalid end date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), &getAvailability.Request{
		Start: start,
		End:   end,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailability.ErrRangeTooLong):
			h.logger.Warn("GET /availability - Range too long: start=%s, end=%s", startStr, endStr)
			handlers.RespondBadRequest(w, msgRangeTooLong)

		case errors.Is(err, getAvailability.ErrInvalidInput):
			h.logger.Warn("GET /availability - Invalid range: start=%s, end=%s, error=%v", startStr, endStr, err)
			handlers.RespondBadRequest(w, msgInvalidRange)

		default:
			h.logger.Error("GET /availability - Failed to get availability: start=%s, end=%s, error=%v",
				startStr, endStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /availability - Availability retrieved successfully: start=%s, end=%s, days=%d",
		startStr, endStr, len(result.Days))
	handlers.RespondJSON(w, http.StatusOK, result)
}
