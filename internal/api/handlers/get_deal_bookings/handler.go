package get_deal_bookings

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/formadon/TDE-SchedulingService/internal/api/handlers"
	"github.com/formadon/TDE-SchedulingService/internal/api/middleware"
)

const (
	msgInvalidDealID = "некорректный ID сделки"
	msgMissingUserID = "отсутствует ID пользователя"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/deals/{dealId}/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем dealId из URL
	vars := mux.Vars(r)
	dealIDStr := vars["dealId"]

	dealID, err := strconv.ParseInt(dealIDStr, 10, 64)
	if err != nil {
		h.logger.Warn("GET /deals/{id}/bookings - Invalid deal ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDealID)
		return
	}

	// Получаем userID из контекста (через middleware Auth)
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /deals/{id}/bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	// Пустой список - валидный ответ: у сделки может не быть занятий
	result, err := h.service.GetByDeal(r.Context(), dealID)
	if err != nil {
		h.logger.Error("GET /deals/{id}/bookings - Failed to get bookings: deal_id=%d, error=%v", dealID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /deals/{id}/bookings - Bookings retrieved successfully: deal_id=%d, count=%d, user_id=%d",
		dealID, len(result.Sessions), userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
