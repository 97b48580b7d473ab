package get_resource_locks

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/formadon/TDE-SchedulingService/internal/api/handlers"
	"github.com/formadon/TDE-SchedulingService/internal/domain"
	getResourceLocks "github.com/formadon/TDE-SchedulingService/internal/usecase/get_resource_locks"
	"github.com/formadon/TDE-SchedulingService/pkg/types"
)

const (
	msgMissingDate      = "параметр date обязателен"
	msgInvalidDate      = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidTime      = "некорректный формат времени, ожидается HH:MM"
	msgInvalidExcludeID = "некорректный excludeSessionId"
	msgInvalidInput     = "некорректные параметры запроса"
)

type Handler struct {
	useCase GetResourceLocksUseCase
	logger  Logger
}

func NewHandler(useCase GetResourceLocksUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/resource-locks?date=YYYY-MM-DD&startTime=HH:MM&endTime=HH:MM&excludeSessionId=N
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	dateStr := query.Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /resource-locks - Missing date parameter")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		h.logger.Warn("GET /resource-locks - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	req := &getResourceLocks.Request{Date: date}

	// Времена опциональны: незаданные падают на глобальные дефолты
	if raw := query.Get("startTime"); raw != "" {
		startTime, err := types.NewTimeStringFromString(raw)
		if err != nil {
			h.logger.Warn("GET /resource-locks - Invalid startTime: %v", err)
			handlers.RespondBadRequest(w, msgInvalidTime)
			return
		}
		req.StartTime = startTime
	}
	if raw := query.Get("endTime"); raw != "" {
		endTime, err := types.NewTimeStringFromString(raw)
		if err != nil {
			h.logger.Warn("GET /resource-locks - Invalid endTime: %v", err)
			handlers.RespondBadRequest(w, msgInvalidTime)
			return
		}
		req.EndTime = endTime
	}

	if raw := query.Get("excludeSessionId"); raw != "" {
		excludeID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Warn("GET /resource-locks - Invalid excludeSessionId: %v", err)
			handlers.RespondBadRequest(w, msgInvalidExcludeID)
			return
		}
		req.ExcludeSessionID = &excludeID
	}

	result, err := h.useCase.Execute(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, getResourceLocks.ErrInvalidInput):
			h.logger.Warn("GET /resource-locks - Invalid input: date=%s, error=%v", dateStr, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("GET /resource-locks - Failed to get resource locks: date=%s, error=%v", dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /resource-locks - Locks retrieved successfully: date=%s, trainers=%d, rooms=%d, units=%d",
		dateStr, len(result.TrainerIDs), len(result.RoomIDs), len(result.UnitIDs))
	handlers.RespondJSON(w, http.StatusOK, result)
}
