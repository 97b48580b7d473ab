package get_resource_locks

import (
	"context"
	"fmt"
	"time"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
)

// UseCase use case для получения занятых ресурсов одного окна
type UseCase struct {
	detector ConflictDetector
	loc      *time.Location
	logger   Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(detector ConflictDetector, loc *time.Location, logger Logger) *UseCase {
	return &UseCase{
		detector: detector,
		loc:      loc,
		logger:   logger,
	}
}

// Execute выполняет use case
// Окно собирается по тем же правилам, что и у занятий: незаданные времена
// падают на глобальные дефолты
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetResourceLocks: date=%s, start=%s, end=%s",
		req.Date.Format(domain.DateFormat), req.StartTime, req.EndTime)

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetResourceLocks: validation failed: %v", err)
		return nil, err
	}

	window := domain.ResolveWindow(domain.WindowInput{
		Date:          &req.Date,
		ExplicitStart: req.StartTime,
		ExplicitEnd:   req.EndTime,
	}, uc.loc)
	if window == nil {
		return nil, fmt.Errorf("%w: failed to resolve window", ErrInvalidInput)
	}

	locks, err := uc.detector.LockedResources(ctx, *window, req.ExcludeSessionID)
	if err != nil {
		uc.logger.Error("GetResourceLocks: detector error: %v", err)
		return nil, fmt.Errorf("%w: detector error: %v", ErrInternal, err)
	}

	uc.logger.Info("GetResourceLocks: %d trainers, %d rooms, %d units locked",
		len(locks.TrainerIDs), len(locks.RoomIDs), len(locks.UnitIDs))

	return &Response{
		TrainerIDs: locks.TrainerIDs,
		RoomIDs:    locks.RoomIDs,
		UnitIDs:    locks.UnitIDs,
	}, nil
}
