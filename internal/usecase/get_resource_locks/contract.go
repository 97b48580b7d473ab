package get_resource_locks

import (
	"context"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
)

// ConflictDetector интерфейс детектора ресурсных конфликтов
type ConflictDetector interface {
	LockedResources(ctx context.Context, probe domain.TimeWindow, excludeSessionID *int64) (*domain.ResourceLocks, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
