package create_booking

import (
	"context"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	"github.com/formadon/TDE-SchedulingService/internal/integrations/crmservice"
)

// SessionRepository интерфейс репозитория занятий
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (*domain.Session, error)
}

// ResourceRepository интерфейс репозитория каталога ресурсов
type ResourceRepository interface {
	GetRoomByID(ctx context.Context, id int64) (*domain.Room, error)
}

// CRMClient интерфейс клиента CRM
type CRMClient interface {
	GetDeal(ctx context.Context, dealID int64) (*crmservice.Deal, error)
	GetProduct(ctx context.Context, ref string) (*crmservice.Product, error)
}

// ConflictChecker интерфейс детектора ресурсных конфликтов
type ConflictChecker interface {
	CheckAvailability(ctx context.Context, cand domain.BookingCandidate, excludeSessionID *int64) (*domain.ResourceConflict, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
