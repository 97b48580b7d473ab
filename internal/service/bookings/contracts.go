package bookings

import (
	"context"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	"github.com/formadon/TDE-SchedulingService/internal/integrations/crmservice"
)

// SessionRepository интерфейс репозитория занятий
type SessionRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Session, error)
	GetByDealID(ctx context.Context, dealID int64) ([]*domain.Session, error)
	UpdateStatus(ctx context.Context, id int64, status domain.Status) error
	Delete(ctx context.Context, id int64) error
}

// ResourceRepository интерфейс репозитория каталога ресурсов
type ResourceRepository interface {
	GetRoomByID(ctx context.Context, id int64) (*domain.Room, error)
}

// CRMClient интерфейс клиента CRM
type CRMClient interface {
	GetDeal(ctx context.Context, dealID int64) (*crmservice.Deal, error)
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
