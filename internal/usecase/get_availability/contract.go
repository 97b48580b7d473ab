package get_availability

import (
	"context"
	"time"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	"github.com/formadon/TDE-SchedulingService/internal/integrations/crmservice"
)

// SessionRepository интерфейс репозитория занятий
type SessionRepository interface {
	GetIntersectingRange(ctx context.Context, start, end time.Time) ([]*domain.Session, error)
}

// VariantRepository интерфейс репозитория вариантов
type VariantRepository interface {
	GetIntersectingRange(ctx context.Context, start, end time.Time) ([]*domain.Variant, error)
}

// ResourceRepository интерфейс репозитория каталога ресурсов
type ResourceRepository interface {
	GetCatalog(ctx context.Context) (*domain.ResourceCatalog, error)
}

// CRMClient интерфейс клиента CRM
type CRMClient interface {
	GetDeal(ctx context.Context, dealID int64) (*crmservice.Deal, error)
	GetProduct(ctx context.Context, ref string) (*crmservice.Product, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
