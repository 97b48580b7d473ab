package conflicts

import (
	"context"
	"time"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	"github.com/formadon/TDE-SchedulingService/internal/integrations/crmservice"
)

// SessionRepository интерфейс репозитория занятий
type SessionRepository interface {
	GetOverlapCandidates(ctx context.Context, cand domain.BookingCandidate, excludeID *int64) ([]*domain.Session, error)
	GetIntersectingRange(ctx context.Context, start, end time.Time) ([]*domain.Session, error)
}

// VariantRepository интерфейс репозитория вариантов
type VariantRepository interface {
	GetOverlapCandidates(ctx context.Context, cand domain.BookingCandidate, excludeID *int64) ([]*domain.Variant, error)
	GetIntersectingRange(ctx context.Context, start, end time.Time) ([]*domain.Variant, error)
}

// ResourceRepository интерфейс репозитория каталога ресурсов
type ResourceRepository interface {
	GetAlwaysAvailableUnitIDs(ctx context.Context) ([]int64, error)
}

// CRMClient интерфейс клиента CRM (дефолтное время продуктов для вариантов)
type CRMClient interface {
	GetProduct(ctx context.Context, ref string) (*crmservice.Product, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
