package get_deal_bookings

import (
	"context"

	"github.com/formadon/TDE-SchedulingService/internal/service/bookings/models"
)

type BookingService interface {
	GetByDeal(ctx context.Context, dealID int64) (*models.SessionListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
