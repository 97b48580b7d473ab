package update_booking_status

import (
	"context"

	"github.com/formadon/TDE-SchedulingService/internal/service/bookings/models"
)

type BookingService interface {
	OverrideStatus(ctx context.Context, id int64, status string) (*models.SessionResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
