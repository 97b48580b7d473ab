package create_booking

import (
	"time"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	createBooking "github.com/formadon/TDE-SchedulingService/internal/usecase/create_booking"
	"github.com/formadon/TDE-SchedulingService/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	DealID     int64  `json:"dealId"`
	ProductRef string `json:"productRef"`

	Date      *string `json:"date,omitempty"`      // "2025-06-02"
	StartTime *string `json:"startTime,omitempty"` // "10:00"
	EndTime   *string `json:"endTime,omitempty"`   // "14:00"

	RoomID      *int64  `json:"roomId,omitempty"`
	TrainerIDs  []int64 `json:"trainerIds,omitempty"`
	UnitIDs     []int64 `json:"unitIds,omitempty"`
	AddressText *string `json:"addressText,omitempty"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID         int64  `json:"id"`
	DealID     int64  `json:"dealId"`
	ProductRef string `json:"productRef"`

	StartAt *string `json:"startAt,omitempty"` // ISO 8601
	EndAt   *string `json:"endAt,omitempty"`   // ISO 8601

	RoomID      *int64  `json:"roomId,omitempty"`
	TrainerIDs  []int64 `json:"trainerIds"`
	UnitIDs     []int64 `json:"unitIds"`
	AddressText *string `json:"addressText,omitempty"`

	Status string `json:"status"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(domain.DateFormat, s)
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest() (*createBooking.Request, error) {
	req := &createBooking.Request{
		DealID:      r.DealID,
		ProductRef:  r.ProductRef,
		RoomID:      r.RoomID,
		TrainerIDs:  r.TrainerIDs,
		UnitIDs:     r.UnitIDs,
		AddressText: r.AddressText,
	}

	// Парсим дату (опционально: занятие может быть без расписания)
	if r.Date != nil && *r.Date != "" {
		date, err := parseDate(*r.Date)
		if err != nil {
			return nil, err
		}
		req.Date = &date
	}

	// Парсим времена
	if r.StartTime != nil && *r.StartTime != "" {
		startTime, err := types.NewTimeStringFromString(*r.StartTime)
		if err != nil {
			return nil, err
		}
		req.StartTime = startTime
	}
	if r.EndTime != nil && *r.EndTime != "" {
		endTime, err := types.NewTimeStringFromString(*r.EndTime)
		if err != nil {
			return nil, err
		}
		req.EndTime = endTime
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	out := &BookingResponse{
		ID:          resp.ID,
		DealID:      resp.DealID,
		ProductRef:  resp.ProductRef,
		RoomID:      resp.RoomID,
		TrainerIDs:  resp.TrainerIDs,
		UnitIDs:     resp.UnitIDs,
		AddressText: resp.AddressText,
		Status:      resp.Status,
		CreatedAt:   resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   resp.UpdatedAt.Format(time.RFC3339),
	}

	if out.TrainerIDs == nil {
		out.TrainerIDs = []int64{}
	}
	if out.UnitIDs == nil {
		out.UnitIDs = []int64{}
	}

	if resp.StartAt != nil {
		s := resp.StartAt.UTC().Format(time.RFC3339)
		out.StartAt = &s
	}
	if resp.EndAt != nil {
		s := resp.EndAt.UTC().Format(time.RFC3339)
		out.EndAt = &s
	}

	return out
}
