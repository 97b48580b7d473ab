package create_booking

import (
	"time"

	"github.com/formadon/TDE-SchedulingService/pkg/types"
)

// Request модель запроса на создание занятия
type Request struct {
	DealID     int64            // ID сделки в CRM
	ProductRef string           // Ссылка на продукт каталога
	Date       *time.Time       // Дата занятия в таймзоне отображения (опционально)
	StartTime  types.TimeString // Явное время начала "HH:MM" (опционально)
	EndTime    types.TimeString // Явное время окончания "HH:MM" (опционально)

	RoomID      *int64  // ID аудитории (опционально)
	TrainerIDs  []int64 // ID преподавателей
	UnitIDs     []int64 // ID мобильных юнитов
	AddressText *string // Свободный адрес проведения (in-company)
}

// Response модель ответа с созданным занятием
type Response struct {
	ID         int64
	DealID     int64
	ProductRef string

	StartAt *time.Time // Резолвнутое начало (UTC), nil для незапланированных
	EndAt   *time.Time // Резолвнутое окончание (UTC)

	RoomID      *int64
	TrainerIDs  []int64
	UnitIDs     []int64
	AddressText *string

	Status string // Вычисленный статус (draft / scheduled)

	CreatedAt time.Time
	UpdatedAt time.Time
}
