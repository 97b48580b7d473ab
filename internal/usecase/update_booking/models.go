package update_booking

import (
	"time"

	"github.com/formadon/TDE-SchedulingService/pkg/types"
)

// Request модель запроса на частичное обновление занятия
// nil-поля не меняются; Clear-флаги явно сбрасывают значение
type Request struct {
	SessionID int64

	Date        *time.Time       // Новая дата в таймзоне отображения
	StartTime   types.TimeString // Новое время начала "HH:MM"
	EndTime     types.TimeString // Новое время окончания "HH:MM"
	ClearWindow bool             // Снять занятие с расписания

	RoomID    *int64 // Новая аудитория
	ClearRoom bool   // Убрать аудиторию

	TrainerIDs []int64 // Полная замена состава преподавателей (пустой срез очищает)
	UnitIDs    []int64 // Полная замена состава мобильных юнитов

	AddressText  *string // Новый адрес проведения
	ClearAddress bool    // Убрать адрес
}

// Response модель ответа с обновлённым занятием
type Response struct {
	ID         int64
	DealID     int64
	ProductRef string

	StartAt *time.Time
	EndAt   *time.Time

	RoomID      *int64
	TrainerIDs  []int64
	UnitIDs     []int64
	AddressText *string

	Status string

	CreatedAt time.Time
	UpdatedAt time.Time
}
