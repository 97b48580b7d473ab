package get_resource_locks

import (
	"time"

	"github.com/formadon/TDE-SchedulingService/pkg/types"
)

// Request модель запроса занятых ресурсов для одного окна
type Request struct {
	Date      time.Time        // Календарная дата в таймзоне отображения
	StartTime types.TimeString // Время начала "HH:MM" (опционально, дефолт 09:00)
	EndTime   types.TimeString // Время окончания "HH:MM" (опционально, дефолт +2 часа)

	ExcludeSessionID *int64 // Исключить занятие из подсчёта (правка формы)
}

// Response модель ответа с наборами занятых ресурсов
// Консультативный ответ для UI: авторитетная проверка выполняется на записи
type Response struct {
	TrainerIDs []int64 `json:"trainerIds"`
	RoomIDs    []int64 `json:"roomIds"`
	UnitIDs    []int64 `json:"unitIds"`
}
