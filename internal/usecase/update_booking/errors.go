package update_booking

import "errors"

var (
	// ErrSessionNotFound возвращается, когда занятие не найдено
	ErrSessionNotFound = errors.New("update_booking: session not found")

	// ErrDealNotFound возвращается, когда сделка не найдена в CRM
	ErrDealNotFound = errors.New("update_booking: deal not found")

	// ErrProductNotFound возвращается, когда продукт каталога не найден в CRM
	ErrProductNotFound = errors.New("update_booking: product not found")

	// ErrRoomNotFound возвращается, когда указанная аудитория не найдена
	ErrRoomNotFound = errors.New("update_booking: room not found")

	// ErrResourceConflict возвращается, когда запрошенный ресурс уже занят
	// в пересекающемся окне
	ErrResourceConflict = errors.New("update_booking: resource conflict")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("update_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("update_booking: internal error")
)
