package create_booking

import "errors"

var (
	// ErrDealNotFound возвращается, когда сделка не найдена в CRM
	ErrDealNotFound = errors.New("create_booking: deal not found")

	// ErrProductNotFound возвращается, когда продукт каталога не найден в CRM
	ErrProductNotFound = errors.New("create_booking: product not found")

	// ErrRoomNotFound возвращается, когда указанная аудитория не найдена
	ErrRoomNotFound = errors.New("create_booking: room not found")

	// ErrResourceConflict возвращается, когда запрошенный ресурс уже занят
	// в пересекающемся окне
	ErrResourceConflict = errors.New("create_booking: resource conflict")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
