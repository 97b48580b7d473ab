package create_booking

import (
	"fmt"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
// Явно переданные времена с некорректным форматом отклоняются; мягкая
// трактовка "как отсутствующие" применяется только к данным из хранилища
func validateRequest(req *Request) error {
	if req.DealID <= 0 {
		return fmt.Errorf("%w: dealId must be positive", ErrInvalidInput)
	}

	if req.ProductRef == "" {
		return fmt.Errorf("%w: productRef is required", ErrInvalidInput)
	}

	if !req.StartTime.IsZero() {
		if err := req.StartTime.Validate(); err != nil {
			return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
		}
	}

	if !req.EndTime.IsZero() {
		if err := req.EndTime.Validate(); err != nil {
			return fmt.Errorf("%w: invalid endTime format: %v", ErrInvalidInput, err)
		}
	}

	// Время без даты не образует окна
	if req.Date == nil && (!req.StartTime.IsZero() || !req.EndTime.IsZero()) {
		return fmt.Errorf("%w: startTime/endTime require a date", ErrInvalidInput)
	}

	if req.RoomID != nil && *req.RoomID <= 0 {
		return fmt.Errorf("%w: roomId must be positive", ErrInvalidInput)
	}

	if err := validateResourceIDs(req.TrainerIDs, "trainerIds"); err != nil {
		return err
	}
	if err := validateResourceIDs(req.UnitIDs, "unitIds"); err != nil {
		return err
	}

	if req.AddressText != nil && len(*req.AddressText) > domain.MaxAddressTextLength {
		return fmt.Errorf("%w: addressText exceeds %d characters", ErrInvalidInput, domain.MaxAddressTextLength)
	}

	return nil
}

// validateResourceIDs проверяет, что все ID положительны и не повторяются
func validateResourceIDs(ids []int64, field string) error {
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidInput, field)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s contains duplicates", ErrInvalidInput, field)
		}
		seen[id] = true
	}
	return nil
}
