package update_booking

import (
	"fmt"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.SessionID <= 0 {
		return fmt.Errorf("%w: sessionId must be positive", ErrInvalidInput)
	}

	if req.ClearWindow && (req.Date != nil || !req.StartTime.IsZero() || !req.EndTime.IsZero()) {
		return fmt.Errorf("%w: clearWindow excludes date and times", ErrInvalidInput)
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

	if req.ClearRoom && req.RoomID != nil {
		return fmt.Errorf("%w: clearRoom excludes roomId", ErrInvalidInput)
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

	if req.ClearAddress && req.AddressText != nil {
		return fmt.Errorf("%w: clearAddress excludes addressText", ErrInvalidInput)
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
