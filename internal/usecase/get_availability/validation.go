package get_availability

import "fmt"

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request, maxRangeDays int) error {
	if req.Start.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	if req.End.IsZero() {
		return fmt.Errorf("%w: end date is required", ErrInvalidInput)
	}

	if req.End.Before(req.Start) {
		return fmt.Errorf("%w: end date is before start date", ErrInvalidInput)
	}

	days := int(req.End.Sub(req.Start).Hours()/24) + 1
	if days > maxRangeDays {
		return fmt.Errorf("%w: range of %d days exceeds limit of %d", ErrRangeTooLong, days, maxRangeDays)
	}

	return nil
}
