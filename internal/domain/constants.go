package domain

import "github.com/formadon/TDE-SchedulingService/pkg/types"

// Fallback time-of-day values used when neither the event nor its product
// carries explicit times
const (
	DefaultStartTime types.TimeString = "09:00"

	// DefaultDurationMinutes is added to the effective start when no end
	// time is known from any source
	DefaultDurationMinutes = 120

	// MinDurationMinutes is the coerced duration when a resolved end is not
	// strictly after the start
	MinDurationMinutes = 60
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// MaxAddressTextLength limits the free-text address field on a session
const MaxAddressTextLength = 500
