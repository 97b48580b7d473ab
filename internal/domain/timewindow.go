package domain

import (
	"time"

	"github.com/formadon/TDE-SchedulingService/pkg/types"
)

// TimeWindow is a concrete start/end pair of instants. Every resolved window
// satisfies End > Start (see ResolveWindow).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two windows overlap.
//
// Closed-interval semantics: touching endpoints count as overlap, so a
// booking ending exactly when another starts conflicts on a shared resource.
// Back-to-back bookings at day boundaries are therefore rejected; changing
// this silently alters booking capacity.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return !w.Start.After(other.End) && !w.End.Before(other.Start)
}

// ClipTo trims the window to the given bounds. Returns false when the window
// lies entirely outside of them.
func (w TimeWindow) ClipTo(start, end time.Time) (TimeWindow, bool) {
	clipped := w
	if clipped.Start.Before(start) {
		clipped.Start = start
	}
	if clipped.End.After(end) {
		clipped.End = end
	}
	if clipped.End.Before(clipped.Start) {
		return TimeWindow{}, false
	}
	return clipped, true
}

// WindowInput carries the partial, defaulted inputs of window resolution.
// Zero TimeString values mean "absent"; malformed values read from storage
// are treated as absent as well and fall through to the defaults.
type WindowInput struct {
	Date          *time.Time
	ExplicitStart types.TimeString
	ExplicitEnd   types.TimeString
	ProductStart  types.TimeString
	ProductEnd    types.TimeString
}

// ResolveWindow turns a calendar date plus optional time-of-day fields into a
// concrete window in the display timezone.
//
// Effective start = explicit start, else product default, else 09:00.
// Effective end = explicit end, else product default, else start + 2h.
// A resolved end not strictly after the start is coerced to start + 1h, so
// the result always has a strictly positive duration.
//
// Returns nil when no date is present: the event is unscheduled and excluded
// from conflict and availability computation.
func ResolveWindow(in WindowInput, loc *time.Location) *TimeWindow {
	if in.Date == nil {
		return nil
	}

	start := pickTime(in.ExplicitStart, in.ProductStart, DefaultStartTime)

	startAt, err := start.At(*in.Date, loc)
	if err != nil {
		// unreachable for the picked fallbacks, but keep the invariant
		startAt, _ = DefaultStartTime.At(*in.Date, loc)
	}

	var endAt time.Time
	if end, ok := pickValid(in.ExplicitEnd, in.ProductEnd); ok {
		endAt, _ = end.At(*in.Date, loc)
	} else {
		endAt = startAt.Add(DefaultDurationMinutes * time.Minute)
	}

	if !endAt.After(startAt) {
		endAt = startAt.Add(MinDurationMinutes * time.Minute)
	}

	return &TimeWindow{Start: startAt.UTC(), End: endAt.UTC()}
}

// ResolveSessionWindow resolves the explicitly stored window of a session.
// A session without a start instant is unscheduled. A missing or non-positive
// end is coerced to the one-hour minimum.
func ResolveSessionWindow(startAt, endAt *time.Time) *TimeWindow {
	if startAt == nil {
		return nil
	}

	start := startAt.UTC()
	end := start.Add(MinDurationMinutes * time.Minute)
	if endAt != nil && endAt.After(start) {
		end = endAt.UTC()
	}

	return &TimeWindow{Start: start, End: end}
}

// ResolveVariantWindow derives a variant's window from its calendar date and
// the referenced product's default time-of-day. Variants never store an end
// instant of their own.
func ResolveVariantWindow(date *time.Time, productStart, productEnd types.TimeString, loc *time.Location) *TimeWindow {
	return ResolveWindow(WindowInput{
		Date:         date,
		ProductStart: productStart,
		ProductEnd:   productEnd,
	}, loc)
}

// pickTime returns the first valid candidate, falling back to def
func pickTime(candidates ...types.TimeString) types.TimeString {
	picked, _ := pickValid(candidates...)
	return picked
}

// pickValid returns the first non-zero candidate that parses as HH:MM.
// The last candidate is allowed to act as an unconditional default.
func pickValid(candidates ...types.TimeString) (types.TimeString, bool) {
	for _, c := range candidates {
		if !c.IsZero() && c.IsValid() {
			return c, true
		}
	}
	return "", false
}
