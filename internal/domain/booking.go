package domain

import "time"

// EventKind distinguishes the two bookable event shapes
type EventKind string

const (
	EventSession EventKind = "session"
	EventVariant EventKind = "variant"
)

// Session is a booking tied to a sales deal and one of its line-item
// products. Its time window is stored explicitly and may be absent.
type Session struct {
	ID         int64
	DealID     int64
	ProductRef string
	StartAt    *time.Time
	EndAt      *time.Time
	RoomID     *int64
	TrainerIDs []int64
	UnitIDs    []int64
	AddressText *string
	Status     Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Window resolves the session's stored window (nil when unscheduled)
func (s *Session) Window() *TimeWindow {
	return ResolveSessionWindow(s.StartAt, s.EndAt)
}

// HasRoom returns true if a room is assigned
func (s *Session) HasRoom() bool {
	return s.RoomID != nil
}

// Variant is an open-enrollment booking tied to a catalog product. Its time
// window is derived each time from the date plus the product's default
// time-of-day; it stores no end instant of its own.
type Variant struct {
	ID         int64
	ProductRef string
	Date       *time.Time
	SiteLabel  string
	RoomID     *int64
	TrainerIDs []int64
	UnitIDs    []int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookingCandidate is the common shape a conflict check runs against
type BookingCandidate struct {
	Window     TimeWindow
	RoomID     *int64
	TrainerIDs []int64
	UnitIDs    []int64
}

// IsEmpty returns true when the candidate requests no resources at all;
// such candidates are trivially available
func (c *BookingCandidate) IsEmpty() bool {
	return c.RoomID == nil && len(c.TrainerIDs) == 0 && len(c.UnitIDs) == 0
}

// ResolvedBooking is the common shape both event kinds reduce to for the
// availability aggregation: a window, the assigned resources and the
// effective site
type ResolvedBooking struct {
	Kind       EventKind
	EventID    int64
	Window     TimeWindow
	RoomID     *int64
	TrainerIDs []int64
	UnitIDs    []int64
	Site       Site
}

// ResourceConflict describes the first double-booking found for a candidate
type ResourceConflict struct {
	ResourceKind ResourceKind
	ResourceID   int64
	EventKind    EventKind
	EventID      int64
	Window       TimeWindow
}

// ResourceLocks holds the resource ids committed to windows overlapping a
// probe window. Advisory only - the authoritative check runs on write.
type ResourceLocks struct {
	TrainerIDs []int64
	RoomIDs    []int64
	UnitIDs    []int64
}

// EffectiveSite derives an event's site: the assigned room's site wins, else
// the declared label normalized through the alias table
func EffectiveSite(room *Room, declaredLabel string) Site {
	if room != nil {
		return room.Site
	}
	return NormalizeSiteLabel(declaredLabel)
}
