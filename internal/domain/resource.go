package domain

// ResourceKind enumerates the finite things being scheduled
type ResourceKind string

const (
	KindTrainer    ResourceKind = "trainer"
	KindRoom       ResourceKind = "room"
	KindMobileUnit ResourceKind = "mobile_unit"
)

// Trainer is a teaching resource, possibly affiliated with several sites
type Trainer struct {
	ID     int64
	Name   string
	Active bool
	Sites  []Site
}

// Room is a physical classroom belonging to exactly one site
type Room struct {
	ID   int64
	Name string
	Site Site
}

// MobileUnit is transportable training equipment, possibly affiliated with
// several sites. Units flagged AlwaysAvailable are excluded from every
// conflict and availability computation.
type MobileUnit struct {
	ID              int64
	Name            string
	AlwaysAvailable bool
	Sites           []Site
}

// ResourceCatalog is a read-only snapshot of all schedulable resources
type ResourceCatalog struct {
	Trainers []Trainer
	Rooms    []Room
	Units    []MobileUnit
}

// AlwaysAvailableUnitIDs returns the set of exempt mobile-unit ids
func (c *ResourceCatalog) AlwaysAvailableUnitIDs() map[int64]bool {
	exempt := make(map[int64]bool)
	for _, u := range c.Units {
		if u.AlwaysAvailable {
			exempt[u.ID] = true
		}
	}
	return exempt
}

// RoomByID returns the room with the given id, or nil
func (c *ResourceCatalog) RoomByID(id int64) *Room {
	for i := range c.Rooms {
		if c.Rooms[i].ID == id {
			return &c.Rooms[i]
		}
	}
	return nil
}

// FilterExemptUnits removes always-available unit ids from the given slice
func FilterExemptUnits(unitIDs []int64, exempt map[int64]bool) []int64 {
	filtered := make([]int64, 0, len(unitIDs))
	for _, id := range unitIDs {
		if !exempt[id] {
			filtered = append(filtered, id)
		}
	}
	return filtered
}
