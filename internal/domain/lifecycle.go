package domain

// Status is the lifecycle status of a session.
// DRAFT and SCHEDULED are computed automatically from the completeness of the
// session's assignment; SUSPENDED, CANCELLED and FINISHED are manual states
// that stick against automatic recomputation.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
	StatusFinished  Status = "finished"
)

// ManualStatuses lists the sticky, manually set states
var ManualStatuses = []Status{StatusSuspended, StatusCancelled, StatusFinished}

// NonBlockingStatuses lists statuses whose sessions do not hold their
// resources; they are skipped by conflict detection and availability counts
var NonBlockingStatuses = []Status{StatusSuspended, StatusCancelled}

// IsManual returns true for the sticky manual states
func (s Status) IsManual() bool {
	return s == StatusSuspended || s == StatusCancelled || s == StatusFinished
}

// IsValid returns true for a known status value
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusSuspended, StatusCancelled, StatusFinished:
		return true
	}
	return false
}

// StatusInput carries everything the automatic status rule looks at
type StatusInput struct {
	Site         Site
	SiteExempt   bool // site policy waives the room requirement
	HasRoom      bool
	TrainerCount int
	UnitCount    int
	HasWindow    bool // the event has a valid resolved window

	// PipelineAllowsUndated is true when the parent deal's pipeline is in
	// the allow-list that permits scheduling without concrete dates
	PipelineAllowsUndated bool
}

// RequiresRoom reports whether the room assignment is mandatory for the
// status computation. In-company events never require a room.
func (in StatusInput) RequiresRoom() bool {
	return !in.SiteExempt && in.Site != SiteInCompany
}

// ComputeStatus derives the automatic status from the assignment state.
// Callers must not apply the result when the stored status is manual.
func ComputeStatus(in StatusInput) Status {
	if in.RequiresRoom() && !in.HasRoom {
		return StatusDraft
	}
	if in.TrainerCount == 0 {
		return StatusDraft
	}
	if in.UnitCount == 0 {
		return StatusDraft
	}
	if in.HasWindow || in.PipelineAllowsUndated {
		return StatusScheduled
	}
	return StatusDraft
}

// ManualTransitionAllowed validates a manual status override.
//
//   - SUSPENDED or CANCELLED may be set only from DRAFT
//   - DRAFT may be restored only from SUSPENDED or CANCELLED
//   - any other manual value (FINISHED) requires the automatically computed
//     status to currently be SCHEDULED
//
// Violations fail validation rather than mutating state.
func ManualTransitionAllowed(current, computed, target Status) bool {
	switch target {
	case StatusSuspended, StatusCancelled:
		return current == StatusDraft
	case StatusDraft:
		return current == StatusSuspended || current == StatusCancelled
	default:
		return computed == StatusScheduled
	}
}
