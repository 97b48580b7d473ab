package update_booking_status

// UpdateStatusRequest HTTP request model ручного перевода статуса
type UpdateStatusRequest struct {
	Status string `json:"status"` // suspended / cancelled / finished / draft
}
