package models

import (
	"time"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
)

// Response модели

// SessionResponse ответ с данными занятия
type SessionResponse struct {
	ID         int64  `json:"id"`
	DealID     int64  `json:"dealId"`
	ProductRef string `json:"productRef"`

	StartAt *string `json:"startAt,omitempty"` // ISO 8601
	EndAt   *string `json:"endAt,omitempty"`   // ISO 8601

	RoomID      *int64  `json:"roomId,omitempty"`
	TrainerIDs  []int64 `json:"trainerIds"`
	UnitIDs     []int64 `json:"unitIds"`
	AddressText *string `json:"addressText,omitempty"`

	Status string `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionListResponse ответ со списком занятий
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// Методы конвертации

// FromDomainSession конвертирует domain модель в DTO
func FromDomainSession(s *domain.Session) *SessionResponse {
	if s == nil {
		return nil
	}

	resp := &SessionResponse{
		ID:          s.ID,
		DealID:      s.DealID,
		ProductRef:  s.ProductRef,
		RoomID:      s.RoomID,
		TrainerIDs:  s.TrainerIDs,
		UnitIDs:     s.UnitIDs,
		AddressText: s.AddressText,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}

	if resp.TrainerIDs == nil {
		resp.TrainerIDs = []int64{}
	}
	if resp.UnitIDs == nil {
		resp.UnitIDs = []int64{}
	}

	if s.StartAt != nil {
		startStr := s.StartAt.UTC().Format(time.RFC3339)
		resp.StartAt = &startStr
	}
	if s.EndAt != nil {
		endStr := s.EndAt.UTC().Format(time.RFC3339)
		resp.EndAt = &endStr
	}

	return resp
}

// FromDomainSessionList конвертирует список domain моделей в DTO
func FromDomainSessionList(sessions []*domain.Session) *SessionListResponse {
	resp := &SessionListResponse{
		Sessions: make([]SessionResponse, 0, len(sessions)),
	}

	for _, s := range sessions {
		if sessionResp := FromDomainSession(s); sessionResp != nil {
			resp.Sessions = append(resp.Sessions, *sessionResp)
		}
	}

	return resp
}
