package crmservice

import "github.com/formadon/TDE-SchedulingService/pkg/types"

// Deal модель сделки из CRM
type Deal struct {
	ID            int64  `json:"id"`
	PipelineLabel string `json:"pipeline_label"`
	SiteLabel     string `json:"site_label"`
	CompanyName   string `json:"company_name"`
}

// Product модель продукта каталога из CRM
// Дефолтное время начала/окончания может отсутствовать или прийти в
// некорректном формате - резолвер окна трактует такие значения как пустые
type Product struct {
	Ref              string  `json:"ref"`
	Name             string  `json:"name"`
	DefaultStartTime *string `json:"default_start_time"` // "HH:MM"
	DefaultEndTime   *string `json:"default_end_time"`   // "HH:MM"
	DurationHours    *int    `json:"duration_hours"`
}

// DefaultStart возвращает дефолтное время начала как TimeString
// (пустое значение, если не задано)
func (p *Product) DefaultStart() types.TimeString {
	if p.DefaultStartTime == nil {
		return ""
	}
	return types.TimeString(*p.DefaultStartTime)
}

// DefaultEnd возвращает дефолтное время окончания как TimeString
func (p *Product) DefaultEnd() types.TimeString {
	if p.DefaultEndTime == nil {
		return ""
	}
	return types.TimeString(*p.DefaultEndTime)
}

// ErrorResponse модель ошибки от CRM
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
