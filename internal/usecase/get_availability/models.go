package get_availability

import "time"

// Request модель запроса на агрегирование доступности
type Request struct {
	Start time.Time // Первый день диапазона (календарная дата)
	End   time.Time // Последний день диапазона, включительно
}

// KindAvailability счётчики доступности одного вида ресурсов
type KindAvailability struct {
	Total     int `json:"total"`
	Booked    int `json:"booked"`
	Available int `json:"available"`
}

// SiteAvailability доступность ресурсов площадки на один день
type SiteAvailability struct {
	Site     string           `json:"site"`
	Trainers KindAvailability `json:"trainers"`
	Rooms    KindAvailability `json:"rooms"`
	Units    KindAvailability `json:"units"`
}

// DayAvailability доступность ресурсов на один календарный день
type DayAvailability struct {
	Date  string             `json:"date"` // "2006-01-02"
	Sites []SiteAvailability `json:"sites"`
}

// Response модель ответа с доступностью по дням
type Response struct {
	Start string            `json:"start"`
	End   string            `json:"end"`
	Days  []DayAvailability `json:"days"`
}
