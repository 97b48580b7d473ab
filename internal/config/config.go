package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// Config конфигурация сервиса
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Logs       LogsConfig       `toml:"logs"`
	Metrics    MetricsConfig    `toml:"metrics"`
	CRMService CRMServiceConfig `toml:"crm_service"`
	Scheduling SchedulingConfig `toml:"scheduling"`
}

// ServerConfig настройки HTTP-сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host" envconfig:"DB_HOST"`
	Port            int    `toml:"port" envconfig:"DB_PORT"`
	User            string `toml:"user" envconfig:"DB_USER"`
	Password        string `toml:"password" envconfig:"DB_PASSWORD"`
	DBName          string `toml:"dbname" envconfig:"DB_NAME"`
	SSLMode         string `toml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN возвращает строку подключения к PostgreSQL
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки метрик Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// CRMServiceConfig настройки интеграции с CRM (сделки и продукты каталога)
type CRMServiceConfig struct {
	URL     string `toml:"url" envconfig:"CRM_SERVICE_URL"`
	Timeout int    `toml:"timeout"`
}

// SchedulingConfig бизнес-настройки планирования
type SchedulingConfig struct {
	// DisplayTimezone таймзона отображения, в которой резолвятся даты занятий
	DisplayTimezone string `toml:"display_timezone"`

	// RoomExemptSites площадки, для которых аудитория не обязательна
	// (помимо площадки "in_company", которая исключена всегда)
	RoomExemptSites []string `toml:"room_exempt_sites"`

	// UndatedPipelines воронки сделок, для которых занятие может быть
	// запланировано без конкретных дат
	UndatedPipelines []string `toml:"undated_pipelines"`

	// MaxAvailabilityRangeDays максимальная длина диапазона для запроса доступности
	MaxAvailabilityRangeDays int `toml:"max_availability_range_days"`

	// AlwaysAvailableUnitIDs резервный список всегда доступных мобильных юнитов
	// Используется, если в каталоге ресурсов нет флага always_available
	AlwaysAvailableUnitIDs []int64 `toml:"always_available_unit_ids"`
}

// Значения по умолчанию для бизнес-настроек планирования
const (
	DefaultDisplayTimezone          = "Europe/Madrid"
	DefaultMaxAvailabilityRangeDays = 120
)

// Load читает конфигурацию из TOML-файла и накладывает переменные окружения
// Переменные окружения (DB_*, CRM_SERVICE_URL) имеют приоритет над файлом -
// в деплое секреты приходят из окружения
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	if err := envconfig.Process("", &cfg.Database); err != nil {
		return nil, fmt.Errorf("config: failed to process database env overrides: %w", err)
	}
	if err := envconfig.Process("", &cfg.CRMService); err != nil {
		return nil, fmt.Errorf("config: failed to process crm env overrides: %w", err)
	}

	if cfg.Scheduling.DisplayTimezone == "" {
		cfg.Scheduling.DisplayTimezone = DefaultDisplayTimezone
	}
	if cfg.Scheduling.MaxAvailabilityRangeDays <= 0 {
		cfg.Scheduling.MaxAvailabilityRangeDays = DefaultMaxAvailabilityRangeDays
	}

	return &cfg, nil
}
