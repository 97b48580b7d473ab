package capability

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	"github.com/formadon/TDE-SchedulingService/pkg/dbmetrics"
)

// undefinedTable код ошибки PostgreSQL 42P01 (таблица не существует)
const undefinedTable = "42P01"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

// linkTables таблицы M2M связей, появляющиеся на поздней стадии миграции
// Достаточно одной отсутствующей, чтобы считать capability выключенной -
// смешанное состояние миграции не поддерживается
var linkTables = []string{
	"session_trainers",
	"session_units",
	"variant_trainers",
	"variant_units",
}

// Detect проверяет, поддерживает ли текущая схема M2M таблицы ресурсных
// связей. Вызывается один раз при старте процесса; результат передаётся
// дальше как неизменяемое значение (schema capability не меняется, пока
// процесс живёт).
//
// Политика degrade-not-fail: отсутствие новых таблиц не ошибка - запросы
// строятся только по legacy колонкам, о чём пишется одно предупреждение.
// Любая другая ошибка пробы тоже трактуется как отсутствие capability,
// чтобы не блокировать legacy-поток бронирования.
func Detect(ctx context.Context, db dbmetrics.DBExecutor, log Logger) domain.SchemaCapabilities {
	for _, table := range linkTables {
		if !tableExists(ctx, db, table) {
			log.Warn("schema capability: table %s is missing, falling back to legacy resource columns", table)
			return domain.SchemaCapabilities{ResourceLinks: false}
		}
	}

	log.Info("schema capability: resource link tables detected")
	return domain.SchemaCapabilities{ResourceLinks: true}
}

func tableExists(ctx context.Context, db dbmetrics.DBExecutor, table string) bool {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1").Scan(&one)
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == undefinedTable {
		return false
	}

	// Неожиданная ошибка пробы - считаем capability выключенной,
	// legacy-поток важнее новых колонок
	return false
}
