package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	"github.com/formadon/TDE-SchedulingService/pkg/dbmetrics"
	"github.com/formadon/TDE-SchedulingService/pkg/psqlbuilder"
)

// sessionColumns колонки таблицы sessions (без ресурсных связей M2M)
var sessionColumns = []string{
	"id",
	"deal_id",
	"product_ref",
	"start_at",
	"end_at",
	"room_id",
	"trainer_id",
	"unit_id",
	"address_text",
	"status",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с занятиями (sessions)
//
// Назначенные преподаватели и мобильные юниты могут храниться в двух
// представлениях одновременно (staged-миграция схемы):
//   - legacy скалярные колонки trainer_id / unit_id
//   - M2M таблицы session_trainers / session_units
//
// Репозиторий объединяет оба представления при чтении, чтобы остальной код
// работал с единым набором ID и не ветвился по представлению.
// Если схема ещё не мигрирована (caps.ResourceLinks == false), запросы
// строятся только по legacy колонкам.
type Repository struct {
	db   DBExecutor
	caps domain.SchemaCapabilities
}

// NewRepository создает новый экземпляр репозитория занятий
func NewRepository(db DBExecutor, caps domain.SchemaCapabilities) *Repository {
	return &Repository{db: db, caps: caps}
}

// Create создает новое занятие вместе с ресурсными связями
// Вызывается внутри транзакции (см. txmanager) - строка занятия и link-строки
// либо записываются все, либо ни одной
func (r *Repository) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("sessions").
		Columns(
			"deal_id",
			"product_ref",
			"start_at",
			"end_at",
			"room_id",
			"trainer_id",
			"unit_id",
			"address_text",
			"status",
		).
		Values(
			s.DealID,
			s.ProductRef,
			s.StartAt,
			s.EndAt,
			s.RoomID,
			firstID(s.TrainerIDs),
			firstID(s.UnitIDs),
			s.AddressText,
			s.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&s.ID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	if err := r.replaceResourceLinks(ctx, executor, s.ID, s.TrainerIDs, s.UnitIDs); err != nil {
		return nil, err
	}

	return s, nil
}

// Update обновляет занятие и заменяет его ресурсные связи
// Вызывается внутри транзакции
func (r *Repository) Update(ctx context.Context, s *domain.Session) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("sessions").
		Set("start_at", s.StartAt).
		Set("end_at", s.EndAt).
		Set("room_id", s.RoomID).
		Set("trainer_id", firstID(s.TrainerIDs)).
		Set("unit_id", firstID(s.UnitIDs)).
		Set("address_text", s.AddressText).
		Set("status", s.Status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	return r.replaceResourceLinks(ctx, executor, s.ID, s.TrainerIDs, s.UnitIDs)
}

// UpdateStatus обновляет только статус занятия
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("sessions").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// Delete удаляет занятие вместе с его ресурсными связями
// Вызывается внутри транзакции - строка занятия и link-строки удаляются атомарно
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if r.caps.ResourceLinks {
		for _, table := range []string{"session_trainers", "session_units"} {
			query, args, err := psqlbuilder.Delete(table).
				Where(squirrel.Eq{"session_id": id}).
				ToSql()
			if err != nil {
				return fmt.Errorf("%w: Delete - build delete from %s: %v", ErrBuildQuery, table, err)
			}
			if _, err := executor.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("%w: Delete - execute delete from %s: %v", ErrExecQuery, table, err)
			}
		}
	}

	query, args, err := psqlbuilder.Delete("sessions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// GetByID получает занятие по ID вместе с объединенным набором ресурсов
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(sessionColumns...).
		From("sessions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	s, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan session: %v", ErrScanRow, err)
	}

	if err := r.attachResourceLinks(ctx, executor, []*domain.Session{s}); err != nil {
		return nil, err
	}

	return s, nil
}

// GetByDealID получает все занятия сделки, отсортированные по дате начала
func (r *Repository) GetByDealID(ctx context.Context, dealID int64) ([]*domain.Session, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(sessionColumns...).
		From("sessions").
		Where(squirrel.Eq{"deal_id": dealID}).
		OrderBy("start_at ASC NULLS LAST, id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByDealID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByDealID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachResourceLinks(ctx, executor, sessions); err != nil {
		return nil, err
	}

	return sessions, nil
}

// GetOverlapCandidates получает занятия, претендующие на те же ресурсы,
// что и кандидат: совпадение по аудитории, пересечение по преподавателям
// или по мобильным юнитам (legacy колонки ∪ M2M связи)
//
// Отмененные и приостановленные занятия ресурсы не держат и не выбираются.
// Занятия без дат не могут конфликтовать и тоже отфильтровываются.
//
// Если вызывается внутри транзакции, добавляет FOR UPDATE для блокировки
// строк-кандидатов до конца проверки и записи (сужает гонку check-then-act)
func (r *Repository) GetOverlapCandidates(ctx context.Context, cand domain.BookingCandidate, excludeID *int64) ([]*domain.Session, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	resourceOr := squirrel.Or{}
	if cand.RoomID != nil {
		resourceOr = append(resourceOr, squirrel.Eq{"room_id": *cand.RoomID})
	}
	if len(cand.TrainerIDs) > 0 {
		resourceOr = append(resourceOr, squirrel.Eq{"trainer_id": cand.TrainerIDs})
		if r.caps.ResourceLinks {
			resourceOr = append(resourceOr, squirrel.Expr(
				"EXISTS (SELECT 1 FROM session_trainers st WHERE st.session_id = sessions.id AND st.trainer_id = ANY(?))",
				pq.Array(cand.TrainerIDs),
			))
		}
	}
	if len(cand.UnitIDs) > 0 {
		resourceOr = append(resourceOr, squirrel.Eq{"unit_id": cand.UnitIDs})
		if r.caps.ResourceLinks {
			resourceOr = append(resourceOr, squirrel.Expr(
				"EXISTS (SELECT 1 FROM session_units su WHERE su.session_id = sessions.id AND su.unit_id = ANY(?))",
				pq.Array(cand.UnitIDs),
			))
		}
	}

	if len(resourceOr) == 0 {
		return []*domain.Session{}, nil
	}

	selectBuilder := psqlbuilder.Select(sessionColumns...).
		From("sessions").
		Where(resourceOr).
		Where(squirrel.NotEq{"start_at": nil}).
		Where(squirrel.NotEq{"status": statusStrings(domain.NonBlockingStatuses)})

	if excludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeID})
	}

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetOverlapCandidates - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetOverlapCandidates - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachResourceLinks(ctx, executor, sessions); err != nil {
		return nil, err
	}

	return sessions, nil
}

// GetIntersectingRange получает занятия, чьё окно пересекает диапазон дат
// Используется агрегатором доступности
func (r *Repository) GetIntersectingRange(ctx context.Context, start, end time.Time) ([]*domain.Session, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(sessionColumns...).
		From("sessions").
		Where(squirrel.NotEq{"start_at": nil}).
		Where(squirrel.LtOrEq{"start_at": end}).
		// отсутствующий end_at коэрцируется к start_at + 1 час (см. domain)
		Where(squirrel.Expr("COALESCE(end_at, start_at + INTERVAL '1 hour') >= ?", start)).
		Where(squirrel.NotEq{"status": statusStrings(domain.NonBlockingStatuses)}).
		OrderBy("start_at ASC")

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetIntersectingRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetIntersectingRange - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachResourceLinks(ctx, executor, sessions); err != nil {
		return nil, err
	}

	return sessions, nil
}

// replaceResourceLinks заменяет M2M связи занятия на переданные наборы
// При немигрированной схеме связи живут только в legacy колонках - пропускаем
func (r *Repository) replaceResourceLinks(ctx context.Context, executor DBExecutor, sessionID int64, trainerIDs, unitIDs []int64) error {
	if !r.caps.ResourceLinks {
		return nil
	}

	if err := r.replaceLinks(ctx, executor, "session_trainers", "trainer_id", sessionID, trainerIDs); err != nil {
		return err
	}
	return r.replaceLinks(ctx, executor, "session_units", "unit_id", sessionID, unitIDs)
}

func (r *Repository) replaceLinks(ctx context.Context, executor DBExecutor, table, column string, sessionID int64, ids []int64) error {
	query, args, err := psqlbuilder.Delete(table).
		Where(squirrel.Eq{"session_id": sessionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: replaceLinks - build delete from %s: %v", ErrBuildQuery, table, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: replaceLinks - execute delete from %s: %v", ErrExecQuery, table, err)
	}

	if len(ids) == 0 {
		return nil
	}

	insertBuilder := psqlbuilder.Insert(table).Columns("session_id", column)
	for _, id := range ids {
		insertBuilder = insertBuilder.Values(sessionID, id)
	}

	query, args, err = insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: replaceLinks - build insert into %s: %v", ErrBuildQuery, table, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: replaceLinks - execute insert into %s: %v", ErrExecQuery, table, err)
	}

	return nil
}

// attachResourceLinks дочитывает M2M связи и объединяет их с legacy колонками
// в единый набор ID на занятие (без дублей)
func (r *Repository) attachResourceLinks(ctx context.Context, executor DBExecutor, sessions []*domain.Session) error {
	if !r.caps.ResourceLinks || len(sessions) == 0 {
		return nil
	}

	ids := make([]int64, len(sessions))
	byID := make(map[int64]*domain.Session, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
		byID[s.ID] = s
	}

	trainerLinks, err := r.loadLinks(ctx, executor, "session_trainers", "trainer_id", ids)
	if err != nil {
		return err
	}
	unitLinks, err := r.loadLinks(ctx, executor, "session_units", "unit_id", ids)
	if err != nil {
		return err
	}

	for sessionID, s := range byID {
		s.TrainerIDs = unionIDs(s.TrainerIDs, trainerLinks[sessionID])
		s.UnitIDs = unionIDs(s.UnitIDs, unitLinks[sessionID])
	}

	return nil
}

func (r *Repository) loadLinks(ctx context.Context, executor DBExecutor, table, column string, sessionIDs []int64) (map[int64][]int64, error) {
	query, args, err := psqlbuilder.Select("session_id", column).
		From(table).
		Where(squirrel.Eq{"session_id": sessionIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: loadLinks - build select from %s: %v", ErrBuildQuery, table, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: loadLinks - execute select from %s: %v", ErrExecQuery, table, err)
	}
	defer rows.Close()

	links := make(map[int64][]int64)
	for rows.Next() {
		var sessionID, resourceID int64
		if err := rows.Scan(&sessionID, &resourceID); err != nil {
			return nil, fmt.Errorf("%w: loadLinks - scan row from %s: %v", ErrScanRow, table, err)
		}
		links[sessionID] = append(links[sessionID], resourceID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: loadLinks - rows error from %s: %v", ErrScanRow, table, err)
	}

	return links, nil
}

// scanSession сканирует одну строку занятия
// Legacy скалярные колонки trainer_id/unit_id попадают в наборы ID;
// M2M связи дочитываются отдельно (см. attachResourceLinks)
func scanSession(scan func(dest ...interface{}) error) (*domain.Session, error) {
	var s domain.Session
	var legacyTrainerID, legacyUnitID sql.NullInt64
	var createdAt, updatedAt sql.NullTime

	err := scan(
		&s.ID,
		&s.DealID,
		&s.ProductRef,
		&s.StartAt,
		&s.EndAt,
		&s.RoomID,
		&legacyTrainerID,
		&legacyUnitID,
		&s.AddressText,
		&s.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if legacyTrainerID.Valid {
		s.TrainerIDs = append(s.TrainerIDs, legacyTrainerID.Int64)
	}
	if legacyUnitID.Valid {
		s.UnitIDs = append(s.UnitIDs, legacyUnitID.Int64)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}

// scanSessions сканирует результаты запроса в слайс занятий
func scanSessions(rows *sql.Rows) ([]*domain.Session, error) {
	sessions := make([]*domain.Session, 0)

	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%w: scanSessions - scan row: %v", ErrScanRow, err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanSessions - rows error: %v", ErrScanRow, err)
	}

	return sessions, nil
}

// firstID возвращает первый ID набора для записи в legacy скалярную колонку
// Обе репрезентации пишутся параллельно, пока миграция не завершена
func firstID(ids []int64) *int64 {
	if len(ids) == 0 {
		return nil
	}
	return &ids[0]
}

// unionIDs объединяет два набора ID без дублей, сохраняя порядок
func unionIDs(a, b []int64) []int64 {
	seen := make(map[int64]bool, len(a)+len(b))
	union := make([]int64, 0, len(a)+len(b))
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			union = append(union, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			union = append(union, id)
		}
	}
	return union
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
