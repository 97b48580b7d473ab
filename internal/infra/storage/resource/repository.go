package resource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	"github.com/formadon/TDE-SchedulingService/pkg/dbmetrics"
	"github.com/formadon/TDE-SchedulingService/pkg/psqlbuilder"
)

// Repository read-only репозиторий каталога ресурсов
// (преподаватели, аудитории, мобильные юниты и их площадки)
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория каталога ресурсов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetCatalog загружает полный каталог ресурсов одним снапшотом
func (r *Repository) GetCatalog(ctx context.Context) (*domain.ResourceCatalog, error) {
	trainers, err := r.getTrainers(ctx)
	if err != nil {
		return nil, err
	}

	rooms, err := r.getRooms(ctx)
	if err != nil {
		return nil, err
	}

	units, err := r.getUnits(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.ResourceCatalog{
		Trainers: trainers,
		Rooms:    rooms,
		Units:    units,
	}, nil
}

// GetAlwaysAvailableUnitIDs получает ID всегда доступных мобильных юнитов
// Эти юниты исключаются из всех проверок конфликтов и подсчётов доступности
func (r *Repository) GetAlwaysAvailableUnitIDs(ctx context.Context) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id").
		From("mobile_units").
		Where(squirrel.Eq{"always_available": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetAlwaysAvailableUnitIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetAlwaysAvailableUnitIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: GetAlwaysAvailableUnitIDs - scan row: %v", ErrScanRow, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetAlwaysAvailableUnitIDs - rows error: %v", ErrScanRow, err)
	}

	return ids, nil
}

// GetRoomByID получает аудиторию по ID
func (r *Repository) GetRoomByID(ctx context.Context, id int64) (*domain.Room, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name", "site").
		From("rooms").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetRoomByID - build select query: %v", ErrBuildQuery, err)
	}

	var room domain.Room
	err = executor.QueryRowContext(ctx, query, args...).Scan(&room.ID, &room.Name, &room.Site)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetRoomByID - scan room: %v", ErrScanRow, err)
	}

	return &room, nil
}

func (r *Repository) getTrainers(ctx context.Context) ([]domain.Trainer, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name", "active").
		From("trainers").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getTrainers - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getTrainers - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	trainers := make([]domain.Trainer, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var t domain.Trainer
		if err := rows.Scan(&t.ID, &t.Name, &t.Active); err != nil {
			return nil, fmt.Errorf("%w: getTrainers - scan row: %v", ErrScanRow, err)
		}
		trainers = append(trainers, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getTrainers - rows error: %v", ErrScanRow, err)
	}

	sites, err := r.loadSites(ctx, "trainer_sites", "trainer_id", ids)
	if err != nil {
		return nil, err
	}
	for i := range trainers {
		trainers[i].Sites = sites[trainers[i].ID]
	}

	return trainers, nil
}

func (r *Repository) getRooms(ctx context.Context) ([]domain.Room, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name", "site").
		From("rooms").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getRooms - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getRooms - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0)
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Site); err != nil {
			return nil, fmt.Errorf("%w: getRooms - scan row: %v", ErrScanRow, err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getRooms - rows error: %v", ErrScanRow, err)
	}

	return rooms, nil
}

func (r *Repository) getUnits(ctx context.Context) ([]domain.MobileUnit, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name", "always_available").
		From("mobile_units").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getUnits - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getUnits - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	units := make([]domain.MobileUnit, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var u domain.MobileUnit
		if err := rows.Scan(&u.ID, &u.Name, &u.AlwaysAvailable); err != nil {
			return nil, fmt.Errorf("%w: getUnits - scan row: %v", ErrScanRow, err)
		}
		units = append(units, u)
		ids = append(ids, u.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getUnits - rows error: %v", ErrScanRow, err)
	}

	sites, err := r.loadSites(ctx, "mobile_unit_sites", "unit_id", ids)
	if err != nil {
		return nil, err
	}
	for i := range units {
		units[i].Sites = sites[units[i].ID]
	}

	return units, nil
}

// loadSites загружает площадки ресурсов из таблицы привязок
func (r *Repository) loadSites(ctx context.Context, table, column string, ids []int64) (map[int64][]domain.Site, error) {
	sites := make(map[int64][]domain.Site)
	if len(ids) == 0 {
		return sites, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(column, "site").
		From(table).
		Where(squirrel.Eq{column: ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: loadSites - build select from %s: %v", ErrBuildQuery, table, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: loadSites - execute select from %s: %v", ErrExecQuery, table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var resourceID int64
		var site domain.Site
		if err := rows.Scan(&resourceID, &site); err != nil {
			return nil, fmt.Errorf("%w: loadSites - scan row from %s: %v", ErrScanRow, table, err)
		}
		sites[resourceID] = append(sites[resourceID], site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: loadSites - rows error from %s: %v", ErrScanRow, table, err)
	}

	return sites, nil
}
