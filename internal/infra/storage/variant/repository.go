package variant

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

// variantColumns колонки таблицы variants (без ресурсных связей M2M)
var variantColumns = []string{
	"id",
	"product_ref",
	"event_date",
	"site_label",
	"room_id",
	"trainer_id",
	"unit_id",
	"created_at",
	"updated_at",
}

// Repository репозиторий для чтения вариантов (открытый набор по каталогу)
//
// Варианты создаются синхронизацией каталога (вне этого сервиса), здесь они
// только читаются для проверки конфликтов и подсчёта доступности. Как и у
// занятий, ресурсные связи могут жить в legacy колонках trainer_id/unit_id
// и в M2M таблицах variant_trainers/variant_units одновременно - репозиторий
// объединяет оба представления при чтении.
type Repository struct {
	db   DBExecutor
	caps domain.SchemaCapabilities
}

// NewRepository создает новый экземпляр репозитория вариантов
func NewRepository(db DBExecutor, caps domain.SchemaCapabilities) *Repository {
	return &Repository{db: db, caps: caps}
}

// GetByID получает вариант по ID вместе с объединенным набором ресурсов
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Variant, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(variantColumns...).
		From("variants").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	v, err := scanVariant(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan variant: %v", ErrScanRow, err)
	}

	if err := r.attachResourceLinks(ctx, executor, []*domain.Variant{v}); err != nil {
		return nil, err
	}

	return v, nil
}

// GetOverlapCandidates получает варианты, претендующие на те же ресурсы,
// что и кандидат. Окно варианта выводится из даты и дефолтов продукта уже
// на стороне детектора - здесь только ресурсный фильтр и наличие даты.
func (r *Repository) GetOverlapCandidates(ctx context.Context, cand domain.BookingCandidate, excludeID *int64) ([]*domain.Variant, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	resourceOr := squirrel.Or{}
	if cand.RoomID != nil {
		resourceOr = append(resourceOr, squirrel.Eq{"room_id": *cand.RoomID})
	}
	if len(cand.TrainerIDs) > 0 {
		resourceOr = append(resourceOr, squirrel.Eq{"trainer_id": cand.TrainerIDs})
		if r.caps.ResourceLinks {
			resourceOr = append(resourceOr, squirrel.Expr(
				"EXISTS (SELECT 1 FROM variant_trainers vt WHERE vt.variant_id = variants.id AND vt.trainer_id = ANY(?))",
				pq.Array(cand.TrainerIDs),
			))
		}
	}
	if len(cand.UnitIDs) > 0 {
		resourceOr = append(resourceOr, squirrel.Eq{"unit_id": cand.UnitIDs})
		if r.caps.ResourceLinks {
			resourceOr = append(resourceOr, squirrel.Expr(
				"EXISTS (SELECT 1 FROM variant_units vu WHERE vu.variant_id = variants.id AND vu.unit_id = ANY(?))",
				pq.Array(cand.UnitIDs),
			))
		}
	}

	if len(resourceOr) == 0 {
		return []*domain.Variant{}, nil
	}

	selectBuilder := psqlbuilder.Select(variantColumns...).
		From("variants").
		Where(resourceOr).
		Where(squirrel.NotEq{"event_date": nil})

	if excludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeID})
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

	variants, err := scanVariants(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachResourceLinks(ctx, executor, variants); err != nil {
		return nil, err
	}

	return variants, nil
}

// GetIntersectingRange получает варианты с датой внутри диапазона
// Берём день запаса с обеих сторон: окно выводится в таймзоне отображения
// и в UTC может сдвинуться относительно календарной даты
func (r *Repository) GetIntersectingRange(ctx context.Context, start, end time.Time) ([]*domain.Variant, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(variantColumns...).
		From("variants").
		Where(squirrel.NotEq{"event_date": nil}).
		Where(squirrel.GtOrEq{"event_date": start.AddDate(0, 0, -1)}).
		Where(squirrel.LtOrEq{"event_date": end.AddDate(0, 0, 1)}).
		OrderBy("event_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetIntersectingRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetIntersectingRange - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	variants, err := scanVariants(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachResourceLinks(ctx, executor, variants); err != nil {
		return nil, err
	}

	return variants, nil
}

// attachResourceLinks дочитывает M2M связи и объединяет их с legacy колонками
func (r *Repository) attachResourceLinks(ctx context.Context, executor DBExecutor, variants []*domain.Variant) error {
	if !r.caps.ResourceLinks || len(variants) == 0 {
		return nil
	}

	ids := make([]int64, len(variants))
	byID := make(map[int64]*domain.Variant, len(variants))
	for i, v := range variants {
		ids[i] = v.ID
		byID[v.ID] = v
	}

	trainerLinks, err := r.loadLinks(ctx, executor, "variant_trainers", "trainer_id", ids)
	if err != nil {
		return err
	}
	unitLinks, err := r.loadLinks(ctx, executor, "variant_units", "unit_id", ids)
	if err != nil {
		return err
	}

	for variantID, v := range byID {
		v.TrainerIDs = unionIDs(v.TrainerIDs, trainerLinks[variantID])
		v.UnitIDs = unionIDs(v.UnitIDs, unitLinks[variantID])
	}

	return nil
}

func (r *Repository) loadLinks(ctx context.Context, executor DBExecutor, table, column string, variantIDs []int64) (map[int64][]int64, error) {
	query, args, err := psqlbuilder.Select("variant_id", column).
		From(table).
		Where(squirrel.Eq{"variant_id": variantIDs}).
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
		var variantID, resourceID int64
		if err := rows.Scan(&variantID, &resourceID); err != nil {
			return nil, fmt.Errorf("%w: loadLinks - scan row from %s: %v", ErrScanRow, table, err)
		}
		links[variantID] = append(links[variantID], resourceID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: loadLinks - rows error from %s: %v", ErrScanRow, table, err)
	}

	return links, nil
}

func scanVariant(scan func(dest ...interface{}) error) (*domain.Variant, error) {
	var v domain.Variant
	var legacyTrainerID, legacyUnitID sql.NullInt64
	var siteLabel sql.NullString
	var createdAt, updatedAt sql.NullTime

	err := scan(
		&v.ID,
		&v.ProductRef,
		&v.Date,
		&siteLabel,
		&v.RoomID,
		&legacyTrainerID,
		&legacyUnitID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.SiteLabel = siteLabel.String

	if legacyTrainerID.Valid {
		v.TrainerIDs = append(v.TrainerIDs, legacyTrainerID.Int64)
	}
	if legacyUnitID.Valid {
		v.UnitIDs = append(v.UnitIDs, legacyUnitID.Int64)
	}

	v.CreatedAt = createdAt.Time
	v.UpdatedAt = updatedAt.Time

	return &v, nil
}

func scanVariants(rows *sql.Rows) ([]*domain.Variant, error) {
	variants := make([]*domain.Variant, 0)

	for rows.Next() {
		v, err := scanVariant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%w: scanVariants - scan row: %v", ErrScanRow, err)
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanVariants - rows error: %v", ErrScanRow, err)
	}

	return variants, nil
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
