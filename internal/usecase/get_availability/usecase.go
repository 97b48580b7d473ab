package get_availability

import (
	"context"
	"fmt"
	"time"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	crmClient "github.com/formadon/TDE-SchedulingService/internal/integrations/crmservice"
	"github.com/formadon/TDE-SchedulingService/pkg/types"
)

// UseCase use case для агрегирования доступности ресурсов по дням
type UseCase struct {
	sessionRepo  SessionRepository
	variantRepo  VariantRepository
	resourceRepo ResourceRepository
	crm          CRMClient

	loc              *time.Location
	maxRangeDays     int
	extraExemptUnits []int64

	logger Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	sessionRepo SessionRepository,
	variantRepo VariantRepository,
	resourceRepo ResourceRepository,
	crm CRMClient,
	loc *time.Location,
	maxRangeDays int,
	extraExemptUnitIDs []int64,
	logger Logger,
) *UseCase {
	return &UseCase{
		sessionRepo:      sessionRepo,
		variantRepo:      variantRepo,
		resourceRepo:     resourceRepo,
		crm:              crm,
		loc:              loc,
		maxRangeDays:     maxRangeDays,
		extraExemptUnits: extraExemptUnitIDs,
		logger:           logger,
	}
}

// Execute выполняет use case агрегирования доступности
// Дни диапазона итерируются в таймзоне отображения, обе границы включительно
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailability: range %s - %s",
		req.Start.Format(domain.DateFormat), req.End.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req, uc.maxRangeDays); err != nil {
		uc.logger.Warn("GetAvailability: validation failed: %v", err)
		return nil, err
	}

	numDays := int(req.End.Sub(req.Start).Hours()/24) + 1
	rangeStart := time.Date(req.Start.Year(), req.Start.Month(), req.Start.Day(), 0, 0, 0, 0, uc.loc)
	rangeEnd := time.Date(req.Start.Year(), req.Start.Month(), req.Start.Day()+numDays, 0, 0, 0, 0, uc.loc)

	// 2. Загружаем каталог ресурсов одним снапшотом
	catalog, err := uc.resourceRepo.GetCatalog(ctx)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to load catalog: %v", err)
		return nil, fmt.Errorf("%w: failed to load catalog: %v", ErrInternal, err)
	}

	idx := newCatalogIndex(catalog, uc.extraExemptUnits)

	// 3. Загружаем события с пересекающимся окном
	sessions, err := uc.sessionRepo.GetIntersectingRange(ctx, rangeStart, rangeEnd)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to load sessions: %v", err)
		return nil, fmt.Errorf("%w: failed to load sessions: %v", ErrInternal, err)
	}

	variants, err := uc.variantRepo.GetIntersectingRange(ctx, rangeStart, rangeEnd)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to load variants: %v", err)
		return nil, fmt.Errorf("%w: failed to load variants: %v", ErrInternal, err)
	}

	// 4. Сводим оба вида событий к общей форме
	bookings := uc.resolveBookings(ctx, catalog, sessions, variants)

	// 5. Раскладываем по дневным корзинам
	days := aggregate(idx, bookings, rangeStart, numDays, uc.loc)

	uc.logger.Info("GetAvailability: aggregated %d events over %d days", len(bookings), numDays)

	return &Response{
		Start: rangeStart.Format(domain.DateFormat),
		End:   req.End.Format(domain.DateFormat),
		Days:  days,
	}, nil
}

// resolveBookings приводит занятия и варианты к общей форме ResolvedBooking:
// окно, ресурсы, эффективная площадка
//
// Площадка занятия выводится из аудитории, иначе из заявленной площадки
// сделки; площадка варианта - из аудитории, иначе из его собственной метки.
// Сделки и продукты кэшируются на время запроса; недоступность CRM
// деградирует до неизвестной площадки и глобальных дефолтов времени.
func (uc *UseCase) resolveBookings(
	ctx context.Context,
	catalog *domain.ResourceCatalog,
	sessions []*domain.Session,
	variants []*domain.Variant,
) []domain.ResolvedBooking {
	bookings := make([]domain.ResolvedBooking, 0, len(sessions)+len(variants))

	dealLabels := make(map[int64]string)
	for _, sess := range sessions {
		window := sess.Window()
		if window == nil {
			continue
		}

		label, ok := dealLabels[sess.DealID]
		if !ok {
			if deal, err := uc.crm.GetDeal(ctx, sess.DealID); err != nil {
				uc.logger.Warn("GetAvailability: deal=%d unavailable for session id=%d: %v", sess.DealID, sess.ID, err)
			} else {
				label = deal.SiteLabel
			}
			dealLabels[sess.DealID] = label
		}

		bookings = append(bookings, domain.ResolvedBooking{
			Kind:       domain.EventSession,
			EventID:    sess.ID,
			Window:     *window,
			RoomID:     sess.RoomID,
			TrainerIDs: sess.TrainerIDs,
			UnitIDs:    sess.UnitIDs,
			Site:       uc.effectiveSite(catalog, sess.RoomID, label),
		})
	}

	products := make(map[string]*crmClient.Product)
	for _, v := range variants {
		var productStart, productEnd types.TimeString

		product, ok := products[v.ProductRef]
		if !ok {
			var err error
			product, err = uc.crm.GetProduct(ctx, v.ProductRef)
			if err != nil {
				uc.logger.Warn("GetAvailability: product %s unavailable for variant id=%d: %v", v.ProductRef, v.ID, err)
				product = nil
			}
			products[v.ProductRef] = product
		}
		if product != nil {
			productStart = product.DefaultStart()
			productEnd = product.DefaultEnd()
		}

		window := domain.ResolveVariantWindow(v.Date, productStart, productEnd, uc.loc)
		if window == nil {
			continue
		}

		bookings = append(bookings, domain.ResolvedBooking{
			Kind:       domain.EventVariant,
			EventID:    v.ID,
			Window:     *window,
			RoomID:     v.RoomID,
			TrainerIDs: v.TrainerIDs,
			UnitIDs:    v.UnitIDs,
			Site:       uc.effectiveSite(catalog, v.RoomID, v.SiteLabel),
		})
	}

	return bookings
}

// effectiveSite выводит эффективную площадку события
func (uc *UseCase) effectiveSite(catalog *domain.ResourceCatalog, roomID *int64, declaredLabel string) domain.Site {
	var room *domain.Room
	if roomID != nil {
		room = catalog.RoomByID(*roomID)
	}
	return domain.EffectiveSite(room, declaredLabel)
}
