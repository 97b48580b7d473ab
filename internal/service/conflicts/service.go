package conflicts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	"github.com/formadon/TDE-SchedulingService/internal/integrations/crmservice"
	"github.com/formadon/TDE-SchedulingService/pkg/types"
)

// Service детектор ресурсных конфликтов
// Проверяет кандидата на бронирование против всех существующих занятий и
// вариантов с пересекающимся окном
type Service struct {
	sessionRepo  SessionRepository
	variantRepo  VariantRepository
	resourceRepo ResourceRepository
	crmClient    CRMClient
	loc          *time.Location
	extraExempt  map[int64]bool
	logger       Logger
}

// NewService создает новый экземпляр детектора конфликтов
// extraExemptUnitIDs - резервный список всегда доступных юнитов из конфига,
// объединяется с флагом always_available каталога
func NewService(
	sessionRepo SessionRepository,
	variantRepo VariantRepository,
	resourceRepo ResourceRepository,
	crmClient CRMClient,
	loc *time.Location,
	extraExemptUnitIDs []int64,
	logger Logger,
) *Service {
	exempt := make(map[int64]bool, len(extraExemptUnitIDs))
	for _, id := range extraExemptUnitIDs {
		exempt[id] = true
	}

	return &Service{
		sessionRepo:  sessionRepo,
		variantRepo:  variantRepo,
		resourceRepo: resourceRepo,
		crmClient:    crmClient,
		loc:          loc,
		extraExempt:  exempt,
		logger:       logger,
	}
}

// CheckAvailability проверяет, свободны ли запрошенные ресурсы в окне
// кандидата. Возвращает первый найденный конфликт или nil, если все ресурсы
// свободны. Порядок/ранжирование конфликтов не гарантируется - первый
// найденный прерывает проверку.
//
// excludeSessionID исключает само обновляемое занятие из проверки
func (s *Service) CheckAvailability(ctx context.Context, cand domain.BookingCandidate, excludeSessionID *int64) (*domain.ResourceConflict, error) {
	exempt, err := s.exemptUnitIDs(ctx)
	if err != nil {
		return nil, err
	}

	// 1. Всегда доступные юниты не участвуют в проверке
	cand.UnitIDs = domain.FilterExemptUnits(cand.UnitIDs, exempt)

	// 2. Кандидат без ресурсов тривиально доступен
	if cand.IsEmpty() {
		return nil, nil
	}

	// 3. Занятия: окно хранится явно
	sessions, err := s.sessionRepo.GetOverlapCandidates(ctx, cand, excludeSessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: CheckAvailability - load sessions: %v", ErrInternal, err)
	}

	for _, sess := range sessions {
		window := sess.Window()
		if window == nil || !window.Overlaps(cand.Window) {
			continue
		}
		if kind, resourceID, ok := matchResource(cand, sess.RoomID, sess.TrainerIDs, sess.UnitIDs, exempt); ok {
			s.logger.Info("CheckAvailability: %s id=%d busy in session id=%d", kind, resourceID, sess.ID)
			return &domain.ResourceConflict{
				ResourceKind: kind,
				ResourceID:   resourceID,
				EventKind:    domain.EventSession,
				EventID:      sess.ID,
				Window:       *window,
			}, nil
		}
	}

	// 4. Варианты: окно выводится из даты и дефолтов продукта
	variants, err := s.variantRepo.GetOverlapCandidates(ctx, cand, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: CheckAvailability - load variants: %v", ErrInternal, err)
	}

	products := make(map[string]*crmservice.Product)
	for _, v := range variants {
		window := s.variantWindow(ctx, v, products)
		if window == nil || !window.Overlaps(cand.Window) {
			continue
		}
		if kind, resourceID, ok := matchResource(cand, v.RoomID, v.TrainerIDs, v.UnitIDs, exempt); ok {
			s.logger.Info("CheckAvailability: %s id=%d busy in variant id=%d", kind, resourceID, v.ID)
			return &domain.ResourceConflict{
				ResourceKind: kind,
				ResourceID:   resourceID,
				EventKind:    domain.EventVariant,
				EventID:      v.ID,
				Window:       *window,
			}, nil
		}
	}

	return nil, nil
}

// LockedResources возвращает наборы ID ресурсов, занятых в окнах,
// пересекающих probe. Используется UI, чтобы погасить недоступные варианты
// до отправки формы; авторитетная проверка всё равно выполняется на записи.
func (s *Service) LockedResources(ctx context.Context, probe domain.TimeWindow, excludeSessionID *int64) (*domain.ResourceLocks, error) {
	exempt, err := s.exemptUnitIDs(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessionRepo.GetIntersectingRange(ctx, probe.Start, probe.End)
	if err != nil {
		return nil, fmt.Errorf("%w: LockedResources - load sessions: %v", ErrInternal, err)
	}

	variants, err := s.variantRepo.GetIntersectingRange(ctx, probe.Start, probe.End)
	if err != nil {
		return nil, fmt.Errorf("%w: LockedResources - load variants: %v", ErrInternal, err)
	}

	trainerSet := make(map[int64]bool)
	roomSet := make(map[int64]bool)
	unitSet := make(map[int64]bool)

	collect := func(window *domain.TimeWindow, roomID *int64, trainerIDs, unitIDs []int64) {
		if window == nil || !window.Overlaps(probe) {
			return
		}
		if roomID != nil {
			roomSet[*roomID] = true
		}
		for _, id := range trainerIDs {
			trainerSet[id] = true
		}
		for _, id := range domain.FilterExemptUnits(unitIDs, exempt) {
			unitSet[id] = true
		}
	}

	for _, sess := range sessions {
		if excludeSessionID != nil && sess.ID == *excludeSessionID {
			continue
		}
		collect(sess.Window(), sess.RoomID, sess.TrainerIDs, sess.UnitIDs)
	}

	products := make(map[string]*crmservice.Product)
	for _, v := range variants {
		collect(s.variantWindow(ctx, v, products), v.RoomID, v.TrainerIDs, v.UnitIDs)
	}

	return &domain.ResourceLocks{
		TrainerIDs: sortedIDs(trainerSet),
		RoomIDs:    sortedIDs(roomSet),
		UnitIDs:    sortedIDs(unitSet),
	}, nil
}

// exemptUnitIDs объединяет флаг always_available каталога с резервным
// списком из конфига
func (s *Service) exemptUnitIDs(ctx context.Context) (map[int64]bool, error) {
	ids, err := s.resourceRepo.GetAlwaysAvailableUnitIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load always-available units: %v", ErrInternal, err)
	}

	exempt := make(map[int64]bool, len(ids)+len(s.extraExempt))
	for _, id := range ids {
		exempt[id] = true
	}
	for id := range s.extraExempt {
		exempt[id] = true
	}

	return exempt, nil
}

// variantWindow выводит окно варианта, кэшируя продукты по ссылке
// Недоступность CRM не валит проверку: окно выводится по глобальным
// дефолтам, о чём пишется предупреждение
func (s *Service) variantWindow(ctx context.Context, v *domain.Variant, cache map[string]*crmservice.Product) *domain.TimeWindow {
	var productStart, productEnd types.TimeString

	product, ok := cache[v.ProductRef]
	if !ok {
		var err error
		product, err = s.crmClient.GetProduct(ctx, v.ProductRef)
		if err != nil {
			s.logger.Warn("variant id=%d: product %s unavailable, using default times: %v", v.ID, v.ProductRef, err)
			product = nil
		}
		cache[v.ProductRef] = product
	}

	if product != nil {
		productStart = product.DefaultStart()
		productEnd = product.DefaultEnd()
	}

	return domain.ResolveVariantWindow(v.Date, productStart, productEnd, s.loc)
}

// matchResource определяет, какой из запрошенных ресурсов занят событием
// Порядок проверки: аудитория, преподаватели, юниты
func matchResource(cand domain.BookingCandidate, roomID *int64, trainerIDs, unitIDs []int64, exempt map[int64]bool) (domain.ResourceKind, int64, bool) {
	if cand.RoomID != nil && roomID != nil && *cand.RoomID == *roomID {
		return domain.KindRoom, *roomID, true
	}

	if id, ok := intersect(cand.TrainerIDs, trainerIDs); ok {
		return domain.KindTrainer, id, true
	}

	if id, ok := intersect(cand.UnitIDs, domain.FilterExemptUnits(unitIDs, exempt)); ok {
		return domain.KindMobileUnit, id, true
	}

	return "", 0, false
}

func intersect(a, b []int64) (int64, bool) {
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}
	set := make(map[int64]bool, len(b))
	for _, id := range b {
		set[id] = true
	}
	for _, id := range a {
		if set[id] {
			return id, true
		}
	}
	return 0, false
}

func sortedIDs(set map[int64]bool) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
