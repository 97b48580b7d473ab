package update_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	sessionRepo "github.com/formadon/TDE-SchedulingService/internal/infra/storage/session"
	crmClient "github.com/formadon/TDE-SchedulingService/internal/integrations/crmservice"
	"github.com/formadon/TDE-SchedulingService/pkg/types"
)

// UseCase use case для частичного обновления занятия
type UseCase struct {
	sessionRepo  SessionRepository
	resourceRepo ResourceRepository
	crm          CRMClient
	conflicts    ConflictChecker
	txManager    TransactionManager

	loc              *time.Location
	exemptSites      map[domain.Site]bool
	undatedPipelines map[string]bool

	logger Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	sessionRepo SessionRepository,
	resourceRepo ResourceRepository,
	crm CRMClient,
	conflicts ConflictChecker,
	txManager TransactionManager,
	loc *time.Location,
	roomExemptSites []string,
	undatedPipelines []string,
	logger Logger,
) *UseCase {
	exempt := make(map[domain.Site]bool, len(roomExemptSites))
	for _, label := range roomExemptSites {
		exempt[domain.NormalizeSiteLabel(label)] = true
	}

	pipelines := make(map[string]bool, len(undatedPipelines))
	for _, p := range undatedPipelines {
		pipelines[p] = true
	}

	return &UseCase{
		sessionRepo:      sessionRepo,
		resourceRepo:     resourceRepo,
		crm:              crm,
		conflicts:        conflicts,
		txManager:        txManager,
		loc:              loc,
		exemptSites:      exempt,
		undatedPipelines: pipelines,
		logger:           logger,
	}
}

// Execute выполняет use case обновления занятия
// Ручные статусы (suspended/cancelled/finished) липкие: перерасчёт статуса
// после правки ресурсов их не трогает
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("UpdateBooking: session id=%d", req.SessionID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("UpdateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Загружаем текущее состояние занятия
	sess, err := uc.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			uc.logger.Warn("UpdateBooking: session id=%d not found", req.SessionID)
			return nil, ErrSessionNotFound
		}
		uc.logger.Error("UpdateBooking: repository error for session id=%d: %v", req.SessionID, err)
		return nil, fmt.Errorf("%w: failed to get session: %v", ErrInternal, err)
	}

	// 3. Получаем сделку и продукт из CRM
	deal, err := uc.crm.GetDeal(ctx, sess.DealID)
	if err != nil {
		if errors.Is(err, crmClient.ErrDealNotFound) {
			uc.logger.Warn("UpdateBooking: deal id=%d not found", sess.DealID)
			return nil, ErrDealNotFound
		}
		uc.logger.Error("UpdateBooking: failed to get deal id=%d: %v", sess.DealID, err)
		return nil, fmt.Errorf("%w: failed to get deal: %v", ErrInternal, err)
	}

	product, err := uc.crm.GetProduct(ctx, sess.ProductRef)
	if err != nil {
		if errors.Is(err, crmClient.ErrProductNotFound) {
			uc.logger.Warn("UpdateBooking: product %s not found", sess.ProductRef)
			return nil, ErrProductNotFound
		}
		uc.logger.Error("UpdateBooking: failed to get product %s: %v", sess.ProductRef, err)
		return nil, fmt.Errorf("%w: failed to get product: %v", ErrInternal, err)
	}

	// 4. Применяем правки к копии занятия
	updated := *sess

	if err := uc.applyWindowPatch(&updated, req, product); err != nil {
		uc.logger.Warn("UpdateBooking: window patch failed for session id=%d: %v", req.SessionID, err)
		return nil, err
	}

	var room *domain.Room
	switch {
	case req.ClearRoom:
		updated.RoomID = nil
	case req.RoomID != nil:
		room, err = uc.resourceRepo.GetRoomByID(ctx, *req.RoomID)
		if err != nil {
			uc.logger.Warn("UpdateBooking: room id=%d not found: %v", *req.RoomID, err)
			return nil, ErrRoomNotFound
		}
		updated.RoomID = req.RoomID
	case updated.RoomID != nil:
		room, err = uc.resourceRepo.GetRoomByID(ctx, *updated.RoomID)
		if err != nil {
			uc.logger.Error("UpdateBooking: failed to load current room id=%d: %v", *updated.RoomID, err)
			return nil, fmt.Errorf("%w: failed to load room: %v", ErrInternal, err)
		}
	}

	if req.TrainerIDs != nil {
		updated.TrainerIDs = req.TrainerIDs
	}
	if req.UnitIDs != nil {
		updated.UnitIDs = req.UnitIDs
	}

	if req.ClearAddress {
		updated.AddressText = nil
	} else if req.AddressText != nil {
		updated.AddressText = req.AddressText
	}

	// 5. Пересчитываем статус, если текущий не ручной
	if !updated.Status.IsManual() {
		site := domain.EffectiveSite(room, deal.SiteLabel)
		updated.Status = domain.ComputeStatus(domain.StatusInput{
			Site:                  site,
			SiteExempt:            uc.exemptSites[site],
			HasRoom:               updated.RoomID != nil,
			TrainerCount:          len(updated.TrainerIDs),
			UnitCount:             len(updated.UnitIDs),
			HasWindow:             updated.Window() != nil,
			PipelineAllowsUndated: uc.undatedPipelines[deal.PipelineLabel],
		})
	}

	// 6. Проверка конфликтов и запись в одной сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 6.1. Приостановленные и отменённые занятия не держат ресурсы
		window := updated.Window()
		if window != nil && isBlocking(updated.Status) {
			conflict, err := uc.conflicts.CheckAvailability(txCtx, domain.BookingCandidate{
				Window:     *window,
				RoomID:     updated.RoomID,
				TrainerIDs: updated.TrainerIDs,
				UnitIDs:    updated.UnitIDs,
			}, &updated.ID)
			if err != nil {
				uc.logger.Error("UpdateBooking: conflict check failed: %v", err)
				return fmt.Errorf("%w: conflict check failed: %v", ErrInternal, err)
			}
			if conflict != nil {
				uc.logger.Warn("UpdateBooking: %s id=%d busy in %s id=%d",
					conflict.ResourceKind, conflict.ResourceID, conflict.EventKind, conflict.EventID)
				return fmt.Errorf("%w: %s id=%d busy in %s id=%d",
					ErrResourceConflict, conflict.ResourceKind, conflict.ResourceID, conflict.EventKind, conflict.EventID)
			}
		}

		// 6.2. Сохраняем занятие вместе со строками привязок
		if err := uc.sessionRepo.Update(txCtx, &updated); err != nil {
			uc.logger.Error("UpdateBooking: failed to update session id=%d: %v", updated.ID, err)
			return fmt.Errorf("%w: failed to update session: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("UpdateBooking: successfully updated session id=%d, status=%s", updated.ID, updated.Status)

	return &Response{
		ID:          updated.ID,
		DealID:      updated.DealID,
		ProductRef:  updated.ProductRef,
		StartAt:     updated.StartAt,
		EndAt:       updated.EndAt,
		RoomID:      updated.RoomID,
		TrainerIDs:  updated.TrainerIDs,
		UnitIDs:     updated.UnitIDs,
		AddressText: updated.AddressText,
		Status:      string(updated.Status),
		CreatedAt:   updated.CreatedAt,
		UpdatedAt:   updated.UpdatedAt,
	}, nil
}

// applyWindowPatch пересобирает окно занятия из правок запроса
// Нетронутые части окна берутся из сохранённых моментов: правка одной даты
// сохраняет время суток, правка одного времени сохраняет дату
func (uc *UseCase) applyWindowPatch(sess *domain.Session, req *Request, product *crmClient.Product) error {
	if req.ClearWindow {
		sess.StartAt = nil
		sess.EndAt = nil
		return nil
	}

	if req.Date == nil && req.StartTime.IsZero() && req.EndTime.IsZero() {
		return nil
	}

	date := req.Date
	if date == nil {
		if sess.StartAt == nil {
			return fmt.Errorf("%w: startTime/endTime require a date", ErrInvalidInput)
		}
		local := sess.StartAt.In(uc.loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		date = &day
	}

	explicitStart := req.StartTime
	if explicitStart.IsZero() && sess.StartAt != nil {
		explicitStart = types.NewTimeString(sess.StartAt.In(uc.loc))
	}

	explicitEnd := req.EndTime
	if explicitEnd.IsZero() && sess.EndAt != nil {
		explicitEnd = types.NewTimeString(sess.EndAt.In(uc.loc))
	}

	window := domain.ResolveWindow(domain.WindowInput{
		Date:          date,
		ExplicitStart: explicitStart,
		ExplicitEnd:   explicitEnd,
		ProductStart:  product.DefaultStart(),
		ProductEnd:    product.DefaultEnd(),
	}, uc.loc)
	if window == nil {
		return fmt.Errorf("%w: failed to resolve window", ErrInvalidInput)
	}

	sess.StartAt = &window.Start
	sess.EndAt = &window.End
	return nil
}

// isBlocking возвращает true, если занятие в этом статусе держит ресурсы
func isBlocking(status domain.Status) bool {
	for _, s := range domain.NonBlockingStatuses {
		if status == s {
			return false
		}
	}
	return true
}
