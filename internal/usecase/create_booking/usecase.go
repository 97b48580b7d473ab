package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	crmClient "github.com/formadon/TDE-SchedulingService/internal/integrations/crmservice"
)

// UseCase use case для создания занятия
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

// Execute выполняет use case создания занятия
// Проверка конфликтов и запись строки с привязками выполняются в одной
// сериализуемой транзакции, кандидаты читаются с блокировкой FOR UPDATE
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: deal=%d, product=%s", req.DealID, req.ProductRef)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем сделку из CRM
	deal, err := uc.crm.GetDeal(ctx, req.DealID)
	if err != nil {
		if errors.Is(err, crmClient.ErrDealNotFound) {
			uc.logger.Warn("CreateBooking: deal id=%d not found", req.DealID)
			return nil, ErrDealNotFound
		}
		uc.logger.Error("CreateBooking: failed to get deal id=%d: %v", req.DealID, err)
		return nil, fmt.Errorf("%w: failed to get deal: %v", ErrInternal, err)
	}

	// 3. Получаем продукт каталога (дефолтное время занятий)
	product, err := uc.crm.GetProduct(ctx, req.ProductRef)
	if err != nil {
		if errors.Is(err, crmClient.ErrProductNotFound) {
			uc.logger.Warn("CreateBooking: product %s not found", req.ProductRef)
			return nil, ErrProductNotFound
		}
		uc.logger.Error("CreateBooking: failed to get product %s: %v", req.ProductRef, err)
		return nil, fmt.Errorf("%w: failed to get product: %v", ErrInternal, err)
	}

	// 4. Проверяем существование аудитории
	var room *domain.Room
	if req.RoomID != nil {
		room, err = uc.resourceRepo.GetRoomByID(ctx, *req.RoomID)
		if err != nil {
			uc.logger.Warn("CreateBooking: room id=%d not found: %v", *req.RoomID, err)
			return nil, ErrRoomNotFound
		}
	}

	// 5. Резолвим окно занятия в таймзоне отображения
	window := domain.ResolveWindow(domain.WindowInput{
		Date:          req.Date,
		ExplicitStart: req.StartTime,
		ExplicitEnd:   req.EndTime,
		ProductStart:  product.DefaultStart(),
		ProductEnd:    product.DefaultEnd(),
	}, uc.loc)

	// 6. Вычисляем автоматический статус
	site := domain.EffectiveSite(room, deal.SiteLabel)
	status := domain.ComputeStatus(domain.StatusInput{
		Site:                  site,
		SiteExempt:            uc.exemptSites[site],
		HasRoom:               room != nil,
		TrainerCount:          len(req.TrainerIDs),
		UnitCount:             len(req.UnitIDs),
		HasWindow:             window != nil,
		PipelineAllowsUndated: uc.undatedPipelines[deal.PipelineLabel],
	})

	session := &domain.Session{
		DealID:      req.DealID,
		ProductRef:  req.ProductRef,
		RoomID:      req.RoomID,
		TrainerIDs:  req.TrainerIDs,
		UnitIDs:     req.UnitIDs,
		AddressText: req.AddressText,
		Status:      status,
	}
	if window != nil {
		session.StartAt = &window.Start
		session.EndAt = &window.End
	}

	var result *domain.Session

	// 7. Проверка конфликтов и запись в одной сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 7.1. Незапланированное занятие не держит ресурсы
		if window != nil {
			conflict, err := uc.conflicts.CheckAvailability(txCtx, domain.BookingCandidate{
				Window:     *window,
				RoomID:     req.RoomID,
				TrainerIDs: req.TrainerIDs,
				UnitIDs:    req.UnitIDs,
			}, nil)
			if err != nil {
				uc.logger.Error("CreateBooking: conflict check failed: %v", err)
				return fmt.Errorf("%w: conflict check failed: %v", ErrInternal, err)
			}
			if conflict != nil {
				uc.logger.Warn("CreateBooking: %s id=%d busy in %s id=%d",
					conflict.ResourceKind, conflict.ResourceID, conflict.EventKind, conflict.EventID)
				return fmt.Errorf("%w: %s id=%d busy in %s id=%d",
					ErrResourceConflict, conflict.ResourceKind, conflict.ResourceID, conflict.EventKind, conflict.EventID)
			}
		}

		// 7.2. Сохраняем занятие вместе со строками привязок
		created, err := uc.sessionRepo.Create(txCtx, session)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create session: %v", err)
			return fmt.Errorf("%w: failed to create session: %v", ErrInternal, err)
		}

		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created session id=%d with status=%s", result.ID, result.Status)

	return &Response{
		ID:          result.ID,
		DealID:      result.DealID,
		ProductRef:  result.ProductRef,
		StartAt:     result.StartAt,
		EndAt:       result.EndAt,
		RoomID:      result.RoomID,
		TrainerIDs:  result.TrainerIDs,
		UnitIDs:     result.UnitIDs,
		AddressText: result.AddressText,
		Status:      string(result.Status),
		CreatedAt:   result.CreatedAt,
		UpdatedAt:   result.UpdatedAt,
	}, nil
}
