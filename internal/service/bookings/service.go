package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	sessionRepo "github.com/formadon/TDE-SchedulingService/internal/infra/storage/session"
	crmClient "github.com/formadon/TDE-SchedulingService/internal/integrations/crmservice"
	"github.com/formadon/TDE-SchedulingService/internal/service/bookings/models"
)

// Service сервис для работы с занятиями
type Service struct {
	sessions  SessionRepository
	resources ResourceRepository
	crm       CRMClient
	txManager TransactionManager

	exemptSites      map[domain.Site]bool
	undatedPipelines map[string]bool

	logger Logger
}

// NewService создает новый экземпляр сервиса занятий
// roomExemptSites - площадки, для которых аудитория не обязательна;
// undatedPipelines - воронки сделок, допускающие планирование без дат
func NewService(
	sessions SessionRepository,
	resources ResourceRepository,
	crm CRMClient,
	txManager TransactionManager,
	roomExemptSites []string,
	undatedPipelines []string,
	logger Logger,
) *Service {
	exempt := make(map[domain.Site]bool, len(roomExemptSites))
	for _, label := range roomExemptSites {
		exempt[domain.NormalizeSiteLabel(label)] = true
	}

	pipelines := make(map[string]bool, len(undatedPipelines))
	for _, p := range undatedPipelines {
		pipelines[p] = true
	}

	return &Service{
		sessions:         sessions,
		resources:        resources,
		crm:              crm,
		txManager:        txManager,
		exemptSites:      exempt,
		undatedPipelines: pipelines,
		logger:           logger,
	}
}

// GetByID получает занятие по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.SessionResponse, error) {
	s.logger.Info("GetByID: fetching session id=%d", id)

	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			s.logger.Warn("GetByID: session id=%d not found", id)
			return nil, ErrSessionNotFound
		}
		s.logger.Error("GetByID: repository error for session id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainSession(sess), nil
}

// GetByDeal получает все занятия сделки
func (s *Service) GetByDeal(ctx context.Context, dealID int64) (*models.SessionListResponse, error) {
	s.logger.Info("GetByDeal: fetching sessions for deal=%d", dealID)

	sessions, err := s.sessions.GetByDealID(ctx, dealID)
	if err != nil {
		s.logger.Error("GetByDeal: repository error for deal=%d: %v", dealID, err)
		return nil, fmt.Errorf("%w: GetByDeal - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetByDeal: fetched %d sessions for deal=%d", len(sessions), dealID)
	return models.FromDomainSessionList(sessions), nil
}

// Delete удаляет занятие вместе со строками привязок ресурсов
// Выполняется в одной сериализуемой транзакции
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.logger.Info("Delete: deleting session id=%d", id)

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if _, err := s.sessions.GetByID(txCtx, id); err != nil {
			return err
		}
		return s.sessions.Delete(txCtx, id)
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			s.logger.Warn("Delete: session id=%d not found", id)
			return ErrSessionNotFound
		}
		s.logger.Error("Delete: failed to delete session id=%d: %v", id, err)
		return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Delete: successfully deleted session id=%d", id)
	return nil
}

// OverrideStatus выполняет ручной перевод статуса занятия
//
// Допустимые переходы:
//   - draft -> suspended / cancelled
//   - suspended / cancelled -> draft
//   - остальные значения (finished) - только когда автоматически вычисленный
//     статус равен scheduled
func (s *Service) OverrideStatus(ctx context.Context, id int64, status string) (*models.SessionResponse, error) {
	s.logger.Info("OverrideStatus: updating session id=%d to status=%s", id, status)

	target := domain.Status(status)
	if !target.IsValid() {
		s.logger.Warn("OverrideStatus: invalid status=%s for session id=%d", status, id)
		return nil, ErrInvalidStatus
	}

	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			s.logger.Warn("OverrideStatus: session id=%d not found", id)
			return nil, ErrSessionNotFound
		}
		s.logger.Error("OverrideStatus: repository error for session id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: OverrideStatus - repository error: %v", ErrInternal, err)
	}

	computed, err := s.computedStatus(ctx, sess)
	if err != nil {
		return nil, err
	}

	if !domain.ManualTransitionAllowed(sess.Status, computed, target) {
		s.logger.Warn("OverrideStatus: transition %s -> %s not allowed for session id=%d (computed=%s)",
			sess.Status, target, id, computed)
		return nil, ErrInvalidTransition
	}

	if err := s.sessions.UpdateStatus(ctx, id, target); err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("OverrideStatus: failed to update session id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: OverrideStatus - repository error: %v", ErrInternal, err)
	}

	sess.Status = target
	s.logger.Info("OverrideStatus: successfully updated session id=%d to status=%s", id, target)
	return models.FromDomainSession(sess), nil
}

// ComputeStatusInput собирает вход автоматического правила статусов для
// занятия: эффективная площадка, наличие аудитории и ресурсов, окно и
// разрешение воронки на планирование без дат
func (s *Service) ComputeStatusInput(ctx context.Context, sess *domain.Session, deal *crmClient.Deal) (domain.StatusInput, error) {
	var room *domain.Room
	if sess.RoomID != nil {
		var err error
		room, err = s.resources.GetRoomByID(ctx, *sess.RoomID)
		if err != nil {
			s.logger.Error("ComputeStatusInput: failed to load room id=%d: %v", *sess.RoomID, err)
			return domain.StatusInput{}, fmt.Errorf("%w: ComputeStatusInput - failed to load room: %v", ErrInternal, err)
		}
	}

	var declaredLabel, pipelineLabel string
	if deal != nil {
		declaredLabel = deal.SiteLabel
		pipelineLabel = deal.PipelineLabel
	}

	site := domain.EffectiveSite(room, declaredLabel)

	return domain.StatusInput{
		Site:                  site,
		SiteExempt:            s.exemptSites[site],
		HasRoom:               sess.RoomID != nil,
		TrainerCount:          len(sess.TrainerIDs),
		UnitCount:             len(sess.UnitIDs),
		HasWindow:             sess.Window() != nil,
		PipelineAllowsUndated: s.undatedPipelines[pipelineLabel],
	}, nil
}

// computedStatus вычисляет автоматический статус занятия
// Недоступность CRM не блокирует ручной перевод: сделка трактуется как
// неизвестная (без воронки и заявленной площадки)
func (s *Service) computedStatus(ctx context.Context, sess *domain.Session) (domain.Status, error) {
	deal, err := s.crm.GetDeal(ctx, sess.DealID)
	if err != nil {
		s.logger.Warn("computedStatus: deal=%d unavailable for session id=%d: %v", sess.DealID, sess.ID, err)
		deal = nil
	}

	in, err := s.ComputeStatusInput(ctx, sess, deal)
	if err != nil {
		return "", err
	}

	return domain.ComputeStatus(in), nil
}
