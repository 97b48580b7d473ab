package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	resourceRepo "github.com/formadon/TDE-SchedulingService/internal/infra/storage/resource"
	sessionRepo "github.com/formadon/TDE-SchedulingService/internal/infra/storage/session"
	"github.com/formadon/TDE-SchedulingService/internal/integrations/crmservice"
	"github.com/formadon/TDE-SchedulingService/pkg/ptr"
)

type fakeSessionRepo struct {
	sessions map[int64]*domain.Session

	updatedStatus *domain.Status
	deletedID     *int64
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id int64) (*domain.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, sessionRepo.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionRepo) GetByDealID(_ context.Context, dealID int64) ([]*domain.Session, error) {
	out := make([]*domain.Session, 0)
	for _, s := range f.sessions {
		if s.DealID == dealID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) UpdateStatus(_ context.Context, id int64, status domain.Status) error {
	if _, ok := f.sessions[id]; !ok {
		return sessionRepo.ErrSessionNotFound
	}
	f.updatedStatus = &status
	return nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.sessions[id]; !ok {
		return sessionRepo.ErrSessionNotFound
	}
	f.deletedID = &id
	return nil
}

type fakeResourceRepo struct {
	rooms map[int64]*domain.Room
}

func (f *fakeResourceRepo) GetRoomByID(_ context.Context, id int64) (*domain.Room, error) {
	room, ok := f.rooms[id]
	if !ok {
		return nil, resourceRepo.ErrRoomNotFound
	}
	return room, nil
}

type fakeCRMClient struct {
	deals map[int64]*crmservice.Deal
}

func (f *fakeCRMClient) GetDeal(_ context.Context, dealID int64) (*crmservice.Deal, error) {
	deal, ok := f.deals[dealID]
	if !ok {
		return nil, crmservice.ErrDealNotFound
	}
	return deal, nil
}

type fakeTxManager struct{}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func scheduledSession(id int64) *domain.Session {
	start := time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	return &domain.Session{
		ID:         id,
		DealID:     900,
		ProductRef: "WELD-101",
		StartAt:    &start,
		EndAt:      &end,
		RoomID:     ptr.Ptr(int64(5)),
		TrainerIDs: []int64{1},
		UnitIDs:    []int64{10},
		Status:     domain.StatusScheduled,
	}
}

func newTestService(sessions *fakeSessionRepo, resources *fakeResourceRepo, crm *fakeCRMClient) *Service {
	return NewService(sessions, resources, crm, fakeTxManager{}, nil, nil, nopLogger{})
}

func defaultResources() *fakeResourceRepo {
	return &fakeResourceRepo{rooms: map[int64]*domain.Room{
		5: {ID: 5, Name: "Aula 5", Site: domain.SiteNorthCampus},
	}}
}

func defaultCRM() *fakeCRMClient {
	return &fakeCRMClient{deals: map[int64]*crmservice.Deal{
		900: {ID: 900, PipelineLabel: "Formación Bonificada", SiteLabel: "Campus Norte"},
	}}
}

func TestService_GetByID(t *testing.T) {
	repo := &fakeSessionRepo{sessions: map[int64]*domain.Session{41: scheduledSession(41)}}
	svc := newTestService(repo, defaultResources(), defaultCRM())

	resp, err := svc.GetByID(context.Background(), 41)
	require.NoError(t, err)

	assert.Equal(t, int64(41), resp.ID)
	assert.Equal(t, int64(900), resp.DealID)
	assert.Equal(t, "scheduled", resp.Status)
	require.NotNil(t, resp.StartAt)
	assert.Equal(t, "2025-06-02T07:00:00Z", *resp.StartAt)
}

func TestService_GetByID_NotFound(t *testing.T) {
	svc := newTestService(&fakeSessionRepo{sessions: map[int64]*domain.Session{}}, defaultResources(), defaultCRM())

	_, err := svc.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_GetByDeal(t *testing.T) {
	repo := &fakeSessionRepo{sessions: map[int64]*domain.Session{
		1: scheduledSession(1),
		2: {ID: 2, DealID: 901, ProductRef: "PRL-201", Status: domain.StatusDraft},
	}}
	svc := newTestService(repo, defaultResources(), defaultCRM())

	resp, err := svc.GetByDeal(context.Background(), 900)
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, int64(1), resp.Sessions[0].ID)
}

func TestService_Delete(t *testing.T) {
	repo := &fakeSessionRepo{sessions: map[int64]*domain.Session{41: scheduledSession(41)}}
	svc := newTestService(repo, defaultResources(), defaultCRM())

	require.NoError(t, svc.Delete(context.Background(), 41))
	require.NotNil(t, repo.deletedID)
	assert.Equal(t, int64(41), *repo.deletedID)
}

func TestService_Delete_NotFound(t *testing.T) {
	svc := newTestService(&fakeSessionRepo{sessions: map[int64]*domain.Session{}}, defaultResources(), defaultCRM())

	err := svc.Delete(context.Background(), 404)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_OverrideStatus(t *testing.T) {
	draft := func() *domain.Session {
		s := scheduledSession(41)
		s.RoomID = nil // аудитория обязательна для campus-площадки
		s.Status = domain.StatusDraft
		return s
	}

	tests := []struct {
		name    string
		session *domain.Session
		target  string
		wantErr error
	}{
		{
			name:    "draft to suspended",
			session: draft(),
			target:  "suspended",
		},
		{
			name:    "draft to cancelled",
			session: draft(),
			target:  "cancelled",
		},
		{
			name: "suspended back to draft",
			session: func() *domain.Session {
				s := draft()
				s.Status = domain.StatusSuspended
				return s
			}(),
			target: "draft",
		},
		{
			name:    "finished from computed scheduled",
			session: scheduledSession(41),
			target:  "finished",
		},
		{
			name:    "suspended from scheduled rejected",
			session: scheduledSession(41),
			target:  "suspended",
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "finished from incomplete draft rejected",
			session: draft(),
			target:  "finished",
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "unknown status rejected",
			session: scheduledSession(41),
			target:  "archived",
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeSessionRepo{sessions: map[int64]*domain.Session{41: tt.session}}
			svc := newTestService(repo, defaultResources(), defaultCRM())

			resp, err := svc.OverrideStatus(context.Background(), 41, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, repo.updatedStatus)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, repo.updatedStatus)
			assert.Equal(t, domain.Status(tt.target), *repo.updatedStatus)
			assert.Equal(t, tt.target, resp.Status)
		})
	}
}

func TestService_OverrideStatus_InCompanyWaivesRoom(t *testing.T) {
	// in_company: аудитория не требуется, полный состав ресурсов и окно
	// дают computed=scheduled даже без аудитории
	sess := scheduledSession(41)
	sess.RoomID = nil
	crm := &fakeCRMClient{deals: map[int64]*crmservice.Deal{
		900: {ID: 900, SiteLabel: "In Company"},
	}}

	repo := &fakeSessionRepo{sessions: map[int64]*domain.Session{41: sess}}
	svc := newTestService(repo, defaultResources(), crm)

	resp, err := svc.OverrideStatus(context.Background(), 41, "finished")
	require.NoError(t, err)
	assert.Equal(t, "finished", resp.Status)
}
