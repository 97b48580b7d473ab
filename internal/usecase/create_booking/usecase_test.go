package create_booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	"github.com/formadon/TDE-SchedulingService/internal/integrations/crmservice"
	"github.com/formadon/TDE-SchedulingService/pkg/ptr"
)

type fakeSessionRepo struct {
	created *domain.Session
	err     error
}

func (f *fakeSessionRepo) Create(_ context.Context, s *domain.Session) (*domain.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	created := *s
	created.ID = 41
	created.CreatedAt = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	created.UpdatedAt = created.CreatedAt
	f.created = &created
	return &created, nil
}

type fakeResourceRepo struct {
	rooms map[int64]*domain.Room
}

func (f *fakeResourceRepo) GetRoomByID(_ context.Context, id int64) (*domain.Room, error) {
	room, ok := f.rooms[id]
	if !ok {
		return nil, errors.New("room not found")
	}
	return room, nil
}

type fakeCRMClient struct {
	deals    map[int64]*crmservice.Deal
	products map[string]*crmservice.Product
}

func (f *fakeCRMClient) GetDeal(_ context.Context, dealID int64) (*crmservice.Deal, error) {
	deal, ok := f.deals[dealID]
	if !ok {
		return nil, crmservice.ErrDealNotFound
	}
	return deal, nil
}

func (f *fakeCRMClient) GetProduct(_ context.Context, ref string) (*crmservice.Product, error) {
	product, ok := f.products[ref]
	if !ok {
		return nil, crmservice.ErrProductNotFound
	}
	return product, nil
}

type fakeConflictChecker struct {
	conflict *domain.ResourceConflict
	err      error
	called   bool
	lastCand domain.BookingCandidate
}

func (f *fakeConflictChecker) CheckAvailability(_ context.Context, cand domain.BookingCandidate, _ *int64) (*domain.ResourceConflict, error) {
	f.called = true
	f.lastCand = cand
	return f.conflict, f.err
}

type fakeTxManager struct{}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func madrid(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	return loc
}

func defaultCRM() *fakeCRMClient {
	return &fakeCRMClient{
		deals: map[int64]*crmservice.Deal{
			900: {ID: 900, PipelineLabel: "Formación Bonificada", SiteLabel: "Campus Norte"},
			901: {ID: 901, PipelineLabel: "Bolsa de Horas", SiteLabel: "Campus Norte"},
		},
		products: map[string]*crmservice.Product{
			"WELD-101": {Ref: "WELD-101", Name: "Soldadura básica"},
			"PRL-201": {
				Ref:              "PRL-201",
				Name:             "Prevención de riesgos",
				DefaultStartTime: ptr.Ptr("10:00"),
			},
		},
	}
}

func defaultResources() *fakeResourceRepo {
	return &fakeResourceRepo{rooms: map[int64]*domain.Room{
		5: {ID: 5, Name: "Aula 5", Site: domain.SiteNorthCampus},
	}}
}

func newTestUseCase(t *testing.T, repo *fakeSessionRepo, crm *fakeCRMClient, checker *fakeConflictChecker, undatedPipelines []string) *UseCase {
	t.Helper()
	return NewUseCase(repo, defaultResources(), crm, checker, fakeTxManager{}, madrid(t), nil, undatedPipelines, nopLogger{})
}

func dateAt(day string) *time.Time {
	d, _ := time.Parse("2006-01-02", day)
	return &d
}

func TestUseCase_Execute_ExplicitTimes(t *testing.T) {
	repo := &fakeSessionRepo{}
	checker := &fakeConflictChecker{}
	uc := newTestUseCase(t, repo, defaultCRM(), checker, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		DealID:     900,
		ProductRef: "WELD-101",
		Date:       dateAt("2025-06-02"),
		StartTime:  "10:00",
		EndTime:    "14:00",
		RoomID:     ptr.Ptr(int64(5)),
		TrainerIDs: []int64{1},
		UnitIDs:    []int64{10},
	})
	require.NoError(t, err)

	// 10:00-14:00 Madrid = 08:00-12:00 UTC летом
	require.NotNil(t, resp.StartAt)
	assert.Equal(t, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), resp.StartAt.UTC())
	assert.Equal(t, time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC), resp.EndAt.UTC())
	assert.Equal(t, "scheduled", resp.Status)
	assert.Equal(t, int64(41), resp.ID)
	assert.True(t, checker.called)
	assert.Equal(t, []int64{1}, checker.lastCand.TrainerIDs)
}

func TestUseCase_Execute_GlobalDefaults(t *testing.T) {
	repo := &fakeSessionRepo{}
	uc := newTestUseCase(t, repo, defaultCRM(), &fakeConflictChecker{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		DealID:     900,
		ProductRef: "WELD-101",
		Date:       dateAt("2025-06-02"),
		RoomID:     ptr.Ptr(int64(5)),
		TrainerIDs: []int64{1},
		UnitIDs:    []int64{10},
	})
	require.NoError(t, err)

	// продукт без дефолтов: 09:00-11:00 Madrid = 07:00-09:00 UTC летом
	assert.Equal(t, time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC), resp.StartAt.UTC())
	assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), resp.EndAt.UTC())
}

func TestUseCase_Execute_ProductDefaultStart(t *testing.T) {
	repo := &fakeSessionRepo{}
	uc := newTestUseCase(t, repo, defaultCRM(), &fakeConflictChecker{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		DealID:     900,
		ProductRef: "PRL-201",
		Date:       dateAt("2025-06-02"),
		RoomID:     ptr.Ptr(int64(5)),
		TrainerIDs: []int64{1},
		UnitIDs:    []int64{10},
	})
	require.NoError(t, err)

	// дефолт продукта 10:00, окончание 10:00 + 2 часа
	assert.Equal(t, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), resp.StartAt.UTC())
	assert.Equal(t, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), resp.EndAt.UTC())
}

func TestUseCase_Execute_Conflict(t *testing.T) {
	checker := &fakeConflictChecker{conflict: &domain.ResourceConflict{
		ResourceKind: domain.KindTrainer,
		ResourceID:   1,
		EventKind:    domain.EventSession,
		EventID:      7,
	}}
	repo := &fakeSessionRepo{}
	uc := newTestUseCase(t, repo, defaultCRM(), checker, nil)

	_, err := uc.Execute(context.Background(), &Request{
		DealID:     900,
		ProductRef: "WELD-101",
		Date:       dateAt("2025-06-02"),
		RoomID:     ptr.Ptr(int64(5)),
		TrainerIDs: []int64{1},
		UnitIDs:    []int64{10},
	})
	assert.ErrorIs(t, err, ErrResourceConflict)
	assert.Nil(t, repo.created)
}

func TestUseCase_Execute_UndatedDraft(t *testing.T) {
	// без даты нет окна: конфликты не проверяются, статус draft
	checker := &fakeConflictChecker{err: errors.New("must not be called")}
	repo := &fakeSessionRepo{}
	uc := newTestUseCase(t, repo, defaultCRM(), checker, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		DealID:     900,
		ProductRef: "WELD-101",
		RoomID:     ptr.Ptr(int64(5)),
		TrainerIDs: []int64{1},
		UnitIDs:    []int64{10},
	})
	require.NoError(t, err)

	assert.Nil(t, resp.StartAt)
	assert.Equal(t, "draft", resp.Status)
	assert.False(t, checker.called)
}

func TestUseCase_Execute_UndatedPipelineScheduled(t *testing.T) {
	repo := &fakeSessionRepo{}
	uc := newTestUseCase(t, repo, defaultCRM(), &fakeConflictChecker{}, []string{"Bolsa de Horas"})

	resp, err := uc.Execute(context.Background(), &Request{
		DealID:     901,
		ProductRef: "WELD-101",
		RoomID:     ptr.Ptr(int64(5)),
		TrainerIDs: []int64{1},
		UnitIDs:    []int64{10},
	})
	require.NoError(t, err)

	assert.Nil(t, resp.StartAt)
	assert.Equal(t, "scheduled", resp.Status)
}

func TestUseCase_Execute_DealNotFound(t *testing.T) {
	uc := newTestUseCase(t, &fakeSessionRepo{}, defaultCRM(), &fakeConflictChecker{}, nil)

	_, err := uc.Execute(context.Background(), &Request{
		DealID:     404,
		ProductRef: "WELD-101",
	})
	assert.ErrorIs(t, err, ErrDealNotFound)
}

func TestUseCase_Execute_RoomNotFound(t *testing.T) {
	uc := newTestUseCase(t, &fakeSessionRepo{}, defaultCRM(), &fakeConflictChecker{}, nil)

	_, err := uc.Execute(context.Background(), &Request{
		DealID:     900,
		ProductRef: "WELD-101",
		RoomID:     ptr.Ptr(int64(99)),
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestUseCase_Execute_Validation(t *testing.T) {
	uc := newTestUseCase(t, &fakeSessionRepo{}, defaultCRM(), &fakeConflictChecker{}, nil)

	tests := []struct {
		name string
		req  *Request
	}{
		{
			name: "missing deal",
			req:  &Request{ProductRef: "WELD-101"},
		},
		{
			name: "missing product",
			req:  &Request{DealID: 900},
		},
		{
			name: "time without date",
			req:  &Request{DealID: 900, ProductRef: "WELD-101", StartTime: "10:00"},
		},
		{
			name: "malformed start time",
			req:  &Request{DealID: 900, ProductRef: "WELD-101", Date: dateAt("2025-06-02"), StartTime: "25:99"},
		},
		{
			name: "duplicate trainers",
			req:  &Request{DealID: 900, ProductRef: "WELD-101", TrainerIDs: []int64{1, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
