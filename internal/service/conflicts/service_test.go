package conflicts

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
	sessions []*domain.Session
	err      error
}

func (f *fakeSessionRepo) GetOverlapCandidates(_ context.Context, _ domain.BookingCandidate, excludeID *int64) ([]*domain.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Session, 0, len(f.sessions))
	for _, s := range f.sessions {
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSessionRepo) GetIntersectingRange(_ context.Context, _, _ time.Time) ([]*domain.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions, nil
}

type fakeVariantRepo struct {
	variants []*domain.Variant
	err      error
}

func (f *fakeVariantRepo) GetOverlapCandidates(_ context.Context, _ domain.BookingCandidate, _ *int64) ([]*domain.Variant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.variants, nil
}

func (f *fakeVariantRepo) GetIntersectingRange(_ context.Context, _, _ time.Time) ([]*domain.Variant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.variants, nil
}

type fakeResourceRepo struct {
	alwaysAvailable []int64
	err             error
}

func (f *fakeResourceRepo) GetAlwaysAvailableUnitIDs(_ context.Context) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.alwaysAvailable, nil
}

type fakeCRMClient struct {
	products map[string]*crmservice.Product
	err      error
	calls    int
}

func (f *fakeCRMClient) GetProduct(_ context.Context, ref string) (*crmservice.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[ref]
	if !ok {
		return nil, crmservice.ErrProductNotFound
	}
	return p, nil
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

func utcWindow(day string, startHour, endHour int) domain.TimeWindow {
	d, _ := time.Parse("2006-01-02", day)
	return domain.TimeWindow{
		Start: d.Add(time.Duration(startHour) * time.Hour),
		End:   d.Add(time.Duration(endHour) * time.Hour),
	}
}

func newTestService(sessions *fakeSessionRepo, variants *fakeVariantRepo, resources *fakeResourceRepo, crm *fakeCRMClient, loc *time.Location, extraExempt []int64) *Service {
	return NewService(sessions, variants, resources, crm, loc, extraExempt, nopLogger{})
}

func TestService_CheckAvailability_TrainerConflict(t *testing.T) {
	loc := madrid(t)
	existing := utcWindow("2025-06-02", 10, 12)

	svc := newTestService(
		&fakeSessionRepo{sessions: []*domain.Session{
			{
				ID:         41,
				DealID:     900,
				StartAt:    &existing.Start,
				EndAt:      &existing.End,
				TrainerIDs: []int64{1},
				Status:     domain.StatusScheduled,
			},
		}},
		&fakeVariantRepo{},
		&fakeResourceRepo{},
		&fakeCRMClient{},
		loc,
		nil,
	)

	conflict, err := svc.CheckAvailability(context.Background(), domain.BookingCandidate{
		Window:     utcWindow("2025-06-02", 9, 11),
		TrainerIDs: []int64{1},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, conflict)

	assert.Equal(t, domain.KindTrainer, conflict.ResourceKind)
	assert.Equal(t, int64(1), conflict.ResourceID)
	assert.Equal(t, domain.EventSession, conflict.EventKind)
	assert.Equal(t, int64(41), conflict.EventID)
	assert.Equal(t, existing, conflict.Window)
}

func TestService_CheckAvailability_TouchingEndpointsConflict(t *testing.T) {
	loc := madrid(t)
	existing := utcWindow("2025-06-02", 11, 13)

	svc := newTestService(
		&fakeSessionRepo{sessions: []*domain.Session{
			{
				ID:         7,
				StartAt:    &existing.Start,
				EndAt:      &existing.End,
				TrainerIDs: []int64{3},
				Status:     domain.StatusScheduled,
			},
		}},
		&fakeVariantRepo{},
		&fakeResourceRepo{},
		&fakeCRMClient{},
		loc,
		nil,
	)

	// окно заканчивается ровно в момент начала существующего занятия
	conflict, err := svc.CheckAvailability(context.Background(), domain.BookingCandidate{
		Window:     utcWindow("2025-06-02", 9, 11),
		TrainerIDs: []int64{3},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, domain.KindTrainer, conflict.ResourceKind)
}

func TestService_CheckAvailability_DisjointWindowsNoConflict(t *testing.T) {
	loc := madrid(t)
	existing := utcWindow("2025-06-02", 14, 16)

	svc := newTestService(
		&fakeSessionRepo{sessions: []*domain.Session{
			{
				ID:         7,
				StartAt:    &existing.Start,
				EndAt:      &existing.End,
				TrainerIDs: []int64{3},
				RoomID:     ptr.Ptr(int64(5)),
				Status:     domain.StatusScheduled,
			},
		}},
		&fakeVariantRepo{},
		&fakeResourceRepo{},
		&fakeCRMClient{},
		loc,
		nil,
	)

	conflict, err := svc.CheckAvailability(context.Background(), domain.BookingCandidate{
		Window:     utcWindow("2025-06-02", 9, 11),
		RoomID:     ptr.Ptr(int64(5)),
		TrainerIDs: []int64{3},
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestService_CheckAvailability_ExemptUnitNeverConflicts(t *testing.T) {
	loc := madrid(t)
	existing := utcWindow("2025-06-02", 9, 11)

	svc := newTestService(
		&fakeSessionRepo{sessions: []*domain.Session{
			{
				ID:      12,
				StartAt: &existing.Start,
				EndAt:   &existing.End,
				UnitIDs: []int64{77},
				Status:  domain.StatusScheduled,
			},
		}},
		&fakeVariantRepo{},
		&fakeResourceRepo{alwaysAvailable: []int64{77}},
		&fakeCRMClient{},
		loc,
		nil,
	)

	// единственный запрошенный ресурс - всегда доступный юнит:
	// кандидат тривиально доступен
	conflict, err := svc.CheckAvailability(context.Background(), domain.BookingCandidate{
		Window:  existing,
		UnitIDs: []int64{77},
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestService_CheckAvailability_ConfigExemptFallback(t *testing.T) {
	loc := madrid(t)
	existing := utcWindow("2025-06-02", 9, 11)

	// юнит 88 помечен только в конфиге, не в каталоге
	svc := newTestService(
		&fakeSessionRepo{sessions: []*domain.Session{
			{
				ID:      12,
				StartAt: &existing.Start,
				EndAt:   &existing.End,
				UnitIDs: []int64{88},
				Status:  domain.StatusScheduled,
			},
		}},
		&fakeVariantRepo{},
		&fakeResourceRepo{},
		&fakeCRMClient{},
		loc,
		[]int64{88},
	)

	conflict, err := svc.CheckAvailability(context.Background(), domain.BookingCandidate{
		Window:  existing,
		UnitIDs: []int64{88},
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestService_CheckAvailability_EmptyCandidate(t *testing.T) {
	loc := madrid(t)

	sessions := &fakeSessionRepo{err: errors.New("must not be called")}
	svc := newTestService(sessions, &fakeVariantRepo{}, &fakeResourceRepo{}, &fakeCRMClient{}, loc, nil)

	conflict, err := svc.CheckAvailability(context.Background(), domain.BookingCandidate{
		Window: utcWindow("2025-06-02", 9, 11),
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestService_CheckAvailability_ExcludesSelf(t *testing.T) {
	loc := madrid(t)
	existing := utcWindow("2025-06-02", 9, 11)

	svc := newTestService(
		&fakeSessionRepo{sessions: []*domain.Session{
			{
				ID:         41,
				StartAt:    &existing.Start,
				EndAt:      &existing.End,
				TrainerIDs: []int64{1},
				Status:     domain.StatusScheduled,
			},
		}},
		&fakeVariantRepo{},
		&fakeResourceRepo{},
		&fakeCRMClient{},
		loc,
		nil,
	)

	conflict, err := svc.CheckAvailability(context.Background(), domain.BookingCandidate{
		Window:     existing,
		TrainerIDs: []int64{1},
	}, ptr.Ptr(int64(41)))
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestService_CheckAvailability_VariantConflictWithProductDefaults(t *testing.T) {
	loc := madrid(t)
	date, _ := time.Parse("2006-01-02", "2025-06-02")

	crm := &fakeCRMClient{products: map[string]*crmservice.Product{
		"WELD-101": {
			Ref:              "WELD-101",
			DefaultStartTime: ptr.Ptr("10:00"),
			DefaultEndTime:   ptr.Ptr("14:00"),
		},
	}}

	svc := newTestService(
		&fakeSessionRepo{},
		&fakeVariantRepo{variants: []*domain.Variant{
			{
				ID:         9,
				ProductRef: "WELD-101",
				Date:       &date,
				TrainerIDs: []int64{2},
			},
		}},
		&fakeResourceRepo{},
		crm,
		loc,
		nil,
	)

	// 10:00-14:00 Madrid = 08:00-12:00 UTC летом
	conflict, err := svc.CheckAvailability(context.Background(), domain.BookingCandidate{
		Window:     utcWindow("2025-06-02", 11, 13),
		TrainerIDs: []int64{2},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, conflict)

	assert.Equal(t, domain.EventVariant, conflict.EventKind)
	assert.Equal(t, int64(9), conflict.EventID)
	assert.Equal(t, utcWindow("2025-06-02", 8, 12), conflict.Window)
}

func TestService_CheckAvailability_ProductCachePerCheck(t *testing.T) {
	loc := madrid(t)
	date, _ := time.Parse("2006-01-02", "2025-06-02")

	crm := &fakeCRMClient{products: map[string]*crmservice.Product{
		"WELD-101": {Ref: "WELD-101"},
	}}

	svc := newTestService(
		&fakeSessionRepo{},
		&fakeVariantRepo{variants: []*domain.Variant{
			{ID: 1, ProductRef: "WELD-101", Date: &date, TrainerIDs: []int64{50}},
			{ID: 2, ProductRef: "WELD-101", Date: &date, TrainerIDs: []int64{51}},
			{ID: 3, ProductRef: "WELD-101", Date: &date, TrainerIDs: []int64{52}},
		}},
		&fakeResourceRepo{},
		crm,
		loc,
		nil,
	)

	conflict, err := svc.CheckAvailability(context.Background(), domain.BookingCandidate{
		Window:     utcWindow("2025-06-03", 9, 11),
		TrainerIDs: []int64{99},
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.Equal(t, 1, crm.calls)
}

func TestService_CheckAvailability_CRMDownFallsBackToDefaults(t *testing.T) {
	loc := madrid(t)
	date, _ := time.Parse("2006-01-02", "2025-06-02")

	svc := newTestService(
		&fakeSessionRepo{},
		&fakeVariantRepo{variants: []*domain.Variant{
			{ID: 9, ProductRef: "WELD-101", Date: &date, TrainerIDs: []int64{2}},
		}},
		&fakeResourceRepo{},
		&fakeCRMClient{err: crmservice.ErrInternal},
		loc,
		nil,
	)

	// дефолтное окно 09:00-11:00 Madrid = 07:00-09:00 UTC летом
	conflict, err := svc.CheckAvailability(context.Background(), domain.BookingCandidate{
		Window:     utcWindow("2025-06-02", 7, 8),
		TrainerIDs: []int64{2},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, utcWindow("2025-06-02", 7, 9), conflict.Window)
}

func TestService_CheckAvailability_UndatedVariantIgnored(t *testing.T) {
	loc := madrid(t)

	svc := newTestService(
		&fakeSessionRepo{},
		&fakeVariantRepo{variants: []*domain.Variant{
			{ID: 9, ProductRef: "WELD-101", TrainerIDs: []int64{2}},
		}},
		&fakeResourceRepo{},
		&fakeCRMClient{},
		loc,
		nil,
	)

	conflict, err := svc.CheckAvailability(context.Background(), domain.BookingCandidate{
		Window:     utcWindow("2025-06-02", 9, 11),
		TrainerIDs: []int64{2},
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestService_CheckAvailability_SessionRepoError(t *testing.T) {
	loc := madrid(t)

	svc := newTestService(
		&fakeSessionRepo{err: errors.New("db down")},
		&fakeVariantRepo{},
		&fakeResourceRepo{},
		&fakeCRMClient{},
		loc,
		nil,
	)

	_, err := svc.CheckAvailability(context.Background(), domain.BookingCandidate{
		Window:     utcWindow("2025-06-02", 9, 11),
		TrainerIDs: []int64{1},
	}, nil)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestService_LockedResources(t *testing.T) {
	loc := madrid(t)
	inRange := utcWindow("2025-06-02", 9, 11)
	outOfRange := utcWindow("2025-06-05", 9, 11)
	date, _ := time.Parse("2006-01-02", "2025-06-02")

	crm := &fakeCRMClient{products: map[string]*crmservice.Product{
		"WELD-101": {
			Ref:              "WELD-101",
			DefaultStartTime: ptr.Ptr("10:00"),
			DefaultEndTime:   ptr.Ptr("14:00"),
		},
	}}

	svc := newTestService(
		&fakeSessionRepo{sessions: []*domain.Session{
			{
				ID:         1,
				StartAt:    &inRange.Start,
				EndAt:      &inRange.End,
				RoomID:     ptr.Ptr(int64(5)),
				TrainerIDs: []int64{1, 2},
				UnitIDs:    []int64{10, 77},
				Status:     domain.StatusScheduled,
			},
			{
				ID:         2,
				StartAt:    &outOfRange.Start,
				EndAt:      &outOfRange.End,
				TrainerIDs: []int64{9},
				Status:     domain.StatusScheduled,
			},
		}},
		&fakeVariantRepo{variants: []*domain.Variant{
			{ID: 9, ProductRef: "WELD-101", Date: &date, RoomID: ptr.Ptr(int64(6)), TrainerIDs: []int64{3}},
		}},
		&fakeResourceRepo{alwaysAvailable: []int64{77}},
		crm,
		loc,
		nil,
	)

	locks, err := svc.LockedResources(context.Background(), utcWindow("2025-06-02", 8, 12), nil)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, locks.TrainerIDs)
	assert.Equal(t, []int64{5, 6}, locks.RoomIDs)
	assert.Equal(t, []int64{10}, locks.UnitIDs)
}

func TestService_LockedResources_ExcludesSession(t *testing.T) {
	loc := madrid(t)
	inRange := utcWindow("2025-06-02", 9, 11)

	svc := newTestService(
		&fakeSessionRepo{sessions: []*domain.Session{
			{
				ID:         41,
				StartAt:    &inRange.Start,
				EndAt:      &inRange.End,
				TrainerIDs: []int64{1},
				Status:     domain.StatusScheduled,
			},
		}},
		&fakeVariantRepo{},
		&fakeResourceRepo{},
		&fakeCRMClient{},
		loc,
		nil,
	)

	locks, err := svc.LockedResources(context.Background(), inRange, ptr.Ptr(int64(41)))
	require.NoError(t, err)
	assert.Empty(t, locks.TrainerIDs)
	assert.Empty(t, locks.RoomIDs)
	assert.Empty(t, locks.UnitIDs)
}
