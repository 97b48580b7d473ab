package get_resource_locks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	"github.com/formadon/TDE-SchedulingService/pkg/ptr"
)

type fakeDetector struct {
	locks     *domain.ResourceLocks
	err       error
	lastProbe domain.TimeWindow
	lastExcl  *int64
}

func (f *fakeDetector) LockedResources(_ context.Context, probe domain.TimeWindow, excludeSessionID *int64) (*domain.ResourceLocks, error) {
	f.lastProbe = probe
	f.lastExcl = excludeSessionID
	if f.err != nil {
		return nil, f.err
	}
	return f.locks, nil
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

func TestUseCase_Execute(t *testing.T) {
	detector := &fakeDetector{locks: &domain.ResourceLocks{
		TrainerIDs: []int64{1, 2},
		RoomIDs:    []int64{5},
		UnitIDs:    []int64{},
	}}
	uc := NewUseCase(detector, madrid(t), nopLogger{})

	date, _ := time.Parse("2006-01-02", "2025-06-02")
	resp, err := uc.Execute(context.Background(), &Request{
		Date:             date,
		StartTime:        "10:00",
		EndTime:          "14:00",
		ExcludeSessionID: ptr.Ptr(int64(41)),
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, resp.TrainerIDs)
	assert.Equal(t, []int64{5}, resp.RoomIDs)
	assert.Empty(t, resp.UnitIDs)

	// 10:00-14:00 Madrid = 08:00-12:00 UTC летом
	assert.Equal(t, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), detector.lastProbe.Start)
	assert.Equal(t, time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC), detector.lastProbe.End)
	require.NotNil(t, detector.lastExcl)
	assert.Equal(t, int64(41), *detector.lastExcl)
}

func TestUseCase_Execute_DefaultWindow(t *testing.T) {
	detector := &fakeDetector{locks: &domain.ResourceLocks{}}
	uc := NewUseCase(detector, madrid(t), nopLogger{})

	date, _ := time.Parse("2006-01-02", "2025-06-02")
	_, err := uc.Execute(context.Background(), &Request{Date: date})
	require.NoError(t, err)

	// без явных времён окно 09:00-11:00 Madrid = 07:00-09:00 UTC летом
	assert.Equal(t, time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC), detector.lastProbe.Start)
	assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), detector.lastProbe.End)
}

func TestUseCase_Execute_Validation(t *testing.T) {
	uc := NewUseCase(&fakeDetector{}, madrid(t), nopLogger{})

	date, _ := time.Parse("2006-01-02", "2025-06-02")
	tests := []struct {
		name string
		req  *Request
	}{
		{
			name: "missing date",
			req:  &Request{StartTime: "10:00"},
		},
		{
			name: "malformed start time",
			req:  &Request{Date: date, StartTime: "99:00"},
		},
		{
			name: "non-positive exclude id",
			req:  &Request{Date: date, ExcludeSessionID: ptr.Ptr(int64(0))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUseCase_Execute_DetectorError(t *testing.T) {
	uc := NewUseCase(&fakeDetector{err: errors.New("db down")}, madrid(t), nopLogger{})

	date, _ := time.Parse("2006-01-02", "2025-06-02")
	_, err := uc.Execute(context.Background(), &Request{Date: date})
	assert.ErrorIs(t, err, ErrInternal)
}
