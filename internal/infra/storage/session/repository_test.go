package session

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
	"github.com/formadon/TDE-SchedulingService/pkg/dbmetrics"
	"github.com/formadon/TDE-SchedulingService/pkg/ptr"
)

// errProbe позволяет перехватить построенный SQL, не выполняя его
var errProbe = errors.New("probe")

// captureExecutor записывает последний запрос и возвращает errProbe
type captureExecutor struct {
	query string
	args  []interface{}
}

func (c *captureExecutor) QueryContext(_ context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	c.query = query
	c.args = args
	return nil, errProbe
}

func (c *captureExecutor) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (c *captureExecutor) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	c.query = query
	c.args = args
	return nil, errProbe
}

func (c *captureExecutor) Commit() error   { return nil }
func (c *captureExecutor) Rollback() error { return nil }

func candidate() domain.BookingCandidate {
	return domain.BookingCandidate{
		RoomID:     ptr.Ptr(int64(5)),
		TrainerIDs: []int64{1, 2},
		UnitIDs:    []int64{10},
	}
}

func TestGetOverlapCandidates_QueryShape_LinksMigrated(t *testing.T) {
	exec := &captureExecutor{}
	repo := NewRepository(exec, domain.FullCapabilities())

	_, err := repo.GetOverlapCandidates(context.Background(), candidate(), nil)
	require.ErrorIs(t, err, ErrExecQuery)

	// Запрос объединяет legacy колонки с EXISTS по link-таблицам
	assert.Contains(t, exec.query, "trainer_id IN")
	assert.Contains(t, exec.query, "session_trainers")
	assert.Contains(t, exec.query, "session_units")

	// Заблокированные вручную занятия не считаются кандидатами
	assert.Contains(t, exec.query, "status NOT IN")
}

func TestGetOverlapCandidates_QueryShape_LegacyOnly(t *testing.T) {
	exec := &captureExecutor{}
	repo := NewRepository(exec, domain.SchemaCapabilities{ResourceLinks: false})

	_, err := repo.GetOverlapCandidates(context.Background(), candidate(), nil)
	require.ErrorIs(t, err, ErrExecQuery)

	// При немигрированной схеме link-таблицы в запрос не попадают
	assert.NotContains(t, exec.query, "session_trainers")
	assert.NotContains(t, exec.query, "session_units")
	assert.Contains(t, exec.query, "trainer_id IN")
	assert.Contains(t, exec.query, "unit_id IN")
}

func TestGetOverlapCandidates_ExcludesSession(t *testing.T) {
	exec := &captureExecutor{}
	repo := NewRepository(exec, domain.FullCapabilities())

	_, err := repo.GetOverlapCandidates(context.Background(), candidate(), ptr.Ptr(int64(41)))
	require.ErrorIs(t, err, ErrExecQuery)

	assert.Contains(t, exec.query, "id <>")
	assert.Contains(t, exec.args, int64(41))
}

func TestGetOverlapCandidates_LocksRowsInsideTransaction(t *testing.T) {
	exec := &captureExecutor{}
	repo := NewRepository(exec, domain.FullCapabilities())

	_, err := repo.GetOverlapCandidates(context.Background(), candidate(), nil)
	require.ErrorIs(t, err, ErrExecQuery)
	assert.NotContains(t, exec.query, "FOR UPDATE")

	// Внутри транзакции кандидаты читаются с блокировкой
	txExec := &captureExecutor{}
	ctx := dbmetrics.WithExecutor(context.Background(), txExec)

	_, err = repo.GetOverlapCandidates(ctx, candidate(), nil)
	require.ErrorIs(t, err, ErrExecQuery)
	assert.Contains(t, txExec.query, "FOR UPDATE")
}

func TestGetOverlapCandidates_EmptyCandidateShortCircuits(t *testing.T) {
	exec := &captureExecutor{}
	repo := NewRepository(exec, domain.FullCapabilities())

	sessions, err := repo.GetOverlapCandidates(context.Background(), domain.BookingCandidate{}, nil)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Empty(t, exec.query)
}
