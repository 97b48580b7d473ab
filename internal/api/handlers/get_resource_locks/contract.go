package get_resource_locks

import (
	"context"

	getResourceLocks "github.com/formadon/TDE-SchedulingService/internal/usecase/get_resource_locks"
)

type GetResourceLocksUseCase interface {
	Execute(ctx context.Context, req *getResourceLocks.Request) (*getResourceLocks.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
