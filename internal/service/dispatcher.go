// internal/service/dispatcher.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/model"
	"printer-bridge/internal/utils"
)

// Task is one bridge operation run on the worker pool
type Task struct {
	Method     string
	Key        *model.ConnectionKey
	CallbackID string
	// Timeout overrides the dispatcher default when positive
	Timeout time.Duration
	// Run returns the result, the number of attempts made and an error.
	// A zero attempt count is recorded as one.
	Run func(ctx context.Context) (interface{}, int, error)
}

type taskResult struct {
	value interface{}
	err   error
}

// Dispatcher runs tasks on a bounded pool of workers and journals each one
type Dispatcher struct {
	mu      sync.RWMutex
	closed  bool
	pool    *pool.Pool
	journal *Journal
	timeout time.Duration
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher running at most workers tasks at a time
func NewDispatcher(workers int, timeout time.Duration, journal *Journal, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		pool:    pool.New().WithMaxGoroutines(workers),
		journal: journal,
		timeout: timeout,
		logger:  logger,
	}
}

// Submit queues task and waits for its result or for ctx to end. A task keeps
// running after its caller gives up so that sessions are always left closed
// or open as the lifecycle policy requires; it is bounded by its own timeout.
// Every error returned is an *apperror.Error.
func (d *Dispatcher) Submit(ctx context.Context, task Task) (interface{}, error) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return nil, apperror.New(apperror.CodeInternal, "dispatcher is shutting down")
	}

	record := d.journal.Begin(ctx, task.Method, task.Key, task.CallbackID)
	done := make(chan taskResult, 1)
	runCtx := context.WithoutCancel(ctx)

	d.pool.Go(func() {
		done <- d.execute(runCtx, task, record)
	})
	d.mu.RUnlock()

	select {
	case result := <-done:
		return result.value, result.err
	case <-ctx.Done():
		return nil, apperror.From(ctx.Err())
	}
}

func (d *Dispatcher) execute(ctx context.Context, task Task, record *model.OperationRecord) (result taskResult) {
	timeout := d.timeout
	if task.Timeout > 0 {
		timeout = task.Timeout
	}
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opLogger := utils.NewOperationLogger(d.logger, task.Method, record.ID.String())
	fields := []zap.Field{}
	if task.Key != nil {
		fields = append(fields, zap.String("connection_key", task.Key.String()))
	}
	opLogger.Start(fields...)

	attempts := 0
	defer func() {
		if r := recover(); r != nil {
			result = taskResult{err: apperror.Wrap(apperror.CodeInternal, "operation panicked", fmt.Errorf("%v", r))}
		}
		if attempts < 1 {
			attempts = 1
		}
		d.journal.Finish(ctx, record, attempts, result.err)

		if result.err != nil {
			opLogger.Error(result.err, zap.Int("attempts", attempts))
		} else {
			opLogger.Success(zap.Int("attempts", attempts))
		}
	}()

	value, n, err := task.Run(taskCtx)
	attempts = n
	if err != nil {
		return taskResult{err: apperror.From(err)}
	}
	return taskResult{value: value}
}

// Shutdown stops accepting tasks and waits for queued ones to finish
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		d.pool.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		d.logger.Info("Task dispatcher drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}
