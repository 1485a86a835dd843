package database_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/database/dbtest"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/logger"
)

func TestHookRunner_Async(t *testing.T) {
	t.Run("caller does not wait for a blocked hook", func(t *testing.T) {
		runner := database.NewHookRunner(logger.NewNoopLogger(), 1, 4, time.Second)
		release := make(chan struct{})
		done := make(chan struct{})

		start := time.Now()
		runner.Run(context.Background(), func(context.Context) {
			<-release
			close(done)
		})
		assert.Less(t, time.Since(start), 100*time.Millisecond)

		close(release)
		runner.Shutdown()
		select {
		case <-done:
		default:
			t.Fatal("shutdown returned before the queued hook finished")
		}
	})

	t.Run("hook keeps caller values but has its own deadline", func(t *testing.T) {
		runner := database.NewHookRunner(logger.NewNoopLogger(), 1, 4, 50*time.Millisecond)
		defer runner.Shutdown()

		ctx, cancel := context.WithCancel(coreport.WithRequestID(context.Background(), "req-42"))
		cancel()

		type observed struct {
			requestID   string
			hasDeadline bool
			errAtStart  error
			errAtEnd    error
		}
		seen := make(chan observed, 1)
		runner.Run(ctx, func(ctx context.Context) {
			var o observed
			o.requestID = coreport.RequestIDFromContext(ctx)
			_, o.hasDeadline = ctx.Deadline()
			o.errAtStart = ctx.Err()
			<-ctx.Done()
			o.errAtEnd = ctx.Err()
			seen <- o
		})

		select {
		case o := <-seen:
			assert.Equal(t, "req-42", o.requestID)
			assert.True(t, o.hasDeadline)
			assert.NoError(t, o.errAtStart)
			assert.ErrorIs(t, o.errAtEnd, context.DeadlineExceeded)
		case <-time.After(time.Second):
			t.Fatal("hook deadline never fired")
		}
	})

	t.Run("full queue drops instead of blocking", func(t *testing.T) {
		runner := database.NewHookRunner(logger.NewNoopLogger(), 1, 1, time.Second)
		release := make(chan struct{})
		var ran atomic.Int32

		started := make(chan struct{})
		runner.Run(context.Background(), func(context.Context) {
			close(started)
			<-release
			ran.Add(1)
		})
		<-started

		// one slot in the queue, the third hook has nowhere to go
		runner.Run(context.Background(), func(context.Context) { ran.Add(1) })
		runner.Run(context.Background(), func(context.Context) { ran.Add(1) })

		close(release)
		runner.Shutdown()
		assert.Equal(t, int32(2), ran.Load())
	})

	t.Run("hooks after shutdown are dropped", func(t *testing.T) {
		runner := database.NewHookRunner(logger.NewNoopLogger(), 1, 1, time.Second)
		runner.Shutdown()
		runner.Shutdown()

		assert.NotPanics(t, func() {
			runner.Run(context.Background(), func(context.Context) { t.Error("hook ran after shutdown") })
		})
	})

	t.Run("a panicking hook does not kill the worker", func(t *testing.T) {
		runner := database.NewHookRunner(logger.NewNoopLogger(), 1, 4, time.Second)
		var ran atomic.Bool

		runner.Run(context.Background(), func(context.Context) { panic("boom") })
		runner.Run(context.Background(), func(context.Context) { ran.Store(true) })
		runner.Shutdown()

		assert.True(t, ran.Load())
	})
}

func TestHookRunner_InlineRunsBeforeReturning(t *testing.T) {
	runner := database.NewInlineHookRunner(logger.NewNoopLogger(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var hookErr error
	ran := false
	runner.Run(ctx, func(ctx context.Context) {
		ran = true
		hookErr = ctx.Err()
	})

	assert.True(t, ran)
	assert.NoError(t, hookErr)
	runner.Shutdown()
}

func TestUnitOfWork_AsyncHooksDoNotHoldTheCommit(t *testing.T) {
	db := dbtest.New(t)
	runner := database.NewHookRunner(db.Logger, 1, 4, time.Second)
	uow := db.UoW.WithHookRunner(runner)
	p := newPayment(t)

	release := make(chan struct{})
	var hookSawRow atomic.Bool
	err := uow.Do(context.Background(), func(ctx context.Context) error {
		if err := uow.GetPaymentRepository(ctx).Create(ctx, p); err != nil {
			return err
		}
		uow.AfterCommit(ctx, func(ctx context.Context) {
			<-release
			_, err := uow.GetPaymentRepository(ctx).GetByID(ctx, p.ID)
			hookSawRow.Store(err == nil)
		})
		return nil
	})
	require.NoError(t, err)

	close(release)
	runner.Shutdown()
	assert.True(t, hookSawRow.Load())
}
