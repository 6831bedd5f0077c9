package framework

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunnerWait(t *testing.T) {
	failed := errors.New("port gone")
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx).Go(
		NamedRun("ok", RunFunc(func(context.Context) error { return nil })),
		NamedRun("failed", RunFunc(func(context.Context) error { return failed })),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	cancel()
	err := r.Wait()
	require.Equal(t, &AggregatedError{Errors: []error{failed}}, err)
	require.Equal(t, "port gone", err.Error())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	require.Equal(t, "Multiple errors:\na\nb", errs.Aggregate().Error())

	portGone := errors.New("port gone")
	var nested AggregatedError
	nested.Add(errors.New("sink failed"), fmt.Errorf("ttyUSB0: %w", portGone))
	errs.Add(&nested)
	require.True(t, errors.Is(errs.Aggregate(), portGone))
	var found *AggregatedError
	require.True(t, errors.As(errs.Errors[2], &found))
	require.Len(t, found.Errors, 2)
}

func TestRunWithContextCloser(t *testing.T) {
	var closed int32
	unblock := make(chan struct{})
	closer := closerFunc(func() error {
		if atomic.AddInt32(&closed, 1) == 1 {
			close(unblock)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := RunWithContextCloser(ctx, closer, func() error {
		<-unblock
		return errors.New("read on closed port")
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&closed))

	closed = 0
	err = RunWithContextCloser(context.Background(), closerFunc(func() error {
		atomic.AddInt32(&closed, 1)
		return nil
	}), func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, int32(1), closed)
}
