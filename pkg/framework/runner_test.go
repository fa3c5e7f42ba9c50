package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.Nil(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	require.Len(t, errs.Errors, 2)
	require.Equal(t, "Multiple errors:\na\nb", errs.Aggregate().Error())

	var single AggregatedError
	failure := errors.New("failure")
	err := single.Add(failure).Aggregate()
	require.Equal(t, "failure", err.Error())
	require.ErrorIs(t, err, failure)
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner()
	wait := RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	r.Go(NamedRun("a", wait), wait)
	r.Stop()
	require.NoError(t, r.Wait())
}

func TestRunnerFailureStopsOthers(t *testing.T) {
	r := NewRunner()
	failure := errors.New("failure")
	r.Go(
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
		NamedRun("fail", RunFunc(func(context.Context) error { return failure })),
	)
	err := r.Wait()
	require.Error(t, err)
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.Equal(t, []error{failure}, agg.Errors)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunWithContextCloser(t *testing.T) {
	closed := 0
	closer := closerFunc(func() error { closed++; return nil })
	require.NoError(t, RunWithContextCloser(context.Background(), closer, func() error { return nil }))
	require.Equal(t, 1, closed)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	closer = closerFunc(func() error { closed++; close(release); return nil })
	go func() {
		time.Sleep(time.Millisecond)
		cancel()
	}()
	err := RunWithContextCloser(ctx, closer, func() error {
		<-release
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 2, closed)
}
