package async_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/coachkit/pkg/async"
)

func TestFlight_CollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var (
		flight async.Flight[string]
		calls  atomic.Int32
		wg     sync.WaitGroup
	)

	release := make(chan struct{})
	work := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "token", nil
	}

	const callers = 20
	results := make([]string, callers)
	futures := make([]*async.Future[string], callers)
	for i := range callers {
		f, _ := flight.Do(context.Background(), work)
		futures[i] = f
	}
	assert.True(t, flight.InFlight())

	close(release)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := futures[i].Await()
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := range callers {
		assert.Same(t, futures[0], futures[i])
		assert.Equal(t, "token", results[i])
	}
}

func TestFlight_StartsAgainAfterCompletion(t *testing.T) {
	t.Parallel()

	var flight async.Flight[int]
	var calls atomic.Int32
	work := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	first, started := flight.Do(context.Background(), work)
	require.True(t, started)
	v, err := first.Await()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// The slot is released before the future resolves.
	assert.False(t, flight.InFlight())

	second, started := flight.Do(context.Background(), work)
	require.True(t, started)
	v, err = second.Await()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestFlight_SharesFailure(t *testing.T) {
	t.Parallel()

	var flight async.Flight[string]
	want := errors.New("no session")
	release := make(chan struct{})

	a, startedA := flight.Do(context.Background(), func(context.Context) (string, error) {
		<-release
		return "", want
	})
	b, startedB := flight.Do(context.Background(), func(context.Context) (string, error) {
		t.Error("second call must not start work")
		return "", nil
	})
	assert.True(t, startedA)
	assert.False(t, startedB)

	close(release)
	_, errA := a.Await()
	_, errB := b.AwaitWithTimeout(time.Second)
	assert.ErrorIs(t, errA, want)
	assert.ErrorIs(t, errB, want)
}
