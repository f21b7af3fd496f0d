package threadsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResetEvent(t *testing.T, opts ...Option) *Event {
	t.Helper()
	e, err := NewEvent(opts...)
	require.NoError(t, err)
	e.Reset()
	require.False(t, e.IsSet())
	return e
}

func TestNewEvent(t *testing.T) {
	e, err := NewEvent(WithName(`ready`))
	require.NoError(t, err)
	assert.Equal(t, `ready`, e.Name())

	// initially signaled
	assert.True(t, e.IsSet())
	assert.Equal(t, Signaled, e.Wait(0))
	assert.Equal(t, Signaled, e.Wait(Infinite))
	assert.Equal(t, Signaled, e.Wait(1000))
}

func TestNewEvent_invalidOption(t *testing.T) {
	e, err := NewEvent(WithContentionThreshold(-time.Second))
	assert.Nil(t, e)
	require.ErrorIs(t, err, ErrInvalidOption)
	var target *EventInitError
	require.ErrorAs(t, err, &target)
}

func TestEvent_Wait_zeroPolls(t *testing.T) {
	e := newResetEvent(t)
	start := time.Now()
	assert.Equal(t, TimedOut, e.Wait(0))
	assert.Less(t, time.Since(start), time.Millisecond*100)
}

func TestEvent_Wait_timeout(t *testing.T) {
	e := newResetEvent(t)
	start := time.Now()
	assert.Equal(t, TimedOut, e.Wait(50))
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond*50)
}

func TestEvent_Wait_infinite(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	e := newResetEvent(t)
	result := make(chan WaitResult, 1)
	go func() { result <- e.Wait(Infinite) }()

	select {
	case r := <-result:
		t.Fatalf(`unexpected result: %s`, r)
	case <-time.After(time.Millisecond * 50):
	}

	e.Set()
	select {
	case r := <-result:
		assert.Equal(t, Signaled, r)
	case <-time.After(time.Second * 5):
		t.Fatal(`expected waiter to be released`)
	}
}

func TestEvent_Wait_signaledBeforeTimeout(t *testing.T) {
	e := newResetEvent(t)
	go func() {
		time.Sleep(time.Millisecond * 20)
		e.Set()
	}()
	start := time.Now()
	assert.Equal(t, Signaled, e.Wait(10_000))
	assert.Less(t, time.Since(start), time.Second*5)
}

func TestEvent_Set_releasesAllWaiters(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	const waiters = 16
	e := newResetEvent(t)

	var wg sync.WaitGroup
	results := make(chan WaitResult, waiters)
	wg.Add(waiters)
	for i := range waiters {
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				results <- e.Wait(Infinite)
			} else {
				results <- e.Wait(60_000)
			}
		}()
	}

	time.Sleep(time.Millisecond * 20)
	e.Set()
	wg.Wait()
	close(results)

	var n int
	for r := range results {
		assert.Equal(t, Signaled, r)
		n++
	}
	assert.Equal(t, waiters, n)

	// stays signaled
	assert.Equal(t, Signaled, e.Wait(0))
	assert.Equal(t, Signaled, e.Wait(0))
}

func TestEvent_SetReset_idempotent(t *testing.T) {
	e, err := NewEvent()
	require.NoError(t, err)

	e.Set()
	e.Set()
	assert.True(t, e.IsSet())

	e.Reset()
	e.Reset()
	assert.False(t, e.IsSet())
	assert.Equal(t, TimedOut, e.Wait(0))

	e.Set()
	assert.Equal(t, Signaled, e.Wait(0))
}

func TestEvent_WaitContext(t *testing.T) {
	t.Run(`signaled`, func(t *testing.T) {
		e, err := NewEvent()
		require.NoError(t, err)
		r, err := e.WaitContext(context.Background())
		assert.Equal(t, Signaled, r)
		assert.NoError(t, err)
	})

	t.Run(`canceled`, func(t *testing.T) {
		e := newResetEvent(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r, err := e.WaitContext(ctx)
		assert.Equal(t, TimedOut, r)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run(`deadline`, func(t *testing.T) {
		e := newResetEvent(t)
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*20)
		defer cancel()
		r, err := e.WaitContext(ctx)
		assert.Equal(t, TimedOut, r)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run(`set while waiting`, func(t *testing.T) {
		e := newResetEvent(t)
		go func() {
			time.Sleep(time.Millisecond * 20)
			e.Set()
		}()
		r, err := e.WaitContext(context.Background())
		assert.Equal(t, Signaled, r)
		assert.NoError(t, err)
	})
}

func TestEvent_Close(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	var buf syncBuffer
	e := newResetEvent(t,
		WithName(`shutdown`),
		WithLogger(newTestLogger(&buf, logiface.LevelDebug)),
	)

	results := make(chan WaitResult, 3)
	go func() { results <- e.Wait(Infinite) }()
	go func() { results <- e.Wait(60_000) }()
	go func() {
		r, _ := e.WaitContext(context.Background())
		results <- r
	}()
	time.Sleep(time.Millisecond * 20)

	require.NoError(t, e.Close())
	for range 3 {
		select {
		case r := <-results:
			assert.Equal(t, Closed, r)
		case <-time.After(time.Second * 5):
			t.Fatal(`expected waiters to be released`)
		}
	}

	assert.Equal(t, Closed, e.Wait(0))
	assert.Equal(t, Closed, e.Wait(Infinite))
	r, err := e.WaitContext(context.Background())
	assert.Equal(t, Closed, r)
	assert.NoError(t, err)

	// no-ops once closed
	e.Set()
	assert.False(t, e.IsSet())
	e.Reset()
	assert.Equal(t, Closed, e.Wait(0))

	assert.ErrorIs(t, e.Close(), ErrClosed)
	assert.Contains(t, buf.String(), `"event":"shutdown"`)
	assert.Contains(t, buf.String(), `"msg":"event closed"`)
}

func TestEvent_Close_signaled(t *testing.T) {
	e, err := NewEvent()
	require.NoError(t, err)
	require.NoError(t, e.Close())
	assert.Equal(t, Closed, e.Wait(0))
}

func TestWaitResult_String(t *testing.T) {
	for _, tc := range [...]struct {
		result WaitResult
		want   string
	}{
		{Signaled, `Signaled`},
		{TimedOut, `TimedOut`},
		{Closed, `Closed`},
		{WaitResult(-1), `Unknown`},
		{WaitResult(100), `Unknown`},
	} {
		assert.Equal(t, tc.want, tc.result.String())
	}
}

func TestTimeoutDuration(t *testing.T) {
	for _, tc := range [...]struct {
		ms   uint32
		want time.Duration
	}{
		{0, 0},
		{1, time.Millisecond},
		{999, time.Millisecond * 999},
		{1000, time.Second},
		{1001, time.Second + time.Millisecond},
		{1500, time.Millisecond * 1500},
		{60_000, time.Minute},
		{Infinite, time.Duration(Infinite) * time.Millisecond},
	} {
		assert.Equal(t, tc.want, timeoutDuration(tc.ms), `ms=%d`, tc.ms)
	}
}
