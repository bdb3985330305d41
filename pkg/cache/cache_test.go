package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/goliatone/go-formwise/pkg/cache"
	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/testsupport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingSource struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (s *countingSource) GetForm(_ context.Context, formID string) (model.FormDefinition, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return model.FormDefinition{}, s.err
	}
	form := testsupport.SampleForm()
	form.ID = formID
	return form, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestServesFreshEntries(t *testing.T) {
	src := &countingSource{}
	clk := &clock{now: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)}
	c := cache.New(src, cache.WithClock(clk.Now))

	for i := 0; i < 3; i++ {
		form, err := c.GetForm(context.Background(), "form-123")
		require.NoError(t, err)
		assert.Equal(t, "form-123", form.ID)
	}
	assert.EqualValues(t, 1, src.calls.Load())

	clk.Advance(cache.DefaultTTL - time.Second)
	_, err := c.GetForm(context.Background(), "form-123")
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.calls.Load())

	clk.Advance(time.Second)
	_, err = c.GetForm(context.Background(), "form-123")
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load(), "stale entry should be refetched")
}

func TestReturnsIndependentCopies(t *testing.T) {
	c := cache.New(&countingSource{})

	first, err := c.GetForm(context.Background(), "form-123")
	require.NoError(t, err)
	first.Fields[0].Tag = "mutated"

	second, err := c.GetForm(context.Background(), "form-123")
	require.NoError(t, err)
	assert.Equal(t, "name", second.Fields[0].Tag)
}

func TestCollapsesConcurrentFetches(t *testing.T) {
	src := &countingSource{gate: make(chan struct{})}
	c := cache.New(src)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetForm(context.Background(), "form-123")
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	// Give the remaining callers a chance to join the in-flight fetch.
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestDoesNotCacheFailures(t *testing.T) {
	src := &countingSource{err: errors.New("boom")}
	c := cache.New(src)

	_, err := c.GetForm(context.Background(), "form-123")
	require.Error(t, err)
	_, err = c.GetForm(context.Background(), "form-123")
	require.Error(t, err)

	assert.EqualValues(t, 2, src.calls.Load())
	assert.Zero(t, c.Len())
}

func TestInvalidateAndPurge(t *testing.T) {
	src := &countingSource{}
	c := cache.New(src)
	ctx := context.Background()

	_, _ = c.GetForm(ctx, "a")
	_, _ = c.GetForm(ctx, "b")
	require.Equal(t, 2, c.Len())

	c.Invalidate("a")
	assert.Equal(t, 1, c.Len())
	_, _ = c.GetForm(ctx, "a")
	assert.EqualValues(t, 3, src.calls.Load())

	c.Purge()
	assert.Zero(t, c.Len())
	_, _ = c.GetForm(ctx, "b")
	assert.EqualValues(t, 4, src.calls.Load())
}

func TestDisabledTTLAlwaysFetches(t *testing.T) {
	src := &countingSource{}
	c := cache.New(src, cache.WithTTL(0))

	_, _ = c.GetForm(context.Background(), "form-123")
	_, _ = c.GetForm(context.Background(), "form-123")
	assert.EqualValues(t, 2, src.calls.Load())
	assert.Zero(t, c.Len())
}

type blockingSource struct {
	calls atomic.Int32
	gate  chan struct{}
}

func (s *blockingSource) GetForm(ctx context.Context, formID string) (model.FormDefinition, error) {
	s.calls.Add(1)
	select {
	case <-s.gate:
	case <-ctx.Done():
		return model.FormDefinition{}, ctx.Err()
	}
	form := testsupport.SampleForm()
	form.ID = formID
	return form, nil
}

func TestCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	src := &blockingSource{gate: make(chan struct{})}
	c := cache.New(src)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.GetForm(ctxA, "form-123")
		errA <- err
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		form model.FormDefinition
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		form, err := c.GetForm(context.Background(), "form-123")
		resB <- result{form, err}
	}()
	// Let the second caller join the in-flight fetch.
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(src.gate)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, "form-123", b.form.ID)
	assert.EqualValues(t, 1, src.calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestFetchTimeoutBoundsDetachedFetch(t *testing.T) {
	src := &blockingSource{gate: make(chan struct{})}
	c := cache.New(src, cache.WithFetchTimeout(10*time.Millisecond))

	_, err := c.GetForm(context.Background(), "form-123")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPurgeDetachesInFlightFetches(t *testing.T) {
	src := &blockingSource{gate: make(chan struct{})}
	c := cache.New(src)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = c.GetForm(context.Background(), "form-123")
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	c.Purge()
	go func() {
		defer wg.Done()
		_, _ = c.GetForm(context.Background(), "form-123")
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 2 }, time.Second, time.Millisecond,
		"a caller after Purge must start its own fetch")

	close(src.gate)
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
