package requestflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamcoop/wardline/wards"
)

func TestManagerCreateGetDelete(t *testing.T) {
	deps, _ := testDeps(t, &fakeWriter{})
	m := NewManager(deps)
	ctx := context.Background()

	f, err := m.Create(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, f.WardID)
	assert.NotEmpty(t, f.ID)

	got, err := m.Get(f.ID)
	require.NoError(t, err)
	assert.Same(t, f, got)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(f.ID))
	_, err = m.Get(f.ID)
	assert.ErrorIs(t, err, ErrFlowNotFound)
	assert.ErrorIs(t, m.Delete(f.ID), ErrFlowNotFound)
}

func TestManagerCreateUnknownWard(t *testing.T) {
	deps, _ := testDeps(t, &fakeWriter{})
	m := NewManager(deps)

	_, err := m.Create(context.Background(), 51)
	assert.ErrorIs(t, err, wards.ErrNotFound)
	assert.Zero(t, m.Len())
}

func TestManagerPrune(t *testing.T) {
	deps, _ := testDeps(t, &fakeWriter{})
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	deps.Now = func() time.Time { return now }
	m := NewManager(deps)
	ctx := context.Background()

	stale, err := m.Create(ctx, 3)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	fresh, err := m.Create(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Prune(30*time.Minute))

	_, err = m.Get(stale.ID)
	assert.ErrorIs(t, err, ErrFlowNotFound)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestManagerPruneKeepsPendingFlows(t *testing.T) {
	writer := &fakeWriter{text: "letter", started: make(chan struct{}), gate: make(chan struct{})}
	deps, _ := testDeps(t, writer)
	var mu sync.Mutex
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	deps.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	m := NewManager(deps)

	f, err := m.Create(context.Background(), 3)
	require.NoError(t, err)
	require.NoError(t, f.SetForm(Form{Type: "other", Description: "Noise", Location: "Park"}))

	done := make(chan struct{})
	go func() {
		f.Generate(context.Background())
		close(done)
	}()
	<-writer.started

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	assert.Zero(t, m.Prune(time.Minute))
	close(writer.gate)
	<-done
}

func TestManagerPruneKeepsFlowsWithRecentCalls(t *testing.T) {
	deps, _ := testDeps(t, &fakeWriter{})
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	deps.Now = func() time.Time { return now }
	m := NewManager(deps)
	ctx := context.Background()

	rejected, err := m.Create(ctx, 3)
	require.NoError(t, err)
	untouched, err := m.Create(ctx, 3)
	require.NoError(t, err)

	now = now.Add(3 * time.Hour)

	// a call that fails validation still counts as activity
	_, err = rejected.Submit(ctx)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	assert.Equal(t, 1, m.Prune(2*time.Hour))
	_, err = m.Get(rejected.ID)
	assert.NoError(t, err)
	_, err = m.Get(untouched.ID)
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestFlowIdleSinceDuringStaleGenerate(t *testing.T) {
	writer := &fakeWriter{text: "letter", started: make(chan struct{}), gate: make(chan struct{})}
	deps, _ := testDeps(t, writer)
	var mu sync.Mutex
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	deps.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	f := NewFlow("flow-stale", 3, deps)
	require.NoError(t, f.SetForm(Form{Type: "other", Description: "Noise", Location: "Park"}))

	mu.Lock()
	now = now.Add(3 * time.Hour)
	cutoff := now.Add(-2 * time.Hour)
	mu.Unlock()
	assert.True(t, f.idleSince(cutoff))

	done := make(chan struct{})
	go func() {
		f.Generate(context.Background())
		close(done)
	}()
	<-writer.started

	assert.False(t, f.idleSince(cutoff))
	close(writer.gate)
	<-done

	assert.False(t, f.idleSince(cutoff))
	assert.Equal(t, PhaseGenerated, f.State().Phase())
}

func TestManagerConcurrentCreate(t *testing.T) {
	deps, _ := testDeps(t, &fakeWriter{})
	m := NewManager(deps)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Create(context.Background(), 3)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, m.Len())
}

func TestRunJanitorStopsOnCancel(t *testing.T) {
	deps, _ := testDeps(t, &fakeWriter{})
	m := NewManager(deps)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunJanitor(ctx, time.Millisecond, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
