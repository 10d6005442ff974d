package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koskev/lazymc/pkg/process"
	"github.com/koskev/lazymc/pkg/status"
)

// fakeSpawner hands out a Handle backed by a channel the test controls
// directly, so transitions can be driven deterministically.
type fakeSpawner struct {
	handles chan *process.Handle
	spawned chan struct{}
	err     error
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{handles: make(chan *process.Handle, 4), spawned: make(chan struct{}, 4)}
}

func (f *fakeSpawner) Spawn(ctx context.Context) (*process.Handle, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.spawned <- struct{}{}
	return <-f.handles, nil
}

type fakeProber struct {
	result chan *status.ServerStatus
	err    error
}

func (f *fakeProber) Probe(ctx context.Context, timeout time.Duration) (*status.ServerStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	select {
	case st := <-f.result:
		return st, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fakeStopper struct {
	calls chan struct{}
	err   error
}

func (f *fakeStopper) Stop() error {
	if f.calls != nil {
		f.calls <- struct{}{}
	}
	return f.err
}

func eventuallyKind(t *testing.T, c *Controller, k Kind) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Snapshot().Kind == k
	}, 2*time.Second, 5*time.Millisecond, "expected state %s, got %s", k, c.Snapshot().Kind)
}

func TestEnsureRunningSpawnsAndProbeMarksStarted(t *testing.T) {
	spawner := newFakeSpawner()
	prober := &fakeProber{result: make(chan *status.ServerStatus, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(ctx, Options{
		Spawner:      spawner,
		Prober:       prober,
		StartTimeout: time.Second,
		StopTimeout:  time.Second,
		SleepAfter:   time.Second,
	})
	defer c.Close()

	assert.Equal(t, Stopped, c.Snapshot().Kind)

	sup := &process.Supervisor{StartCommand: "sh -c 'sleep 5'"}
	h, err := sup.Spawn(context.Background())
	require.NoError(t, err)
	defer func() { _ = h.Kill() }()

	c.EnsureRunning()
	<-spawner.spawned
	spawner.handles <- h
	eventuallyKind(t, c, Starting)

	prober.result <- &status.ServerStatus{VersionName: "1.20.4"}
	eventuallyKind(t, c, Started)
	require.NotNil(t, c.CachedStatus())
	assert.Equal(t, "1.20.4", c.CachedStatus().VersionName)
}

func TestEnsureRunningIsNoOpWhenAlreadyStarting(t *testing.T) {
	spawner := newFakeSpawner()
	prober := &fakeProber{result: make(chan *status.ServerStatus, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(ctx, Options{Spawner: spawner, Prober: prober, StartTimeout: time.Second, StopTimeout: time.Second})
	defer c.Close()

	sup := &process.Supervisor{StartCommand: "sh -c 'sleep 5'"}
	h, err := sup.Spawn(context.Background())
	require.NoError(t, err)
	defer func() { _ = h.Kill() }()

	c.EnsureRunning()
	<-spawner.spawned
	spawner.handles <- h
	eventuallyKind(t, c, Starting)

	c.EnsureRunning()
	c.EnsureRunning()

	select {
	case <-spawner.spawned:
		t.Fatal("EnsureRunning spawned a second backend while already starting")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStartTimeoutMarksCrashed(t *testing.T) {
	spawner := newFakeSpawner()
	prober := &fakeProber{result: make(chan *status.ServerStatus, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(ctx, Options{
		Spawner:      spawner,
		Prober:       prober,
		StartTimeout: 20 * time.Millisecond,
		StopTimeout:  time.Second,
	})
	defer c.Close()

	sup := &process.Supervisor{StartCommand: "sh -c 'sleep 5'"}
	h, err := sup.Spawn(context.Background())
	require.NoError(t, err)
	defer func() { _ = h.Kill() }()

	c.EnsureRunning()
	<-spawner.spawned
	spawner.handles <- h

	eventuallyKind(t, c, Crashed)
}

func TestOccupancyZeroArmsIdleTimerAndStops(t *testing.T) {
	spawner := newFakeSpawner()
	prober := &fakeProber{result: make(chan *status.ServerStatus, 1)}
	stopper := &fakeStopper{calls: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(ctx, Options{
		Spawner:      spawner,
		Prober:       prober,
		Stopper:      stopper,
		StartTimeout: time.Second,
		StopTimeout:  time.Second,
		SleepAfter:   20 * time.Millisecond,
	})
	defer c.Close()

	sup := &process.Supervisor{StartCommand: "sh -c 'sleep 5'"}
	h, err := sup.Spawn(context.Background())
	require.NoError(t, err)
	defer func() { _ = h.Kill() }()

	c.EnsureRunning()
	<-spawner.spawned
	spawner.handles <- h
	eventuallyKind(t, c, Starting)
	prober.result <- &status.ServerStatus{}
	eventuallyKind(t, c, Started)

	c.OnOccupancyZero()

	select {
	case <-stopper.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("idle timer never fired a stop")
	}
	eventuallyKind(t, c, Stopping)
}

func TestOccupancyNonZeroCancelsIdleTimer(t *testing.T) {
	spawner := newFakeSpawner()
	prober := &fakeProber{result: make(chan *status.ServerStatus, 1)}
	stopper := &fakeStopper{calls: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(ctx, Options{
		Spawner:      spawner,
		Prober:       prober,
		Stopper:      stopper,
		StartTimeout: time.Second,
		StopTimeout:  time.Second,
		SleepAfter:   30 * time.Millisecond,
	})
	defer c.Close()

	sup := &process.Supervisor{StartCommand: "sh -c 'sleep 5'"}
	h, err := sup.Spawn(context.Background())
	require.NoError(t, err)
	defer func() { _ = h.Kill() }()

	c.EnsureRunning()
	<-spawner.spawned
	spawner.handles <- h
	eventuallyKind(t, c, Starting)
	prober.result <- &status.ServerStatus{}
	eventuallyKind(t, c, Started)

	c.OnOccupancyZero()
	c.OnOccupancyNonZero()

	select {
	case <-stopper.calls:
		t.Fatal("stop should not have been requested after occupancy returned")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, Started, c.Snapshot().Kind)
}

func TestRequestSleepFallsBackToSignalWhenRconFails(t *testing.T) {
	spawner := newFakeSpawner()
	prober := &fakeProber{result: make(chan *status.ServerStatus, 1)}
	stopper := &fakeStopper{err: errors.New("connection refused")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(ctx, Options{
		Spawner:      spawner,
		Prober:       prober,
		Stopper:      stopper,
		StartTimeout: time.Second,
		StopTimeout:  time.Second,
	})
	defer c.Close()

	sup := &process.Supervisor{StartCommand: "sh -c 'trap : TERM; sleep 5'"}
	h, err := sup.Spawn(context.Background())
	require.NoError(t, err)
	defer func() { _ = h.Kill() }()

	c.EnsureRunning()
	<-spawner.spawned
	spawner.handles <- h
	eventuallyKind(t, c, Starting)
	prober.result <- &status.ServerStatus{}
	eventuallyKind(t, c, Started)

	c.RequestSleep()
	eventuallyKind(t, c, Stopping)

	select {
	case res := <-h.Done():
		assert.False(t, res.Crashed)
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit after SIGTERM fallback")
	}
	eventuallyKind(t, c, Stopped)
}

func TestBackendCrashWhileStartedIsReported(t *testing.T) {
	spawner := newFakeSpawner()
	prober := &fakeProber{result: make(chan *status.ServerStatus, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(ctx, Options{
		Spawner:      spawner,
		Prober:       prober,
		StartTimeout: time.Second,
		StopTimeout:  time.Second,
		WakeOnCrash:  true,
	})
	defer c.Close()

	sup := &process.Supervisor{StartCommand: "sh -c 'sleep 0.3; exit 1'"}
	h, err := sup.Spawn(context.Background())
	require.NoError(t, err)

	c.EnsureRunning()
	<-spawner.spawned
	spawner.handles <- h
	eventuallyKind(t, c, Starting)
	prober.result <- &status.ServerStatus{}
	eventuallyKind(t, c, Started)

	eventuallyKind(t, c, Crashed)
	assert.Equal(t, 1, c.Snapshot().LastExit)
}
