package lifecycle

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/koskev/lazymc/pkg/process"
	"github.com/koskev/lazymc/pkg/status"
)

// Spawner starts the backend process. *process.Supervisor satisfies
// this; it is an interface here only so tests can fake a backend
// without spawning a real one.
type Spawner interface {
	Spawn(ctx context.Context) (*process.Handle, error)
}

// Prober confirms the backend is actually accepting logins, returning
// the status it observed on success.
type Prober interface {
	Probe(ctx context.Context, timeout time.Duration) (*status.ServerStatus, error)
}

// Stopper issues a graceful shutdown command to the backend (RCON
// "stop"). A nil Stopper means RCON is not configured.
type Stopper interface {
	Stop() error
}

// Options configures a Controller. Fields mirror the timing and server
// sections of config.Config so the controller never has to import the
// config package directly.
type Options struct {
	Spawner Spawner
	Prober  Prober
	Stopper Stopper // nil if RCON is not configured

	StartTimeout time.Duration
	StopTimeout  time.Duration
	SleepAfter   time.Duration
	WakeOnCrash  bool

	Logger *zap.Logger
}

// command is a message accepted by the actor's mailbox. Only the actor
// goroutine ever reads or writes Controller's unexported state; every
// external caller only ever sends into cmds.
type command struct {
	kind commandKind
	opts *Options // non-nil only for configReload
}

type commandKind int

const (
	cmdEnsureRunning commandKind = iota
	cmdRequestSleep
	cmdOccupancyZero
	cmdOccupancyNonZero
	cmdConfigReload
)

// Controller is the single owner of BackendState. All mutation happens
// on its actor goroutine; everyone else reads a snapshot or sends a
// command.
type Controller struct {
	cmds   chan command
	done   chan struct{}
	snap   atomic.Value // State
	status atomic.Value // *status.ServerStatus, may hold a nil *status.ServerStatus
}

// New starts the controller's actor goroutine and returns immediately
// in the Stopped state.
func New(ctx context.Context, opts Options) *Controller {
	c := &Controller{
		cmds: make(chan command, 16),
		done: make(chan struct{}),
	}
	c.snap.Store(stoppedState())
	c.status.Store((*status.ServerStatus)(nil))
	go c.run(ctx, opts)
	return c
}

// Snapshot returns the last published, read-optimised BackendState.
func (c *Controller) Snapshot() State { return c.snap.Load().(State) }

// CachedStatus returns the last status a successful probe observed, or
// nil if none has succeeded yet this run.
func (c *Controller) CachedStatus() *status.ServerStatus {
	return c.status.Load().(*status.ServerStatus)
}

func (c *Controller) send(k commandKind) {
	select {
	case c.cmds <- command{kind: k}:
	case <-c.done:
	}
}

// EnsureRunning requests a transition toward Started, spawning the
// backend if it is Stopped (or, if wake_on_crash allows, Crashed). It is
// safe, and a no-op, to call repeatedly.
func (c *Controller) EnsureRunning() { c.send(cmdEnsureRunning) }

// RequestSleep requests a graceful transition toward Stopped.
func (c *Controller) RequestSleep() { c.send(cmdRequestSleep) }

// OnOccupancyZero notifies the controller that occupancy fell to zero;
// it arms the idle timer while Started.
func (c *Controller) OnOccupancyZero() { c.send(cmdOccupancyZero) }

// OnOccupancyNonZero cancels any armed idle timer.
func (c *Controller) OnOccupancyNonZero() { c.send(cmdOccupancyNonZero) }

// Reload rebuilds timers and dependencies in place without touching the
// running backend process, per the "config_reload" row of the
// transition table.
func (c *Controller) Reload(opts Options) {
	select {
	case c.cmds <- command{kind: cmdConfigReload, opts: &opts}:
	case <-c.done:
	}
}

// Close stops the actor goroutine. It does not stop the backend
// process; callers that want a clean shutdown should RequestSleep (or
// terminate the process directly) before Close.
func (c *Controller) Close() { close(c.done) }

func (c *Controller) publish(s State) { c.snap.Store(s) }

func (c *Controller) run(ctx context.Context, opts Options) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var handle *process.Handle
	var idleTimer *time.Timer
	var startTimer *time.Timer
	var stopTimer *time.Timer

	stopTimerC := func() <-chan time.Time {
		if stopTimer == nil {
			return nil
		}
		return stopTimer.C
	}
	startTimerC := func() <-chan time.Time {
		if startTimer == nil {
			return nil
		}
		return startTimer.C
	}
	idleTimerC := func() <-chan time.Time {
		if idleTimer == nil {
			return nil
		}
		return idleTimer.C
	}
	doneC := func() <-chan process.ExitResult {
		if handle == nil {
			return nil
		}
		return handle.Done()
	}

	probeResult := make(chan *status.ServerStatus, 1)
	probeFailed := make(chan struct{}, 1)
	var probeCancel context.CancelFunc

	startProbe := func() {
		if opts.Prober == nil {
			return
		}
		pctx, cancel := context.WithCancel(ctx)
		probeCancel = cancel
		go func() {
			st, err := opts.Prober.Probe(pctx, opts.StartTimeout)
			if err != nil {
				select {
				case probeFailed <- struct{}{}:
				default:
				}
				return
			}
			select {
			case probeResult <- st:
			default:
			}
		}()
	}

	transitionToStarting := func() {
		h, err := opts.Spawner.Spawn(ctx)
		if err != nil {
			log.Error("failed to spawn backend", zap.Error(err))
			return
		}
		handle = h
		c.publish(startingState(h.PID, time.Now()))
		log.Info("backend starting", zap.Int("pid", h.PID))
		startTimer = time.NewTimer(opts.StartTimeout)
		startProbe()
	}

	transitionToStopping := func() {
		h := handle
		if h == nil {
			c.publish(stoppedState())
			return
		}
		c.publish(stoppingState(h.PID, time.Now()))
		log.Info("backend stopping", zap.Int("pid", h.PID))
		stopTimer = time.NewTimer(opts.StopTimeout)
		go func() {
			if opts.Stopper != nil {
				err := opts.Stopper.Stop()
				if err == nil {
					h.MarkStopRequested()
					return
				}
				log.Warn("rcon stop failed, falling back to signal", zap.Error(err))
			}
			if runtime.GOOS == "windows" {
				log.Error("rcon unavailable and Windows cannot signal a graceful stop")
				return
			}
			_ = h.Terminate(ctx, opts.StopTimeout)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return

		case cmd := <-c.cmds:
			switch cmd.kind {
			case cmdEnsureRunning:
				switch c.Snapshot().Kind {
				case Stopped:
					transitionToStarting()
				case Crashed:
					if opts.WakeOnCrash {
						transitionToStarting()
					}
				}
			case cmdRequestSleep:
				if c.Snapshot().Kind == Started {
					transitionToStopping()
				}
			case cmdOccupancyZero:
				if c.Snapshot().Kind == Started {
					idleTimer = time.NewTimer(opts.SleepAfter)
				}
			case cmdOccupancyNonZero:
				if idleTimer != nil {
					idleTimer.Stop()
					idleTimer = nil
				}
			case cmdConfigReload:
				if cmd.opts != nil {
					opts = *cmd.opts
				}
				c.status.Store((*status.ServerStatus)(nil))
			}

		case <-idleTimerC():
			idleTimer = nil
			if c.Snapshot().Kind == Started {
				transitionToStopping()
			}

		case <-startTimerC():
			startTimer = nil
			log.Error("start_timeout elapsed without a successful probe")
			if probeCancel != nil {
				probeCancel()
			}
			if h := handle; h != nil {
				_ = h.Kill()
				<-h.Done()
			}
			handle = nil
			c.publish(crashedState(time.Now(), -1))

		case st := <-probeResult:
			if startTimer != nil {
				startTimer.Stop()
				startTimer = nil
			}
			if handle != nil {
				log.Info("backend started", zap.Int("pid", handle.PID))
				c.publish(startedState(handle.PID, time.Now()))
			}
			if st != nil {
				c.status.Store(st)
			}

		case <-probeFailed:
			// Not yet ready; the prober itself implements retry/backoff, so
			// simply wait for either a later success or start_timeout.

		case res := <-doneC():
			prevKind := c.Snapshot().Kind
			handle = nil
			if stopTimer != nil {
				stopTimer.Stop()
				stopTimer = nil
			}
			if startTimer != nil {
				startTimer.Stop()
				startTimer = nil
			}
			if prevKind == Stopping || !res.Crashed {
				log.Info("backend exited")
				c.publish(stoppedState())
			} else {
				log.Warn("backend crashed", zap.Int("code", res.Code), zap.Error(res.Err))
				c.publish(crashedState(time.Now(), res.Code))
			}

		case <-stopTimerC():
			stopTimer = nil
			if h := handle; h != nil {
				log.Warn("stop_timeout elapsed, escalating to SIGKILL", zap.Int("pid", h.PID))
				_ = h.Kill()
			}
		}
	}
}

