// Package lifecycle implements the single-owner backend state machine:
// the only component allowed to mutate BackendState, driven by a
// serialised mailbox of commands so transitions are totally ordered and
// observable as an atomic snapshot, per the concurrency model. The
// single-owner shape is modeled on the teacher proxy's sessionHandler
// pattern, where exactly one handler owns a connection's behaviour at a
// time and all access goes through its exported methods.
package lifecycle

import "time"

// Kind identifies which variant of BackendState is active.
type Kind int

const (
	Stopped Kind = iota
	Starting
	Started
	Stopping
	Crashed
)

func (k Kind) String() string {
	switch k {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Started:
		return "started"
	case Stopping:
		return "stopping"
	case Crashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// State is a point-in-time, immutable snapshot of BackendState. Exactly
// one Kind is authoritative at a time; the other fields are populated
// only for the variants that use them, mirroring the tagged-variant
// data model in the spec.
type State struct {
	Kind Kind

	// Starting
	Since time.Time
	PID   int

	// Started
	RunningSince time.Time

	// Stopping reuses Since/PID above.

	// Crashed
	CrashedAt time.Time
	LastExit  int
}

func stoppedState() State { return State{Kind: Stopped} }

func startingState(pid int, since time.Time) State {
	return State{Kind: Starting, PID: pid, Since: since}
}

func startedState(pid int, runningSince time.Time) State {
	return State{Kind: Started, PID: pid, RunningSince: runningSince}
}

func stoppingState(pid int, since time.Time) State {
	return State{Kind: Stopping, PID: pid, Since: since}
}

func crashedState(at time.Time, lastExit int) State {
	return State{Kind: Crashed, CrashedAt: at, LastExit: lastExit}
}
