// Package fault applies deliberate infrastructure disruptions (process
// stop, network partition) against the environment under test and
// guarantees their reversal on every exit path, so chaos tests never
// leave the environment degraded for the tests that follow.
package fault

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// State tracks a fault through its lifecycle. There is no Applied state
// without a guaranteed transition to Restoring: the restore runs even
// while the caller's stack is unwinding from a panic.
type State int

const (
	StateArmed State = iota
	StateApplied
	StateRestoring
	StateRestored
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateApplied:
		return "applied"
	case StateRestoring:
		return "restoring"
	case StateRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// Fault pairs a disruptive action with its inverse.
type Fault struct {
	// Name identifies the fault in logs and errors.
	Name string

	// Apply performs the disruption.
	Apply func(ctx context.Context) error

	// Revert undoes the disruption. Errors from Revert are logged and
	// swallowed: restoration is best-effort and must never mask the
	// test's own outcome.
	Revert func(ctx context.Context) error
}

// StopContainer builds a fault that stops a named container and
// restarts it on restore.
func StopContainer(r Runner, name string) Fault {
	return Fault{
		Name: fmt.Sprintf("stop container %s", name),
		Apply: func(ctx context.Context) error {
			_, err := r.Stop(ctx, name)
			return err
		},
		Revert: func(ctx context.Context) error {
			_, err := r.Start(ctx, name)
			return err
		},
	}
}

// PartitionNetwork builds a fault that disconnects a named container
// from a virtual network and reconnects it on restore.
func PartitionNetwork(r Runner, name, network string) Fault {
	return Fault{
		Name: fmt.Sprintf("partition %s from %s", name, network),
		Apply: func(ctx context.Context) error {
			_, err := r.Disconnect(ctx, name, network)
			return err
		},
		Revert: func(ctx context.Context) error {
			_, err := r.Connect(ctx, name, network)
			return err
		},
	}
}

// Handle is one outstanding fault injection. Exactly one restoration
// runs for every successful Apply; a Handle is owned by a single test
// scope and must not be shared.
type Handle struct {
	fault  Fault
	state  State
	logger *log.Logger
}

// NewHandle arms a fault without applying it.
func NewHandle(f Fault, logger *log.Logger) *Handle {
	if logger == nil {
		logger = log.Default()
	}
	return &Handle{fault: f, state: StateArmed, logger: logger}
}

// State returns the handle's current lifecycle state.
func (h *Handle) State() State {
	return h.state
}

// Apply performs the disruption. It fails if the handle already fired.
func (h *Handle) Apply(ctx context.Context) error {
	if h.state != StateArmed {
		return fmt.Errorf("fault %s is %s, not armed", h.fault.Name, h.state)
	}
	if err := h.fault.Apply(ctx); err != nil {
		return fmt.Errorf("failed to apply fault %s: %w", h.fault.Name, err)
	}
	h.state = StateApplied
	h.logger.Info("fault applied", "fault", h.fault.Name)
	return nil
}

// Restore undoes the disruption. It runs the inverse action at most
// once and cannot fail past the scope boundary: a restore error is
// logged and swallowed so the original test failure stays the reported
// cause. Calling Restore on a handle that never applied is a no-op.
func (h *Handle) Restore(ctx context.Context) {
	if h.state != StateApplied {
		return
	}
	h.state = StateRestoring
	if err := h.fault.Revert(ctx); err != nil {
		h.logger.Error("fault restore failed, environment may be degraded",
			"fault", h.fault.Name, "err", err)
	} else {
		h.logger.Info("fault restored", "fault", h.fault.Name)
	}
	h.state = StateRestored
}

// Injector runs caller code under injected faults.
type Injector struct {
	logger *log.Logger
}

// NewInjector creates an Injector.
func NewInjector(logger *log.Logger) *Injector {
	if logger == nil {
		logger = log.Default()
	}
	return &Injector{logger: logger}
}

// WithFault applies f, runs body, and restores f on every exit path:
// normal return, error return, or panic. The restore uses a context
// detached from cancellation so an expired test context cannot skip it.
// The returned error is body's own (or Apply's); restore errors are
// never propagated.
func (in *Injector) WithFault(ctx context.Context, f Fault, body func(ctx context.Context) error) error {
	h := NewHandle(f, in.logger)
	if err := h.Apply(ctx); err != nil {
		return err
	}
	defer h.Restore(context.WithoutCancel(ctx))
	return body(ctx)
}
