// internal/probe/probe.go
package probe

import (
	"context"

	"macmon/internal/model"
)

// Result is the outcome of one identification probe. A failure is expressed
// as a status category plus detail, never as a raised error: the dispatcher
// treats every completion uniformly.
type Result struct {
	MAC    string
	Status model.ProbeStatus
	Detail string
}

// Prober extracts a hardware identifier from the device behind a port.
// Implementations may block for several seconds and must honor ctx
// cancellation on a best-effort basis.
type Prober interface {
	Probe(ctx context.Context, port string) Result
}

// OK builds a success result.
func OK(mac string) Result {
	return Result{MAC: mac, Status: model.StatusOK}
}

// SetupFailure builds a result for failures before any device dialog
// happened (port open, adapter selection).
func SetupFailure(err error) Result {
	return Result{Status: model.StatusSetupError, Detail: err.Error()}
}

// CommFailure builds a result for protocol or communication failures.
func CommFailure(err error) Result {
	return Result{Status: model.StatusCommError, Detail: err.Error()}
}

// NotFound builds a result for a completed probe that yielded no identifier.
func NotFound() Result {
	return Result{Status: model.StatusNotFound, Detail: "mac not found"}
}
