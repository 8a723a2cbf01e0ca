// internal/engine/engine.go
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"macmon/internal/config"
	"macmon/internal/enumerate"
	"macmon/internal/model"
	"macmon/internal/probe"
	"macmon/internal/utils"
)

// Notifier receives engine notifications for presentation collaborators.
// Implementations must not block: they are called from the control loop.
type Notifier interface {
	RecordAppended(record model.ProbeRecord)
	ProjectionChanged()
	MonitorStateChanged(monitoring bool)
	PortChanged(port string, appeared bool)
}

// NopNotifier is a Notifier that ignores everything.
type NopNotifier struct{}

func (NopNotifier) RecordAppended(model.ProbeRecord) {}
func (NopNotifier) ProjectionChanged()               {}
func (NopNotifier) MonitorStateChanged(bool)         {}
func (NopNotifier) PortChanged(string, bool)         {}

// completion carries one probe outcome from a worker back to the control
// loop for reconciliation.
type completion struct {
	port   string
	result probe.Result
}

// Engine is the device-discovery and probe-coordination core. One control
// goroutine (Run) owns the polling tick and the reconciliation of probe
// outcomes; a bounded worker pool executes the blocking probes. The known
// and pending port sets are written only by the control goroutine; the
// state mutex exists so API reads can snapshot them.
type Engine struct {
	cfg      config.MonitorConfig
	logger   *utils.ServiceLogger
	enum     enumerate.PortEnumerator
	prober   probe.Prober
	log      *ResultLog
	notifier Notifier

	stateMu  sync.Mutex
	known    map[string]struct{}
	pending  map[string]struct{}
	lastTick time.Time

	jobs    chan string
	results chan completion

	monitoring atomic.Bool
}

// New creates a discovery engine. The worker pool and queue are sized from
// the monitor configuration.
func New(
	cfg config.MonitorConfig,
	enum enumerate.PortEnumerator,
	prober probe.Prober,
	log *ResultLog,
	notifier Notifier,
	logger *zap.Logger,
) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}

	return &Engine{
		cfg:      cfg,
		logger:   utils.NewServiceLogger(logger, "discovery-engine"),
		enum:     enum,
		prober:   prober,
		log:      log,
		notifier: notifier,
		known:    make(map[string]struct{}),
		pending:  make(map[string]struct{}),
		jobs:     make(chan string, cfg.QueueSize),
		results:  make(chan completion, cfg.QueueSize),
	}
}

// Log exposes the engine's result log.
func (e *Engine) Log() *ResultLog {
	return e.log
}

// Run starts the worker pool and the control loop, and blocks until ctx is
// canceled. Ticks that fire while a previous cycle is still executing are
// dropped by the ticker, never queued. Teardown does not wait for in-flight
// probes; their late completions are discarded once ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	for i := 0; i < e.cfg.Workers; i++ {
		go e.worker(ctx)
	}

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	e.logger.Info("Discovery engine running",
		zap.Duration("tick_interval", e.cfg.TickInterval),
		zap.Int("workers", e.cfg.Workers),
	)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Discovery engine stopped")
			return ctx.Err()
		case <-ticker.C:
			if e.monitoring.Load() {
				e.tick(ctx)
			}
		case c := <-e.results:
			e.reconcile(c)
		}
	}
}

// StartMonitoring enables the discovery tick. Returns false if monitoring
// was already active.
func (e *Engine) StartMonitoring() bool {
	if !e.monitoring.CompareAndSwap(false, true) {
		return false
	}
	e.logger.Info("Monitoring started")
	e.notifier.MonitorStateChanged(true)
	return true
}

// StopMonitoring halts future ticks and dispatch. Probes already in flight
// still reconcile when they complete.
func (e *Engine) StopMonitoring() bool {
	if !e.monitoring.CompareAndSwap(true, false) {
		return false
	}
	e.logger.Info("Monitoring stopped")
	e.notifier.MonitorStateChanged(false)
	return true
}

// IsMonitoring reports whether the discovery tick is active.
func (e *Engine) IsMonitoring() bool {
	return e.monitoring.Load()
}

// State returns a snapshot of the engine for the status API.
func (e *Engine) State() model.MonitorState {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	return model.MonitorState{
		Monitoring:   e.monitoring.Load(),
		KnownPorts:   sortedPorts(e.known),
		PendingPorts: sortedPorts(e.pending),
		RecordCount:  e.log.Len(),
		Workers:      e.cfg.Workers,
		LastTick:     e.lastTick,
		TickInterval: e.cfg.TickInterval.String(),
	}
}

// ClearAll empties the result log and recomputes the projection.
func (e *Engine) ClearAll() int {
	removed := e.log.ClearAll()
	e.logger.Info("Result log cleared", zap.Int("removed", removed))
	e.notifier.ProjectionChanged()
	return removed
}

// RemoveFailed drops failure records from the log.
func (e *Engine) RemoveFailed() int {
	removed := e.log.RemoveFailed()
	e.logger.Info("Failed records removed", zap.Int("removed", removed))
	e.notifier.ProjectionChanged()
	return removed
}

// RemoveDuplicates drops repeated MACs from the log, first seen wins.
func (e *Engine) RemoveDuplicates() int {
	removed := e.log.RemoveDuplicates()
	e.logger.Info("Duplicate records removed", zap.Int("removed", removed))
	e.notifier.ProjectionChanged()
	return removed
}

// tick runs one discovery cycle: enumerate, diff, dispatch appeared ports,
// drop bookkeeping for disappeared ones. Enumeration failure is treated as
// "no ports visible" and is never fatal.
func (e *Engine) tick(ctx context.Context) {
	ports, err := e.enum.ListPorts(ctx)
	if err != nil {
		e.logger.Warn("Port enumeration failed, treating as empty", zap.Error(err))
		ports = nil
	}
	current := portSet(ports)

	e.stateMu.Lock()
	appeared, disappeared := diffPorts(e.known, current)
	e.known = current
	for _, port := range disappeared {
		// Forget pending bookkeeping; an already-dispatched probe is
		// allowed to finish and its outcome still gets reconciled.
		delete(e.pending, port)
	}
	e.lastTick = time.Now()
	e.stateMu.Unlock()

	for _, port := range disappeared {
		e.logger.Info("Port disappeared", zap.String("port", port))
		e.notifier.PortChanged(port, false)
	}
	for _, port := range appeared {
		e.logger.Info("Port appeared", zap.String("port", port))
		e.notifier.PortChanged(port, true)
		e.dispatch(port)
	}
}

// dispatch submits a probe for a newly appeared port unless one is already
// pending for it. Submission never blocks the control loop: when the queue
// is full the port is dropped and will be probed again on reappearance.
func (e *Engine) dispatch(port string) {
	e.stateMu.Lock()
	if _, dup := e.pending[port]; dup {
		e.stateMu.Unlock()
		e.logger.Debug("Probe already pending, skipping dispatch", zap.String("port", port))
		return
	}
	e.pending[port] = struct{}{}
	e.stateMu.Unlock()

	select {
	case e.jobs <- port:
		e.logger.Debug("Probe dispatched", zap.String("port", port))
	default:
		e.stateMu.Lock()
		delete(e.pending, port)
		e.stateMu.Unlock()
		e.logger.Warn("Probe queue full, dropping port", zap.String("port", port))
	}
}

// worker executes probes from the job queue until ctx is canceled.
func (e *Engine) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case port := <-e.jobs:
			e.runProbe(ctx, port)
		}
	}
}

// runProbe invokes the probe capability for one port and hands the outcome
// to the control loop. A panicking prober is converted into a failure
// outcome; outcomes arriving after shutdown are dropped.
func (e *Engine) runProbe(ctx context.Context, port string) {
	result := e.safeProbe(ctx, port)

	select {
	case e.results <- completion{port: port, result: result}:
	case <-ctx.Done():
	}
}

// safeProbe shields the pool from a misbehaving probe implementation.
func (e *Engine) safeProbe(ctx context.Context, port string) (result probe.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Probe panicked",
				zap.String("port", port),
				zap.Any("panic", r),
			)
			result = probe.CommFailure(fmt.Errorf("probe panic: %v", r))
		}
	}()

	return e.prober.Probe(ctx, port)
}

// reconcile merges one asynchronous probe outcome into the result log. It
// runs only on the control goroutine: stamping, appending and the pending
// removal are a single-writer step.
func (e *Engine) reconcile(c completion) {
	e.stateMu.Lock()
	delete(e.pending, c.port) // idempotent; may already be gone
	e.stateMu.Unlock()

	record := model.ProbeRecord{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Port:      c.port,
		MAC:       c.result.MAC,
		Status:    c.result.Status,
		Detail:    c.result.Detail,
	}
	e.log.Append(record)

	e.logger.Info("Probe outcome reconciled",
		zap.String("port", record.Port),
		zap.String("mac", record.MAC),
		zap.String("status", string(record.Status)),
	)

	e.notifier.RecordAppended(record)
	e.notifier.ProjectionChanged()
}
