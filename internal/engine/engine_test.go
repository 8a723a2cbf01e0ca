// internal/engine/engine_test.go
package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"macmon/internal/config"
	"macmon/internal/model"
	"macmon/internal/probe"
)

type stubEnumerator struct {
	mu    sync.Mutex
	ports []string
	err   error
}

func (s *stubEnumerator) ListPorts(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]string(nil), s.ports...), nil
}

func (s *stubEnumerator) set(ports ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ports = ports
	s.err = nil
}

func (s *stubEnumerator) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type stubProber struct {
	mu      sync.Mutex
	results map[string]probe.Result
}

func (s *stubProber) Probe(ctx context.Context, port string) probe.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res, ok := s.results[port]; ok {
		return res
	}
	return probe.NotFound()
}

type panicProber struct{}

func (panicProber) Probe(ctx context.Context, port string) probe.Result {
	panic("boom")
}

type recordingNotifier struct {
	mu          sync.Mutex
	appended    []model.ProbeRecord
	projections int
	states      []bool
	portEvents  []string
}

func (n *recordingNotifier) RecordAppended(r model.ProbeRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.appended = append(n.appended, r)
}

func (n *recordingNotifier) ProjectionChanged() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.projections++
}

func (n *recordingNotifier) MonitorStateChanged(monitoring bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, monitoring)
}

func (n *recordingNotifier) PortChanged(port string, appeared bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	event := "-" + port
	if appeared {
		event = "+" + port
	}
	n.portEvents = append(n.portEvents, event)
}

func (n *recordingNotifier) appendedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.appended)
}

func testMonitorConfig() config.MonitorConfig {
	return config.MonitorConfig{
		TickInterval: 10 * time.Millisecond,
		Workers:      2,
		QueueSize:    8,
	}
}

// newTestEngine wires an engine with stubs; the caller drives tick and
// reconcile directly for deterministic tests.
func newTestEngine(cfg config.MonitorConfig) (*Engine, *stubEnumerator, *stubProber, *recordingNotifier) {
	enum := &stubEnumerator{}
	prober := &stubProber{results: map[string]probe.Result{}}
	notifier := &recordingNotifier{}
	e := New(cfg, enum, prober, NewResultLog(), notifier, zap.NewNop())
	return e, enum, prober, notifier
}

func drainJobs(e *Engine) []string {
	var out []string
	for {
		select {
		case port := <-e.jobs:
			out = append(out, port)
		default:
			return out
		}
	}
}

func TestTickDispatchesAppearedPortsInOrder(t *testing.T) {
	e, enum, _, notifier := newTestEngine(testMonitorConfig())
	enum.set("/dev/ttyUSB2", "/dev/ttyUSB0", "/dev/ttyUSB1")

	e.tick(context.Background())

	assert.Equal(t,
		[]string{"/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyUSB2"},
		drainJobs(e),
	)

	state := e.State()
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyUSB2"}, state.KnownPorts)
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyUSB2"}, state.PendingPorts)
	assert.Equal(t, []string{"+/dev/ttyUSB0", "+/dev/ttyUSB1", "+/dev/ttyUSB2"}, notifier.portEvents)
	assert.False(t, state.LastTick.IsZero())
}

func TestStablePortsAreDispatchedOnce(t *testing.T) {
	e, enum, _, _ := newTestEngine(testMonitorConfig())
	enum.set("COM3")

	e.tick(context.Background())
	e.tick(context.Background())

	// Second tick sees no diff: COM3 stays known, no second job.
	assert.Equal(t, []string{"COM3"}, drainJobs(e))
}

func TestDispatchSkipsPendingPort(t *testing.T) {
	e, _, _, _ := newTestEngine(testMonitorConfig())

	e.dispatch("COM3")
	e.dispatch("COM3")

	assert.Equal(t, []string{"COM3"}, drainJobs(e))
}

func TestDispatchDropsPortWhenQueueFull(t *testing.T) {
	cfg := testMonitorConfig()
	cfg.QueueSize = 1
	e, _, _, _ := newTestEngine(cfg)

	e.dispatch("COM1")
	e.dispatch("COM2")

	assert.Equal(t, []string{"COM1"}, drainJobs(e))
	// The dropped port holds no pending claim, so it can dispatch again.
	assert.Equal(t, []string{"COM1"}, e.State().PendingPorts)
}

func TestDisappearanceClearsStateButKeepsLog(t *testing.T) {
	e, enum, _, notifier := newTestEngine(testMonitorConfig())
	enum.set("COM3")
	e.tick(context.Background())
	drainJobs(e)

	e.reconcile(completion{port: "COM3", result: probe.OK("aa:bb:cc:dd:ee:ff")})
	require.Equal(t, 1, e.Log().Len())

	enum.set()
	e.tick(context.Background())

	state := e.State()
	assert.Empty(t, state.KnownPorts)
	assert.Empty(t, state.PendingPorts)
	assert.Equal(t, 1, e.Log().Len())
	assert.Contains(t, notifier.portEvents, "-COM3")
}

func TestLateCompletionAfterDisappearanceStillAppends(t *testing.T) {
	e, enum, _, notifier := newTestEngine(testMonitorConfig())
	enum.set("COM3")
	e.tick(context.Background())
	port := drainJobs(e)
	require.Equal(t, []string{"COM3"}, port)

	// The port vanishes while its probe is still in flight.
	enum.set()
	e.tick(context.Background())
	assert.Empty(t, e.State().PendingPorts)

	e.reconcile(completion{port: "COM3", result: probe.CommFailure(errors.New("sync timeout"))})

	require.Equal(t, 1, e.Log().Len())
	record := e.Log().Snapshot()[0]
	assert.Equal(t, "COM3", record.Port)
	assert.Equal(t, model.StatusCommError, record.Status)
	assert.Equal(t, 1, notifier.appendedCount())
}

func TestEnumerationFailureTreatedAsEmpty(t *testing.T) {
	e, enum, _, _ := newTestEngine(testMonitorConfig())
	enum.set("COM3")
	e.tick(context.Background())
	drainJobs(e)

	enum.fail(errors.New("subsystem unavailable"))
	e.tick(context.Background())

	state := e.State()
	assert.Empty(t, state.KnownPorts)
	assert.Empty(t, state.PendingPorts)
}

func TestReconcileStampsRecord(t *testing.T) {
	e, _, _, notifier := newTestEngine(testMonitorConfig())

	before := time.Now()
	e.reconcile(completion{port: "COM7", result: probe.OK("24:6f:28:00:11:22")})

	require.Equal(t, 1, e.Log().Len())
	record := e.Log().Snapshot()[0]
	assert.NotEqual(t, [16]byte{}, [16]byte(record.ID))
	assert.False(t, record.Timestamp.Before(before))
	assert.Equal(t, "COM7", record.Port)
	assert.Equal(t, "24:6f:28:00:11:22", record.MAC)
	assert.Equal(t, model.StatusOK, record.Status)
	assert.Equal(t, 1, notifier.appendedCount())
	assert.Equal(t, 1, notifier.projections)
}

func TestSafeProbeRecoversPanic(t *testing.T) {
	e, _, _, _ := newTestEngine(testMonitorConfig())
	e.prober = panicProber{}

	result := e.safeProbe(context.Background(), "COM1")
	assert.Equal(t, model.StatusCommError, result.Status)
	assert.Contains(t, result.Detail, "boom")
}

func TestStartStopMonitoring(t *testing.T) {
	e, _, _, notifier := newTestEngine(testMonitorConfig())

	assert.False(t, e.IsMonitoring())
	assert.True(t, e.StartMonitoring())
	assert.False(t, e.StartMonitoring())
	assert.True(t, e.IsMonitoring())

	assert.True(t, e.StopMonitoring())
	assert.False(t, e.StopMonitoring())
	assert.False(t, e.IsMonitoring())

	assert.Equal(t, []bool{true, false}, notifier.states)
}

func TestBulkMutationsNotifyProjection(t *testing.T) {
	e, _, _, notifier := newTestEngine(testMonitorConfig())
	e.reconcile(completion{port: "COM1", result: probe.OK("aa")})
	e.reconcile(completion{port: "COM2", result: probe.OK("aa")})
	e.reconcile(completion{port: "COM3", result: probe.NotFound()})
	baseline := notifier.projections

	assert.Equal(t, 1, e.RemoveDuplicates())
	assert.Equal(t, 1, e.RemoveFailed())
	assert.Equal(t, 1, e.ClearAll())
	assert.Equal(t, baseline+3, notifier.projections)
}

func TestRunEndToEnd(t *testing.T) {
	e, enum, prober, _ := newTestEngine(testMonitorConfig())
	prober.results["/dev/ttyUSB0"] = probe.OK("aa:bb:cc:dd:ee:ff")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	e.StartMonitoring()
	enum.set("/dev/ttyUSB0")

	require.Eventually(t, func() bool {
		return e.Log().Len() == 1
	}, 2*time.Second, 5*time.Millisecond)

	record := e.Log().Snapshot()[0]
	assert.Equal(t, "/dev/ttyUSB0", record.Port)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", record.MAC)
	assert.Equal(t, model.StatusOK, record.Status)

	state := e.State()
	assert.Equal(t, []string{"/dev/ttyUSB0"}, state.KnownPorts)
	assert.Empty(t, state.PendingPorts)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop after cancel")
	}
}
