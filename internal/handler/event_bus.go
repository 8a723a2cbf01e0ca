// internal/handler/event_bus.go
package handler

import (
	"time"

	"go.uber.org/zap"

	"macmon/internal/model"
)

// EventBus decouples the discovery engine from WebSocket delivery. The
// engine publishes from its control loop and must never block; slow or
// absent consumers cost events, not latency.
type EventBus struct {
	events chan model.MonitorEvent
	logger *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		events: make(chan model.MonitorEvent, 1000),
		logger: logger,
	}
}

// Publish queues an event for distribution; full bus drops the event.
func (eb *EventBus) Publish(event model.MonitorEvent) {
	select {
	case eb.events <- event:
	default:
		if eb.logger != nil {
			eb.logger.Warn("Event bus full, dropping event",
				zap.String("event_type", string(event.EventType)),
			)
		}
	}
}

// Events returns the distribution channel consumed by the broadcaster.
func (eb *EventBus) Events() <-chan model.MonitorEvent {
	return eb.events
}

// EngineNotifier adapts engine notifications into bus events.
type EngineNotifier struct {
	bus *EventBus
}

// NewEngineNotifier creates a notifier publishing onto the given bus.
func NewEngineNotifier(bus *EventBus) *EngineNotifier {
	return &EngineNotifier{bus: bus}
}

// RecordAppended publishes a record-appended event.
func (n *EngineNotifier) RecordAppended(record model.ProbeRecord) {
	n.bus.Publish(model.MonitorEvent{
		EventType: model.EventRecordAppended,
		Port:      record.Port,
		Record:    &record,
		Timestamp: time.Now(),
		Source:    "discovery-engine",
	})
}

// ProjectionChanged publishes a projection-changed event. Consumers refetch
// their filtered view; the event itself carries no records.
func (n *EngineNotifier) ProjectionChanged() {
	n.bus.Publish(model.MonitorEvent{
		EventType: model.EventProjectionChanged,
		Timestamp: time.Now(),
		Source:    "discovery-engine",
	})
}

// MonitorStateChanged publishes a monitor start or stop event.
func (n *EngineNotifier) MonitorStateChanged(monitoring bool) {
	eventType := model.EventMonitorStopped
	if monitoring {
		eventType = model.EventMonitorStarted
	}
	n.bus.Publish(model.MonitorEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		Source:    "discovery-engine",
	})
}

// PortChanged publishes a port appearance or disappearance event.
func (n *EngineNotifier) PortChanged(port string, appeared bool) {
	eventType := model.EventPortDisappeared
	if appeared {
		eventType = model.EventPortAppeared
	}
	n.bus.Publish(model.MonitorEvent{
		EventType: eventType,
		Port:      port,
		Timestamp: time.Now(),
		Source:    "discovery-engine",
	})
}
