// internal/model/event.go
package model

import (
	"time"
)

// EventType represents the type of monitor event
type EventType string

const (
	EventRecordAppended    EventType = "RECORD_APPENDED"
	EventProjectionChanged EventType = "PROJECTION_CHANGED"
	EventMonitorStarted    EventType = "MONITOR_STARTED"
	EventMonitorStopped    EventType = "MONITOR_STOPPED"
	EventPortAppeared      EventType = "PORT_APPEARED"
	EventPortDisappeared   EventType = "PORT_DISAPPEARED"
)

// MonitorEvent is a notification emitted by the discovery engine for
// presentation collaborators.
type MonitorEvent struct {
	EventType EventType              `json:"event_type"`
	Port      string                 `json:"port,omitempty"`
	Record    *ProbeRecord           `json:"record,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
}

// MonitorState is the engine status snapshot reported on the API.
type MonitorState struct {
	Monitoring   bool      `json:"monitoring"`
	KnownPorts   []string  `json:"known_ports"`
	PendingPorts []string  `json:"pending_ports"`
	RecordCount  int       `json:"record_count"`
	Workers      int       `json:"workers"`
	LastTick     time.Time `json:"last_tick,omitempty"`
	TickInterval string    `json:"tick_interval"`
}
