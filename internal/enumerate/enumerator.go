// internal/enumerate/enumerator.go
package enumerate

import (
	"context"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// PortEnumerator returns the set of addressable serial ports at a point in
// time. Implementations must be fast relative to the discovery tick cadence.
type PortEnumerator interface {
	ListPorts(ctx context.Context) ([]string, error)
}

// SerialEnumerator enumerates host serial ports.
type SerialEnumerator struct {
	logger *zap.Logger
}

// NewSerialEnumerator creates a serial port enumerator.
func NewSerialEnumerator(logger *zap.Logger) *SerialEnumerator {
	return &SerialEnumerator{
		logger: logger.With(zap.String("enumerator", "serial")),
	}
}

// ListPorts returns the currently visible serial port names.
func (e *SerialEnumerator) ListPorts(_ context.Context) ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Serial ports enumerated", zap.Int("count", len(ports)))
	return ports, nil
}
