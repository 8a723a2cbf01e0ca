// internal/probe/esp/prober.go
package esp

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"macmon/internal/config"
	"macmon/internal/probe"
	"macmon/internal/utils"
)

// ROM loader opcodes.
const (
	opSync    = 0x08
	opReadReg = 0x0A

	dirRequest  = 0x00
	dirResponse = 0x01
)

// Prober speaks the ESP ROM bootloader protocol over a serial port to read
// the factory MAC address. One Prober is shared across all probe workers;
// each Probe call owns its port exclusively for the duration of the attempt.
type Prober struct {
	cfg    *config.ProbeConfig
	logger *zap.Logger
}

// New creates the ESP probe capability.
func New(cfg *config.ProbeConfig, logger *zap.Logger) *Prober {
	return &Prober{
		cfg:    cfg,
		logger: logger.With(zap.String("prober", "esp-rom")),
	}
}

// Probe attempts to read the MAC of the device behind port. All failures
// are converted into typed results; Probe never panics and never returns an
// error to the dispatcher.
func (p *Prober) Probe(ctx context.Context, port string) probe.Result {
	start := time.Now()
	plog := utils.NewProbeLogger(p.logger, port)

	session, err := p.open(port)
	if err != nil {
		plog.LogOutcome("setup_error", "", time.Since(start), err)
		return probe.SetupFailure(err)
	}
	defer session.Close()

	if err := session.EnterBootloader(ctx); err != nil {
		plog.LogOutcome("comm_error", "", time.Since(start), err)
		return probe.CommFailure(err)
	}

	if err := session.Sync(ctx, p.cfg.SyncAttempts); err != nil {
		plog.LogOutcome("comm_error", "", time.Since(start), err)
		return probe.CommFailure(err)
	}

	magic, err := session.ReadReg(chipDetectMagicReg)
	if err != nil {
		plog.LogOutcome("comm_error", "", time.Since(start), err)
		return probe.CommFailure(err)
	}

	chip, err := detectChip(magic)
	if err != nil {
		plog.LogOutcome("comm_error", "", time.Since(start), err)
		return probe.CommFailure(err)
	}

	mac, err := chip.ReadMAC(session)
	if err != nil {
		plog.LogOutcome("comm_error", "", time.Since(start), err)
		return probe.CommFailure(fmt.Errorf("%s: %w", chip.Name, err))
	}
	if mac == "" {
		plog.LogOutcome("not_found", "", time.Since(start), nil)
		return probe.NotFound()
	}

	plog.LogOutcome("ok", mac, time.Since(start), nil)
	return probe.OK(mac)
}

// open opens the serial port and configures timeouts.
func (p *Prober) open(port string) (*session, error) {
	mode := &serial.Mode{
		BaudRate: p.cfg.BaudRate,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}

	handle, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := handle.SetReadTimeout(p.cfg.ReadTimeout); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &session{port: handle, syncTimeout: p.cfg.SyncTimeout}, nil
}

// session is one ROM loader dialog with a single device.
type session struct {
	port        serial.Port
	syncTimeout time.Duration
}

// Close releases the serial port.
func (s *session) Close() error {
	return s.port.Close()
}

// EnterBootloader performs the classic DTR/RTS auto-reset dance that drops
// an auto-download board into its serial bootloader.
func (s *session) EnterBootloader(ctx context.Context) error {
	// IO0 low, EN low (reset asserted)
	if err := s.port.SetDTR(false); err != nil {
		return fmt.Errorf("set DTR: %w", err)
	}
	if err := s.port.SetRTS(true); err != nil {
		return fmt.Errorf("set RTS: %w", err)
	}
	if err := sleepCtx(ctx, 100*time.Millisecond); err != nil {
		return err
	}

	// Release reset with IO0 held low
	if err := s.port.SetDTR(true); err != nil {
		return fmt.Errorf("set DTR: %w", err)
	}
	if err := s.port.SetRTS(false); err != nil {
		return fmt.Errorf("set RTS: %w", err)
	}
	if err := sleepCtx(ctx, 50*time.Millisecond); err != nil {
		return err
	}

	if err := s.port.SetDTR(false); err != nil {
		return fmt.Errorf("set DTR: %w", err)
	}

	// Drop boot noise produced during reset.
	s.port.ResetInputBuffer()
	return nil
}

// Sync sends SYNC frames until the ROM answers or attempts run out.
func (s *session) Sync(ctx context.Context, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	payload := make([]byte, 36)
	copy(payload, []byte{0x07, 0x07, 0x12, 0x20})
	for i := 4; i < len(payload); i++ {
		payload[i] = 0x55
	}

	deadline := time.Now().Add(s.syncTimeout)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			break
		}

		if err := s.writeCommand(opSync, payload); err != nil {
			lastErr = err
			continue
		}

		if _, _, err := s.readResponse(opSync); err != nil {
			lastErr = err
			continue
		}

		// The ROM answers a successful sync several times over; drain
		// the repeats so they do not confuse the next command.
		for {
			if _, _, err := s.readResponse(opSync); err != nil {
				break
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no response")
	}
	return fmt.Errorf("sync failed after %d attempts: %w", attempts, lastErr)
}

// ReadReg reads a 32-bit register via the ROM loader.
func (s *session) ReadReg(addr uint32) (uint32, error) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, addr)

	if err := s.writeCommand(opReadReg, payload); err != nil {
		return 0, err
	}

	value, _, err := s.readResponse(opReadReg)
	if err != nil {
		return 0, fmt.Errorf("read_reg 0x%08x: %w", addr, err)
	}
	return value, nil
}

// writeCommand sends one SLIP-framed request packet.
func (s *session) writeCommand(op byte, payload []byte) error {
	packet := make([]byte, 8+len(payload))
	packet[0] = dirRequest
	packet[1] = op
	binary.LittleEndian.PutUint16(packet[2:4], uint16(len(payload)))
	// Checksum field stays zero: only data-phase commands use it.
	copy(packet[8:], payload)

	if _, err := s.port.Write(slipEncode(packet)); err != nil {
		return fmt.Errorf("write command 0x%02x: %w", op, err)
	}
	return nil
}

// readResponse reads frames until a response to the given opcode arrives.
// Returns the value word and the trailing data bytes.
func (s *session) readResponse(op byte) (uint32, []byte, error) {
	// A handful of frames is enough headroom for interleaved boot noise.
	for attempt := 0; attempt < 8; attempt++ {
		payload, err := readFrame(s.port)
		if err != nil {
			return 0, nil, err
		}
		if len(payload) < 8 || payload[0] != dirResponse {
			continue
		}
		if payload[1] != op {
			continue
		}

		size := binary.LittleEndian.Uint16(payload[2:4])
		value := binary.LittleEndian.Uint32(payload[4:8])
		data := payload[8:]
		if int(size) <= len(data) {
			data = data[:size]
		}

		// Trailing status bytes: first byte nonzero means failure.
		if len(data) >= 2 && data[len(data)-2] != 0 {
			return 0, nil, fmt.Errorf("command 0x%02x failed (rom error 0x%02x)", op, data[len(data)-1])
		}
		return value, data, nil
	}
	return 0, nil, fmt.Errorf("no response to command 0x%02x", op)
}

// sleepCtx sleeps unless the context is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
