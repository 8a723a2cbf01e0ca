// internal/probe/esp/chips.go
package esp

import (
	"fmt"

	"macmon/internal/model"
)

// chipDetectMagicReg holds a per-silicon magic value the ROM exposes; it is
// how the chip family is identified before any efuse layout is assumed.
const chipDetectMagicReg = 0x40001000

// regReader reads a 32-bit register on the connected chip.
type regReader interface {
	ReadReg(addr uint32) (uint32, error)
}

// chipProfile describes one supported chip family: its detection magic
// values and how to assemble the factory MAC from efuse registers. Exactly
// one profile is selected per session, right after sync.
type chipProfile struct {
	Name        string
	MagicValues []uint32
	ReadMAC     func(r regReader) (string, error)
}

// chipProfiles is the supported chip table, checked in order.
var chipProfiles = []chipProfile{
	{
		Name:        "ESP32",
		MagicValues: []uint32{0x00F01D83},
		ReadMAC:     macFromEfusePair(0x3FF5A004),
	},
	{
		Name:        "ESP32-S2",
		MagicValues: []uint32{0x000007C6},
		ReadMAC:     macFromEfusePair(0x3F41A044),
	},
	{
		Name:        "ESP32-S3",
		MagicValues: []uint32{0x00000009},
		ReadMAC:     macFromEfusePair(0x60007044),
	},
	{
		Name:        "ESP32-C3",
		MagicValues: []uint32{0x6921506F, 0x1B31506F},
		ReadMAC:     macFromEfusePair(0x60008844),
	},
	{
		Name:        "ESP32-C6",
		MagicValues: []uint32{0x2CE0806F},
		ReadMAC:     macFromEfusePair(0x600B0844),
	},
	{
		Name:        "ESP8266",
		MagicValues: []uint32{0xFFF0C101},
		ReadMAC:     esp8266MAC,
	},
}

// detectChip maps a magic register value to a chip profile.
func detectChip(magic uint32) (*chipProfile, error) {
	for i := range chipProfiles {
		for _, m := range chipProfiles[i].MagicValues {
			if m == magic {
				return &chipProfiles[i], nil
			}
		}
	}
	return nil, fmt.Errorf("unsupported chip (magic 0x%08x)", magic)
}

// macFromEfusePair builds a MAC reader for chips that store the 48-bit
// factory address across two consecutive efuse words: the low word at
// lowReg, the high 16 bits at lowReg+4.
func macFromEfusePair(lowReg uint32) func(r regReader) (string, error) {
	return func(r regReader) (string, error) {
		low, err := r.ReadReg(lowReg)
		if err != nil {
			return "", fmt.Errorf("read mac low word: %w", err)
		}
		high, err := r.ReadReg(lowReg + 4)
		if err != nil {
			return "", fmt.Errorf("read mac high word: %w", err)
		}

		bits := (uint64(high&0xFFFF) << 32) | uint64(low)
		if bits == 0 {
			return "", nil
		}
		raw := []byte{
			byte(bits >> 40), byte(bits >> 32), byte(bits >> 24),
			byte(bits >> 16), byte(bits >> 8), byte(bits),
		}
		return model.FormatMAC(raw), nil
	}
}

// esp8266MAC assembles the station MAC from the ESP8266's id registers,
// including the vendor-prefix selection quirk of the original silicon.
func esp8266MAC(r regReader) (string, error) {
	mac0, err := r.ReadReg(0x3FF00050)
	if err != nil {
		return "", fmt.Errorf("read mac0: %w", err)
	}
	mac1, err := r.ReadReg(0x3FF00054)
	if err != nil {
		return "", fmt.Errorf("read mac1: %w", err)
	}
	mac3, err := r.ReadReg(0x3FF0005C)
	if err != nil {
		return "", fmt.Errorf("read mac3: %w", err)
	}

	var oui [3]byte
	switch {
	case mac3 != 0:
		oui = [3]byte{byte(mac3 >> 16), byte(mac3 >> 8), byte(mac3)}
	case (mac1>>16)&0xFF == 0:
		oui = [3]byte{0x18, 0xFE, 0x34}
	case (mac1>>16)&0xFF == 1:
		oui = [3]byte{0xAC, 0xD0, 0x74}
	default:
		return "", fmt.Errorf("unknown OUI selector %d", (mac1>>16)&0xFF)
	}

	raw := []byte{
		oui[0], oui[1], oui[2],
		byte(mac1 >> 8), byte(mac1), byte(mac0 >> 24),
	}
	return model.FormatMAC(raw), nil
}
