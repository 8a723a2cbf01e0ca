// internal/enumerate/usb/resolver.go
package usb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"
)

// Bridge describes one attached USB-to-UART bridge device.
type Bridge struct {
	VendorID  string `json:"vendor_id"`
	ProductID string `json:"product_id"`
	Vendor    string `json:"vendor"`
	Model     string `json:"model"`
	Bus       int    `json:"bus"`
	Address   int    `json:"address"`
}

// Resolver inventories attached USB-to-UART bridges. It is diagnostics
// support for the discovery engine: a mismatch between visible serial ports
// and attached bridges usually means a driver or permission problem.
type Resolver struct {
	logger  *zap.Logger
	known   *BridgeDatabase
	timeout time.Duration
}

// NewResolver creates a USB bridge resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{
		logger:  logger.With(zap.String("resolver", "usb-bridge")),
		known:   NewBridgeDatabase(),
		timeout: 5 * time.Second,
	}
}

// ListBridges enumerates attached bridges. Failures are soft: hosts without
// libusb access simply report an empty inventory and an error the caller may
// surface, never interrupting discovery.
func (r *Resolver) ListBridges(ctx context.Context) ([]Bridge, error) {
	_, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			r.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()

	var bridges []Bridge
	devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if !r.known.IsKnownVendor(desc.Vendor) {
			return false
		}
		bridges = append(bridges, r.describe(desc))
		// Inventory only needs descriptors; never claim the device.
		return false
	})
	for _, dev := range devices {
		dev.Close()
	}
	if err != nil {
		r.logger.Warn("USB enumeration failed", zap.Error(err))
		return nil, fmt.Errorf("usb enumeration failed: %w", err)
	}

	r.logger.Debug("USB bridge inventory complete", zap.Int("bridges", len(bridges)))
	return bridges, nil
}

// describe builds a Bridge from a USB device descriptor.
func (r *Resolver) describe(desc *gousb.DeviceDesc) Bridge {
	bridge := Bridge{
		VendorID:  fmt.Sprintf("0x%04X", uint16(desc.Vendor)),
		ProductID: fmt.Sprintf("0x%04X", uint16(desc.Product)),
		Bus:       desc.Bus,
		Address:   desc.Address,
		Model:     "unknown",
	}

	vendor := r.known.GetVendorInfo(desc.Vendor)
	if vendor == nil {
		return bridge
	}
	bridge.Vendor = vendor.Name
	if product := vendor.GetProductInfo(desc.Product); product != nil {
		bridge.Model = product.Model
	}
	return bridge
}
