// internal/enumerate/usb/database.go
package usb

import (
	"github.com/google/gousb"
)

// BridgeDatabase contains known USB-to-UART bridge chips. Ports backed by
// one of these are the ones a development board normally shows up behind.
type BridgeDatabase struct {
	vendors map[gousb.ID]*VendorInfo
}

// VendorInfo contains vendor-specific information
type VendorInfo struct {
	Name     string
	products map[gousb.ID]*ProductInfo
}

// ProductInfo contains product-specific information
type ProductInfo struct {
	Model string
}

// NewBridgeDatabase creates and initializes the bridge database
func NewBridgeDatabase() *BridgeDatabase {
	db := &BridgeDatabase{
		vendors: make(map[gousb.ID]*VendorInfo),
	}
	db.initializeDatabase()
	return db
}

// initializeDatabase populates the known bridge chips
func (db *BridgeDatabase) initializeDatabase() {
	// Silicon Labs (0x10C4) - CP210x family
	silabs := &VendorInfo{
		Name:     "Silicon Laboratories",
		products: make(map[gousb.ID]*ProductInfo),
	}
	silabs.products[0xEA60] = &ProductInfo{Model: "CP2102/CP2109"}
	silabs.products[0xEA70] = &ProductInfo{Model: "CP2105"}
	silabs.products[0xEA71] = &ProductInfo{Model: "CP2108"}
	db.vendors[0x10C4] = silabs

	// QinHeng Electronics (0x1A86) - CH34x family
	qinheng := &VendorInfo{
		Name:     "QinHeng Electronics",
		products: make(map[gousb.ID]*ProductInfo),
	}
	qinheng.products[0x7523] = &ProductInfo{Model: "CH340"}
	qinheng.products[0x5523] = &ProductInfo{Model: "CH341"}
	qinheng.products[0x55D4] = &ProductInfo{Model: "CH9102"}
	db.vendors[0x1A86] = qinheng

	// FTDI (0x0403)
	ftdi := &VendorInfo{
		Name:     "Future Technology Devices International",
		products: make(map[gousb.ID]*ProductInfo),
	}
	ftdi.products[0x6001] = &ProductInfo{Model: "FT232R"}
	ftdi.products[0x6010] = &ProductInfo{Model: "FT2232H"}
	ftdi.products[0x6014] = &ProductInfo{Model: "FT232H"}
	ftdi.products[0x6015] = &ProductInfo{Model: "FT231X"}
	db.vendors[0x0403] = ftdi

	// Prolific (0x067B)
	prolific := &VendorInfo{
		Name:     "Prolific Technology",
		products: make(map[gousb.ID]*ProductInfo),
	}
	prolific.products[0x2303] = &ProductInfo{Model: "PL2303"}
	prolific.products[0x23A3] = &ProductInfo{Model: "PL2303GC"}
	db.vendors[0x067B] = prolific

	// Espressif (0x303A) - native USB serial/JTAG on newer chips
	espressif := &VendorInfo{
		Name:     "Espressif Systems",
		products: make(map[gousb.ID]*ProductInfo),
	}
	espressif.products[0x1001] = &ProductInfo{Model: "USB-Serial/JTAG"}
	espressif.products[0x0002] = &ProductInfo{Model: "ESP32-S2 CDC"}
	db.vendors[0x303A] = espressif
}

// IsKnownVendor checks if a vendor ID is in the database
func (db *BridgeDatabase) IsKnownVendor(vendorID gousb.ID) bool {
	_, exists := db.vendors[vendorID]
	return exists
}

// GetVendorInfo retrieves vendor information
func (db *BridgeDatabase) GetVendorInfo(vendorID gousb.ID) *VendorInfo {
	return db.vendors[vendorID]
}

// GetProductInfo retrieves product information from vendor
func (vi *VendorInfo) GetProductInfo(productID gousb.ID) *ProductInfo {
	return vi.products[productID]
}
