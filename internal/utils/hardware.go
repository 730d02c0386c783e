package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
)

// ShopID is the persistence scope for this terminal: every collection
// snapshot is stored under it, locally and on the sync API. SHOP_ID from the
// environment wins; otherwise we derive a stable ID from the machine's MAC
// address so a fresh install lands on the same shop data after a reinstall.
func ShopID() string {
	if id := os.Getenv("SHOP_ID"); id != "" {
		return id
	}
	return deviceID()
}

// deviceID reads the physical MAC address of the machine and hashes it
// so logs and sync URLs show a clean, standard ID like "SHOP-A1B2C3D4"
func deviceID() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "SHOP-UNKNOWN"
	}

	var macAddress string
	for _, i := range interfaces {
		// Find the first active physical network interface
		if i.Flags&net.FlagUp != 0 && len(i.HardwareAddr) > 0 {
			macAddress = i.HardwareAddr.String()
			break
		}
	}

	if macAddress == "" {
		return "SHOP-UNKNOWN"
	}

	hash := sha256.Sum256([]byte(macAddress + "POS-LEDGER-SALT"))
	hashString := hex.EncodeToString(hash[:])

	// Clean 8-character ID
	return "SHOP-" + strings.ToUpper(hashString[:8])
}
