// Package iosxe supports Cisco IOS-XE switches. The configuration dialect
// matches classic IOS, so parsing is shared with the ios driver.
package iosxe

import (
	"strings"

	"github.com/netopsctl/nbsync/domain/ports"
	"github.com/netopsctl/nbsync/platform/ios"
)

const driverName = "iosxe"

// Driver implements the SwitchDriver behaviour for IOS-XE switches.
type Driver struct {
	*ios.Driver
}

// New creates a new IOS-XE driver instance.
func New() *Driver {
	return &Driver{Driver: ios.New()}
}

// Name returns the canonical platform identifier.
func (d *Driver) Name() string {
	return driverName
}

// Detect inspects the device to determine whether it is running IOS-XE.
func (d *Driver) Detect(repo ports.SwitchRepository) (bool, error) {
	if !repo.IsConnected() {
		if err := repo.Connect(); err != nil {
			return false, err
		}
	}
	output, err := repo.ExecuteCommand("show version")
	if err != nil {
		return false, err
	}
	lowered := strings.ToLower(output)
	return strings.Contains(lowered, "ios xe") || strings.Contains(lowered, "ios-xe"), nil
}
