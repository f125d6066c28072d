package nxos

import (
	"fmt"
	"strings"

	"github.com/netopsctl/nbsync/domain/entities"
	"github.com/netopsctl/nbsync/domain/ports"
	"github.com/netopsctl/nbsync/logger"
	"github.com/netopsctl/nbsync/platform/ios"
)

const driverName = "nxos"

var log = logger.GetLogger("platform/nxos")

// Driver implements the SwitchDriver behaviour for Cisco NX-OS switches.
type Driver struct{}

// New creates a new NX-OS driver instance.
func New() *Driver {
	return &Driver{}
}

// Name returns the canonical platform identifier.
func (d *Driver) Name() string {
	return driverName
}

// Detect inspects the device to determine whether it is running NX-OS.
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
	return strings.Contains(lowered, "nx-os") || strings.Contains(lowered, "nexus"), nil
}

// GetAuthenticationSequence returns the NX-OS login prompt sequence.
// NX-OS drops straight into privileged mode, no enable step.
func (d *Driver) GetAuthenticationSequence(username, password, enablePassword string) []entities.AuthPrompt {
	return []entities.AuthPrompt{
		{WaitFor: "login:", SendCmd: username + "\n"},
		{WaitFor: "Password:", SendCmd: password + "\n"},
		{WaitFor: "#", SendCmd: "terminal length 0\n"},
		{WaitFor: "#", SendCmd: ""},
	}
}

// RunningConfig fetches the running configuration and parses its
// interface blocks.
func (d *Driver) RunningConfig(repo ports.SwitchRepository) (map[string]entities.InterfaceProfile, error) {
	commands := []string{"show running-config all", "show running-config"}
	var lastErr error
	for _, cmd := range commands {
		output, err := repo.ExecuteCommand(cmd)
		if err != nil {
			lastErr = err
			continue
		}
		if ios.IsCommandError(output) {
			lastErr = fmt.Errorf("command '%s' unsupported by switch", cmd)
			continue
		}
		profiles := ParseRunningConfig(output)
		log.Debugf("Parsed %d interfaces using '%s'", len(profiles), cmd)
		return profiles, nil
	}
	return nil, fmt.Errorf("failed to retrieve running configuration: %w", lastErr)
}

// VLANIDs retrieves the VLANs configured on the switch.
func (d *Driver) VLANIDs(repo ports.SwitchRepository) (map[int]bool, error) {
	output, err := repo.ExecuteCommand("show vlan brief")
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve VLAN list: %w", err)
	}
	return ios.ParseVLANBrief(output), nil
}
