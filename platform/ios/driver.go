package ios

import (
	"fmt"
	"strings"

	"github.com/netopsctl/nbsync/domain/entities"
	"github.com/netopsctl/nbsync/domain/ports"
	"github.com/netopsctl/nbsync/logger"
)

const driverName = "ios"

var log = logger.GetLogger("platform/ios")

// Driver implements the SwitchDriver behaviour for Cisco IOS switches.
type Driver struct{}

// New creates a new IOS driver instance.
func New() *Driver {
	return &Driver{}
}

// Name returns the canonical platform identifier.
func (d *Driver) Name() string {
	return driverName
}

// Detect inspects the device to determine whether it is running classic IOS.
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
	if strings.Contains(lowered, "ios xe") || strings.Contains(lowered, "ios-xe") {
		return false, nil
	}
	return strings.Contains(lowered, "cisco ios"), nil
}

// GetAuthenticationSequence returns the IOS login prompt sequence.
func (d *Driver) GetAuthenticationSequence(username, password, enablePassword string) []entities.AuthPrompt {
	return []entities.AuthPrompt{
		{WaitFor: "Username:", SendCmd: username + "\n"},
		{WaitFor: "Password:", SendCmd: password + "\n"},
		{WaitFor: ">", SendCmd: "enable\n"},
		{WaitFor: "Password:", SendCmd: enablePassword + "\n"},
		{WaitFor: "#", SendCmd: "terminal length 0\n"},
		{WaitFor: "#", SendCmd: ""},
	}
}

// RunningConfig fetches the running configuration and parses its
// interface blocks. `show running-config all` is preferred so defaulted
// statements are visible; older images only accept the short form.
func (d *Driver) RunningConfig(repo ports.SwitchRepository) (map[string]entities.InterfaceProfile, error) {
	commands := []string{"show running-config all", "show running-config"}
	var lastErr error
	for _, cmd := range commands {
		output, err := repo.ExecuteCommand(cmd)
		if err != nil {
			lastErr = err
			continue
		}
		if IsCommandError(output) {
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
	commands := []string{"show vlan brief", "show vlan"}
	var lastErr error
	for _, cmd := range commands {
		output, err := repo.ExecuteCommand(cmd)
		if err != nil {
			lastErr = err
			continue
		}
		vlans := ParseVLANBrief(output)
		if len(vlans) > 0 {
			log.Debugf("Existing VLANs detected using '%s': %v", cmd, vlans)
			return vlans, nil
		}
		if IsCommandError(output) {
			lastErr = fmt.Errorf("command '%s' unsupported by switch", cmd)
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("failed to retrieve VLAN list: %w", lastErr)
	}
	return map[int]bool{}, nil
}
