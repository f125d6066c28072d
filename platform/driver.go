package platform

import (
	"fmt"
	"strings"

	"github.com/netopsctl/nbsync/domain/entities"
	"github.com/netopsctl/nbsync/domain/ports"
	"github.com/netopsctl/nbsync/platform/ios"
	"github.com/netopsctl/nbsync/platform/iosxe"
	"github.com/netopsctl/nbsync/platform/nxos"
)

// SwitchDriver defines the behaviour required to support a switching platform.
type SwitchDriver interface {
	Name() string
	Detect(repo ports.SwitchRepository) (bool, error)

	// GetAuthenticationSequence returns the login sequence for this platform
	GetAuthenticationSequence(username, password, enablePassword string) []entities.AuthPrompt

	// RunningConfig fetches and parses the per-interface running configuration
	RunningConfig(repo ports.SwitchRepository) (map[string]entities.InterfaceProfile, error)

	// VLANIDs returns the 802.1Q IDs configured on the switch
	VLANIDs(repo ports.SwitchRepository) (map[int]bool, error)
}

var registry = []SwitchDriver{
	iosxe.New(),
	ios.New(),
	nxos.New(),
}

// Get returns a driver by normalized platform name.
func Get(name string) (SwitchDriver, error) {
	normalized := normalizeName(name)
	for _, driver := range registry {
		if driver.Name() == normalized {
			return driver, nil
		}
	}
	return nil, fmt.Errorf("unknown switch platform: %s", name)
}

// Available returns all registered drivers.
func Available() []SwitchDriver {
	out := make([]SwitchDriver, len(registry))
	copy(out, registry)
	return out
}

// Detect tries all registered drivers until one matches.
func Detect(repo ports.SwitchRepository) (SwitchDriver, error) {
	var lastErr error
	for _, driver := range registry {
		matched, err := driver.Detect(repo)
		if err != nil {
			lastErr = err
			continue
		}
		if matched {
			return driver, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to detect switch platform")
}

// Resolve maps an inventory platform slug/name onto a driver name,
// returning "auto" when no mapping is known.
func Resolve(slug, name string) string {
	slug = normalizeName(slug)
	lowered := strings.ToLower(name)
	switch {
	case strings.Contains(slug, "iosxe"), strings.Contains(slug, "ios-xe"), strings.Contains(lowered, "ios xe"):
		return "iosxe"
	case strings.Contains(slug, "nxos"), strings.Contains(slug, "nx-os"), strings.Contains(lowered, "nx-os"):
		return "nxos"
	case strings.Contains(slug, "ios"), strings.Contains(lowered, "ios"):
		return "ios"
	}
	return "auto"
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
