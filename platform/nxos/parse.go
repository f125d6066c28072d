package nxos

import (
	"strings"

	"github.com/netopsctl/nbsync/domain/entities"
	"github.com/netopsctl/nbsync/platform/ios"
)

// ParseRunningConfig extracts interface profiles from NX-OS output.
// NX-OS does not delimit blocks with `!`; an interface block runs from an
// unindented `interface` line to the next unindented line. Statement
// syntax inside a block matches IOS, so field extraction is shared.
func ParseRunningConfig(output string) map[string]entities.InterfaceProfile {
	profiles := make(map[string]entities.InterfaceProfile)
	var rawName string
	var body []string

	flush := func() {
		if rawName == "" {
			return
		}
		profile := ios.ParseInterfaceBlock(rawName, strings.Join(body, "\n"))
		profiles[profile.Name] = profile
		rawName = ""
		body = nil
	}

	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indented := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
		if !indented {
			flush()
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(strings.ToLower(trimmed), "interface ") {
				rawName = strings.TrimSpace(trimmed[len("interface "):])
			}
			continue
		}
		if rawName != "" {
			body = append(body, line)
		}
	}
	flush()
	return profiles
}
