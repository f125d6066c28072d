package ios

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/netopsctl/nbsync/domain/entities"
)

var (
	shutdownRegex     = regexp.MustCompile(`(?m)^\s*shutdown\b`)
	descriptionRegex  = regexp.MustCompile(`(?m)^\s*description (.*)$`)
	voiceVlanRegex    = regexp.MustCompile(`(?m)^\s*switchport voice vlan (\d+)`)
	channelGroupRegex = regexp.MustCompile(`(?m)^\s*channel-group (\d+) mode`)
	trunkModeRegex    = regexp.MustCompile(`(?m)^\s*switchport mode trunk\s*$`)
	accessModeRegex   = regexp.MustCompile(`(?m)^\s*switchport mode access\s*$`)
	nativeVlanRegex   = regexp.MustCompile(`(?m)^\s*switchport trunk native vlan (\d+)`)
	allowedVlanRegex  = regexp.MustCompile(`switchport trunk allowed vlan (?:add )?([\d,-]+)`)
	accessVlanRegex   = regexp.MustCompile(`(?m)^\s*switchport access vlan (\d+)`)
	vlanLineRegex     = regexp.MustCompile(`(?i)^\s*(?:vlan\s+)?(\d{1,4})\b`)

	commandErrHints = []string{
		"invalid input",
		"unknown command",
		"incomplete command",
		"ambiguous command",
		"unrecognized command",
		"invalid command",
		"syntax error",
		"cannot find command",
	}
)

// ParseRunningConfig splits a running configuration into its `!` delimited
// blocks and extracts a profile for every interface block found.
func ParseRunningConfig(output string) map[string]entities.InterfaceProfile {
	profiles := make(map[string]entities.InterfaceProfile)
	for _, block := range strings.Split(output, "!") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) == 0 {
			continue
		}
		first := strings.TrimSpace(lines[0])
		if !strings.HasPrefix(strings.ToLower(first), "interface ") {
			continue
		}
		rawName := strings.TrimSpace(first[len("interface "):])
		if rawName == "" {
			continue
		}
		profile := ParseInterfaceBlock(rawName, strings.Join(lines[1:], "\n"))
		profiles[profile.Name] = profile
	}
	return profiles
}

// ParseInterfaceBlock extracts an interface profile from the body of a
// single interface block. The body excludes the leading `interface` line.
func ParseInterfaceBlock(rawName, body string) entities.InterfaceProfile {
	profile := entities.InterfaceProfile{
		Name:    entities.NormalizeInterfaceName(rawName),
		Enabled: !shutdownRegex.MatchString(body),
	}
	if strings.HasPrefix(strings.ToLower(profile.Name), "po") {
		profile.PortChannelParent = true
	}

	if match := descriptionRegex.FindStringSubmatch(body); len(match) == 2 {
		profile.Description = strings.TrimSpace(match[1])
	}
	if match := voiceVlanRegex.FindStringSubmatch(body); len(match) == 2 {
		profile.VoiceVLAN, _ = strconv.Atoi(match[1])
	}
	if match := channelGroupRegex.FindStringSubmatch(body); len(match) == 2 {
		profile.ChannelGroup = match[1]
	}

	// Explicit mode statements win; otherwise infer from vlan statements,
	// defaulting to access.
	switch {
	case trunkModeRegex.MatchString(body):
		profile.Mode = entities.ModeTrunk
	case accessModeRegex.MatchString(body):
		profile.Mode = entities.ModeAccess
	case allowedVlanRegex.MatchString(body):
		profile.Mode = entities.ModeTrunk
	default:
		profile.Mode = entities.ModeAccess
	}

	if profile.Mode == entities.ModeTrunk {
		if match := nativeVlanRegex.FindStringSubmatch(body); len(match) == 2 {
			profile.NativeVLAN, _ = strconv.Atoi(match[1])
		}
		matches := allowedVlanRegex.FindAllStringSubmatch(body, -1)
		var vids []int
		for _, match := range matches {
			vids = append(vids, expandVLANList(match[1])...)
		}
		if len(vids) > 0 {
			profile.AllowedVLANs = dedupSorted(vids)
		} else if len(matches) == 0 {
			profile.AllowedAll = true
		}
	} else {
		if match := accessVlanRegex.FindStringSubmatch(body); len(match) == 2 {
			profile.AccessVLAN, _ = strconv.Atoi(match[1])
		}
	}
	return profile
}

// expandVLANList expands a comma separated VLAN specification with ranges
// ("10,20,30-39") into individual IDs. Malformed parts are skipped.
func expandVLANList(spec string) []int {
	var vids []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			start, err1 := strconv.Atoi(bounds[0])
			end, err2 := strconv.Atoi(bounds[1])
			if err1 != nil || err2 != nil || end < start {
				continue
			}
			for vid := start; vid <= end; vid++ {
				vids = append(vids, vid)
			}
			continue
		}
		if vid, err := strconv.Atoi(part); err == nil {
			vids = append(vids, vid)
		}
	}
	return vids
}

func dedupSorted(vids []int) []int {
	seen := make(map[int]bool, len(vids))
	out := make([]int, 0, len(vids))
	for _, vid := range vids {
		if !seen[vid] {
			seen[vid] = true
			out = append(out, vid)
		}
	}
	sort.Ints(out)
	return out
}

// ParseVLANBrief extracts the VLAN IDs from `show vlan brief` output.
func ParseVLANBrief(output string) map[int]bool {
	vlans := make(map[int]bool)
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isSeparatorLine(trimmed) {
			continue
		}
		match := vlanLineRegex.FindStringSubmatch(trimmed)
		if len(match) < 2 {
			continue
		}
		if vid, err := strconv.Atoi(match[1]); err == nil {
			vlans[vid] = true
		}
	}
	return vlans
}

// IsCommandError reports whether the output looks like a CLI rejection.
func IsCommandError(output string) bool {
	lowered := strings.ToLower(output)
	for _, hint := range commandErrHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}

func isSeparatorLine(line string) bool {
	return strings.Trim(line, "- ") == ""
}
