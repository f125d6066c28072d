package entities

import "strings"

// longer prefixes first so TenGigabitEthernet does not collapse into Gi
var interfaceAliases = []struct {
	long  string
	short string
}{
	{"tengigabitethernet", "te"},
	{"gigabitethernet", "gi"},
	{"fastethernet", "fa"},
	{"port-channel", "po"},
}

// NormalizeInterfaceName shortens an interface name to its canonical form
// (Gi1/0/1, Te1/1, Fa0/1, Po1). Names without a known prefix are returned
// unchanged.
func NormalizeInterfaceName(name string) string {
	lowered := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(name)), " ", "")
	for _, alias := range interfaceAliases {
		lowered = strings.ReplaceAll(lowered, alias.long, alias.short)
	}
	for _, alias := range interfaceAliases {
		if strings.HasPrefix(lowered, alias.short) {
			return strings.ToUpper(alias.short[:1]) + alias.short[1:] + lowered[len(alias.short):]
		}
	}
	return strings.TrimSpace(name)
}
