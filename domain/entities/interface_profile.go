package entities

// PortMode is the switchport operating mode of an interface.
type PortMode string

const (
	ModeAccess PortMode = "access"
	ModeTrunk  PortMode = "trunk"
)

// InterfaceProfile holds the per-interface state parsed from a switch's
// running configuration. VLAN fields are 802.1Q IDs; zero means unset.
type InterfaceProfile struct {
	Name              string // normalized short form (Gi1/0/1, Po1, ...)
	Enabled           bool
	Description       string
	Mode              PortMode
	AccessVLAN        int
	NativeVLAN        int
	AllowedVLANs      []int
	AllowedAll        bool // trunk with no explicit allowed list
	VoiceVLAN         int
	ChannelGroup      string // non-empty for port-channel members
	PortChannelParent bool
}
