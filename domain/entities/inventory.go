package entities

// Device is the inventory view of a network device.
type Device struct {
	ID           int
	Name         string
	SiteID       int
	SiteSlug     string
	PlatformSlug string
	PlatformName string
	PrimaryIP    string // address without prefix length
}

// NetInterface is the inventory record of a device interface.
type NetInterface struct {
	ID           int
	Name         string
	Enabled      bool
	Description  string
	Mode         string // "access", "tagged", "tagged-all" or empty
	UntaggedVLAN *int   // inventory VLAN object ID
	TaggedVLANs  []int  // inventory VLAN object IDs
}

// VLAN is an inventory VLAN record. VID is the 802.1Q ID, ID the
// inventory object ID used in interface assignments.
type VLAN struct {
	ID   int
	VID  int
	Name string
}
