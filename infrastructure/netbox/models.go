package netbox

import (
	"strings"

	"github.com/netopsctl/nbsync/domain/entities"
)

// Wire records for the subset of the NetBox REST API that nbsync reads.
// Nested objects are brief representations; only the fields used by the
// sync are decoded.

type siteRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type platformRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ipRef struct {
	ID      int    `json:"id"`
	Address string `json:"address"` // with prefix length, e.g. 10.0.0.5/24
}

type vlanRef struct {
	ID   int    `json:"id"`
	VID  int    `json:"vid"`
	Name string `json:"name"`
}

type labelValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type deviceRecord struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Site      *siteRef     `json:"site"`
	Platform  *platformRef `json:"platform"`
	PrimaryIP *ipRef       `json:"primary_ip"`
}

type interfaceRecord struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	Enabled      bool        `json:"enabled"`
	Description  string      `json:"description"`
	Mode         *labelValue `json:"mode"`
	UntaggedVLAN *vlanRef    `json:"untagged_vlan"`
	TaggedVLANs  []vlanRef   `json:"tagged_vlans"`
}

type vlanRecord struct {
	ID   int    `json:"id"`
	VID  int    `json:"vid"`
	Name string `json:"name"`
}

func (r deviceRecord) toEntity() entities.Device {
	device := entities.Device{
		ID:   r.ID,
		Name: r.Name,
	}
	if r.Site != nil {
		device.SiteID = r.Site.ID
		device.SiteSlug = r.Site.Slug
	}
	if r.Platform != nil {
		device.PlatformSlug = r.Platform.Slug
		device.PlatformName = r.Platform.Name
	}
	if r.PrimaryIP != nil {
		address, _, _ := strings.Cut(r.PrimaryIP.Address, "/")
		device.PrimaryIP = address
	}
	return device
}

func (r interfaceRecord) toEntity() entities.NetInterface {
	iface := entities.NetInterface{
		ID:          r.ID,
		Name:        r.Name,
		Enabled:     r.Enabled,
		Description: r.Description,
	}
	if r.Mode != nil {
		iface.Mode = r.Mode.Value
	}
	if r.UntaggedVLAN != nil {
		id := r.UntaggedVLAN.ID
		iface.UntaggedVLAN = &id
	}
	for _, tagged := range r.TaggedVLANs {
		iface.TaggedVLANs = append(iface.TaggedVLANs, tagged.ID)
	}
	return iface
}

func (r vlanRecord) toEntity() entities.VLAN {
	return entities.VLAN{ID: r.ID, VID: r.VID, Name: r.Name}
}
