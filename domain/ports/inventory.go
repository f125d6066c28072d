package ports

import "github.com/netopsctl/nbsync/domain/entities"

// Inventory defines the port for the source-of-truth database
type Inventory interface {
	GetDevice(name string) (entities.Device, error)
	ListSiteDevices(siteSlug string) ([]entities.Device, error)
	ListInterfaces(deviceID int) ([]entities.NetInterface, error)
	ListVLANs(siteSlug string) ([]entities.VLAN, error)
	BulkUpdateInterfaces(patches []entities.InterfacePatch) error
}
