package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netopsctl/nbsync/domain/entities"
	"github.com/netopsctl/nbsync/infrastructure/config"
	"github.com/netopsctl/nbsync/infrastructure/transport"
)

// fakeInventory fails VLAN lookups so every device run stops before a
// switch session is opened
type fakeInventory struct {
	devices []entities.Device
	getErr  error
	vlanErr error
}

func (f *fakeInventory) GetDevice(name string) (entities.Device, error) {
	if f.getErr != nil {
		return entities.Device{}, f.getErr
	}
	for _, device := range f.devices {
		if device.Name == name {
			return device, nil
		}
	}
	return entities.Device{}, fmt.Errorf("device %q not found", name)
}

func (f *fakeInventory) ListSiteDevices(string) ([]entities.Device, error) {
	return f.devices, nil
}

func (f *fakeInventory) ListInterfaces(int) ([]entities.NetInterface, error) {
	return nil, nil
}

func (f *fakeInventory) ListVLANs(string) ([]entities.VLAN, error) {
	return nil, f.vlanErr
}

func (f *fakeInventory) BulkUpdateInterfaces([]entities.InterfacePatch) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		NetBox:    config.NetBoxSettings{URL: "https://netbox.example.com", Token: "token", Site: "new-york"},
		Transport: "ssh",
		Username:  "admin",
		Password:  "secret",
		Sandbox:   true,
	}
}

func TestSyncSiteContinuesAfterDeviceError(t *testing.T) {
	defer transport.CloseAll()

	inventory := &fakeInventory{
		devices: []entities.Device{
			{ID: 1, Name: "sw-access-01", PrimaryIP: "10.10.0.1", PlatformSlug: "cisco-ios"},
			{ID: 2, Name: "sw-no-mgmt-01"},
			{ID: 3, Name: "sw-access-02", PrimaryIP: "10.10.0.3", PlatformSlug: "cisco-ios"},
		},
		vlanErr: fmt.Errorf("inventory unavailable"),
	}
	app := NewSyncApplicationService(testConfig(), inventory)

	var published []entities.SyncReport
	app.SetReporter(func(report entities.SyncReport) {
		published = append(published, report)
	})

	reports, err := app.SyncSite()
	require.NoError(t, err, "per-device errors must not abort the site run")
	require.Len(t, reports, 2, "devices without a primary IP are skipped")

	assert.Equal(t, "sw-access-01", reports[0].Device)
	assert.Equal(t, "sw-access-02", reports[1].Device)
	for _, report := range reports {
		assert.Equal(t, "new-york", report.Site)
		// The run got past platform resolution and into the sync itself
		assert.Contains(t, report.Error, "fetch VLANs")
	}
	require.Len(t, published, 2)
}

func TestSyncDeviceNotFound(t *testing.T) {
	inventory := &fakeInventory{getErr: fmt.Errorf("device lookup failed")}
	app := NewSyncApplicationService(testConfig(), inventory)

	report, err := app.SyncDevice("sw-ghost-01")
	require.Error(t, err)
	assert.Equal(t, "sw-ghost-01", report.Device)
	assert.Equal(t, "new-york", report.Site)
}

func TestSyncDeviceNoPrimaryIP(t *testing.T) {
	inventory := &fakeInventory{
		devices: []entities.Device{{ID: 2, Name: "sw-no-mgmt-01"}},
	}
	app := NewSyncApplicationService(testConfig(), inventory)

	var published []entities.SyncReport
	app.SetReporter(func(report entities.SyncReport) {
		published = append(published, report)
	})

	_, err := app.SyncDevice("sw-no-mgmt-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary IP")
	require.Len(t, published, 1, "failed runs are still published to the reporter")
	assert.NotEmpty(t, published[0].Error)
}
