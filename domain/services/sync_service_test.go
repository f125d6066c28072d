package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netopsctl/nbsync/domain/entities"
	"github.com/netopsctl/nbsync/domain/ports"
)

func intPtr(v int) *int { return &v }

func TestImplementsSyncServicePort(t *testing.T) {
	var _ ports.SyncService = &SyncServiceImpl{}
}

// fakeInventory implements the Inventory port in memory
type fakeInventory struct {
	device  entities.Device
	vlans   []entities.VLAN
	ifaces  []entities.NetInterface
	patched [][]entities.InterfacePatch
	failOn  string
}

func (f *fakeInventory) GetDevice(name string) (entities.Device, error) {
	return f.device, nil
}

func (f *fakeInventory) ListSiteDevices(siteSlug string) ([]entities.Device, error) {
	return []entities.Device{f.device}, nil
}

func (f *fakeInventory) ListInterfaces(deviceID int) ([]entities.NetInterface, error) {
	if f.failOn == "interfaces" {
		return nil, fmt.Errorf("inventory unavailable")
	}
	return f.ifaces, nil
}

func (f *fakeInventory) ListVLANs(siteSlug string) ([]entities.VLAN, error) {
	if f.failOn == "vlans" {
		return nil, fmt.Errorf("inventory unavailable")
	}
	return f.vlans, nil
}

func (f *fakeInventory) BulkUpdateInterfaces(patches []entities.InterfacePatch) error {
	f.patched = append(f.patched, patches)
	return nil
}

// fakeRepo implements the SwitchRepository port
type fakeRepo struct {
	connected bool
}

func (f *fakeRepo) Connect() error                        { f.connected = true; return nil }
func (f *fakeRepo) Disconnect()                           { f.connected = false }
func (f *fakeRepo) IsConnected() bool                     { return f.connected }
func (f *fakeRepo) ExecuteCommand(string) (string, error) { return "", nil }

// fakeDriver implements the SwitchDriver behaviour with canned profiles
type fakeDriver struct {
	profiles map[string]entities.InterfaceProfile
	vlanIDs  map[int]bool
}

func (f *fakeDriver) Name() string { return "fake" }

func (f *fakeDriver) Detect(repo ports.SwitchRepository) (bool, error) {
	return true, nil
}

func (f *fakeDriver) GetAuthenticationSequence(username, password, enablePassword string) []entities.AuthPrompt {
	return nil
}

func (f *fakeDriver) RunningConfig(repo ports.SwitchRepository) (map[string]entities.InterfaceProfile, error) {
	return f.profiles, nil
}

func (f *fakeDriver) VLANIDs(repo ports.SwitchRepository) (map[int]bool, error) {
	return f.vlanIDs, nil
}

func newFixture(sandbox bool) (*fakeInventory, *SyncServiceImpl) {
	inventory := &fakeInventory{
		device: entities.Device{ID: 7, Name: "sw-access-01", SiteSlug: "new-york", PrimaryIP: "10.0.0.5"},
		vlans: []entities.VLAN{
			{ID: 101, VID: 10, Name: "USERS"},
			{ID: 102, VID: 20, Name: "SERVERS"},
		},
		ifaces: []entities.NetInterface{
			{ID: 1, Name: "GigabitEthernet1/0/1", Enabled: true, Mode: "access", UntaggedVLAN: intPtr(101)},
			{ID: 2, Name: "GigabitEthernet1/0/2", Enabled: true, Mode: "access", UntaggedVLAN: intPtr(101)},
		},
	}
	driver := &fakeDriver{
		profiles: map[string]entities.InterfaceProfile{
			"Gi1/0/1": {Name: "Gi1/0/1", Enabled: true, Mode: entities.ModeAccess, AccessVLAN: 20},
		},
		vlanIDs: map[int]bool{10: true, 20: true},
	}
	cfg := entities.TargetConfig{DeviceName: "sw-access-01", Target: "10.0.0.5", Sandbox: sandbox}
	service := NewSyncService(inventory, &fakeRepo{}, driver, inventory.device, cfg, "new-york")
	return inventory, service
}

func TestSyncSandbox(t *testing.T) {
	inventory, service := newFixture(true)
	report, err := service.Sync()
	require.NoError(t, err)
	assert.Equal(t, 2, report.InterfacesTotal)
	assert.Equal(t, 1, report.InterfacesMatched) // Gi1/0/2 has no live counterpart
	assert.Equal(t, 1, report.PatchesPlanned)
	assert.False(t, report.Applied)
	assert.Empty(t, inventory.patched, "sandbox mode must not push updates")
}

func TestSyncWrite(t *testing.T) {
	inventory, service := newFixture(false)
	report, err := service.Sync()
	require.NoError(t, err)
	assert.True(t, report.Applied)
	require.Len(t, inventory.patched, 1)
	require.Len(t, inventory.patched[0], 1)
	patch := inventory.patched[0][0]
	assert.Equal(t, 1, patch.ID)
	assert.Equal(t, 102, patch.Fields["untagged_vlan"])
}

func TestSyncInventoryFailure(t *testing.T) {
	inventory, service := newFixture(false)
	inventory.failOn = "vlans"
	_, err := service.Sync()
	require.Error(t, err)
}

func TestVLANMap(t *testing.T) {
	vlans := []entities.VLAN{
		{ID: 101, VID: 10, Name: "USERS"},
		{ID: 102, VID: 20, Name: "SERVERS"},
	}
	got := VLANMap(vlans)
	assert.Equal(t, map[int]int{10: 101, 20: 102}, got)
}

func TestBuildInterfacePatchNoChanges(t *testing.T) {
	vlanMap := map[int]int{10: 101, 20: 102}
	nbIface := entities.NetInterface{
		ID: 1, Name: "Gi1/0/1", Enabled: true, Description: "Printer",
		Mode: "access", UntaggedVLAN: intPtr(102),
	}
	live := entities.InterfaceProfile{
		Name: "Gi1/0/1", Enabled: true, Description: "Printer",
		Mode: entities.ModeAccess, AccessVLAN: 20,
	}
	patch := buildInterfacePatch(nbIface, live, vlanMap)
	assert.True(t, patch.Empty())
}

func TestBuildInterfacePatchAccessDrift(t *testing.T) {
	vlanMap := map[int]int{10: 101, 20: 102}
	nbIface := entities.NetInterface{
		ID: 1, Name: "Gi1/0/1", Enabled: true,
		Mode: "access", UntaggedVLAN: intPtr(101), TaggedVLANs: []int{102},
	}
	live := entities.InterfaceProfile{
		Name: "Gi1/0/1", Enabled: false, Description: "Camera",
		Mode: entities.ModeAccess, AccessVLAN: 20,
	}
	patch := buildInterfacePatch(nbIface, live, vlanMap)
	require.False(t, patch.Empty())
	assert.Equal(t, false, patch.Fields["enabled"])
	assert.Equal(t, "Camera", patch.Fields["description"])
	assert.Equal(t, 102, patch.Fields["untagged_vlan"])
	assert.Equal(t, []int{}, patch.Fields["tagged_vlans"])
}

func TestBuildInterfacePatchAccessDefaultVLAN(t *testing.T) {
	// No access vlan statement means VLAN 1
	vlanMap := map[int]int{1: 100}
	nbIface := entities.NetInterface{ID: 1, Name: "Gi1/0/5", Enabled: true, Mode: "access"}
	live := entities.InterfaceProfile{Name: "Gi1/0/5", Enabled: true, Mode: entities.ModeAccess}
	patch := buildInterfacePatch(nbIface, live, vlanMap)
	assert.Equal(t, 100, patch.Fields["untagged_vlan"])
}

func TestBuildInterfacePatchTrunk(t *testing.T) {
	vlanMap := map[int]int{10: 101, 20: 102, 30: 103}
	nbIface := entities.NetInterface{
		ID: 2, Name: "Gi1/0/24", Enabled: true,
		Mode: "access", UntaggedVLAN: intPtr(102), TaggedVLANs: []int{103},
	}
	live := entities.InterfaceProfile{
		Name: "Gi1/0/24", Enabled: true,
		Mode: entities.ModeTrunk, NativeVLAN: 10, AllowedVLANs: []int{10, 20, 30},
	}
	patch := buildInterfacePatch(nbIface, live, vlanMap)
	require.False(t, patch.Empty())
	assert.Equal(t, "tagged", patch.Fields["mode"])
	assert.Equal(t, 101, patch.Fields["untagged_vlan"])
	// native VLAN rides untagged, so only 20 and 30 are tagged
	assert.Equal(t, []int{102, 103}, patch.Fields["tagged_vlans"])
}

func TestBuildInterfacePatchTrunkAllowedAll(t *testing.T) {
	// A trunk without an allowed list clears the tagged set, as the
	// network reports no explicit tagging
	vlanMap := map[int]int{10: 101}
	nbIface := entities.NetInterface{
		ID: 3, Name: "Po1", Enabled: true, Mode: "tagged", TaggedVLANs: []int{101},
	}
	live := entities.InterfaceProfile{
		Name: "Po1", Enabled: true, Mode: entities.ModeTrunk, AllowedAll: true,
	}
	patch := buildInterfacePatch(nbIface, live, vlanMap)
	require.False(t, patch.Empty())
	assert.Equal(t, []int{}, patch.Fields["tagged_vlans"])
}

func TestBuildInterfacePatchTrunkNativeCleared(t *testing.T) {
	vlanMap := map[int]int{20: 102}
	nbIface := entities.NetInterface{
		ID: 4, Name: "Gi1/0/20", Enabled: true, Mode: "tagged",
		UntaggedVLAN: intPtr(102), TaggedVLANs: []int{102},
	}
	live := entities.InterfaceProfile{
		Name: "Gi1/0/20", Enabled: true, Mode: entities.ModeTrunk,
		AllowedVLANs: []int{20},
	}
	patch := buildInterfacePatch(nbIface, live, vlanMap)
	require.False(t, patch.Empty())
	value, present := patch.Fields["untagged_vlan"]
	require.True(t, present)
	assert.Nil(t, value)
}

func TestBuildInterfacePatchChannelGroupMember(t *testing.T) {
	// Port-channel members only sync enabled/description; VLANs belong
	// to the bundle
	vlanMap := map[int]int{10: 101}
	nbIface := entities.NetInterface{
		ID: 5, Name: "Gi1/0/3", Enabled: true, Mode: "access", UntaggedVLAN: intPtr(101),
	}
	live := entities.InterfaceProfile{
		Name: "Gi1/0/3", Enabled: false,
		Mode: entities.ModeTrunk, ChannelGroup: "1",
	}
	patch := buildInterfacePatch(nbIface, live, vlanMap)
	require.False(t, patch.Empty())
	assert.Equal(t, []string{"enabled"}, patch.Changed())
}

func TestBuildInterfacePatchUnknownVIDDropped(t *testing.T) {
	vlanMap := map[int]int{10: 101}
	nbIface := entities.NetInterface{ID: 6, Name: "Gi1/0/7", Enabled: true, Mode: "tagged"}
	live := entities.InterfaceProfile{
		Name: "Gi1/0/7", Enabled: true, Mode: entities.ModeTrunk,
		AllowedVLANs: []int{10, 999},
	}
	patch := buildInterfacePatch(nbIface, live, vlanMap)
	require.False(t, patch.Empty())
	assert.Equal(t, []int{101}, patch.Fields["tagged_vlans"])
}
