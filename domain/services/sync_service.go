package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/netopsctl/nbsync/domain/entities"
	"github.com/netopsctl/nbsync/domain/ports"
	"github.com/netopsctl/nbsync/logger"
	"github.com/netopsctl/nbsync/platform"
)

var log = logger.GetLogger("sync")

// SyncServiceImpl reconciles a switch's live interface state into the
// inventory. The network is authoritative: differences found on the
// switch are pushed to the inventory, never the other way around.
type SyncServiceImpl struct {
	inventory  ports.Inventory
	switchRepo ports.SwitchRepository
	driver     platform.SwitchDriver
	device     entities.Device
	config     entities.TargetConfig
	site       string
}

// NewSyncService creates a sync service for one resolved device.
func NewSyncService(inventory ports.Inventory, switchRepo ports.SwitchRepository, driver platform.SwitchDriver, device entities.Device, cfg entities.TargetConfig, site string) *SyncServiceImpl {
	return &SyncServiceImpl{
		inventory:  inventory,
		switchRepo: switchRepo,
		driver:     driver,
		device:     device,
		config:     cfg,
		site:       site,
	}
}

// Sync runs one full reconciliation pass for the device.
func (s *SyncServiceImpl) Sync() (entities.SyncReport, error) {
	report := entities.SyncReport{
		Device:    s.device.Name,
		Site:      s.site,
		Platform:  s.driver.Name(),
		StartedAt: time.Now(),
	}
	defer func() {
		report.Duration = time.Since(report.StartedAt).Round(time.Millisecond).String()
	}()

	vlans, err := s.inventory.ListVLANs(s.site)
	if err != nil {
		return report, fmt.Errorf("fetch VLANs for site %s: %w", s.site, err)
	}
	vlanMap := VLANMap(vlans)
	log.Debugf("Built VLAN map with %d entries for site %s", len(vlanMap), s.site)

	ifaces, err := s.inventory.ListInterfaces(s.device.ID)
	if err != nil {
		return report, fmt.Errorf("fetch interfaces for %s: %w", s.device.Name, err)
	}
	report.InterfacesTotal = len(ifaces)
	log.Infof("Found %d interfaces for %s in inventory", len(ifaces), s.device.Name)

	if !s.switchRepo.IsConnected() {
		if err := s.switchRepo.Connect(); err != nil {
			return report, err
		}
	}

	profiles, err := s.driver.RunningConfig(s.switchRepo)
	if err != nil {
		return report, err
	}
	log.Infof("Parsed %d interfaces from live config of %s", len(profiles), s.device.Name)
	s.warnUndefinedVLANs(profiles)

	seen := make(map[string]bool, len(ifaces))
	var patches []entities.InterfacePatch
	for _, nbIface := range ifaces {
		name := entities.NormalizeInterfaceName(nbIface.Name)
		live, ok := profiles[name]
		if !ok {
			log.Warnf("Interface %s in inventory but not in live config, skipping", name)
			continue
		}
		seen[name] = true
		report.InterfacesMatched++

		patch := buildInterfacePatch(nbIface, live, vlanMap)
		if patch.Empty() {
			continue
		}
		log.Infof("Update found for %s: %v", name, patch.Changed())
		patches = append(patches, patch)
	}
	for name := range profiles {
		if !seen[name] {
			log.Debugf("Interface %s live on switch but absent from inventory", name)
		}
	}
	report.PatchesPlanned = len(patches)

	if len(patches) == 0 {
		log.Infof("Sync complete for %s, no updates needed", s.device.Name)
		return report, nil
	}

	if s.config.Sandbox {
		for _, patch := range patches {
			log.Infof("SANDBOX: would update interface %d: %v", patch.ID, patch.Fields)
		}
		log.Infof("Simulated %d updates for %s (sandbox mode, use --write to apply)", len(patches), s.device.Name)
		return report, nil
	}

	if err := s.inventory.BulkUpdateInterfaces(patches); err != nil {
		return report, err
	}
	report.Applied = true
	log.Infof("Sync complete for %s, %d interfaces updated", s.device.Name, len(patches))
	return report, nil
}

// warnUndefinedVLANs flags access/native VLANs referenced by interfaces
// but not defined on the switch. Purely informational.
func (s *SyncServiceImpl) warnUndefinedVLANs(profiles map[string]entities.InterfaceProfile) {
	existing, err := s.driver.VLANIDs(s.switchRepo)
	if err != nil {
		log.Debugf("Skipping VLAN sanity check: %v", err)
		return
	}
	if len(existing) == 0 {
		return
	}
	for name, profile := range profiles {
		if profile.AccessVLAN != 0 && !existing[profile.AccessVLAN] {
			log.Warnf("Interface %s references access VLAN %d which is not defined on the switch", name, profile.AccessVLAN)
		}
		if profile.NativeVLAN != 0 && !existing[profile.NativeVLAN] {
			log.Warnf("Interface %s references native VLAN %d which is not defined on the switch", name, profile.NativeVLAN)
		}
	}
}

// VLANMap indexes inventory VLANs by 802.1Q ID.
func VLANMap(vlans []entities.VLAN) map[int]int {
	vlanMap := make(map[int]int, len(vlans))
	for _, vlan := range vlans {
		vlanMap[vlan.VID] = vlan.ID
	}
	return vlanMap
}

// buildInterfacePatch compares one inventory interface against its live
// profile and collects the fields that must change. Port-channel members
// keep their inventory mode and VLANs; the bundle is what matters there.
func buildInterfacePatch(nbIface entities.NetInterface, live entities.InterfaceProfile, vlanMap map[int]int) entities.InterfacePatch {
	patch := entities.NewInterfacePatch(nbIface.ID)

	if live.Enabled != nbIface.Enabled {
		patch.Set("enabled", live.Enabled)
	}
	if live.Description != "" && live.Description != nbIface.Description {
		patch.Set("description", live.Description)
	}
	if live.ChannelGroup != "" {
		return patch
	}

	liveMode := "access"
	if live.Mode == entities.ModeTrunk {
		liveMode = "tagged"
	}
	if liveMode != nbIface.Mode {
		patch.Set("mode", liveMode)
	}

	if liveMode == "access" {
		vid := live.AccessVLAN
		if vid == 0 {
			vid = 1
		}
		if id, ok := vlanMap[vid]; ok {
			if nbIface.UntaggedVLAN == nil || *nbIface.UntaggedVLAN != id {
				patch.Set("untagged_vlan", id)
				patch.Set("tagged_vlans", []int{})
			}
		} else {
			log.Warnf("Access VLAN %d on %s has no inventory record, leaving untagged VLAN untouched", vid, live.Name)
		}
		return patch
	}

	// Trunk: native VLAN maps to untagged, allowed minus native to tagged.
	var nativeID *int
	if live.NativeVLAN != 0 {
		if id, ok := vlanMap[live.NativeVLAN]; ok {
			nativeID = &id
		} else {
			log.Warnf("Native VLAN %d on %s has no inventory record", live.NativeVLAN, live.Name)
		}
	}
	if !equalIntPtr(nativeID, nbIface.UntaggedVLAN) {
		if nativeID != nil {
			patch.Set("untagged_vlan", *nativeID)
		} else {
			patch.Set("untagged_vlan", nil)
		}
	}

	finalTagged := make(map[int]bool)
	if !live.AllowedAll {
		for _, vid := range live.AllowedVLANs {
			if vid == live.NativeVLAN {
				continue // native rides untagged
			}
			if id, ok := vlanMap[vid]; ok {
				finalTagged[id] = true
			} else {
				log.Warnf("Allowed VLAN %d on %s has no inventory record, dropping from tagged set", vid, live.Name)
			}
		}
	}
	currentTagged := make(map[int]bool, len(nbIface.TaggedVLANs))
	for _, id := range nbIface.TaggedVLANs {
		currentTagged[id] = true
	}
	if !equalIntSet(finalTagged, currentTagged) {
		patch.Set("tagged_vlans", sortedIntSet(finalTagged))
	}
	return patch
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalIntSet(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

func sortedIntSet(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
