package services

import (
	"fmt"

	"github.com/netopsctl/nbsync/domain/entities"
	"github.com/netopsctl/nbsync/domain/ports"
	"github.com/netopsctl/nbsync/domain/services"
	"github.com/netopsctl/nbsync/infrastructure/config"
	"github.com/netopsctl/nbsync/infrastructure/transport"
	"github.com/netopsctl/nbsync/logger"
	"github.com/netopsctl/nbsync/platform"
)

var log = logger.GetLogger("app")

// SyncApplicationService resolves devices from the inventory, connects to
// them and runs the sync service. It is the piece the CLI and the trap
// daemon talk to.
type SyncApplicationService struct {
	cfg       *config.Config
	inventory ports.Inventory
	reporter  func(entities.SyncReport)
}

// NewSyncApplicationService creates a new instance of the application service
func NewSyncApplicationService(cfg *config.Config, inventory ports.Inventory) *SyncApplicationService {
	return &SyncApplicationService{cfg: cfg, inventory: inventory}
}

// SetReporter installs a hook invoked with every finished sync report.
func (a *SyncApplicationService) SetReporter(fn func(entities.SyncReport)) {
	a.reporter = fn
}

// SyncDevice syncs a single device by its inventory name.
func (a *SyncApplicationService) SyncDevice(name string) (entities.SyncReport, error) {
	device, err := a.inventory.GetDevice(name)
	if err != nil {
		return entities.SyncReport{Device: name, Site: a.cfg.NetBox.Site}, err
	}
	return a.syncResolved(device)
}

// SyncSite syncs every device of the configured site that carries a
// primary IP. Per-device failures are reported but do not stop the run.
func (a *SyncApplicationService) SyncSite() ([]entities.SyncReport, error) {
	devices, err := a.inventory.ListSiteDevices(a.cfg.NetBox.Site)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices registered for site %s", a.cfg.NetBox.Site)
	}

	reports := make([]entities.SyncReport, 0, len(devices))
	for _, device := range devices {
		if device.PrimaryIP == "" {
			log.Debugf("Skipping %s: no primary IP in inventory", device.Name)
			continue
		}
		report, err := a.syncResolved(device)
		if err != nil {
			log.Errorf("Error syncing %s: %v", device.Name, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (a *SyncApplicationService) syncResolved(device entities.Device) (entities.SyncReport, error) {
	report := entities.SyncReport{Device: device.Name, Site: a.cfg.NetBox.Site}
	if device.PrimaryIP == "" {
		err := fmt.Errorf("device %s has no primary IP in inventory", device.Name)
		report.Error = err.Error()
		a.publish(report)
		return report, err
	}

	target := a.cfg.TargetFor(device)

	platformName := target.Platform
	if platformName == "" {
		platformName = platform.Resolve(device.PlatformSlug, device.PlatformName)
		log.Debugf("Platform for %s resolved from inventory as %s", device.Name, platformName)
	}

	client := transport.Get(target)
	adapter := transport.NewSwitchAdapter(client)

	var driver platform.SwitchDriver
	var err error
	if platformName == "auto" {
		// Detection talks to the switch before a driver is chosen, so a
		// prompt-driven transport logs in with its default IOS sequence.
		// Devices with a different login flow (NX-OS over telnet) need
		// their platform set in NetBox or a per-device override.
		driver, err = platform.Detect(adapter)
		if err != nil {
			report.Error = err.Error()
			a.publish(report)
			return report, fmt.Errorf("auto-detect platform for %s: %w", device.Name, err)
		}
		log.Debugf("Platform for %s auto-detected as %s", device.Name, driver.Name())
	} else {
		driver, err = platform.Get(platformName)
		if err != nil {
			report.Error = err.Error()
			a.publish(report)
			return report, err
		}
	}

	if configurable, ok := client.(transport.AuthConfigurable); ok {
		configurable.SetAuthSequence(driver.GetAuthenticationSequence(target.Username, target.Password, target.EnablePassword))
	}

	syncService := services.NewSyncService(a.inventory, adapter, driver, device, target, a.cfg.NetBox.Site)
	report, err = syncService.Sync()
	if err != nil {
		report.Error = err.Error()
	}
	a.publish(report)
	return report, err
}

func (a *SyncApplicationService) publish(report entities.SyncReport) {
	if a.reporter != nil {
		a.reporter(report)
	}
}
