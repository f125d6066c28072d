package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	appservices "github.com/netopsctl/nbsync/application/services"
	"github.com/netopsctl/nbsync/infrastructure/config"
	"github.com/netopsctl/nbsync/infrastructure/metrics"
	"github.com/netopsctl/nbsync/infrastructure/netbox"
	"github.com/netopsctl/nbsync/infrastructure/snmpd"
	"github.com/netopsctl/nbsync/infrastructure/transport"
	"github.com/netopsctl/nbsync/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  --config string    YAML configuration file (default \"config.yaml\")\n")
	fmt.Fprintf(os.Stderr, "  --device string    Sync a single device by its NetBox name (default: whole site)\n")
	fmt.Fprintf(os.Stderr, "  --site string      NetBox site slug (overrides YAML and NETBOX_SITE_SLUG)\n")
	fmt.Fprintf(os.Stderr, "  --write            Apply changes to NetBox (disables sandbox mode)\n")
	fmt.Fprintf(os.Stderr, "  --verbose int      Verbosity level: 0=info, 1=debug, 2=raw switch output, 3=debug+raw\n")
	fmt.Fprintf(os.Stderr, "  --daemon           Listen for SNMP traps and resync on MAC changes\n")
	fmt.Fprintf(os.Stderr, "  --listen string    Status/metrics listen address in daemon mode (overrides YAML)\n")
}

func main() {
	flag.Usage = printUsage
	yamlFile := flag.String("config", "config.yaml", "YAML configuration file")
	device := flag.String("device", "", "Sync a single device by its NetBox name")
	site := flag.String("site", "", "NetBox site slug")
	write := flag.Bool("write", false, "Apply changes to NetBox (disables sandbox mode)")
	verbosity := flag.Int("verbose", 0, "Verbosity level: 0=info, 1=debug, 2=raw switch output, 3=debug+raw")
	daemon := flag.Bool("daemon", false, "Listen for SNMP traps and resync on MAC changes")
	listen := flag.String("listen", "", "Status/metrics listen address in daemon mode")
	flag.Parse()

	fmt.Printf("nbsync %s (built %s)\n", version, buildTime)

	if *verbosity < 0 || *verbosity > 3 {
		fmt.Fprintf(os.Stderr, "Error: --verbose must be 0, 1, 2, or 3\n")
		flag.Usage()
		os.Exit(1)
	}
	logger.SetVerbosity(*verbosity)

	// Determine the configuration file path
	configPath := *yamlFile
	if *yamlFile == "config.yaml" {
		// If the default path is not overridden, search in specific locations
		possiblePaths := []string{
			filepath.Join(".", "config.yaml"), // Local directory
		}

		if runtime.GOOS == "linux" {
			// Linux: Add user and global configuration paths
			if userConfigDir, err := os.UserConfigDir(); err == nil {
				possiblePaths = append(possiblePaths, filepath.Join(userConfigDir, "nbsync", "config.yaml"))
			}
			possiblePaths = append(possiblePaths, "/etc/nbsync/config.yaml")
		} else if runtime.GOOS == "windows" {
			// Windows: Add user (%APPDATA%) and global (%ProgramData%) paths
			if appDataDir := os.Getenv("APPDATA"); appDataDir != "" {
				possiblePaths = append(possiblePaths, filepath.Join(appDataDir, "nbsync", "config.yaml"))
			}
			if programDataDir := os.Getenv("ProgramData"); programDataDir != "" {
				possiblePaths = append(possiblePaths, filepath.Join(programDataDir, "nbsync", "config.yaml"))
			}
		}

		// Try to find the first existing configuration file
		found := false
		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				found = true
				break
			}
		}

		if !found {
			if runtime.GOOS == "windows" {
				log.Fatal("Error: No config.yaml file found in ./, %APPDATA%\\nbsync\\, or %ProgramData%\\nbsync\\")
			} else {
				log.Fatal("Error: No config.yaml file found in ./, ~/.config/nbsync/, or /etc/nbsync/")
			}
		}
	}

	cfg, err := config.Load(configPath, *site, *write, *verbosity)
	if err != nil {
		log.Fatal(err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	defer transport.CloseAll()

	if *daemon {
		runDaemon(cfg)
		return
	}

	nbClient := netbox.New(netbox.Config{
		URL:       cfg.NetBox.URL,
		Token:     cfg.NetBox.Token,
		VerifySSL: cfg.NetBox.VerifySSL,
		PageSize:  cfg.NetBox.PageSize,
	})
	app := appservices.NewSyncApplicationService(cfg, nbClient)

	if *device != "" {
		fmt.Printf("Starting nbsync for device %s\n", *device)
		if _, err := app.SyncDevice(*device); err != nil {
			log.Fatalf("Error syncing device %s: %v", *device, err)
		}
		return
	}

	fmt.Printf("Starting nbsync for site %s\n", cfg.NetBox.Site)
	reports, err := app.SyncSite()
	if err != nil {
		log.Fatal(err)
	}
	failed := 0
	for _, report := range reports {
		if report.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		log.Fatalf("%d of %d devices failed to sync", failed, len(reports))
	}
}

// runDaemon starts the trap listener plus the metrics/status server and
// blocks until the listener stops.
func runDaemon(cfg *config.Config) {
	collector, err := metrics.NewCollector(nil)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	nbClient := netbox.New(netbox.Config{
		URL:       cfg.NetBox.URL,
		Token:     cfg.NetBox.Token,
		VerifySSL: cfg.NetBox.VerifySSL,
		PageSize:  cfg.NetBox.PageSize,
		Observer:  collector.ObserveRequest,
	})
	app := appservices.NewSyncApplicationService(cfg, nbClient)

	statusServer := metrics.NewStatusServer(cfg.Listen, collector)
	app.SetReporter(statusServer.Record)

	// The trap listener keys devices by source IP
	devices, err := nbClient.ListSiteDevices(cfg.NetBox.Site)
	if err != nil {
		log.Fatalf("Failed to list devices for site %s: %v", cfg.NetBox.Site, err)
	}
	deviceMap := make(map[string]string)
	for _, dev := range devices {
		if dev.PrimaryIP != "" {
			deviceMap[dev.PrimaryIP] = dev.Name
		}
	}
	if len(deviceMap) == 0 {
		log.Fatalf("No devices with a primary IP registered for site %s", cfg.NetBox.Site)
	}

	trapDaemon := snmpd.New(cfg.SNMP.Community, cfg.SNMP.Port, deviceMap, func(name string) {
		if _, err := app.SyncDevice(name); err != nil {
			log.Printf("Error syncing device %s: %v", name, err)
		}
	})
	trapDaemon.SetTrapHook(collector.TrapsReceived.Inc)

	go func() {
		if err := statusServer.Run(); err != nil {
			log.Fatalf("Status server failed: %v", err)
		}
	}()

	fmt.Printf("Starting nbsync in daemon mode for site %s (%d devices)\n", cfg.NetBox.Site, len(deviceMap))
	if err := trapDaemon.Run(); err != nil {
		log.Fatal(err)
	}
}
