package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/netopsctl/nbsync/domain/entities"
	"github.com/netopsctl/nbsync/logger"
)

var log = logger.GetLogger("config")

// NetBoxSettings is the `netbox` section of the configuration.
type NetBoxSettings struct {
	URL       string `yaml:"url"`
	Token     string `yaml:"token"`
	Site      string `yaml:"site"`
	VerifySSL bool   `yaml:"verify_ssl"`
	PageSize  int    `yaml:"page_size"`
}

// DeviceOverride carries per-device settings that differ from the globals.
type DeviceOverride struct {
	Name      string `yaml:"name"`
	Transport string `yaml:"transport"`
	Platform  string `yaml:"platform"`
}

// SNMPSettings configures the trap listener used in daemon mode.
type SNMPSettings struct {
	Community string `yaml:"community"`
	Port      int    `yaml:"port"`
}

// Config defines the global configuration
type Config struct {
	NetBox         NetBoxSettings   `yaml:"netbox"`
	Transport      string           `yaml:"transport"`
	Username       string           `yaml:"username"`
	Password       string           `yaml:"password"`
	EnablePassword string           `yaml:"enable_password"`
	Devices        []DeviceOverride `yaml:"devices"`
	SNMP           SNMPSettings     `yaml:"snmp"`
	Listen         string           `yaml:"listen"`

	Sandbox   bool `yaml:"-"`
	Verbosity int  `yaml:"-"`
}

func validatePlatform(platform string) error {
	switch platform {
	case "ios", "iosxe", "nxos", "auto":
		return nil
	default:
		return fmt.Errorf("platform %s is invalid, must be 'ios', 'iosxe', 'nxos', or 'auto'", platform)
	}
}

func validateTransport(transport string) error {
	if transport != "telnet" && transport != "ssh" {
		return fmt.Errorf("transport %s is invalid, must be 'telnet' or 'ssh'", transport)
	}
	return nil
}

// Load loads and validates configuration from a YAML file. Credentials
// from the environment (optionally a .env file) override YAML values.
func Load(yamlFile, site string, write bool, verbosity int) (*Config, error) {
	data, err := os.ReadFile(yamlFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %v", yamlFile, err)
	}
	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %v", err)
	}

	// .env is optional; environment always wins over YAML
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded credentials from .env")
	}
	if v := os.Getenv("NETBOX_URL"); v != "" {
		cfg.NetBox.URL = v
	}
	if v := os.Getenv("NETBOX_TOKEN"); v != "" {
		cfg.NetBox.Token = v
	}
	if v := os.Getenv("NETBOX_SITE_SLUG"); v != "" {
		cfg.NetBox.Site = v
	}
	if v := os.Getenv("DEFAULT_SSH_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("DEFAULT_SSH_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("DEFAULT_ENABLE_PASSWORD"); v != "" {
		cfg.EnablePassword = v
	}
	if site != "" {
		cfg.NetBox.Site = site
	}

	if cfg.NetBox.URL == "" {
		return nil, fmt.Errorf("netbox url is required (YAML netbox.url or NETBOX_URL)")
	}
	cfg.NetBox.URL = strings.TrimRight(cfg.NetBox.URL, "/")
	if !strings.HasPrefix(cfg.NetBox.URL, "http://") && !strings.HasPrefix(cfg.NetBox.URL, "https://") {
		return nil, fmt.Errorf("netbox url %s must start with http:// or https://", cfg.NetBox.URL)
	}
	if cfg.NetBox.Token == "" {
		return nil, fmt.Errorf("netbox token is required (YAML netbox.token or NETBOX_TOKEN)")
	}
	if cfg.NetBox.Site == "" {
		return nil, fmt.Errorf("netbox site slug is required (YAML netbox.site, NETBOX_SITE_SLUG, or --site)")
	}
	if cfg.NetBox.PageSize < 0 {
		return nil, fmt.Errorf("netbox page_size %d is invalid", cfg.NetBox.PageSize)
	}

	if cfg.Transport == "" {
		cfg.Transport = "ssh"
	}
	cfg.Transport = strings.ToLower(cfg.Transport)
	if err := validateTransport(cfg.Transport); err != nil {
		return nil, err
	}

	if cfg.Username == "" {
		return nil, fmt.Errorf("switch username is required (YAML username or DEFAULT_SSH_USERNAME)")
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("switch password is required (YAML password or DEFAULT_SSH_PASSWORD)")
	}

	for i := range cfg.Devices {
		override := &cfg.Devices[i]
		if override.Name == "" {
			return nil, fmt.Errorf("devices[%d]: name is required", i)
		}
		if override.Transport != "" {
			override.Transport = strings.ToLower(override.Transport)
			if err := validateTransport(override.Transport); err != nil {
				return nil, fmt.Errorf("devices[%d]: %v", i, err)
			}
		}
		if override.Platform != "" {
			override.Platform = strings.ToLower(override.Platform)
			if err := validatePlatform(override.Platform); err != nil {
				return nil, fmt.Errorf("devices[%d]: %v", i, err)
			}
		}
	}

	if cfg.SNMP.Community == "" {
		cfg.SNMP.Community = "public"
		log.Debug("No snmp community defined, using default 'public'")
	}
	if cfg.SNMP.Port == 0 {
		cfg.SNMP.Port = 162
		log.Debug("No snmp port defined, using default 162")
	} else if cfg.SNMP.Port < 1 || cfg.SNMP.Port > 65535 {
		return nil, fmt.Errorf("snmp port %d is invalid, must be between 1 and 65535", cfg.SNMP.Port)
	}

	if cfg.Listen == "" {
		cfg.Listen = ":9108"
	}

	cfg.Sandbox = !write
	cfg.Verbosity = verbosity
	log.Debugf("Global values: Site=%s, Transport=%s, Devices=%d", cfg.NetBox.Site, cfg.Transport, len(cfg.Devices))
	return &cfg, nil
}

// Override returns the per-device override for a device name, if any.
func (c *Config) Override(name string) *DeviceOverride {
	for i := range c.Devices {
		if strings.EqualFold(c.Devices[i].Name, name) {
			return &c.Devices[i]
		}
	}
	return nil
}

// TargetFor builds the connection settings for a resolved device. The
// platform is left as configured ("" means resolve from inventory data).
func (c *Config) TargetFor(device entities.Device) entities.TargetConfig {
	target := entities.TargetConfig{
		DeviceName:     device.Name,
		Target:         device.PrimaryIP,
		Transport:      c.Transport,
		Username:       c.Username,
		Password:       c.Password,
		EnablePassword: c.EnablePassword,
		Sandbox:        c.Sandbox,
	}
	if override := c.Override(device.Name); override != nil {
		if override.Transport != "" {
			target.Transport = override.Transport
		}
		target.Platform = override.Platform
	}
	return target
}
