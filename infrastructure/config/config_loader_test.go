package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netopsctl/nbsync/domain/entities"
)

const validYAML = `netbox:
  url: https://netbox.example.com
  token: abc123
  site: new-york
transport: ssh
username: admin
password: secret
enable_password: enable
devices:
  - name: sw-legacy-01
    transport: telnet
    platform: ios
snmp:
  community: traps
  port: 1162
listen: ":9200"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"NETBOX_URL", "NETBOX_TOKEN", "NETBOX_SITE_SLUG", "DEFAULT_SSH_USERNAME", "DEFAULT_SSH_PASSWORD", "DEFAULT_ENABLE_PASSWORD"} {
		t.Setenv(key, "")
	}
}

func TestLoadValid(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, validYAML), "", false, 0)
	require.NoError(t, err)

	assert.Equal(t, "https://netbox.example.com", cfg.NetBox.URL)
	assert.Equal(t, "new-york", cfg.NetBox.Site)
	assert.Equal(t, "ssh", cfg.Transport)
	assert.Equal(t, "traps", cfg.SNMP.Community)
	assert.Equal(t, 1162, cfg.SNMP.Port)
	assert.Equal(t, ":9200", cfg.Listen)
	assert.True(t, cfg.Sandbox, "sandbox should be on unless --write is given")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	minimal := `netbox:
  url: https://netbox.example.com
  token: abc123
  site: new-york
username: admin
password: secret
`
	cfg, err := Load(writeConfig(t, minimal), "", true, 0)
	require.NoError(t, err)
	assert.Equal(t, "ssh", cfg.Transport)
	assert.Equal(t, "public", cfg.SNMP.Community)
	assert.Equal(t, 162, cfg.SNMP.Port)
	assert.Equal(t, ":9108", cfg.Listen)
	assert.False(t, cfg.Sandbox)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NETBOX_TOKEN", "env-token")
	t.Setenv("NETBOX_SITE_SLUG", "chicago")
	t.Setenv("DEFAULT_SSH_USERNAME", "netops")

	cfg, err := Load(writeConfig(t, validYAML), "", false, 0)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.NetBox.Token)
	assert.Equal(t, "chicago", cfg.NetBox.Site)
	assert.Equal(t, "netops", cfg.Username)
}

func TestLoadSiteFlagWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("NETBOX_SITE_SLUG", "chicago")
	cfg, err := Load(writeConfig(t, validYAML), "austin", false, 0)
	require.NoError(t, err)
	assert.Equal(t, "austin", cfg.NetBox.Site)
}

func TestLoadMissingToken(t *testing.T) {
	clearEnv(t)
	content := `netbox:
  url: https://netbox.example.com
  site: new-york
username: admin
password: secret
`
	_, err := Load(writeConfig(t, content), "", false, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestLoadInvalidTransport(t *testing.T) {
	clearEnv(t)
	content := `netbox:
  url: https://netbox.example.com
  token: abc123
  site: new-york
transport: serial
username: admin
password: secret
`
	_, err := Load(writeConfig(t, content), "", false, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport")
}

func TestLoadInvalidDevicePlatform(t *testing.T) {
	clearEnv(t)
	content := `netbox:
  url: https://netbox.example.com
  token: abc123
  site: new-york
username: admin
password: secret
devices:
  - name: sw1
    platform: junos
`
	_, err := Load(writeConfig(t, content), "", false, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform")
}

func TestTargetFor(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, validYAML), "", false, 0)
	require.NoError(t, err)

	plain := entities.Device{Name: "sw-new-01", PrimaryIP: "10.0.0.9"}
	target := cfg.TargetFor(plain)
	assert.Equal(t, "ssh", target.Transport)
	assert.Equal(t, "", target.Platform)
	assert.Equal(t, "admin", target.Username)
	assert.True(t, target.Sandbox)

	legacy := entities.Device{Name: "SW-LEGACY-01", PrimaryIP: "10.0.0.2"}
	target = cfg.TargetFor(legacy)
	assert.Equal(t, "telnet", target.Transport, "override lookup is case insensitive")
	assert.Equal(t, "ios", target.Platform)
}
