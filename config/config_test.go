package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
irc:
  server: irc.example.net
  port: 6697
  tls: true
  hide_server: false
session:
  channel: "#lobby"
render:
  max_line_len: 64
  max_lines: 5
filter:
  enabled: true
  file: words.txt
sysops:
  - W1AW
  - N0CALL
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "irc.example.net", cfg.IRC.Server)
	assert.Equal(t, 6697, cfg.IRC.Port)
	assert.True(t, cfg.IRC.TLS)
	assert.False(t, cfg.IRC.HideServer)
	assert.Equal(t, "#lobby", cfg.Session.Channel)
	assert.Equal(t, 64, cfg.Render.MaxLineLen)
	assert.Equal(t, 5, cfg.Render.MaxLines)
	assert.True(t, cfg.Filter.Enabled)
	assert.Equal(t, []string{"W1AW", "N0CALL"}, cfg.Sysops)
	assert.Equal(t, "irc.example.net:6697", cfg.ServerAddress())
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[irc]
server = "irc.example.net"
port = 6667
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "irc.example.net", cfg.IRC.Server)
	assert.Equal(t, 6667, cfg.IRC.Port)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"irc": {"server": "irc.example.net"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "irc.example.net", cfg.IRC.Server)
	// Defaults survive a partial file.
	assert.Equal(t, 6667, cfg.IRC.Port)
	assert.Equal(t, 3, cfg.IRC.MaxRetries)
	assert.Equal(t, "73", cfg.Session.QuitText)
}

func TestLoadMissingServerFails(t *testing.T) {
	path := writeConfig(t, "config.yaml", `session: {channel: "#x"}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PACKETIRC_SERVER", "env.example.net")
	t.Setenv("PACKETIRC_PORT", "7000")
	t.Setenv("PACKETIRC_HIDE_SERVER", "no")
	t.Setenv("PACKETIRC_SYSOPS", "W1AW, K9ABC")

	path := writeConfig(t, "config.yaml", `
irc:
  server: file.example.net
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.example.net", cfg.IRC.Server)
	assert.Equal(t, 7000, cfg.IRC.Port)
	assert.False(t, cfg.IRC.HideServer)
	assert.Equal(t, []string{"W1AW", "K9ABC"}, cfg.Sysops)
}

func TestIsSysop(t *testing.T) {
	cfg := Default()
	cfg.Sysops = []string{"W1AW", "n0call"}

	assert.True(t, cfg.IsSysop("W1AW"))
	assert.True(t, cfg.IsSysop("w1aw"))
	assert.True(t, cfg.IsSysop("W1AW-7"), "SSID suffix is stripped")
	assert.True(t, cfg.IsSysop("N0CALL"))
	assert.False(t, cfg.IsSysop("KB2XYZ"))
	assert.False(t, cfg.IsSysop(""))
}
