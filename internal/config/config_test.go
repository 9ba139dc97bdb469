package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load("../../config/server.toml")
	require.NoError(t, err)
	assert.Equal(t, defaults().Game, cfg.Game)
	assert.Equal(t, 50*time.Millisecond, cfg.Server.TickRate)
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, 250*time.Millisecond, cfg.Scripts.CallLimit)
	assert.NotZero(t, cfg.Server.StartTime)
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[game]
round_duration = "90s"
default_map = "meadow"

[broadcast]
encoding = "msgpack"
`))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Game.RoundDuration)
	assert.Equal(t, "meadow", cfg.Game.DefaultMap)
	assert.Equal(t, 5, cfg.Game.PlayersPerRound)
	assert.Equal(t, "msgpack", cfg.Broadcast.Encoding)
	assert.Equal(t, "scripts", cfg.Scripts.Dir)
	assert.Equal(t, "/ws", cfg.Broadcast.Path)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"syntax":   "[game\n",
		"encoding": "[broadcast]\nencoding = \"xml\"\n",
		"rate":     "[game]\nitem_rate = 1.5\n",
		"tick":     "[server]\ntick_rate = \"0s\"\n",
		"members":  "[game]\nmin_members = 0\n",
		"limit":    "[scripts]\ncall_limit = \"-1s\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv(EnvPath, "")
	assert.Equal(t, DefaultPath, Path())
	t.Setenv(EnvPath, "/etc/snackarena.toml")
	assert.Equal(t, "/etc/snackarena.toml", Path())
}
