package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "maps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadShippedMaps(t *testing.T) {
	table, err := LoadMapTable("../../data/yaml/maps.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"classic", "corridor", "meadow"}, table.Names())

	rows, ok := table.Rows("classic")
	require.True(t, ok)
	assert.Len(t, rows, 15)
	assert.Equal(t, "#S    #      G#", rows[1])

	rows[1] = "changed"
	again, _ := table.Rows("classic")
	assert.Equal(t, "#S    #      G#", again[1])

	_, ok = table.Rows("atlantis")
	assert.False(t, ok)
}

func TestLoadRejectsBadGrids(t *testing.T) {
	cases := map[string]string{
		"ragged": "maps:\n  - name: a\n    rows: [\"S \", \"G\"]\n",
		"symbol": "maps:\n  - name: a\n    rows: [\"SX\"]\n",
		"empty":  "maps:\n  - name: a\n    rows: []\n",
		"noname": "maps:\n  - rows: [\"S\"]\n",
		"dup":    "maps:\n  - name: a\n    rows: [\"S\"]\n  - name: a\n    rows: [\"G\"]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadMapTable(writeYAML(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadMapTable(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
