package data

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MapInfo is one named arena grid, loaded from maps.yaml.
type MapInfo struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Rows        []string `yaml:"rows"`
}

// MapTable provides arena grids by name.
type MapTable struct {
	maps map[string]*MapInfo
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

const mapSymbols = "# CGS"

// LoadMapTable loads named grids from a YAML file. Every grid must be a
// non-empty rectangle of map symbols.
func LoadMapTable(path string) (*MapTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", path, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}

	table := &MapTable{maps: make(map[string]*MapInfo, len(file.Maps))}
	for i := range file.Maps {
		m := &file.Maps[i]
		if m.Name == "" {
			return nil, fmt.Errorf("map #%d: missing name", i)
		}
		if _, dup := table.maps[m.Name]; dup {
			return nil, fmt.Errorf("map %s: defined twice", m.Name)
		}
		if err := checkRows(m.Rows); err != nil {
			return nil, fmt.Errorf("map %s: %w", m.Name, err)
		}
		table.maps[m.Name] = m
	}
	return table, nil
}

func checkRows(rows []string) error {
	if len(rows) == 0 || rows[0] == "" {
		return fmt.Errorf("empty grid")
	}
	for i, r := range rows {
		if len(r) != len(rows[0]) {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(r), len(rows[0]))
		}
		if j := strings.IndexFunc(r, func(c rune) bool { return !strings.ContainsRune(mapSymbols, c) }); j >= 0 {
			return fmt.Errorf("row %d: unknown symbol %q", i, r[j])
		}
	}
	return nil
}

// Rows returns a copy of the named grid.
func (t *MapTable) Rows(name string) ([]string, bool) {
	m, ok := t.maps[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), m.Rows...), true
}

func (t *MapTable) Get(name string) *MapInfo {
	return t.maps[name]
}

// Names lists the maps alphabetically.
func (t *MapTable) Names() []string {
	out := make([]string, 0, len(t.maps))
	for n := range t.maps {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (t *MapTable) Count() int {
	return len(t.maps)
}
