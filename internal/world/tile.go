package world

import (
	"sort"
	"sync"
)

// TileKind is the terrain of a tile.
type TileKind uint8

const (
	Floor TileKind = iota
	Wall
)

func (k TileKind) String() string {
	if k == Wall {
		return "WALL"
	}
	return "FLOOR"
}

// SpawnKind marks a tile as a spawn point.
type SpawnKind uint8

const (
	NoSpawn SpawnKind = iota
	SpawnPredator
	SpawnHerbivore
	SpawnPlayer
)

// Tile is one grid cell. Kind, item and occupants are guarded by the tile's
// own mutex; X, Z and the spawn marker never change.
type Tile struct {
	X, Z  int
	spawn SpawnKind

	mu        sync.Mutex
	kind      TileKind
	item      Item
	occupants map[string]Mob
}

func newTile(x, z int, kind TileKind, spawn SpawnKind) *Tile {
	return &Tile{X: x, Z: z, kind: kind, spawn: spawn, occupants: make(map[string]Mob)}
}

func (t *Tile) Kind() TileKind {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.kind
}

func (t *Tile) IsWall() bool { return t.Kind() == Wall }

func (t *Tile) Item() Item {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.item
}

func (t *Tile) Spawn() SpawnKind { return t.spawn }

// Occupants returns a copy of the occupant set ordered by mob id.
func (t *Tile) Occupants() []Mob {
	t.mu.Lock()
	out := make([]Mob, 0, len(t.occupants))
	for _, m := range t.occupants {
		out = append(out, m)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Contains reports whether m is in the occupant set.
func (t *Tile) Contains(m Mob) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.occupants[m.ID()]
	return ok
}

// HasKind reports whether any occupant is of one of the given kinds.
func (t *Tile) HasKind(kinds ...Kind) bool {
	for _, m := range t.Occupants() {
		for _, k := range kinds {
			if m.Kind() == k {
				return true
			}
		}
	}
	return false
}

func (t *Tile) add(m Mob) {
	if t.occupants == nil {
		t.occupants = make(map[string]Mob)
	}
	t.occupants[m.ID()] = m
}

func (t *Tile) remove(m Mob) {
	delete(t.occupants, m.ID())
}
