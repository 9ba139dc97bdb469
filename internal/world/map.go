package world

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/snackarena/server/internal/core/event"
)

// ErrInvalidGrid is returned for empty, ragged or unknown-symbol grids.
var ErrInvalidGrid = errors.New("invalid grid")

// Grid symbols.
const (
	SymbolWall      = '#'
	SymbolFloor     = ' '
	SymbolHerbivore = 'C'
	SymbolPredator  = 'G'
	SymbolPlayer    = 'S'
)

// Map is the tile grid of one round. Tiles are addressed [x][z]; in the
// source grid x is the row and z the column.
type Map struct {
	rules  Rules
	tiles  [][]*Tile
	sizeX  int
	sizeZ  int
	events *event.Queue
}

// NewMap builds a map from grid rows. Plain floor tiles receive a random item
// with probability itemRate. events may be nil.
func NewMap(rows []string, rules Rules, events *event.Queue, rng *rand.Rand, itemRate float64) (*Map, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidGrid)
	}
	sizeZ := len(rows[0])
	m := &Map{
		rules:  rules,
		tiles:  make([][]*Tile, len(rows)),
		sizeX:  len(rows),
		sizeZ:  sizeZ,
		events: events,
	}
	for x, row := range rows {
		if len(row) != sizeZ {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidGrid, x, len(row), sizeZ)
		}
		m.tiles[x] = make([]*Tile, sizeZ)
		for z := 0; z < sizeZ; z++ {
			t, err := tileFromSymbol(row[z], x, z)
			if err != nil {
				return nil, err
			}
			if t.kind == Floor && t.spawn == NoSpawn && rng != nil && rng.Float64() < itemRate {
				t.item = RandomItem(rng)
			}
			m.tiles[x][z] = t
		}
	}
	return m, nil
}

func tileFromSymbol(c byte, x, z int) (*Tile, error) {
	switch c {
	case SymbolWall:
		return newTile(x, z, Wall, NoSpawn), nil
	case SymbolFloor:
		return newTile(x, z, Floor, NoSpawn), nil
	case SymbolHerbivore:
		return newTile(x, z, Floor, SpawnHerbivore), nil
	case SymbolPredator:
		return newTile(x, z, Floor, SpawnPredator), nil
	case SymbolPlayer:
		return newTile(x, z, Floor, SpawnPlayer), nil
	}
	return nil, fmt.Errorf("%w: unknown symbol %q at (%d,%d)", ErrInvalidGrid, c, x, z)
}

func (m *Map) Rules() Rules { return m.rules }

// Size returns the number of tiles along x and z.
func (m *Map) Size() (int, int) { return m.sizeX, m.sizeZ }

func (m *Map) InBounds(x, z int) bool {
	return x >= 0 && z >= 0 && x < m.sizeX && z < m.sizeZ
}

// TileAt never fails: indexes outside the grid yield a fresh synthetic wall
// that belongs to no map.
func (m *Map) TileAt(x, z int) *Tile {
	if !m.InBounds(x, z) {
		return newTile(x, z, Wall, NoSpawn)
	}
	return m.tiles[x][z]
}

// Index converts a world coordinate to a tile index.
func (m *Map) Index(c float64) int {
	return int(math.Floor(c / m.rules.TileSize))
}

// TileAtPosition returns the tile under p (y is ignored).
func (m *Map) TileAtPosition(p mgl64.Vec3) *Tile {
	return m.TileAt(m.Index(p.X()), m.Index(p.Z()))
}

// Center returns the ground-plane center of a tile at altitude y.
func (m *Map) Center(t *Tile, y float64) mgl64.Vec3 {
	return mgl64.Vec3{m.rules.TileCenter(t.X), y, m.rules.TileCenter(t.Z)}
}

func (m *Map) owns(t *Tile) bool {
	return m.InBounds(t.X, t.Z) && m.tiles[t.X][t.Z] == t
}

// Tiles calls fn for every tile in x-then-z order.
func (m *Map) Tiles(fn func(t *Tile)) {
	for x := range m.tiles {
		for _, t := range m.tiles[x] {
			fn(t)
		}
	}
}

// SpawnTiles lists the spawn points of a kind in x-then-z order.
func (m *Map) SpawnTiles(kind SpawnKind) []*Tile {
	var out []*Tile
	m.Tiles(func(t *Tile) {
		if t.spawn == kind {
			out = append(out, t)
		}
	})
	return out
}

// SetItem places an item on a floor tile. Walls refuse items.
func (m *Map) SetItem(t *Tile, it Item) bool {
	t.mu.Lock()
	if t.kind != Floor || !m.owns(t) {
		t.mu.Unlock()
		return false
	}
	t.item = it
	ev := tileEvent(t)
	t.mu.Unlock()
	m.events.Push(ev)
	return true
}

// TakeItem removes the tile's item if accept agrees and returns it.
func (m *Map) TakeItem(t *Tile, accept func(Item) bool) (Item, bool) {
	t.mu.Lock()
	it := t.item
	if it.Empty() || (accept != nil && !accept(it)) {
		t.mu.Unlock()
		return Item{}, false
	}
	t.item = Item{}
	ev := tileEvent(t)
	t.mu.Unlock()
	m.events.Push(ev)
	return it, true
}

// SetKind toggles a tile between floor and wall.
func (m *Map) SetKind(t *Tile, k TileKind) {
	if !m.owns(t) {
		return
	}
	t.mu.Lock()
	if t.kind == k {
		t.mu.Unlock()
		return
	}
	t.kind = k
	ev := tileEvent(t)
	t.mu.Unlock()
	m.events.Push(ev)
}

// RespawnItems gives every empty floor tile a random item with probability p
// and returns how many were placed.
func (m *Map) RespawnItems(rng *rand.Rand, p float64) int {
	placed := 0
	m.Tiles(func(t *Tile) {
		t.mu.Lock()
		eligible := t.kind == Floor && t.item.Empty()
		t.mu.Unlock()
		if !eligible || rng.Float64() >= p {
			return
		}
		t.mu.Lock()
		if t.kind != Floor || !t.item.Empty() {
			t.mu.Unlock()
			return
		}
		t.item = RandomItem(rng)
		ev := tileEvent(t)
		t.mu.Unlock()
		m.events.Push(ev)
		placed++
	})
	return placed
}

// place adds mob to t's occupant set.
func (m *Map) place(mob Mob, t *Tile) {
	t.mu.Lock()
	t.add(mob)
	t.mu.Unlock()
}

// Vacate removes mob from t's occupant set.
func (m *Map) Vacate(mob Mob, t *Tile) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.remove(mob)
	t.mu.Unlock()
}

// relocate moves mob between occupant sets with both tiles locked, in (x,z)
// order, so no observer sees it on neither or both.
func (m *Map) relocate(mob Mob, from, to *Tile) {
	if from == nil || from == to {
		m.place(mob, to)
		return
	}
	first, second := from, to
	if to.X < from.X || (to.X == from.X && to.Z < from.Z) {
		first, second = to, from
	}
	first.mu.Lock()
	second.mu.Lock()
	from.remove(mob)
	to.add(mob)
	second.mu.Unlock()
	first.mu.Unlock()
}

// tileEvent must be called with t.mu held.
func tileEvent(t *Tile) event.TileChanged {
	return event.TileChanged{
		X:         t.X,
		Z:         t.Z,
		Kind:      t.kind.String(),
		Item:      t.item.Kind.String(),
		ItemValue: t.item.Value,
	}
}

// TileState returns the TileChanged snapshot of a tile.
func TileState(t *Tile) event.TileChanged {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tileEvent(t)
}
