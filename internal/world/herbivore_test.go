package world

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHerbivore(t *testing.T, m *Map, x, z int, clock *fakeClock) *Herbivore {
	t.Helper()
	return NewHerbivore("h", m, m.TileAt(x, z), rand.New(rand.NewSource(5)), clock.Now)
}

func setHerbivoreEnergy(h *Herbivore, e int) {
	h.mu.Lock()
	h.energy = e
	h.mu.Unlock()
}

func TestHerbivoreStep(t *testing.T) {
	m, q := newTestMap(t, "C #")
	h := newTestHerbivore(t, m, 0, 0, newFakeClock())
	q.Drain()

	assert.False(t, h.Step(West), "outside the grid")
	assert.True(t, h.Step(East))
	assert.Same(t, m.TileAt(0, 1), h.Tile())
	assert.Equal(t, []*Tile{m.TileAt(0, 1)}, occupiedTiles(m, h))
	assert.Equal(t, East, h.Facing())
	assert.Equal(t, m.Center(m.TileAt(0, 1), 0), h.Position())

	assert.False(t, h.Step(East), "wall")
	assert.Same(t, m.TileAt(0, 1), h.Tile())

	b := q.Drain()
	require.Len(t, b.Herbivores, 3)
	assert.Equal(t, 1, b.Herbivores[1].Z)
}

func TestHerbivoreGrazesFruitOnly(t *testing.T) {
	m, _ := newTestMap(t, "C")
	h := newTestHerbivore(t, m, 0, 0, newFakeClock())
	tile := m.TileAt(0, 0)

	m.SetItem(tile, EggItem(500))
	ate, _ := h.Graze()
	assert.False(t, ate)
	assert.Equal(t, ItemEgg, tile.Item().Kind)

	m.SetItem(tile, NewItem(ItemApple))
	ate, full := h.Graze()
	assert.True(t, ate)
	assert.False(t, full)
	assert.Equal(t, 700, h.Energy())
	assert.Equal(t, Thin, h.Thickness())
	assert.True(t, tile.Item().Empty())
}

func TestHerbivoreThickness(t *testing.T) {
	cases := []struct {
		energy int
		want   Thickness
	}{
		{1500, Thin},
		{1501, SlightlyThick},
		{2000, SlightlyThick},
		{2500, Medium},
		{2999, Heavy},
	}
	for _, tc := range cases {
		m, _ := newTestMap(t, "C")
		h := newTestHerbivore(t, m, 0, 0, newFakeClock())
		setHerbivoreEnergy(h, tc.energy-100)
		m.SetItem(m.TileAt(0, 0), NewItem(ItemCherry))
		ate, _ := h.Graze()
		require.True(t, ate)
		assert.Equal(t, tc.want, h.Thickness(), "energy %d", tc.energy)
	}
}

func TestHerbivoreFullBlocksAndLays(t *testing.T) {
	m, _ := newTestMap(t, "C")
	h := newTestHerbivore(t, m, 0, 0, newFakeClock())
	tile := m.TileAt(0, 0)
	setHerbivoreEnergy(h, 2800)

	m.SetItem(tile, NewItem(ItemApple))
	ate, full := h.Graze()
	require.True(t, ate)
	require.True(t, full)
	assert.Equal(t, 3000, h.Energy())
	assert.Equal(t, VeryHeavy, h.Thickness())
	assert.True(t, h.Blocking())

	m.SetItem(tile, NewItem(ItemApple))
	ate, _ = h.Graze()
	assert.False(t, ate, "a full herbivore does not eat")

	h.Block()
	assert.True(t, tile.IsWall())

	h.Unblock()
	assert.False(t, tile.IsWall())
	assert.False(t, h.Blocking())
	assert.Equal(t, 0, h.Energy())
	assert.Equal(t, Thin, h.Thickness())
	assert.Equal(t, EggItem(900), tile.Item())
}

func TestLayEggValue(t *testing.T) {
	cases := []struct{ energy, value int }{
		{100, 300},
		{1000, 300},
		{2000, 600},
	}
	for _, tc := range cases {
		m, _ := newTestMap(t, "C")
		h := newTestHerbivore(t, m, 0, 0, newFakeClock())
		setHerbivoreEnergy(h, tc.energy)
		require.True(t, h.LayEgg())
		assert.Equal(t, EggItem(tc.value), m.TileAt(0, 0).Item())
		assert.Zero(t, h.Energy())
	}

	m, _ := newTestMap(t, "C")
	h := newTestHerbivore(t, m, 0, 0, newFakeClock())
	assert.False(t, h.LayEgg(), "nothing eaten")
	assert.True(t, m.TileAt(0, 0).Item().Empty())
}

func TestEggTimer(t *testing.T) {
	m, _ := newTestMap(t, "C")
	clock := newFakeClock()
	h := newTestHerbivore(t, m, 0, 0, clock)
	setHerbivoreEnergy(h, 1000)

	clock.Advance(29 * time.Second)
	h.Tick()
	assert.Equal(t, 1000, h.Energy(), "eggs take at least the minimum interval")

	clock.Advance(31 * time.Second)
	h.Tick()
	assert.Zero(t, h.Energy())
	assert.Equal(t, ItemEgg, m.TileAt(0, 0).Item().Kind)
}

func TestFrightenLaysAndShortensInterval(t *testing.T) {
	m, q := newTestMap(t, "C")
	clock := newFakeClock()
	h := newTestHerbivore(t, m, 0, 0, clock)
	setHerbivoreEnergy(h, 1000)
	q.Drain()

	h.Frighten()
	assert.True(t, h.Scared())
	assert.Equal(t, EggItem(300), m.TileAt(0, 0).Item())

	h.mu.Lock()
	next := h.nextEgg.Sub(clock.Now())
	h.mu.Unlock()
	assert.GreaterOrEqual(t, next, 20*time.Second)
	assert.Less(t, next, 50*time.Second)

	b := q.Drain()
	require.NotEmpty(t, b.Herbivores)
	assert.True(t, b.Herbivores[len(b.Herbivores)-1].Scared)

	clock.Advance(2 * time.Second)
	h.Tick()
	assert.True(t, h.Scared())
	clock.Advance(300 * time.Millisecond)
	h.Tick()
	assert.False(t, h.Scared())
}

func TestBlockingHerbivoreIsNotEmptiedByFright(t *testing.T) {
	m, _ := newTestMap(t, "C")
	h := newTestHerbivore(t, m, 0, 0, newFakeClock())
	setHerbivoreEnergy(h, 2900)
	m.SetItem(m.TileAt(0, 0), NewItem(ItemApple))
	_, full := h.Graze()
	require.True(t, full)

	h.Frighten()
	assert.Equal(t, 3000, h.Energy())
	assert.True(t, h.Blocking())
}

func TestHerbivoreState(t *testing.T) {
	m, _ := newTestMap(t, " C")
	h := newTestHerbivore(t, m, 0, 1, newFakeClock())
	h.Face(South)
	s := h.State()
	assert.Equal(t, "h", s.ID)
	assert.Equal(t, 0, s.X)
	assert.Equal(t, 1, s.Z)
	assert.Equal(t, "THIN", s.Thickness)
	assert.Equal(t, int(South), s.Facing)
	assert.False(t, s.Scared)
}
