package world

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/snackarena/server/internal/core/event"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMap(t *testing.T, rows ...string) (*Map, *event.Queue) {
	t.Helper()
	q := event.NewQueue()
	m, err := NewMap(rows, DefaultRules(), q, rand.New(rand.NewSource(1)), 0)
	require.NoError(t, err)
	return m, q
}

// occupiedTiles lists every tile whose occupant set holds mob.
func occupiedTiles(m *Map, mob Mob) []*Tile {
	var out []*Tile
	m.Tiles(func(t *Tile) {
		if t.Contains(mob) {
			out = append(out, t)
		}
	})
	return out
}
