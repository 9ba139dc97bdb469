package world

import (
	"math/rand"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerPredatorFrightensHerbivore(t *testing.T) {
	m, _ := newTestMap(t, "GC")
	clk := newFakeClock()
	h := NewHerbivore("h", m, m.TileAt(0, 1), rand.New(rand.NewSource(3)), clk.Now)
	g := NewPlayerPredator("g", m, m.TileAt(0, 0))

	g.Move(Input{Backward: true}, mgl64.QuatIdent(), 200*time.Millisecond)
	require.Same(t, m.TileAt(0, 1), g.Tile())
	assert.True(t, h.Scared())

	s := g.Sample()
	assert.Equal(t, KindPlayerPredator, s.Kind)
	assert.Equal(t, "g", s.ID)
}
