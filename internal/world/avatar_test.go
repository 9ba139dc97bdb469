package world

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJumpCostsEnergy(t *testing.T) {
	m, _ := newTestMap(t, "S")
	a := NewAvatar("a", m, m.TileAt(0, 0), nil)

	require.True(t, a.Jump())
	assert.True(t, a.Jumping())
	assert.InDelta(t, 8.5, a.VerticalVelocity(), 1e-9)
	assert.Equal(t, 2000, a.Energy())
	assert.False(t, a.Jump(), "no jump while airborne")

	require.True(t, a.DoubleJump())
	assert.InDelta(t, 8.5*1.15, a.VerticalVelocity(), 1e-9)
	assert.Equal(t, 1500, a.Energy())
	assert.False(t, a.DoubleJump(), "one double jump per jump")
	assert.Equal(t, 1500, a.Energy())
}

func TestJumpNeedsEnergy(t *testing.T) {
	m, _ := newTestMap(t, "S")
	a := NewAvatar("a", m, m.TileAt(0, 0), nil)
	a.mu.Lock()
	a.energy = 400
	a.mu.Unlock()

	assert.False(t, a.Jump())
	assert.False(t, a.Jumping())
	assert.Equal(t, 400, a.Energy())
	assert.False(t, a.DoubleJump())
}

func TestJumpLandsOnGround(t *testing.T) {
	m, _ := newTestMap(t, "S")
	a := NewAvatar("a", m, m.TileAt(0, 0), nil)
	require.True(t, a.Jump())

	peak := 0.0
	for i := 0; i < 300 && a.Jumping(); i++ {
		a.UpdateJump(10 * time.Millisecond)
		if y := a.Position().Y(); y > peak {
			peak = y
		}
	}
	assert.False(t, a.Jumping())
	assert.InDelta(t, 2.0, a.Position().Y(), 1e-9)
	assert.Greater(t, peak, 3.0)
	assert.Less(t, peak, m.Rules().WallHeight)
	assert.Zero(t, a.VerticalVelocity())
}

func TestGravitySteepensAfterTimeout(t *testing.T) {
	m, _ := newTestMap(t, "S")
	a := NewAvatar("a", m, m.TileAt(0, 0), nil)
	require.True(t, a.Jump())

	a.mu.Lock()
	a.vy = 0
	a.pos[1] = 4
	a.mu.Unlock()
	a.UpdateJump(10 * time.Millisecond)
	assert.InDelta(t, -0.27, a.VerticalVelocity(), 1e-9)

	a.mu.Lock()
	a.vy = 0
	a.pos[1] = 4
	a.airborne = 1500 * time.Millisecond
	a.mu.Unlock()
	a.UpdateJump(10 * time.Millisecond)
	assert.InDelta(t, -1.0, a.VerticalVelocity(), 1e-9)
	assert.True(t, a.Jumping())
}

func TestJumpBelowGroundRespawns(t *testing.T) {
	m, _ := newTestMap(t, "S ")
	a := NewAvatar("a", m, m.TileAt(0, 0), nil)
	require.True(t, a.Jump())
	a.mu.Lock()
	a.pos = mgl64.Vec3{1, 1.5, 3}
	a.mu.Unlock()

	a.UpdateJump(10 * time.Millisecond)
	assert.False(t, a.Jumping())
	assert.Equal(t, mgl64.Vec3{1, 2, 1}, a.Position())
}

func TestLandingOnWallPushesOff(t *testing.T) {
	m, _ := newTestMap(t,
		"S  ",
		" # ",
		"   ",
	)
	a := NewAvatar("a", m, m.TileAt(0, 0), nil)
	require.True(t, a.Jump())
	a.mu.Lock()
	a.pos = mgl64.Vec3{3, 3, 3}
	a.mu.Unlock()

	a.UpdateJump(10 * time.Millisecond)
	assert.False(t, a.Jumping())
	tile := a.Tile()
	assert.False(t, tile.IsWall())
	assert.Same(t, m.TileAt(0, 1), tile)
	assert.InDelta(t, 2.0, a.Position().Y(), 1e-9)
}

func TestEnergyBoundsDecideOutcome(t *testing.T) {
	m, _ := newTestMap(t, "S")

	t.Run("gain clamps and wins", func(t *testing.T) {
		a := NewAvatar("a", m, m.TileAt(0, 0), nil)
		var got []Outcome
		a.OnOutcome(func(o Outcome) { got = append(got, o) })
		a.Gain(30000)
		a.Gain(100)
		assert.Equal(t, 20000, a.Energy())
		assert.Equal(t, OutcomePreyWins, a.Outcome())
		assert.Equal(t, []Outcome{OutcomePreyWins}, got)
		a.Leave()
	})

	t.Run("loss below zero leaves sentinel", func(t *testing.T) {
		a := NewAvatar("a", m, m.TileAt(0, 0), nil)
		var got []Outcome
		a.OnOutcome(func(o Outcome) { got = append(got, o) })
		a.Lose(2499)
		assert.Equal(t, 1, a.Energy())
		assert.Equal(t, OutcomeNone, a.Outcome())
		a.Lose(3000)
		a.Lose(10)
		assert.Equal(t, DepletedEnergy, a.Energy())
		assert.Equal(t, []Outcome{OutcomePredatorsWin}, got)
		assert.False(t, a.Jump())
		a.Leave()
	})

	t.Run("loss to exactly zero keeps playing", func(t *testing.T) {
		a := NewAvatar("a", m, m.TileAt(0, 0), nil)
		a.Lose(2500)
		assert.Equal(t, 0, a.Energy())
		assert.Equal(t, OutcomeNone, a.Outcome())
		a.Leave()
	})
}

func TestHitRespectsInvincibility(t *testing.T) {
	m, _ := newTestMap(t, "S")
	clock := newFakeClock()
	a := NewAvatar("a", m, m.TileAt(0, 0), clock.Now)

	a.Hit()
	assert.Equal(t, 500, a.Energy())
	assert.True(t, a.Scared())

	clock.Advance(500 * time.Millisecond)
	a.Hit()
	assert.Equal(t, 500, a.Energy())

	clock.Advance(600 * time.Millisecond)
	a.Hit()
	assert.Equal(t, DepletedEnergy, a.Energy())
	assert.Equal(t, OutcomePredatorsWin, a.Outcome())
}

func TestAvatarEatsItems(t *testing.T) {
	m, q := newTestMap(t, "S ")
	a := NewAvatar("a", m, m.TileAt(0, 0), nil)
	require.True(t, m.SetItem(m.TileAt(0, 1), NewItem(ItemApple)))
	q.Drain()

	a.Move(Input{Backward: true}, mgl64.QuatIdent(), 200*time.Millisecond)
	assert.Same(t, m.TileAt(0, 1), a.Tile())
	assert.Equal(t, 3200, a.Energy())
	assert.True(t, m.TileAt(0, 1).Item().Empty())

	b := q.Drain()
	require.Len(t, b.Tiles, 1)
	assert.Equal(t, "EMPTY", b.Tiles[0].Item)
}

func TestAvatarEatsEggs(t *testing.T) {
	m, _ := newTestMap(t, "S ")
	a := NewAvatar("a", m, m.TileAt(0, 0), nil)
	m.SetItem(m.TileAt(0, 1), EggItem(900))
	a.Move(Input{Backward: true}, mgl64.QuatIdent(), 200*time.Millisecond)
	assert.Equal(t, 3400, a.Energy())
}

func TestAvatarWalkingIntoPredatorIsHit(t *testing.T) {
	m, _ := newTestMap(t, "SG")
	a := NewAvatar("a", m, m.TileAt(0, 0), nil)
	NewPlayerPredator("g", m, m.TileAt(0, 1))

	a.Move(Input{Backward: true}, mgl64.QuatIdent(), 200*time.Millisecond)
	assert.Equal(t, 500, a.Energy())
	assert.True(t, a.Scared())

	a.Move(Input{Forward: true}, mgl64.QuatIdent(), 200*time.Millisecond)
	assert.False(t, a.Scared())
}

func TestPlayerPredatorCatchesAvatar(t *testing.T) {
	m, _ := newTestMap(t, "SG")
	a := NewAvatar("a", m, m.TileAt(0, 0), nil)
	g := NewPlayerPredator("g", m, m.TileAt(0, 1))

	g.Move(Input{Forward: true}, mgl64.QuatIdent(), 200*time.Millisecond)
	assert.Same(t, m.TileAt(0, 0), g.Tile())
	assert.Equal(t, 500, a.Energy())

	s := g.Sample()
	assert.Equal(t, KindPlayerPredator, s.Kind)
	assert.Zero(t, s.Energy)
}

func TestSprintSpeedsUpMoves(t *testing.T) {
	m, _ := newTestMap(t, " S ")
	clock := newFakeClock()
	a := NewAvatar("a", m, m.TileAt(0, 1), clock.Now)
	require.True(t, a.StartSprint())

	a.Move(Input{Forward: true}, mgl64.QuatIdent(), 100*time.Millisecond)
	assert.InDelta(t, 3-0.975, a.Position().Z(), 1e-9)

	s := a.Sample()
	assert.True(t, s.Sprinting)
	assert.Equal(t, 5*time.Second, s.SprintLeft)

	clock.Advance(time.Second)
	a.StopSprint()
	s = a.Sample()
	assert.False(t, s.Sprinting)
	assert.True(t, s.SprintCooldown)
	assert.False(t, a.StartSprint())
}
