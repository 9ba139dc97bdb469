package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Push is an unstuck direction in world axes.
type Push uint8

const (
	PushForward  Push = iota // +z
	PushBackward             // -z
	PushLeft                 // -x
	PushRight                // +x
	Pushback                 // against the mob's facing
)

const (
	pushStep     = 0.1
	maxPushSteps = 64
)

func (p Push) vector() mgl64.Vec3 {
	switch p {
	case PushForward:
		return mgl64.Vec3{0, 0, 1}
	case PushBackward:
		return mgl64.Vec3{0, 0, -1}
	case PushLeft:
		return mgl64.Vec3{-1, 0, 0}
	case PushRight:
		return mgl64.Vec3{1, 0, 0}
	}
	return mgl64.Vec3{}
}

// Wall bits of the four cardinal neighbours of a tile.
const (
	WallLeft   uint8 = 1 << iota // x-1
	WallRight                    // x+1
	WallTop                      // z-1
	WallBottom                   // z+1
)

// WallPattern returns which cardinal neighbours of (x,z) are walls.
func (m *Map) WallPattern(x, z int) uint8 {
	var p uint8
	if m.TileAt(x-1, z).IsWall() {
		p |= WallLeft
	}
	if m.TileAt(x+1, z).IsWall() {
		p |= WallRight
	}
	if m.TileAt(x, z-1).IsWall() {
		p |= WallTop
	}
	if m.TileAt(x, z+1).IsWall() {
		p |= WallBottom
	}
	return p
}

// ChoosePush picks the way out for a mob at pos standing over t. Of the open
// neighbours, the one behind the nearest edge wins, so the quadrant of the tile
// the mob is in decides between the open sides. Fully enclosed tiles use
// Pushback.
func (m *Map) ChoosePush(t *Tile, pos mgl64.Vec3) Push {
	pattern := m.WallPattern(t.X, t.Z)
	size := m.rules.TileSize
	x0, z0 := float64(t.X)*size, float64(t.Z)*size
	options := [...]struct {
		push    Push
		blocked uint8
		dist    float64
	}{
		{PushLeft, WallLeft, pos.X() - x0},
		{PushRight, WallRight, x0 + size - pos.X()},
		{PushBackward, WallTop, pos.Z() - z0},
		{PushForward, WallBottom, z0 + size - pos.Z()},
	}
	best, bestDist := Pushback, math.Inf(1)
	for _, o := range options {
		if pattern&o.blocked == 0 && o.dist < bestDist {
			best, bestDist = o.push, o.dist
		}
	}
	return best
}

// Push moves the mob out of the wall it stands in.
func (b *Body) Push(p Push) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushLocked(p)
}

// pushLocked steps through walls in direction p, then clears the wall by the
// mob's radius and lands on the ground. Anything but a floor tile at the end,
// or running out of steps, respawns the mob.
func (b *Body) pushLocked(p Push) {
	dir := p.vector()
	if p == Pushback {
		dir = b.backwardLocked()
	}
	if dir.Len() == 0 {
		b.respawnLocked()
		return
	}
	pos := b.pos
	for i := 0; b.m.TileAtPosition(pos).IsWall(); i++ {
		if i >= maxPushSteps {
			b.respawnLocked()
			return
		}
		pos = pos.Add(dir.Mul(pushStep))
	}
	pos = pos.Add(dir.Mul(b.radius))
	pos[1] = b.m.rules.GroundLevel
	t := b.m.TileAtPosition(pos)
	if !b.m.owns(t) || t.IsWall() {
		b.respawnLocked()
		return
	}
	b.pos = pos
	b.commitTileLocked()
}

func (b *Body) backwardLocked() mgl64.Vec3 {
	f := b.rot.Rotate(mgl64.Vec3{0, 0, -1})
	f[1] = 0
	if f.Len() == 0 {
		return f
	}
	return f.Normalize().Mul(-1)
}

// resolveWallLocked pushes the mob off a wall tile it is standing over.
// Reports whether a push happened.
func (b *Body) resolveWallLocked() bool {
	t := b.m.TileAtPosition(b.pos)
	if !t.IsWall() {
		return false
	}
	b.pushLocked(b.m.ChoosePush(t, b.pos))
	return true
}
