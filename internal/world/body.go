package world

import (
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Collision codes of CheckCollision.
const (
	CollisionNone = 0
	CollisionX    = 1 // x axis blocked, clamp x
	CollisionZ    = 2 // z axis blocked, clamp z
	CollisionFull = 3 // no movement
)

// Body is the continuous-space state shared by every mob. Helpers with the
// Locked suffix expect mu to be held.
type Body struct {
	mu     sync.Mutex
	self   Mob
	id     string
	kind   Kind
	m      *Map
	pos    mgl64.Vec3
	rot    mgl64.Quat
	radius float64
	speed  float64
	spawn  mgl64.Vec3
	tile   *Tile
}

func (b *Body) init(self Mob, id string, kind Kind, m *Map, spawn *Tile, y, radius, speed float64) {
	b.self = self
	b.id = id
	b.kind = kind
	b.m = m
	b.spawn = m.Center(spawn, y)
	b.pos = b.spawn
	b.rot = mgl64.QuatIdent()
	b.radius = radius
	b.speed = speed
	b.tile = spawn
	m.place(self, spawn)
}

func (b *Body) ID() string { return b.id }

func (b *Body) Kind() Kind { return b.kind }

func (b *Body) Map() *Map { return b.m }

func (b *Body) Position() mgl64.Vec3 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

func (b *Body) Orientation() mgl64.Quat {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rot
}

func (b *Body) Radius() float64 { return b.radius }

func (b *Body) Speed() float64 { return b.speed }

// Tile returns the tile whose occupant set holds the mob.
func (b *Body) Tile() *Tile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tile
}

// Leave removes the mob from its tile. Used when a round is torn down.
func (b *Body) Leave() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m.Vacate(b.self, b.tile)
}

// CheckCollision classifies a candidate position at the mob's altitude.
func (b *Body) CheckCollision(x, z float64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.m.collide(x, b.pos.Y(), z, b.radius).code
}

type collision struct {
	code   int
	limitX float64
	limitZ float64
}

// collide tests a circle of radius r at (x,z), altitude y, against the walls
// around its tile. limitX and limitZ are the clamp targets for codes 1 and 2.
func (m *Map) collide(x, y, z, r float64) collision {
	size := m.rules.TileSize
	ix, iz := m.Index(x), m.Index(z)
	high := y >= m.rules.WallHeight
	if m.TileAt(ix, iz).IsWall() {
		if high {
			return collision{}
		}
		return collision{code: CollisionFull}
	}
	if high {
		return collision{}
	}

	sx, edgeX := 1, float64(ix+1)*size
	if x-m.rules.TileCenter(ix) <= 0 {
		sx, edgeX = -1, float64(ix)*size
	}
	sz, edgeZ := 1, float64(iz+1)*size
	if z-m.rules.TileCenter(iz) <= 0 {
		sz, edgeZ = -1, float64(iz)*size
	}

	var c collision
	if m.TileAt(ix+sx, iz).IsWall() && math.Abs(x-edgeX) <= r {
		c.code |= CollisionX
		c.limitX = edgeX - float64(sx)*r
	}
	if m.TileAt(ix, iz+sz).IsWall() && math.Abs(z-edgeZ) <= r {
		c.code |= CollisionZ
		c.limitZ = edgeZ - float64(sz)*r
	}
	if c.code == CollisionNone && m.TileAt(ix+sx, iz+sz).IsWall() &&
		math.Hypot(x-edgeX, z-edgeZ) <= r {
		c.code = CollisionFull
	}
	return c
}

func (in Input) vector() mgl64.Vec3 {
	var v mgl64.Vec3
	if in.Forward {
		v[2]--
	}
	if in.Backward {
		v[2]++
	}
	if in.Left {
		v[0]--
	}
	if in.Right {
		v[0]++
	}
	return v
}

// moveLocked runs one kinematics step and commits the resulting tile. A mob
// found over a wall below wall height is pushed out first.
func (b *Body) moveLocked(in Input, rot mgl64.Quat, dt time.Duration, speed float64) {
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	} else {
		rot = rot.Normalize()
	}
	b.rot = rot
	if b.pos.Y() <= b.m.rules.WallHeight {
		b.resolveWallLocked()
	}

	step := in.vector()
	if step.Len() > 0 {
		step = rot.Rotate(step)
		step[1] = 0
		if l := step.Len(); l > 0 {
			step = step.Mul(speed * dt.Seconds() / l)
		}
	}
	cand := mgl64.Vec3{b.pos.X() + step.X(), b.pos.Y(), b.pos.Z() + step.Z()}
	if b.pos.Y() < b.m.rules.GroundLevel || !b.m.InBounds(b.m.Index(cand.X()), b.m.Index(cand.Z())) {
		b.respawnLocked()
		return
	}

	c := b.m.collide(cand.X(), cand.Y(), cand.Z(), b.radius)
	switch c.code {
	case CollisionNone:
		b.pos = cand
	case CollisionX:
		cand[0] = c.limitX
		b.pos = cand
	case CollisionZ:
		cand[2] = c.limitZ
		b.pos = cand
	case CollisionFull:
		return
	}
	b.commitTileLocked()
}

// commitTileLocked moves the mob into the occupant set of the tile under it.
func (b *Body) commitTileLocked() {
	t := b.m.TileAtPosition(b.pos)
	if t == b.tile || !b.m.owns(t) {
		return
	}
	b.m.relocate(b.self, b.tile, t)
	b.tile = t
}

func (b *Body) respawnLocked() {
	b.pos = b.spawn
	b.commitTileLocked()
}

// Respawn puts the mob back on its spawn point.
func (b *Body) Respawn() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.respawnLocked()
}
