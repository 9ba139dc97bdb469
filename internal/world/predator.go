package world

import (
	"strings"

	"github.com/snackarena/server/internal/core/event"
)

// Difficulty selects what an autonomous predator can see.
type Difficulty uint8

const (
	Easy      Difficulty = iota // eight neighbours
	Difficult                   // the whole map
)

func (d Difficulty) String() string {
	if d == Difficult {
		return "DIFFICULT"
	}
	return "EASY"
}

// ParseDifficulty maps "difficult" (any case) to Difficult, anything else to Easy.
func ParseDifficulty(s string) Difficulty {
	if strings.EqualFold(strings.TrimSpace(s), "difficult") {
		return Difficult
	}
	return Easy
}

// Predator is an autonomous hunter moving tile by tile.
type Predator struct {
	Body
	difficulty Difficulty
	facing     Direction
}

func NewPredator(id string, m *Map, spawn *Tile, difficulty Difficulty) *Predator {
	r := m.rules
	p := &Predator{difficulty: difficulty, facing: North}
	p.Body.init(p, id, KindPredator, m, spawn, r.GroundLevel, r.PredatorRadius, r.PredatorSpeed)
	return p
}

func (p *Predator) Difficulty() Difficulty { return p.difficulty }

func (p *Predator) Facing() Direction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.facing
}

// View samples what the decision function gets to see.
func (p *Predator) View() []string {
	p.mu.Lock()
	t, f := p.tile, p.facing
	p.mu.Unlock()
	if p.difficulty == Difficult {
		return p.m.GridView(t.X, t.Z, f)
	}
	return p.m.PredatorView(t.X, t.Z, f)
}

// WithAvatar reports whether the predator shares its tile with an avatar.
func (p *Predator) WithAvatar() bool {
	return p.Tile().HasKind(KindAvatar)
}

// Face turns the predator and announces the mid-transition state.
func (p *Predator) Face(d Direction) {
	p.mu.Lock()
	p.facing = d
	p.mu.Unlock()
	p.Notify()
}

// Step moves one tile in d and hunts on arrival. Walls are refused.
func (p *Predator) Step(d Direction) bool {
	p.mu.Lock()
	p.facing = d
	dx, dz := d.Delta()
	to := p.m.TileAt(p.tile.X+dx, p.tile.Z+dz)
	moved := !to.IsWall()
	if moved {
		p.m.relocate(p, p.tile, to)
		p.tile = to
		p.pos = p.m.Center(to, p.pos.Y())
	}
	p.mu.Unlock()
	p.Notify()
	if moved {
		hunt(to)
	}
	return moved
}

func (p *Predator) State() event.PredatorChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return event.PredatorChanged{ID: p.id, X: p.tile.X, Z: p.tile.Z, Facing: int(p.facing)}
}

func (p *Predator) Notify() {
	p.m.events.Push(p.State())
}
