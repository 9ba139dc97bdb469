package world

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// PlayerPredator is a predator steered by a session member.
type PlayerPredator struct {
	Body
}

// NewPlayerPredator places a player predator on spawn at ground level.
func NewPlayerPredator(id string, m *Map, spawn *Tile) *PlayerPredator {
	r := m.rules
	g := &PlayerPredator{}
	g.Body.init(g, id, KindPlayerPredator, m, spawn, r.GroundLevel, r.PredatorRadius, r.PredatorSpeed)
	return g
}

// Move runs one kinematics step and hunts whatever shares the new tile.
func (g *PlayerPredator) Move(in Input, rot mgl64.Quat, dt time.Duration) {
	g.mu.Lock()
	g.moveLocked(in, rot, dt, g.speed)
	t := g.tile
	g.mu.Unlock()
	hunt(t)
}

func (g *PlayerPredator) Sample() Sample {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Sample{
		ID:          g.id,
		Kind:        KindPlayerPredator,
		Position:    g.pos,
		Orientation: g.rot,
		Radius:      g.radius,
		Speed:       g.speed,
	}
}

// hunt frightens herbivores and hits avatars on t.
func hunt(t *Tile) {
	for _, m := range t.Occupants() {
		switch m.Kind() {
		case KindHerbivore:
			m.(*Herbivore).Frighten()
		case KindAvatar:
			m.(*Avatar).Hit()
		}
	}
}
