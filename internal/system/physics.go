package system

import (
	"time"

	coresys "github.com/snackarena/server/internal/core/system"
	"github.com/snackarena/server/internal/lobby"
)

// PhysicsSystem integrates the avatar's jump arc every tick. Phase 0 (Update).
type PhysicsSystem struct {
	lobbies *lobby.Manager
}

func NewPhysicsSystem(lobbies *lobby.Manager) *PhysicsSystem {
	return &PhysicsSystem{lobbies: lobbies}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *PhysicsSystem) Update(dt time.Duration) {
	for _, l := range s.lobbies.Running() {
		if av := l.Avatar(); av != nil {
			av.UpdateJump(dt)
		}
	}
}
