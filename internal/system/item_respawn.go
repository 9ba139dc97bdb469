package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	coresys "github.com/snackarena/server/internal/core/system"
	"github.com/snackarena/server/internal/lobby"
)

// ItemRespawnSystem refills empty floor tiles of every running map once per
// interval. Phase 1 (PostUpdate).
type ItemRespawnSystem struct {
	lobbies  *lobby.Manager
	interval time.Duration
	chance   float64
	rng      *rand.Rand
	log      *zap.Logger
	elapsed  time.Duration
}

func NewItemRespawnSystem(lobbies *lobby.Manager, interval time.Duration, chance float64, rng *rand.Rand, log *zap.Logger) *ItemRespawnSystem {
	return &ItemRespawnSystem{lobbies: lobbies, interval: interval, chance: chance, rng: rng, log: log}
}

func (s *ItemRespawnSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *ItemRespawnSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.interval <= 0 || s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	for _, l := range s.lobbies.Running() {
		m := l.World()
		if m == nil {
			continue
		}
		if n := m.RespawnItems(s.rng, s.chance); n > 0 {
			s.log.Debug("items respawned", zap.String("lobby", l.ID), zap.Int("placed", n))
		}
	}
}
