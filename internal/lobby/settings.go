package lobby

import (
	"context"
	"math/rand"
	"time"

	"github.com/snackarena/server/internal/core/event"
	"github.com/snackarena/server/internal/scripting"
	"github.com/snackarena/server/internal/world"
)

// Settings are the round parameters shared by every lobby of a manager.
type Settings struct {
	Rules           world.Rules
	RoundDuration   time.Duration
	PlayersPerRound int // members plus autonomous predators
	MinMembers      int
	ItemRate        float64 // chance of an item on each plain floor tile at round start
	AgentDelay      time.Duration
	DefaultMap      string
	EasyScript      string
	DifficultScript string
	Now             func() time.Time
}

// DefaultSettings returns the stock round parameters.
func DefaultSettings() Settings {
	return Settings{
		Rules:           world.DefaultRules(),
		RoundDuration:   5 * time.Minute,
		PlayersPerRound: 5,
		MinMembers:      2,
		ItemRate:        0.1,
		AgentDelay:      2 * time.Second,
		DefaultMap:      "classic",
		EasyScript:      "easy",
		DifficultScript: "difficult",
		Now:             time.Now,
	}
}

func (s Settings) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Deciders hands out a decision function per autonomous mob.
// *scripting.Engine implements it.
type Deciders interface {
	Herbivore(rng *rand.Rand) scripting.Decider
	Predator(name string, rng *rand.Rand) scripting.Decider
}

// Maps resolves map names to grid rows.
type Maps interface {
	Rows(name string) ([]string, bool)
}

// ResultRecorder stores finished rounds, e.g. for a leaderboard.
type ResultRecorder interface {
	RecordRound(ctx context.Context, lobbyName string, res event.RoundEnded) error
}

// NopRecorder discards results.
type NopRecorder struct{}

func (NopRecorder) RecordRound(context.Context, string, event.RoundEnded) error { return nil }
