package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/snackarena/server/internal/scripting"
	"github.com/snackarena/server/internal/world"
)

// Herbivore drives one herbivore: graze, lay eggs, and sit out a full belly as
// a temporary wall.
type Herbivore struct {
	mob     *world.Herbivore
	decider scripting.Decider
	delay   time.Duration
	log     *zap.Logger
}

// NewHerbivore builds the loop. The decider's waiting time, when it has one,
// overrides delay.
func NewHerbivore(mob *world.Herbivore, d scripting.Decider, delay time.Duration, log *zap.Logger) *Herbivore {
	return &Herbivore{
		mob:     mob,
		decider: d,
		delay:   delayOf(d, delay),
		log:     log.With(zap.String("agent", mob.ID()), zap.String("kind", "herbivore")),
	}
}

func (a *Herbivore) Delay() time.Duration { return a.delay }

// Run waits one delay, then steps until ctx is cancelled.
func (a *Herbivore) Run(ctx context.Context) error {
	defer closeDecider(a.decider, a.log)
	a.log.Debug("herbivore loop started", zap.Duration("delay", a.delay))
	if err := sleep(ctx, a.delay); err != nil {
		return finished(ctx, err)
	}
	for ctx.Err() == nil {
		if err := a.Step(ctx); err != nil {
			return finished(ctx, err)
		}
	}
	return nil
}

// Step runs one iteration: decide, announce the turn after half the delay,
// then move after the other half and eat whatever is on the tile it ends up
// on. It returns early, with ctx's error, when cancelled during a sleep.
func (a *Herbivore) Step(ctx context.Context) error {
	a.mob.Tick()
	if a.mob.Blocking() {
		return a.digest(ctx)
	}

	dir := choose(a.decider, a.mob.View(), a.log)
	half := a.delay / 2
	if err := sleep(ctx, half); err != nil {
		return err
	}
	a.mob.Face(dir)
	if err := sleep(ctx, a.delay-half); err != nil {
		return err
	}
	a.mob.Step(dir)
	if ate, full := a.mob.Graze(); ate {
		a.mob.Notify()
		if full {
			a.log.Debug("herbivore full", zap.Int("energy", a.mob.Energy()))
		}
	}
	return nil
}

// digest turns the herbivore's tile into a wall for a while, then lays.
// A cancelled round still gets its floor back.
func (a *Herbivore) digest(ctx context.Context) error {
	a.mob.Block()
	err := sleep(ctx, a.mob.Map().Rules().HeavyBlock)
	a.mob.Unblock()
	return err
}
