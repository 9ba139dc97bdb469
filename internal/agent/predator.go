package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/snackarena/server/internal/scripting"
	"github.com/snackarena/server/internal/world"
)

// Predator drives one autonomous predator.
type Predator struct {
	mob     *world.Predator
	decider scripting.Decider
	delay   time.Duration
	log     *zap.Logger
}

func NewPredator(mob *world.Predator, d scripting.Decider, delay time.Duration, log *zap.Logger) *Predator {
	return &Predator{
		mob:     mob,
		decider: d,
		delay:   delayOf(d, delay),
		log: log.With(zap.String("agent", mob.ID()), zap.String("kind", "predator"),
			zap.Stringer("difficulty", mob.Difficulty())),
	}
}

func (a *Predator) Delay() time.Duration { return a.delay }

// Run waits one delay before the first decision, then steps until ctx is
// cancelled.
func (a *Predator) Run(ctx context.Context) error {
	defer closeDecider(a.decider, a.log)
	a.log.Debug("predator loop started", zap.Duration("delay", a.delay))
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

// Step runs one iteration. While the avatar shares its tile the predator only
// waits; otherwise it turns after half the delay and moves after the rest.
func (a *Predator) Step(ctx context.Context) error {
	if a.mob.WithAvatar() {
		return sleep(ctx, a.delay)
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
	return nil
}
