// Package agent runs the decision loops of autonomous mobs. Every herbivore and
// predator gets its own goroutine which samples what the mob sees, asks its
// decider for a direction and walks there with the deliberation delay split
// around the move.
package agent

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/snackarena/server/internal/scripting"
	"github.com/snackarena/server/internal/world"
)

// DefaultDelay is the deliberation delay when neither config nor script sets one.
const DefaultDelay = 2 * time.Second

// Runner is a loop that runs until its context is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// choose asks the decider for a direction. Errors, panics and answers outside
// 0..3 all turn into north.
func choose(d scripting.Decider, codes []string, log *zap.Logger) (dir world.Direction) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("decision panicked, heading north", zap.Any("panic", r))
			dir = world.North
		}
	}()
	facing := ""
	if len(codes) > 0 {
		facing = codes[len(codes)-1]
	}
	n, err := d.ChooseDirection(codes, facing)
	if err != nil {
		log.Warn("decision failed, heading north", zap.Error(err))
		return world.North
	}
	dir = world.Direction(n)
	if !dir.Valid() {
		log.Warn("decision out of range, heading north", zap.Int("direction", n))
		return world.North
	}
	return dir
}

// delayOf prefers the script's own pace over the configured one.
func delayOf(d scripting.Decider, fallback time.Duration) time.Duration {
	if p, ok := d.(scripting.Pacer); ok {
		if wait, ok := p.WaitingTime(); ok {
			return wait
		}
	}
	if fallback <= 0 {
		return DefaultDelay
	}
	return fallback
}

func closeDecider(d scripting.Decider, log *zap.Logger) {
	c, ok := d.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("close decider", zap.Error(err))
	}
}

// finished maps a cancelled loop to a clean exit.
func finished(ctx context.Context, err error) error {
	if err == nil || ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("agent loop: %w", err)
}
