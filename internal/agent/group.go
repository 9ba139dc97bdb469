package agent

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Group supervises the agents of one round. Stop cancels all of them and
// waits; an agent failing cancels its siblings.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	eg     *errgroup.Group

	mu      sync.Mutex
	stopped bool
	count   int
}

func NewGroup(parent context.Context) *Group {
	ctx, cancel := context.WithCancel(parent)
	eg, ctx := errgroup.WithContext(ctx)
	return &Group{ctx: ctx, cancel: cancel, eg: eg}
}

// Go starts r. Runners added after Stop are ignored.
func (g *Group) Go(r Runner) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	g.count++
	g.eg.Go(func() error { return r.Run(g.ctx) })
}

// Len is the number of runners started.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}

// Cancel tells every runner to stop without waiting for them. Runners added
// afterwards are ignored.
func (g *Group) Cancel() {
	g.mu.Lock()
	g.stopped = true
	g.mu.Unlock()
	g.cancel()
}

// Wait blocks until every runner has returned and reports the first error.
func (g *Group) Wait() error {
	return g.eg.Wait()
}

// Stop cancels every runner and returns the first error any of them reported.
// It is safe to call more than once.
func (g *Group) Stop() error {
	g.Cancel()
	return g.Wait()
}
