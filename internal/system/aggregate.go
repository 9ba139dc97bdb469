package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/snackarena/server/internal/broadcast"
	"github.com/snackarena/server/internal/core/event"
	coresys "github.com/snackarena/server/internal/core/system"
	"github.com/snackarena/server/internal/lobby"
)

const recordTimeout = 5 * time.Second

// AggregateSystem drains every running lobby's event queue, samples its
// player mobs and publishes one ordered batch per lobby. A round-end event
// preempts everything else: the lobby gets a terminal batch and is finalized.
// Phase 2 (Output).
type AggregateSystem struct {
	lobbies       *lobby.Manager
	sink          broadcast.Sink
	results       lobby.ResultRecorder
	messageEnergy int
	log           *zap.Logger

	pending sync.WaitGroup
}

func NewAggregateSystem(lobbies *lobby.Manager, sink broadcast.Sink, results lobby.ResultRecorder, messageEnergy int, log *zap.Logger) *AggregateSystem {
	if results == nil {
		results = lobby.NopRecorder{}
	}
	return &AggregateSystem{
		lobbies:       lobbies,
		sink:          sink,
		results:       results,
		messageEnergy: messageEnergy,
		log:           log,
	}
}

func (s *AggregateSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *AggregateSystem) Update(_ time.Duration) {
	for _, l := range s.lobbies.Running() {
		if err := s.tick(l); err != nil {
			s.log.Error("lobby tick failed", zap.String("lobby", l.ID), zap.Error(err))
		}
	}
}

// tick handles one lobby. A panic is turned into an error so one broken
// session cannot stop the others.
func (s *AggregateSystem) tick(l *lobby.Lobby) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	b := l.Events().Drain()
	if len(b.RoundEnded) > 0 {
		s.finish(l, b.RoundEnded[0])
		return nil
	}

	msgs := broadcast.Batch(l.Samples(), b, s.messageEnergy)
	if len(msgs) == 0 {
		return nil
	}
	if err := s.sink.Publish(l.ID, msgs); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (s *AggregateSystem) finish(l *lobby.Lobby, res event.RoundEnded) {
	if err := s.sink.Publish(l.ID, []broadcast.Message{broadcast.RoundEndMessage(res)}); err != nil {
		s.log.Warn("publish round end", zap.String("lobby", l.ID), zap.Error(err))
	}
	s.lobbies.Finalize(l.ID)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.results.RecordRound(ctx, l.Name, res); err != nil {
			s.log.Error("record round", zap.String("lobby", l.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until every round result handed to the recorder is stored.
func (s *AggregateSystem) Wait() {
	s.pending.Wait()
}
