package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseUpdate     Phase = iota // 0: jump and gravity integration
	PhasePostUpdate              // 1: item respawn sweeps
	PhaseOutput                  // 2: drain queues, sample, broadcast, finish ended rounds
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
