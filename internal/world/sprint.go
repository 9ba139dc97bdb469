package world

import "time"

// Sprint tracks the avatar's sprint budget. Every method takes the current
// time, so the state advances lazily and needs no timers.
type Sprint struct {
	budget    time.Duration
	exhausted time.Duration

	left          time.Duration
	active        bool
	since         time.Time
	cooldownUntil time.Time
}

func NewSprint(budget, exhausted time.Duration) Sprint {
	return Sprint{budget: budget, exhausted: exhausted, left: budget}
}

// advance burns budget while sprinting and refills it after a cooldown.
func (s *Sprint) advance(now time.Time) {
	if s.active {
		if end := s.since.Add(s.left); !now.Before(end) {
			s.left = 0
			s.active = false
			s.cooldownUntil = end.Add(s.exhausted)
		} else {
			s.left -= now.Sub(s.since)
			s.since = now
		}
	}
	if !s.active && !s.cooldownUntil.IsZero() && !now.Before(s.cooldownUntil) {
		s.cooldownUntil = time.Time{}
		s.left = s.budget
	}
}

// CanSprint reports whether a sprint may start now.
func (s *Sprint) CanSprint(now time.Time) bool {
	s.advance(now)
	return s.cooldownUntil.IsZero() && s.left > 0
}

// Start begins sprinting if allowed.
func (s *Sprint) Start(now time.Time) bool {
	if s.active {
		s.advance(now)
		return s.active
	}
	if !s.CanSprint(now) {
		return false
	}
	s.active = true
	s.since = now
	return true
}

// Stop ends a sprint. The cooldown is twice the budget spent.
func (s *Sprint) Stop(now time.Time) {
	s.advance(now)
	if !s.active {
		return
	}
	s.active = false
	if spent := s.budget - s.left; spent > 0 {
		s.cooldownUntil = now.Add(2 * spent)
	}
}

// Active reports whether the avatar is sprinting now.
func (s *Sprint) Active(now time.Time) bool {
	s.advance(now)
	return s.active
}

func (s *Sprint) InCooldown(now time.Time) bool {
	s.advance(now)
	return !s.cooldownUntil.IsZero()
}

func (s *Sprint) TimeLeft(now time.Time) time.Duration {
	s.advance(now)
	return s.left
}
