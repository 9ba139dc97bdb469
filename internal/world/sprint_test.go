package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSprintStopCooldownIsTwiceSpent(t *testing.T) {
	t0 := newFakeClock().Now()
	s := NewSprint(5*time.Second, 10*time.Second)

	require.True(t, s.Start(t0))
	assert.True(t, s.Active(t0.Add(2*time.Second)))
	assert.Equal(t, 3*time.Second, s.TimeLeft(t0.Add(2*time.Second)))

	s.Stop(t0.Add(2 * time.Second))
	assert.False(t, s.Active(t0.Add(2*time.Second)))
	assert.True(t, s.InCooldown(t0.Add(5*time.Second)))
	assert.False(t, s.CanSprint(t0.Add(5*time.Second)))

	assert.True(t, s.CanSprint(t0.Add(6*time.Second)))
	assert.Equal(t, 5*time.Second, s.TimeLeft(t0.Add(6*time.Second)))
}

func TestSprintExhaustion(t *testing.T) {
	t0 := newFakeClock().Now()
	s := NewSprint(5*time.Second, 10*time.Second)
	require.True(t, s.Start(t0))

	assert.False(t, s.Active(t0.Add(6*time.Second)))
	assert.Zero(t, s.TimeLeft(t0.Add(6*time.Second)))
	assert.False(t, s.Start(t0.Add(14*time.Second)))
	assert.True(t, s.Start(t0.Add(15*time.Second)))
}

func TestSprintStopWithoutStart(t *testing.T) {
	t0 := newFakeClock().Now()
	s := NewSprint(5*time.Second, 10*time.Second)
	s.Stop(t0)
	assert.False(t, s.InCooldown(t0))
	assert.True(t, s.CanSprint(t0))
}
