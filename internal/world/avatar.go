package world

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Outcome is a round result decided by the avatar's energy.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomePreyWins
	OutcomePredatorsWin
)

// DepletedEnergy marks an avatar that ran out of energy.
const DepletedEnergy = -1

// Sample is the per-tick broadcast view of a player-controlled mob. Avatar-only
// fields stay zero for player predators.
type Sample struct {
	ID          string
	Kind        Kind
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Radius      float64
	Speed       float64

	SprintLeft     time.Duration
	Sprinting      bool
	SprintCooldown bool
	Energy         int
	Scared         bool
}

// PlayerMob is a mob steered by a session member.
type PlayerMob interface {
	Mob
	Move(in Input, rot mgl64.Quat, dt time.Duration)
	Sample() Sample
	Leave()
}

// Avatar is the player-controlled prey: it eats items, jumps, sprints and
// loses energy when a predator catches it.
type Avatar struct {
	Body
	rules Rules
	now   func() time.Time

	energy  int
	scared  bool
	lastHit time.Time

	jumping      bool
	doubleJumped bool
	vy           float64
	airborne     time.Duration

	sprint Sprint

	outcome   Outcome
	onOutcome func(Outcome)
}

// NewAvatar places an avatar on spawn at ground level. now defaults to time.Now.
func NewAvatar(id string, m *Map, spawn *Tile, now func() time.Time) *Avatar {
	if now == nil {
		now = time.Now
	}
	r := m.rules
	a := &Avatar{
		rules:  r,
		now:    now,
		energy: r.AvatarStartEnergy,
		sprint: NewSprint(r.SprintBudget, r.SprintExhausted),
	}
	a.Body.init(a, id, KindAvatar, m, spawn, r.GroundLevel, r.AvatarRadius, r.AvatarSpeed)
	return a
}

// OnOutcome registers the callback fired once when energy decides the round.
// It runs on the goroutine that changed the energy, without avatar locks held.
func (a *Avatar) OnOutcome(fn func(Outcome)) {
	a.mu.Lock()
	a.onOutcome = fn
	a.mu.Unlock()
}

// settleLocked decides the outcome the first time energy hits a bound.
func (a *Avatar) settleLocked() func() {
	if a.outcome != OutcomeNone {
		return nil
	}
	switch {
	case a.energy == DepletedEnergy:
		a.outcome = OutcomePredatorsWin
	case a.energy >= a.rules.AvatarMaxEnergy:
		a.outcome = OutcomePreyWins
	default:
		return nil
	}
	fn, o := a.onOutcome, a.outcome
	if fn == nil {
		return nil
	}
	return func() { fn(o) }
}

func fire(fn func()) {
	if fn != nil {
		fn()
	}
}

func (a *Avatar) Energy() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.energy
}

func (a *Avatar) Outcome() Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outcome
}

func (a *Avatar) Scared() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scared
}

// Gain adds energy up to the maximum. Reaching the maximum wins the round.
func (a *Avatar) Gain(e int) {
	a.mu.Lock()
	if e <= 0 || a.outcome != OutcomeNone {
		a.mu.Unlock()
		return
	}
	a.energy += e
	if a.energy > a.rules.AvatarMaxEnergy {
		a.energy = a.rules.AvatarMaxEnergy
	}
	done := a.settleLocked()
	a.mu.Unlock()
	fire(done)
}

// Lose removes energy. Going below zero leaves the depletion sentinel and
// loses the round.
func (a *Avatar) Lose(e int) {
	a.mu.Lock()
	if e <= 0 || a.outcome != OutcomeNone {
		a.mu.Unlock()
		return
	}
	a.energy -= e
	if a.energy < 0 {
		a.energy = DepletedEnergy
	}
	done := a.settleLocked()
	a.mu.Unlock()
	fire(done)
}

// Hit applies predator damage unless the avatar is still invincible from the
// previous hit. Damage that would not leave energy above zero depletes it.
func (a *Avatar) Hit() {
	a.mu.Lock()
	a.scared = true
	now := a.now()
	if a.outcome != OutcomeNone || (!a.lastHit.IsZero() && now.Sub(a.lastHit) < a.rules.Invincibility) {
		a.mu.Unlock()
		return
	}
	a.lastHit = now
	if a.energy > a.rules.PredatorDamage {
		a.energy -= a.rules.PredatorDamage
	} else {
		a.energy = DepletedEnergy
	}
	done := a.settleLocked()
	a.mu.Unlock()
	fire(done)
}

func (a *Avatar) setScared(v bool) {
	a.mu.Lock()
	a.scared = v
	a.mu.Unlock()
}

// Move runs one kinematics step, then handles predators and items on the tile
// the avatar ends up on.
func (a *Avatar) Move(in Input, rot mgl64.Quat, dt time.Duration) {
	a.mu.Lock()
	speed := a.speed
	if a.sprint.Active(a.now()) {
		speed *= a.rules.SprintMultiplier
	}
	a.moveLocked(in, rot, dt, speed)
	t := a.tile
	a.mu.Unlock()
	a.arrive(t)
}

func (a *Avatar) arrive(t *Tile) {
	if t.HasKind(KindPredator, KindPlayerPredator) {
		a.Hit()
	} else {
		a.setScared(false)
	}
	if it, ok := a.m.TakeItem(t, nil); ok {
		a.Gain(it.Value)
	}
}

// Jump starts a jump from the ground.
func (a *Avatar) Jump() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.jumping || a.outcome != OutcomeNone || a.energy < a.rules.JumpCost {
		return false
	}
	a.vy = a.rules.JumpStrength
	a.jumping = true
	a.doubleJumped = false
	a.airborne = 0
	a.energy -= a.rules.JumpCost
	return true
}

// DoubleJump adds a boost once per jump.
func (a *Avatar) DoubleJump() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.jumping || a.doubleJumped || a.outcome != OutcomeNone || a.energy < a.rules.DoubleJumpCost {
		return false
	}
	a.vy += a.rules.DoubleJumpBoost
	a.doubleJumped = true
	a.energy -= a.rules.DoubleJumpCost
	return true
}

// Jumping reports whether the avatar is airborne.
func (a *Avatar) Jumping() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.jumping
}

func (a *Avatar) VerticalVelocity() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vy
}

// UpdateJump advances the vertical trajectory by dt.
func (a *Avatar) UpdateJump(dt time.Duration) {
	a.mu.Lock()
	if !a.jumping {
		a.mu.Unlock()
		return
	}
	r := a.rules
	if a.pos.Y() < r.GroundLevel {
		a.landLocked()
		a.respawnLocked()
		a.mu.Unlock()
		return
	}
	a.airborne += dt
	g := r.Gravity
	if a.airborne > r.AirborneTimeout {
		g = r.SteepGravity
	}
	s := dt.Seconds()
	a.vy += g * s
	a.pos[1] += a.vy * s

	if a.pos.Y() <= r.WallHeight && a.resolveWallLocked() {
		a.landLocked()
		t := a.tile
		a.mu.Unlock()
		a.arrive(t)
		return
	}
	if a.pos.Y() <= r.GroundLevel {
		a.pos[1] = r.GroundLevel
		a.landLocked()
	}
	a.mu.Unlock()
}

func (a *Avatar) landLocked() {
	a.jumping = false
	a.doubleJumped = false
	a.vy = 0
	a.airborne = 0
}

// StartSprint begins sprinting unless cooling down or out of budget.
func (a *Avatar) StartSprint() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sprint.Start(a.now())
}

func (a *Avatar) StopSprint() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sprint.Stop(a.now())
}

func (a *Avatar) Sample() Sample {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	return Sample{
		ID:             a.id,
		Kind:           KindAvatar,
		Position:       a.pos,
		Orientation:    a.rot,
		Radius:         a.radius,
		Speed:          a.speed,
		SprintLeft:     a.sprint.TimeLeft(now),
		Sprinting:      a.sprint.Active(now),
		SprintCooldown: a.sprint.InCooldown(now),
		Energy:         a.energy,
		Scared:         a.scared,
	}
}
