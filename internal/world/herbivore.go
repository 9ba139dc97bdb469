package world

import (
	"math/rand"
	"time"

	"github.com/snackarena/server/internal/core/event"
)

// Thickness is the visual weight of a herbivore.
type Thickness uint8

const (
	Thin Thickness = iota
	SlightlyThick
	Medium
	Heavy
	VeryHeavy
)

var thicknessNames = [...]string{"THIN", "SLIGHTLY_THICK", "MEDIUM", "HEAVY", "VERY_HEAVY"}

func (t Thickness) String() string {
	if int(t) < len(thicknessNames) {
		return thicknessNames[t]
	}
	return "UNKNOWN"
}

const (
	minEggValue   = 300
	eggEnergyPart = 0.3
)

// Herbivore is an autonomous grazer. It moves tile by tile, eats fruit, lays
// eggs and panics when a predator reaches its tile.
type Herbivore struct {
	Body
	rules Rules
	now   func() time.Time
	rng   *rand.Rand

	energy      int
	thickness   Thickness
	facing      Direction
	scared      bool
	scaredUntil time.Time
	nextEgg     time.Time
	blocking    bool
}

// NewHerbivore places a herbivore on spawn facing a random direction. rng is
// owned by the herbivore from now on.
func NewHerbivore(id string, m *Map, spawn *Tile, rng *rand.Rand, now func() time.Time) *Herbivore {
	if now == nil {
		now = time.Now
	}
	h := &Herbivore{
		rules:  m.rules,
		now:    now,
		rng:    rng,
		facing: Direction(rng.Intn(4)),
	}
	h.Body.init(h, id, KindHerbivore, m, spawn, 0, 0, 0)
	h.nextEgg = now().Add(h.eggIntervalLocked())
	return h
}

func (h *Herbivore) eggIntervalLocked() time.Duration {
	lo, hi := h.rules.EggMinInterval, h.rules.EggMaxInterval
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(h.rng.Int63n(int64(hi-lo)))
}

func (h *Herbivore) Facing() Direction {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.facing
}

func (h *Herbivore) Energy() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.energy
}

func (h *Herbivore) Thickness() Thickness {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.thickness
}

func (h *Herbivore) Scared() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scared
}

// Blocking reports whether the herbivore is too full to move.
func (h *Herbivore) Blocking() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.blocking
}

// View samples the 5x5 neighbourhood for the decision function.
func (h *Herbivore) View() []string {
	h.mu.Lock()
	t, f := h.tile, h.facing
	h.mu.Unlock()
	return h.m.HerbivoreView(t.X, t.Z, f)
}

// Face turns the herbivore and announces the mid-transition state.
func (h *Herbivore) Face(d Direction) {
	h.mu.Lock()
	h.facing = d
	h.mu.Unlock()
	h.Notify()
}

// Step moves one tile in d. Walls are refused and the herbivore stays.
func (h *Herbivore) Step(d Direction) bool {
	h.mu.Lock()
	h.facing = d
	dx, dz := d.Delta()
	to := h.m.TileAt(h.tile.X+dx, h.tile.Z+dz)
	moved := !to.IsWall()
	if moved {
		h.m.relocate(h, h.tile, to)
		h.tile = to
		h.pos = h.m.Center(to, 0)
	}
	h.mu.Unlock()
	h.Notify()
	return moved
}

// Graze eats a non-egg item on the current tile while below maximum energy.
// full reports that this meal filled the herbivore up.
func (h *Herbivore) Graze() (ate, full bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.blocking || h.energy >= h.rules.HerbivoreMaxEnergy {
		return false, false
	}
	it, ok := h.m.TakeItem(h.tile, func(it Item) bool { return it.Kind != ItemEgg })
	if !ok {
		return false, false
	}
	h.energy += it.Value
	if h.energy >= h.rules.HerbivoreMaxEnergy {
		h.energy = h.rules.HerbivoreMaxEnergy
		h.thickness = VeryHeavy
		h.blocking = true
		return true, true
	}
	h.thickness = h.thicknessLocked()
	return true, false
}

func (h *Herbivore) thicknessLocked() Thickness {
	full := h.rules.HerbivoreMaxEnergy
	sixth := full / 6
	switch e := h.energy; {
	case e <= 3*sixth:
		return Thin
	case e <= 4*sixth:
		return SlightlyThick
	case e <= 5*sixth:
		return Medium
	case e < full:
		return Heavy
	}
	return VeryHeavy
}

// Block turns the herbivore's tile into a wall.
func (h *Herbivore) Block() {
	h.mu.Lock()
	t := h.tile
	h.mu.Unlock()
	h.m.SetKind(t, Wall)
	h.Notify()
}

// Unblock restores the tile and lays the egg the herbivore was full of.
func (h *Herbivore) Unblock() {
	h.mu.Lock()
	h.m.SetKind(h.tile, Floor)
	h.blocking = false
	h.layEggLocked()
	h.mu.Unlock()
	h.Notify()
}

// LayEgg drops an egg worth a share of the eaten energy and restarts the
// egg timer. An empty herbivore only restarts the timer.
func (h *Herbivore) LayEgg() bool {
	h.mu.Lock()
	laid := h.layEggLocked()
	h.mu.Unlock()
	if laid {
		h.Notify()
	}
	return laid
}

func (h *Herbivore) layEggLocked() bool {
	h.nextEgg = h.now().Add(h.eggIntervalLocked())
	if h.energy <= 0 {
		return false
	}
	value := int(float64(h.energy) * eggEnergyPart)
	if value < minEggValue {
		value = minEggValue
	}
	h.m.SetItem(h.tile, EggItem(value))
	h.energy = 0
	h.thickness = Thin
	return true
}

// Frighten makes the herbivore lay at once and brings the following egg
// forward. The fright wears off after Rules.ScaredFor.
func (h *Herbivore) Frighten() {
	h.mu.Lock()
	now := h.now()
	h.scared = true
	h.scaredUntil = now.Add(h.rules.ScaredFor)
	if !h.blocking {
		h.layEggLocked()
	}
	next := h.eggIntervalLocked() - h.rules.EggScareShortening
	if next < h.rules.EggScareShortening {
		next = h.rules.EggScareShortening
	}
	h.nextEgg = now.Add(next)
	h.mu.Unlock()
	h.Notify()
}

// Tick runs the egg timer and clears an expired fright.
func (h *Herbivore) Tick() {
	h.mu.Lock()
	now := h.now()
	changed := false
	if h.scared && !now.Before(h.scaredUntil) {
		h.scared = false
		changed = true
	}
	if !h.blocking && !now.Before(h.nextEgg) {
		if h.layEggLocked() {
			changed = true
		}
	}
	h.mu.Unlock()
	if changed {
		h.Notify()
	}
}

// State returns the broadcast snapshot.
func (h *Herbivore) State() event.HerbivoreChanged {
	h.mu.Lock()
	defer h.mu.Unlock()
	return event.HerbivoreChanged{
		ID:        h.id,
		X:         h.tile.X,
		Z:         h.tile.Z,
		Thickness: h.thickness.String(),
		Facing:    int(h.facing),
		Scared:    h.scared,
	}
}

// Notify queues the current state for the next tick.
func (h *Herbivore) Notify() {
	h.m.events.Push(h.State())
}
