package world

import "time"

// Rules holds every physics and balance constant of a round.
type Rules struct {
	TileSize    float64 // edge length of a tile in world units
	WallHeight  float64 // walls are passable at or above this altitude
	GroundLevel float64 // resting altitude of player-controlled mobs

	AvatarRadius      float64
	AvatarSpeed       float64
	SprintMultiplier  float64
	SprintBudget      time.Duration
	SprintExhausted   time.Duration // cooldown after the budget runs out
	AvatarMaxEnergy   int
	AvatarStartEnergy int
	MessageEnergy     int // avatar samples carry a notice at or above this
	Invincibility     time.Duration

	PredatorRadius float64
	PredatorSpeed  float64
	PredatorDamage int

	JumpStrength    float64
	DoubleJumpBoost float64
	Gravity         float64
	SteepGravity    float64
	AirborneTimeout time.Duration // gravity switches to SteepGravity after this
	JumpCost        int
	DoubleJumpCost  int

	HerbivoreMaxEnergy int
	HeavyBlock         time.Duration // a full herbivore turns its tile into a wall this long
	EggMinInterval     time.Duration
	EggMaxInterval     time.Duration
	EggScareShortening time.Duration
	ScaredFor          time.Duration
}

// DefaultRules returns the stock balance.
func DefaultRules() Rules {
	return Rules{
		TileSize:    2,
		WallHeight:  5,
		GroundLevel: 2,

		AvatarRadius:      0.3,
		AvatarSpeed:       6.5,
		SprintMultiplier:  1.5,
		SprintBudget:      5 * time.Second,
		SprintExhausted:   10 * time.Second,
		AvatarMaxEnergy:   20000,
		AvatarStartEnergy: 2500,
		MessageEnergy:     3000,
		Invincibility:     time.Second,

		PredatorRadius: 0.3,
		PredatorSpeed:  7,
		PredatorDamage: 2000,

		JumpStrength:    8.5,
		DoubleJumpBoost: 8.5 * 0.15,
		Gravity:         -27,
		SteepGravity:    -100,
		AirborneTimeout: time.Second,
		JumpCost:        500,
		DoubleJumpCost:  500,

		HerbivoreMaxEnergy: 3000,
		HeavyBlock:         10 * time.Second,
		EggMinInterval:     30 * time.Second,
		EggMaxInterval:     60 * time.Second,
		EggScareShortening: 10 * time.Second,
		ScaredFor:          2300 * time.Millisecond,
	}
}

// TileCenter returns the world coordinate of the center of tile index i.
func (r Rules) TileCenter(i int) float64 {
	return float64(i)*r.TileSize + r.TileSize/2
}
