package world

// Kind classifies mobs. Visibility codes and side effects switch on it.
type Kind uint8

const (
	KindAvatar Kind = iota
	KindPlayerPredator
	KindHerbivore
	KindPredator
)

var kindNames = [...]string{"AVATAR", "PLAYER_PREDATOR", "HERBIVORE", "PREDATOR"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// IsPredator is true for both player-controlled and autonomous predators.
func (k Kind) IsPredator() bool {
	return k == KindPlayerPredator || k == KindPredator
}

// Mob is anything that occupies tiles.
type Mob interface {
	ID() string
	Kind() Kind
}

// Input is one frame of directional input in mob-local space.
type Input struct {
	Forward, Backward, Left, Right bool
}
