package event

// Dirty events queued by the simulation for the next aggregator tick.
// Each type is a value snapshot taken at the mutation site, so consumers never
// read live simulation state.

// Event is the tagged union of everything a session queue accepts.
type Event interface {
	isEvent()
}

// TileChanged is emitted when a tile's kind or item changes.
type TileChanged struct {
	X, Z      int
	Kind      string // "FLOOR" | "WALL"
	Item      string // "EMPTY", "CHERRY", ... "EGG"
	ItemValue int
}

// HerbivoreChanged is emitted on every herbivore transition (mid-move, committed
// move, thickness or fright change).
type HerbivoreChanged struct {
	ID        string
	X, Z      int
	Thickness string
	Facing    int
	Scared    bool
}

// PredatorChanged is emitted by autonomous predators.
type PredatorChanged struct {
	ID     string
	X, Z   int
	Facing int
}

// RoundEnded carries the final result of a round.
type RoundEnded struct {
	LobbyID     string
	WinningRole string
	TimePlayed  int64 // seconds, capped at the round duration
	Calories    int
}

func (TileChanged) isEvent()      {}
func (HerbivoreChanged) isEvent() {}
func (PredatorChanged) isEvent()  {}
func (RoundEnded) isEvent()       {}
