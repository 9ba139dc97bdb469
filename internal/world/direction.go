package world

// Direction is a cardinal heading. North decreases x, east increases z.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

var directionNames = [...]string{"NORTH", "EAST", "SOUTH", "WEST"}

func (d Direction) String() string {
	if d.Valid() {
		return directionNames[d]
	}
	return "INVALID"
}

func (d Direction) Valid() bool { return d >= North && d <= West }

// Delta returns the tile offset of one step.
func (d Direction) Delta() (dx, dz int) {
	switch d {
	case North:
		return -1, 0
	case East:
		return 0, 1
	case South:
		return 1, 0
	case West:
		return 0, -1
	}
	return 0, 0
}

func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}
