package scripting

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoEntryPoint is returned when a script does not define the decision function.
	ErrNoEntryPoint = errors.New("decision function not defined")
	// ErrBadResult is returned when a script answers with something other than a number.
	ErrBadResult = errors.New("decision function returned a non-number")
	// ErrBadSample is returned for visibility samples no built-in decider understands.
	ErrBadSample = errors.New("unrecognised visibility sample")
	// ErrTimeout is returned when a script runs past its call limit.
	ErrTimeout = errors.New("decision function timed out")
)

// DefaultCallLimit bounds a single script call.
const DefaultCallLimit = 250 * time.Millisecond

// Decider picks the next direction (0 north, 1 east, 2 south, 3 west) for an
// autonomous mob from its visibility codes. The last element of codes is the
// current facing, which is also passed as facing.
type Decider interface {
	ChooseDirection(codes []string, facing string) (int, error)
}

// Pacer is implemented by deciders whose script sets the deliberation delay.
// ok is false when the script leaves it to the caller.
type Pacer interface {
	WaitingTime() (d time.Duration, ok bool)
}

// Neighbours extracts the north, east, south and west codes from any of the
// three sample layouts: the eight-neighbour ring, the 5x5 block and the
// full-map rows with the observer marked G.
func Neighbours(codes []string) ([4]string, bool) {
	if len(codes) < 2 {
		return [4]string{}, false
	}
	cells := codes[:len(codes)-1]
	if isGrid(cells) {
		return gridNeighbours(cells)
	}
	switch len(cells) {
	case 8:
		return [4]string{cells[1], cells[3], cells[5], cells[7]}, true
	case 25:
		return [4]string{cells[7], cells[13], cells[17], cells[11]}, true
	}
	return [4]string{}, false
}

// isGrid tells map rows from single-tile codes, which are at most two letters.
func isGrid(cells []string) bool {
	for _, c := range cells {
		if len(c) > 2 {
			return true
		}
	}
	return false
}

func gridNeighbours(rows []string) ([4]string, bool) {
	for x, row := range rows {
		z := strings.IndexByte(row, 'G')
		if z < 0 {
			continue
		}
		at := func(x, z int) string {
			if x < 0 || x >= len(rows) || z < 0 || z >= len(rows[x]) {
				return "W"
			}
			return rows[x][z : z+1]
		}
		return [4]string{at(x-1, z), at(x, z+1), at(x+1, z), at(x, z-1)}, true
	}
	return [4]string{}, false
}

// parseFacing reads the facing suffix; anything unreadable counts as north.
func parseFacing(facing string) int {
	f, err := strconv.Atoi(strings.TrimSpace(facing))
	if err != nil || f < 0 || f > 3 {
		return 0
	}
	return f
}
