package world

import (
	"strconv"
	"strings"
)

// Visibility codes handed to decision functions.
const (
	CodeWall      = "W"
	CodeEmpty     = "L"
	CodeItem      = "S"
	CodePredator  = "G"
	CodeHerbivore = "C"
	CodeAvatar    = "M"  // avatar as seen by predators
	CodeAvatarH   = "SM" // avatar as seen by herbivores
)

// HerbivoreCode classifies a tile for herbivores. Eggs do not count as items.
func HerbivoreCode(t *Tile) string {
	if t.IsWall() {
		return CodeWall
	}
	occ := t.Occupants()
	switch {
	case anyKind(occ, KindPredator, KindPlayerPredator):
		return CodePredator
	case anyKind(occ, KindAvatar):
		return CodeAvatarH
	case anyKind(occ, KindHerbivore):
		return CodeHerbivore
	}
	if it := t.Item(); !it.Empty() && it.Kind != ItemEgg {
		return CodeItem
	}
	return CodeEmpty
}

// PredatorCode classifies a tile for predators.
func PredatorCode(t *Tile) string {
	if t.IsWall() {
		return CodeWall
	}
	occ := t.Occupants()
	switch {
	case anyKind(occ, KindAvatar):
		return CodeAvatar
	case anyKind(occ, KindHerbivore):
		return CodeHerbivore
	case anyKind(occ, KindPredator, KindPlayerPredator):
		return CodePredator
	}
	if !t.Item().Empty() {
		return CodeItem
	}
	return CodeEmpty
}

func anyKind(mobs []Mob, kinds ...Kind) bool {
	for _, m := range mobs {
		for _, k := range kinds {
			if m.Kind() == k {
				return true
			}
		}
	}
	return false
}

// HerbivoreView samples the 5x5 block centred on (x,z), own tile included,
// rows from x-2 to x+2 and columns from z-2 to z+2, followed by the facing.
func (m *Map) HerbivoreView(x, z int, facing Direction) []string {
	codes := make([]string, 0, 26)
	for dx := -2; dx <= 2; dx++ {
		for dz := -2; dz <= 2; dz++ {
			codes = append(codes, HerbivoreCode(m.TileAt(x+dx, z+dz)))
		}
	}
	return append(codes, strconv.Itoa(int(facing)))
}

// predatorRing is NW, N, NE, E, SE, S, SW, W as (dx, dz).
var predatorRing = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1},
}

// PredatorView samples the eight neighbours of (x,z), followed by the facing.
func (m *Map) PredatorView(x, z int, facing Direction) []string {
	codes := make([]string, 0, 9)
	for _, d := range predatorRing {
		codes = append(codes, PredatorCode(m.TileAt(x+d[0], z+d[1])))
	}
	return append(codes, strconv.Itoa(int(facing)))
}

// GridView encodes the whole map as one string per row using W, M and L, with
// the observer's own tile marked G, followed by the facing.
func (m *Map) GridView(x, z int, facing Direction) []string {
	codes := make([]string, 0, m.sizeX+1)
	var sb strings.Builder
	for ix := 0; ix < m.sizeX; ix++ {
		sb.Reset()
		for iz := 0; iz < m.sizeZ; iz++ {
			t := m.tiles[ix][iz]
			switch {
			case ix == x && iz == z:
				sb.WriteString(CodePredator)
			case t.IsWall():
				sb.WriteString(CodeWall)
			case t.HasKind(KindAvatar):
				sb.WriteString(CodeAvatar)
			default:
				sb.WriteString(CodeEmpty)
			}
		}
		codes = append(codes, sb.String())
	}
	return append(codes, strconv.Itoa(int(facing)))
}
