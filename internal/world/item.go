package world

import "math/rand"

// ItemKind is the type of consumable lying on a floor tile.
type ItemKind uint8

const (
	ItemEmpty ItemKind = iota
	ItemCherry
	ItemStrawberry
	ItemOrange
	ItemApple
	ItemEgg
)

var itemNames = [...]string{"EMPTY", "CHERRY", "STRAWBERRY", "ORANGE", "APPLE", "EGG"}

func (k ItemKind) String() string {
	if int(k) < len(itemNames) {
		return itemNames[k]
	}
	return "UNKNOWN"
}

// Calories is the fixed value of a kind. Eggs carry their own value.
func (k ItemKind) Calories() int {
	switch k {
	case ItemCherry:
		return 100
	case ItemStrawberry:
		return 300
	case ItemOrange:
		return 500
	case ItemApple:
		return 700
	}
	return 0
}

// Item is a consumable with its energy value.
type Item struct {
	Kind  ItemKind
	Value int
}

// NewItem returns an item of a fixed-value kind.
func NewItem(k ItemKind) Item {
	return Item{Kind: k, Value: k.Calories()}
}

// EggItem returns an egg worth value.
func EggItem(value int) Item {
	return Item{Kind: ItemEgg, Value: value}
}

// Empty reports whether there is nothing to eat.
func (it Item) Empty() bool { return it.Kind == ItemEmpty }

var randomKinds = [...]ItemKind{ItemCherry, ItemStrawberry, ItemOrange, ItemApple}

// RandomItem picks one of the fruit kinds. Never an egg.
func RandomItem(rng *rand.Rand) Item {
	return NewItem(randomKinds[rng.Intn(len(randomKinds))])
}
