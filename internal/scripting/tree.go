package scripting

import (
	"math/rand"
	"sync"

	bt "github.com/joeycumines/go-behaviortree"
)

// TreeDecider is the built-in behaviour tree used when no script is available:
// walk towards the most wanted neighbour, else keep going, else wander without
// reversing, else turn back.
type TreeDecider struct {
	seek  []string
	avoid []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTreeDecider builds a tree that seeks codes in priority order and never
// walks into walls or avoided codes.
func NewTreeDecider(seek, avoid []string, rng *rand.Rand) *TreeDecider {
	return &TreeDecider{seek: seek, avoid: avoid, rng: rng}
}

// HerbivoreTree goes for food and keeps away from predators.
func HerbivoreTree(rng *rand.Rand) *TreeDecider {
	return NewTreeDecider([]string{"S"}, []string{"G"}, rng)
}

// PredatorTree chases the avatar first and herbivores second.
func PredatorTree(rng *rand.Rand) *TreeDecider {
	return NewTreeDecider([]string{"M", "C"}, nil, rng)
}

func leaf(fn func() bool) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		if fn() {
			return bt.Success, nil
		}
		return bt.Failure, nil
	})
}

func (d *TreeDecider) open(code string) bool {
	if code == "W" {
		return false
	}
	for _, a := range d.avoid {
		if code == a {
			return false
		}
	}
	return true
}

func (d *TreeDecider) ChooseDirection(codes []string, facing string) (int, error) {
	nb, ok := Neighbours(codes)
	if !ok {
		return 0, ErrBadSample
	}
	f := parseFacing(facing)
	choice := f

	seek := leaf(func() bool {
		for _, want := range d.seek {
			for dir, c := range nb {
				if c == want {
					choice = dir
					return true
				}
			}
		}
		return false
	})
	keep := leaf(func() bool {
		if d.open(nb[f]) {
			choice = f
			return true
		}
		return false
	})
	wander := leaf(func() bool {
		var options []int
		for dir, c := range nb {
			if dir != (f+2)%4 && d.open(c) {
				options = append(options, dir)
			}
		}
		if len(options) == 0 {
			return false
		}
		d.mu.Lock()
		choice = options[d.rng.Intn(len(options))]
		d.mu.Unlock()
		return true
	})
	turnBack := leaf(func() bool {
		choice = (f + 2) % 4
		return true
	})

	if _, err := bt.New(bt.Selector, seek, keep, wander, turnBack).Tick(); err != nil {
		return 0, err
	}
	return choice, nil
}
