package event

import "sync"

// Batch is the content of one drain, grouped by event kind in enqueue order.
type Batch struct {
	RoundEnded []RoundEnded
	Tiles      []TileChanged
	Herbivores []HerbivoreChanged
	Predators  []PredatorChanged
}

// Empty reports whether the batch carries no events.
func (b Batch) Empty() bool {
	return len(b.RoundEnded) == 0 && len(b.Tiles) == 0 &&
		len(b.Herbivores) == 0 && len(b.Predators) == 0
}

// Queue is a per-session dirty-event queue. Many goroutines push; the
// aggregator drains. Drain swaps the pending buffer for an empty one, so an
// event is handed out at most once.
//
// A nil *Queue accepts and drops everything.
type Queue struct {
	mu      sync.Mutex
	pending Batch
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an event. Unknown event types are ignored.
func (q *Queue) Push(ev Event) {
	if q == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	switch e := ev.(type) {
	case RoundEnded:
		q.pending.RoundEnded = append(q.pending.RoundEnded, e)
	case TileChanged:
		q.pending.Tiles = append(q.pending.Tiles, e)
	case HerbivoreChanged:
		q.pending.Herbivores = append(q.pending.Herbivores, e)
	case PredatorChanged:
		q.pending.Predators = append(q.pending.Predators, e)
	}
}

// Drain returns everything pushed since the previous drain and clears the queue.
func (q *Queue) Drain() Batch {
	if q == nil {
		return Batch{}
	}
	q.mu.Lock()
	b := q.pending
	q.pending = Batch{}
	q.mu.Unlock()
	return b
}

// HasRoundEnd reports whether a RoundEnded event is pending.
func (q *Queue) HasRoundEnd() bool {
	if q == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending.RoundEnded) > 0
}
