package broadcast

import "sync"

// Sink delivers a session's batch to its subscribers.
type Sink interface {
	Publish(sessionID string, batch []Message) error
}

// Recorder keeps every published batch in memory.
type Recorder struct {
	mu      sync.Mutex
	batches map[string][][]Message
}

func NewRecorder() *Recorder {
	return &Recorder{batches: make(map[string][][]Message)}
}

func (r *Recorder) Publish(sessionID string, batch []Message) error {
	cp := append([]Message(nil), batch...)
	r.mu.Lock()
	r.batches[sessionID] = append(r.batches[sessionID], cp)
	r.mu.Unlock()
	return nil
}

// Batches returns the batches published for a session, oldest first.
func (r *Recorder) Batches(sessionID string) [][]Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]Message(nil), r.batches[sessionID]...)
}

// Sessions returns how many sessions received at least one batch.
func (r *Recorder) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(sessionID string, batch []Message) error

func (f SinkFunc) Publish(sessionID string, batch []Message) error { return f(sessionID, batch) }
