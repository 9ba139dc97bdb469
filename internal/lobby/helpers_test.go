package lobby

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/snackarena/server/internal/scripting"
)

var arena = []string{
	"S  G",
	"    ",
	"C  G",
	"   C",
}

type mapStub map[string][]string

func (m mapStub) Rows(name string) ([]string, bool) {
	rows, ok := m[name]
	return rows, ok
}

type still struct{}

func (still) ChooseDirection([]string, string) (int, error) { return 0, nil }

// deciderStub counts handed-out deciders per predator script name.
type deciderStub struct {
	mu         sync.Mutex
	herbivores int
	predators  map[string]int
}

func (d *deciderStub) Herbivore(*rand.Rand) scripting.Decider {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.herbivores++
	return still{}
}

func (d *deciderStub) Predator(name string, _ *rand.Rand) scripting.Decider {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.predators == nil {
		d.predators = make(map[string]int)
	}
	d.predators[name]++
	return still{}
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testSettings(c *clock) Settings {
	s := DefaultSettings()
	s.AgentDelay = time.Hour
	s.Now = c.Now
	return s
}

func newTestManager(t *testing.T, s Settings) (*Manager, *deciderStub) {
	t.Helper()
	d := &deciderStub{}
	m := NewManager(s, d, mapStub{"classic": arena}, zap.NewNop())
	t.Cleanup(func() {
		for _, l := range m.Lobbies() {
			m.Finalize(l.ID)
		}
	})
	return m, d
}

// twoMemberLobby returns a lobby with admin a and member b.
func twoMemberLobby(t *testing.T, m *Manager) (*Lobby, *Client, *Client) {
	t.Helper()
	a := m.CreateClient("alice")
	b := m.CreateClient("bob")
	l, err := m.CreateLobby(a.ID, "den", "", 0)
	require.NoError(t, err)
	require.NoError(t, m.JoinLobby(b.ID, l.ID, ""))
	return l, a, b
}
