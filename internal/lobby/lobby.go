package lobby

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/snackarena/server/internal/agent"
	"github.com/snackarena/server/internal/core/event"
	"github.com/snackarena/server/internal/world"
)

// Phase is the lifecycle state of a lobby.
type Phase uint8

const (
	Forming Phase = iota
	RoleSelection
	Running
	Ended
)

var phaseNames = [...]string{"FORMING", "ROLE_SELECTION", "RUNNING", "ENDED"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "UNKNOWN"
}

// Lobby is one session: a roster that forms, picks roles and plays a single
// round on a shared map. All round state is owned by the lobby and guarded
// by mu; mobs have their own locks and are never touched with mu held
// except for reads that cannot call back into the lobby.
type Lobby struct {
	ID         string
	Name       string
	Difficulty world.Difficulty

	settings Settings
	deciders Deciders
	log      *zap.Logger
	rng      *rand.Rand

	mu           sync.Mutex
	admin        string
	passwordHash []byte
	members      map[string]*Client
	order        []string // join order
	phase        Phase
	mapName      string
	grid         []string

	events     *event.Queue
	world      *world.Map
	players    map[string]world.PlayerMob
	avatar     *world.Avatar
	herbivores []*world.Herbivore
	predators  []*world.Predator
	agents     *agent.Group
	startedAt  time.Time
	timer      *time.Timer
	ended      bool
	result     event.RoundEnded
	closing    bool
	done       chan struct{}
}

func newLobby(name string, difficulty world.Difficulty, settings Settings, deciders Deciders, log *zap.Logger, seed int64) *Lobby {
	id := uuid.NewString()
	return &Lobby{
		ID:         id,
		Name:       name,
		Difficulty: difficulty,
		settings:   settings,
		deciders:   deciders,
		log:        log.With(zap.String("lobby", id), zap.String("name", name)),
		rng:        rand.New(rand.NewSource(seed)),
		members:    make(map[string]*Client),
		events:     event.NewQueue(),
		done:       make(chan struct{}),
	}
}

func (l *Lobby) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

func (l *Lobby) Admin() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.admin
}

// Locked reports whether joining needs a password.
func (l *Lobby) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.passwordHash) > 0
}

func (l *Lobby) MapName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mapName
}

// Members returns the roster in join order.
func (l *Lobby) Members() []*Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Client, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.members[id])
	}
	return out
}

// Events is the lobby's dirty-event queue.
func (l *Lobby) Events() *event.Queue { return l.events }

// World returns the round's map, nil before the round starts.
func (l *Lobby) World() *world.Map {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.world
}

// Avatar returns the prey's mob, nil before the round starts.
func (l *Lobby) Avatar() *world.Avatar {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.avatar
}

func (l *Lobby) Herbivores() []*world.Herbivore {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*world.Herbivore(nil), l.herbivores...)
}

func (l *Lobby) Predators() []*world.Predator {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*world.Predator(nil), l.predators...)
}

// Player returns the mob a member controls.
func (l *Lobby) Player(memberID string) (world.PlayerMob, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != Running {
		return nil, ErrNotRunning
	}
	p, ok := l.players[memberID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMember, memberID)
	}
	return p, nil
}

// Move applies one frame of player input to the member's mob.
func (l *Lobby) Move(memberID string, in world.Input, rot mgl64.Quat, dt time.Duration) error {
	p, err := l.Player(memberID)
	if err != nil {
		return err
	}
	p.Move(in, rot, dt)
	return nil
}

// Samples returns the state of every player-controlled mob in member-id order.
func (l *Lobby) Samples() []world.Sample {
	l.mu.Lock()
	ids := make([]string, 0, len(l.players))
	for id := range l.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	mobs := make([]world.PlayerMob, len(ids))
	for i, id := range ids {
		mobs[i] = l.players[id]
	}
	l.mu.Unlock()

	out := make([]world.Sample, len(mobs))
	for i, m := range mobs {
		out[i] = m.Sample()
	}
	return out
}

func (l *Lobby) addMember(c *Client) {
	if _, ok := l.members[c.ID]; ok {
		return
	}
	l.members[c.ID] = c
	l.order = append(l.order, c.ID)
	if l.admin == "" {
		l.admin = c.ID
	}
}

// removeMember reports whether the lobby should be deleted: the admin left or
// nobody is left.
func (l *Lobby) removeMember(id string) bool {
	delete(l.members, id)
	for i, m := range l.order {
		if m == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return id == l.admin || len(l.order) == 0
}

// start builds the round: map, mobs, agents and countdown. single skips the
// member minimum.
func (l *Lobby) start(single bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase != Forming && l.phase != RoleSelection {
		return ErrGameAlreadyStarted
	}
	if !single && len(l.order) < l.settings.MinMembers {
		return fmt.Errorf("%w: %d of %d", ErrNotEnoughPlayers, len(l.order), l.settings.MinMembers)
	}
	if len(l.grid) == 0 {
		return ErrNoMap
	}

	// Roles are only touched once the map is known to be playable. A failed
	// start discards whatever the map queued while being built.
	m, err := world.NewMap(l.grid, l.settings.Rules, l.events, l.rng, l.settings.ItemRate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	playerSpawns := m.SpawnTiles(world.SpawnPlayer)
	predatorSpawns := m.SpawnTiles(world.SpawnPredator)
	autonomous := l.settings.PlayersPerRound - len(l.order)
	if autonomous < 0 {
		autonomous = 0
	}
	switch {
	case len(playerSpawns) == 0:
		err = fmt.Errorf("%w: no player spawn", ErrInvalidMap)
	case len(predatorSpawns) == 0 && (len(l.order) > 1 || autonomous > 0):
		err = fmt.Errorf("%w: no predator spawn", ErrInvalidMap)
	}
	if err != nil {
		l.events.Drain()
		return err
	}
	prey, err := l.assignRolesLocked()
	if err != nil {
		l.events.Drain()
		return err
	}

	now := l.settings.now()
	l.world = m
	l.players = make(map[string]world.PlayerMob, len(l.order))
	l.avatar = world.NewAvatar(prey, m, playerSpawns[0], l.settings.Now)
	l.players[prey] = l.avatar

	next := 0
	for _, id := range l.order {
		if id == prey {
			continue
		}
		spawn := predatorSpawns[next%len(predatorSpawns)]
		next++
		l.players[id] = world.NewPlayerPredator(id, m, spawn)
	}

	l.agents = agent.NewGroup(context.Background())
	predatorScript := l.settings.EasyScript
	if l.Difficulty == world.Difficult {
		predatorScript = l.settings.DifficultScript
	}
	for i := 0; i < autonomous; i++ {
		spawn := predatorSpawns[next%len(predatorSpawns)]
		next++
		p := world.NewPredator(uuid.NewString(), m, spawn, l.Difficulty)
		l.predators = append(l.predators, p)
		d := l.deciders.Predator(predatorScript, rand.New(rand.NewSource(l.rng.Int63())))
		l.agents.Go(agent.NewPredator(p, d, l.settings.AgentDelay, l.log))
	}
	for _, spawn := range m.SpawnTiles(world.SpawnHerbivore) {
		rng := rand.New(rand.NewSource(l.rng.Int63()))
		h := world.NewHerbivore(uuid.NewString(), m, spawn, rand.New(rand.NewSource(l.rng.Int63())), l.settings.Now)
		l.herbivores = append(l.herbivores, h)
		l.agents.Go(agent.NewHerbivore(h, l.deciders.Herbivore(rng), l.settings.AgentDelay, l.log))
	}

	l.avatar.OnOutcome(func(o world.Outcome) {
		if o == world.OutcomePreyWins {
			l.EndRound(RolePrey)
		} else {
			l.EndRound(RolePredator)
		}
	})
	l.startedAt = now
	l.timer = time.AfterFunc(l.settings.RoundDuration, func() {
		l.EndRound(RolePredator)
	})
	l.phase = Running
	l.log.Info("round started",
		zap.String("map", l.mapName),
		zap.Int("members", len(l.order)),
		zap.Int("predators", len(l.predators)),
		zap.Int("herbivores", len(l.herbivores)),
	)
	return nil
}

// assignRolesLocked settles the roles for a round and returns the prey. A
// member who picked prey keeps it; otherwise the first member without a role
// becomes prey. Everyone else plays a predator.
func (l *Lobby) assignRolesLocked() (string, error) {
	prey := ""
	for _, id := range l.order {
		if l.members[id].Role() == RolePrey {
			prey = id
			break
		}
	}
	if prey == "" {
		for _, id := range l.order {
			if l.members[id].Role() == RoleUndefined {
				prey = id
				break
			}
		}
	}
	if prey == "" {
		return "", ErrNoPrey
	}
	for _, id := range l.order {
		if id == prey {
			l.members[id].setRole(RolePrey)
		} else {
			l.members[id].setRole(RolePredator)
		}
	}
	return prey, nil
}

// EndRound closes a running round in favour of winner. The first call wins;
// later calls report false. It only cancels the agents, so it is safe to call
// from an agent's own goroutine.
func (l *Lobby) EndRound(winner Role) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != Running || l.ended {
		return false
	}
	l.ended = true
	if l.timer != nil {
		l.timer.Stop()
	}

	played := l.settings.now().Sub(l.startedAt)
	if played > l.settings.RoundDuration {
		played = l.settings.RoundDuration
	}
	if played < 0 {
		played = 0
	}
	l.result = event.RoundEnded{
		LobbyID:     l.ID,
		WinningRole: winner.String(),
		TimePlayed:  int64(played / time.Second),
		Calories:    l.avatar.Energy(),
	}
	l.events.Push(l.result)
	l.log.Info("round ended",
		zap.Stringer("winner", winner),
		zap.Int64("time_played", l.result.TimePlayed),
		zap.Int("calories", l.result.Calories),
	)
	return true
}

// Result returns the round result once EndRound has run.
func (l *Lobby) Result() (event.RoundEnded, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.result, l.ended
}

type leaver interface{ Leave() }

// shutdown ends the lobby: the phase becomes Ended, roles are reset and the
// agents are told to stop. Waiting for the agents and clearing their mobs off
// the map happens on its own goroutine, so a stuck agent never blocks the
// caller. Done is closed once that is finished.
func (l *Lobby) shutdown() {
	l.mu.Lock()
	if l.closing {
		l.mu.Unlock()
		return
	}
	l.closing = true
	if l.timer != nil {
		l.timer.Stop()
	}
	l.phase = Ended
	for _, c := range l.members {
		c.setRole(RoleUndefined)
	}
	mobs := make([]leaver, 0, len(l.players)+len(l.herbivores)+len(l.predators))
	for _, p := range l.players {
		mobs = append(mobs, p)
	}
	for _, h := range l.herbivores {
		mobs = append(mobs, h)
	}
	for _, p := range l.predators {
		mobs = append(mobs, p)
	}
	l.players = nil
	agents := l.agents
	l.mu.Unlock()

	if agents != nil {
		agents.Cancel()
	}
	go l.reap(agents, mobs)
}

func (l *Lobby) reap(agents *agent.Group, mobs []leaver) {
	defer close(l.done)
	if agents != nil {
		if err := agents.Wait(); err != nil {
			l.log.Warn("agent stopped with error", zap.Error(err))
		}
	}
	for _, m := range mobs {
		m.Leave()
	}
}

// Done is closed once a shut down lobby's agents have exited and its mobs
// are off the map.
func (l *Lobby) Done() <-chan struct{} { return l.done }
