package lobby

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/snackarena/server/internal/world"
)

// Manager is the repository of clients and lobbies. Every lookup by id goes
// through it; nothing else keeps global session state.
type Manager struct {
	settings Settings
	deciders Deciders
	maps     Maps
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[string]*Client
	lobbies map[string]*Lobby
	names   map[string]string // folded name -> lobby id
	seeds   *rand.Rand

	comparePassword func(hash, password []byte) error
}

func NewManager(settings Settings, deciders Deciders, maps Maps, log *zap.Logger) *Manager {
	return &Manager{
		settings: settings,
		deciders: deciders,
		maps:     maps,
		log:      log,
		clients:  make(map[string]*Client),
		lobbies:  make(map[string]*Lobby),
		names:    make(map[string]string),
		seeds:    rand.New(rand.NewSource(settings.now().UnixNano())),

		comparePassword: bcrypt.CompareHashAndPassword,
	}
}

// foldName makes lobby names compare equal regardless of case, width and
// composition.
func foldName(name string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(name)))
}

// CreateClient registers a new player.
func (m *Manager) CreateClient(name string) *Client {
	c := &Client{ID: uuid.NewString(), Name: strings.TrimSpace(name)}
	m.mu.Lock()
	m.clients[c.ID] = c
	m.mu.Unlock()
	m.log.Debug("client created", zap.String("client", c.ID), zap.String("name", c.Name))
	return c
}

func (m *Manager) Client(id string) (*Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMember, id)
	}
	return c, nil
}

// RemoveClient drops a client, leaving its lobby first.
func (m *Manager) RemoveClient(id string) {
	if err := m.LeaveLobby(id); err != nil && !errors.Is(err, ErrLobbyNotFound) && !errors.Is(err, ErrUnknownMember) {
		m.log.Warn("leave on disconnect", zap.String("client", id), zap.Error(err))
	}
	m.mu.Lock()
	delete(m.clients, id)
	m.mu.Unlock()
}

func (m *Manager) Lobby(id string) (*Lobby, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lobbies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLobbyNotFound, id)
	}
	return l, nil
}

// Lobbies lists every lobby ordered by name.
func (m *Manager) Lobbies() []*Lobby {
	m.mu.RLock()
	out := make([]*Lobby, 0, len(m.lobbies))
	for _, l := range m.lobbies {
		out = append(out, l)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Running lists the lobbies with a round in progress, ordered by id.
func (m *Manager) Running() []*Lobby {
	var out []*Lobby
	for _, l := range m.Lobbies() {
		if l.Phase() == Running {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreateLobby opens a lobby with the client as admin and first member. An
// empty password leaves the lobby open.
func (m *Manager) CreateLobby(clientID, name, password string, difficulty world.Difficulty) (*Lobby, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrLobbyExists)
	}
	var hash []byte
	if password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash lobby password: %w", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMember, clientID)
	}
	if c.LobbyID() != "" {
		return nil, ErrAlreadyInLobby
	}
	key := foldName(name)
	if _, taken := m.names[key]; taken {
		return nil, fmt.Errorf("%w: %q", ErrLobbyExists, name)
	}

	l := newLobby(name, difficulty, m.settings, m.deciders, m.log, m.seeds.Int63())
	l.passwordHash = hash
	if rows, ok := m.mapRows(m.settings.DefaultMap); ok {
		l.mapName, l.grid = m.settings.DefaultMap, rows
	}
	l.addMember(c)
	c.setLobby(l.ID)
	c.setRole(RoleUndefined)
	m.lobbies[l.ID] = l
	m.names[key] = l.ID
	m.log.Info("lobby created", zap.String("lobby", l.ID), zap.String("name", name), zap.String("admin", c.ID))
	return l, nil
}

func (m *Manager) mapRows(name string) ([]string, bool) {
	if m.maps == nil || name == "" {
		return nil, false
	}
	return m.maps.Rows(name)
}

// JoinLobby adds a client to a lobby that has not started role selection.
func (m *Manager) JoinLobby(clientID, lobbyID, password string) error {
	c, l, hash, err := m.joinTarget(clientID, lobbyID)
	if err != nil || c == nil {
		return err
	}
	if len(hash) > 0 {
		if err := m.comparePassword(hash, []byte(password)); err != nil {
			return ErrWrongPassword
		}
	}

	// The lobby may have started, closed or taken the client elsewhere while
	// the password was being checked.
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lobbies[lobbyID] != l {
		return fmt.Errorf("%w: %s", ErrLobbyNotFound, lobbyID)
	}
	if cur := c.LobbyID(); cur != "" {
		if cur == lobbyID {
			return nil
		}
		return ErrAlreadyInLobby
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != Forming {
		return ErrGameAlreadyStarted
	}
	l.addMember(c)
	c.setLobby(l.ID)
	c.setRole(RoleUndefined)
	return nil
}

// joinTarget checks a join under the read lock and returns the lobby's
// password hash. A nil client with a nil error means the client is already
// a member.
func (m *Manager) joinTarget(clientID, lobbyID string) (*Client, *Lobby, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[clientID]
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrUnknownMember, clientID)
	}
	l, ok := m.lobbies[lobbyID]
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrLobbyNotFound, lobbyID)
	}
	if cur := c.LobbyID(); cur != "" {
		if cur == lobbyID {
			return nil, nil, nil, nil
		}
		return nil, nil, nil, ErrAlreadyInLobby
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != Forming {
		return nil, nil, nil, ErrGameAlreadyStarted
	}
	return c, l, l.passwordHash, nil
}

// LeaveLobby removes a client from its lobby. The lobby is closed when its
// admin leaves or its roster becomes empty.
func (m *Manager) LeaveLobby(clientID string) error {
	c, err := m.Client(clientID)
	if err != nil {
		return err
	}
	l, err := m.Lobby(c.LobbyID())
	if err != nil {
		return err
	}

	l.mu.Lock()
	empty := l.removeMember(clientID)
	player := l.players[clientID]
	delete(l.players, clientID)
	l.mu.Unlock()
	c.setLobby("")
	c.setRole(RoleUndefined)
	if player != nil {
		player.Leave()
		if player.Kind() == world.KindAvatar {
			l.EndRound(RolePredator)
		}
	}
	if empty {
		m.closeAndDelete(l)
	}
	return nil
}

// SelectMap switches the lobby to a named map.
func (m *Manager) SelectMap(lobbyID, name string) error {
	rows, ok := m.mapRows(name)
	if !ok {
		return fmt.Errorf("%w: unknown map %q", ErrNoMap, name)
	}
	return m.setGrid(lobbyID, name, rows)
}

// UploadMap validates a custom grid and selects it for the lobby.
func (m *Manager) UploadMap(lobbyID, name string, rows []string) error {
	if _, err := world.NewMap(rows, m.settings.Rules, nil, nil, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	return m.setGrid(lobbyID, name, append([]string(nil), rows...))
}

func (m *Manager) setGrid(lobbyID, name string, rows []string) error {
	l, err := m.Lobby(lobbyID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != Forming && l.phase != RoleSelection {
		return ErrGameAlreadyStarted
	}
	l.mapName, l.grid = name, rows
	return nil
}

// ChooseRoles closes the roster and opens role selection.
func (m *Manager) ChooseRoles(clientID, lobbyID string) error {
	l, err := m.adminLobby(clientID, lobbyID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != Forming {
		return ErrGameAlreadyStarted
	}
	if len(l.order) < m.settings.MinMembers {
		return fmt.Errorf("%w: %d of %d", ErrNotEnoughPlayers, len(l.order), m.settings.MinMembers)
	}
	l.phase = RoleSelection
	return nil
}

// SelectRole records a member's role. Only one member may be the prey.
func (m *Manager) SelectRole(clientID string, role Role) error {
	c, err := m.Client(clientID)
	if err != nil {
		return err
	}
	l, err := m.Lobby(c.LobbyID())
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase == Running || l.phase == Ended {
		return ErrGameAlreadyStarted
	}
	if role == RolePrey {
		for id, other := range l.members {
			if id != clientID && other.Role() == RolePrey {
				return ErrRoleTaken
			}
		}
	}
	c.setRole(role)
	return nil
}

// StartGame starts the lobby's round. Only the admin may start it.
func (m *Manager) StartGame(clientID, lobbyID string) (*Lobby, error) {
	l, err := m.adminLobby(clientID, lobbyID)
	if err != nil {
		return nil, err
	}
	if err := l.start(false); err != nil {
		return nil, fmt.Errorf("start lobby %s: %w", l.Name, err)
	}
	return l, nil
}

// StartSingleplayer opens a private lobby for the client and starts it at
// once with the client as prey and autonomous predators in every other seat.
func (m *Manager) StartSingleplayer(clientID, mapName string, difficulty world.Difficulty) (*Lobby, error) {
	c, err := m.Client(clientID)
	if err != nil {
		return nil, err
	}
	l, err := m.CreateLobby(clientID, "singleplayer-"+uuid.NewString(), "", difficulty)
	if err != nil {
		return nil, err
	}
	if mapName != "" {
		if err := m.SelectMap(l.ID, mapName); err != nil {
			m.closeAndDelete(l)
			return nil, err
		}
	}
	c.setRole(RolePrey)
	if err := l.start(true); err != nil {
		m.closeAndDelete(l)
		return nil, fmt.Errorf("start singleplayer: %w", err)
	}
	return l, nil
}

// CloseLobby stops a lobby's round, clears its roster and deletes it.
func (m *Manager) CloseLobby(clientID, lobbyID string) error {
	l, err := m.adminLobby(clientID, lobbyID)
	if err != nil {
		return err
	}
	m.closeAndDelete(l)
	return nil
}

// Finalize tears down a lobby whose round has ended and removes it.
func (m *Manager) Finalize(lobbyID string) {
	l, err := m.Lobby(lobbyID)
	if err != nil {
		m.log.Warn("finalize unknown lobby", zap.String("lobby", lobbyID))
		return
	}
	m.closeAndDelete(l)
}

func (m *Manager) adminLobby(clientID, lobbyID string) (*Lobby, error) {
	l, err := m.Lobby(lobbyID)
	if err != nil {
		return nil, err
	}
	if l.Admin() != clientID {
		return nil, ErrNotAdmin
	}
	return l, nil
}

func (m *Manager) closeAndDelete(l *Lobby) {
	m.mu.Lock()
	if _, ok := m.lobbies[l.ID]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.lobbies, l.ID)
	delete(m.names, foldName(l.Name))
	m.mu.Unlock()

	l.shutdown()
	for _, c := range l.Members() {
		c.setLobby("")
	}
	m.log.Info("lobby closed", zap.String("lobby", l.ID), zap.String("name", l.Name))
}
