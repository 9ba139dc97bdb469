package lobby

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snackarena/server/internal/world"
)

func TestLobbyNamesFoldCaseAndWidth(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	a := m.CreateClient("alice")
	b := m.CreateClient("bob")
	c := m.CreateClient("carol")

	_, err := m.CreateLobby(a.ID, "Straße", "", world.Easy)
	require.NoError(t, err)

	_, err = m.CreateLobby(b.ID, "  STRASSE ", "", world.Easy)
	require.ErrorIs(t, err, ErrLobbyExists)

	// fullwidth letters normalise to ASCII
	_, err = m.CreateLobby(c.ID, "ｓｔｒａｓｓｅ", "", world.Easy)
	require.ErrorIs(t, err, ErrLobbyExists)

	_, err = m.CreateLobby(b.ID, "", "", world.Easy)
	require.Error(t, err)
}

func TestLobbyNameFreedAfterClose(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	a := m.CreateClient("alice")
	l, err := m.CreateLobby(a.ID, "den", "", world.Easy)
	require.NoError(t, err)
	require.NoError(t, m.CloseLobby(a.ID, l.ID))

	_, err = m.Lobby(l.ID)
	require.ErrorIs(t, err, ErrLobbyNotFound)
	assert.Empty(t, a.LobbyID())

	_, err = m.CreateLobby(a.ID, "DEN", "", world.Easy)
	require.NoError(t, err)
}

func TestCreateLobbyUsesDefaultMap(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	a := m.CreateClient("alice")
	l, err := m.CreateLobby(a.ID, "den", "", world.Easy)
	require.NoError(t, err)
	assert.Equal(t, "classic", l.MapName())
	assert.Equal(t, a.ID, l.Admin())
	assert.Equal(t, l.ID, a.LobbyID())

	_, err = m.CreateLobby(a.ID, "other", "", world.Easy)
	require.ErrorIs(t, err, ErrAlreadyInLobby)
}

func TestJoinWithPassword(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	a := m.CreateClient("alice")
	b := m.CreateClient("bob")
	l, err := m.CreateLobby(a.ID, "den", "hunter2", world.Easy)
	require.NoError(t, err)
	assert.True(t, l.Locked())

	require.ErrorIs(t, m.JoinLobby(b.ID, l.ID, "nope"), ErrWrongPassword)
	assert.Empty(t, b.LobbyID())
	require.NoError(t, m.JoinLobby(b.ID, l.ID, "hunter2"))
	assert.Len(t, l.Members(), 2)
}

// slowPassword makes the password check wait for release after signalling
// inside.
func slowPassword(m *Manager) (inside, release chan struct{}) {
	inside, release = make(chan struct{}), make(chan struct{})
	check := m.comparePassword
	m.comparePassword = func(hash, pw []byte) error {
		close(inside)
		<-release
		return check(hash, pw)
	}
	return inside, release
}

func TestPasswordCheckHoldsNoLocks(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	a := m.CreateClient("alice")
	b := m.CreateClient("bob")
	l, err := m.CreateLobby(a.ID, "den", "hunter2", world.Easy)
	require.NoError(t, err)
	inside, release := slowPassword(m)

	joined := make(chan error, 1)
	go func() { joined <- m.JoinLobby(b.ID, l.ID, "hunter2") }()
	<-inside

	others := make(chan struct{})
	go func() {
		c := m.CreateClient("carol")
		_, _ = m.CreateLobby(c.ID, "other", "", world.Easy)
		_ = m.Lobbies()
		_ = l.Phase()
		close(others)
	}()
	select {
	case <-others:
	case <-time.After(2 * time.Second):
		t.Fatal("lobby lookups blocked by a password check")
	}

	close(release)
	require.NoError(t, <-joined)
	assert.Len(t, l.Members(), 2)
}

func TestJoinRechecksPhaseAfterPassword(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	a := m.CreateClient("alice")
	b := m.CreateClient("bob")
	c := m.CreateClient("carol")
	l, err := m.CreateLobby(a.ID, "den", "hunter2", world.Easy)
	require.NoError(t, err)
	require.NoError(t, m.JoinLobby(b.ID, l.ID, "hunter2"))
	inside, release := slowPassword(m)

	joined := make(chan error, 1)
	go func() { joined <- m.JoinLobby(c.ID, l.ID, "hunter2") }()
	<-inside
	require.NoError(t, m.ChooseRoles(a.ID, l.ID))
	close(release)

	require.ErrorIs(t, <-joined, ErrGameAlreadyStarted)
	assert.Empty(t, c.LobbyID())
	assert.Len(t, l.Members(), 2)
}

func TestJoinAfterRoleSelectionFails(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	l, a, _ := twoMemberLobby(t, m)
	require.NoError(t, m.ChooseRoles(a.ID, l.ID))
	assert.Equal(t, RoleSelection, l.Phase())

	c := m.CreateClient("carol")
	require.ErrorIs(t, m.JoinLobby(c.ID, l.ID, ""), ErrGameAlreadyStarted)
	require.ErrorIs(t, m.JoinLobby(c.ID, "missing", ""), ErrLobbyNotFound)
}

func TestChooseRolesNeedsMembers(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	a := m.CreateClient("alice")
	l, err := m.CreateLobby(a.ID, "den", "", world.Easy)
	require.NoError(t, err)
	require.ErrorIs(t, m.ChooseRoles(a.ID, l.ID), ErrNotEnoughPlayers)
}

func TestOnlyOnePrey(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	_, a, b := twoMemberLobby(t, m)
	require.NoError(t, m.SelectRole(a.ID, RolePrey))
	require.ErrorIs(t, m.SelectRole(b.ID, RolePrey), ErrRoleTaken)
	require.NoError(t, m.SelectRole(a.ID, RolePrey))
	require.NoError(t, m.SelectRole(a.ID, RolePredator))
	require.NoError(t, m.SelectRole(b.ID, RolePrey))
}

func TestMemberLeaving(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	l, _, b := twoMemberLobby(t, m)

	require.NoError(t, m.LeaveLobby(b.ID))
	assert.Empty(t, b.LobbyID())
	assert.Len(t, l.Members(), 1)
	_, err := m.Lobby(l.ID)
	require.NoError(t, err)
}

func TestAdminLeavingClosesLobby(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	l, a, b := twoMemberLobby(t, m)

	require.NoError(t, m.LeaveLobby(a.ID))
	_, err := m.Lobby(l.ID)
	require.ErrorIs(t, err, ErrLobbyNotFound)
	assert.Empty(t, b.LobbyID())
}

func TestRemoveClientDuringRound(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	l, a, b := twoMemberLobby(t, m)
	_, err := m.StartGame(a.ID, l.ID)
	require.NoError(t, err)
	w := l.World()

	m.RemoveClient(b.ID)
	_, err = m.Client(b.ID)
	require.ErrorIs(t, err, ErrUnknownMember)
	for _, tile := range w.SpawnTiles(world.SpawnPredator) {
		for _, mob := range tile.Occupants() {
			assert.NotEqual(t, b.ID, mob.ID())
		}
	}
	assert.Equal(t, Running, l.Phase())
}

func TestSelectAndUploadMap(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	a := m.CreateClient("alice")
	l, err := m.CreateLobby(a.ID, "den", "", world.Easy)
	require.NoError(t, err)

	require.ErrorIs(t, m.SelectMap(l.ID, "atlantis"), ErrNoMap)
	require.ErrorIs(t, m.UploadMap(l.ID, "bad", []string{"S ", "G"}), ErrInvalidMap)
	require.ErrorIs(t, m.UploadMap(l.ID, "bad", []string{"SX"}), ErrInvalidMap)
	assert.Equal(t, "classic", l.MapName())

	require.NoError(t, m.UploadMap(l.ID, "tiny", []string{"SG", "C "}))
	assert.Equal(t, "tiny", l.MapName())
}

func TestRunningListsStartedLobbies(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	l, a, _ := twoMemberLobby(t, m)
	c := m.CreateClient("carol")
	_, err := m.CreateLobby(c.ID, "idle", "", world.Easy)
	require.NoError(t, err)
	assert.Empty(t, m.Running())

	_, err = m.StartGame(a.ID, l.ID)
	require.NoError(t, err)
	running := m.Running()
	require.Len(t, running, 1)
	assert.Equal(t, l.ID, running[0].ID)
	assert.Len(t, m.Lobbies(), 2)

	m.Finalize(l.ID)
	assert.Empty(t, m.Running())
	assert.Empty(t, a.LobbyID())
}

func TestPreyLeavingEndsRound(t *testing.T) {
	m, _ := newTestManager(t, testSettings(newClock()))
	l, a, b := twoMemberLobby(t, m)
	require.NoError(t, m.SelectRole(b.ID, RolePrey))
	_, err := m.StartGame(a.ID, l.ID)
	require.NoError(t, err)

	require.NoError(t, m.LeaveLobby(b.ID))
	res, ok := l.Result()
	require.True(t, ok)
	assert.Equal(t, "PREDATOR", res.WinningRole)
	assert.Len(t, l.Samples(), 1)
}
