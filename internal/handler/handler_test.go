package handler

import (
	"encoding/json"
	"math/rand"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/snackarena/server/internal/lobby"
	"github.com/snackarena/server/internal/scripting"
)

type maps map[string][]string

func (m maps) Rows(name string) ([]string, bool) {
	r, ok := m[name]
	return r, ok
}

type still struct{}

func (still) ChooseDirection([]string, string) (int, error) { return 0, nil }

type deciders struct{}

func (deciders) Herbivore(*rand.Rand) scripting.Decider        { return still{} }
func (deciders) Predator(string, *rand.Rand) scripting.Decider { return still{} }

func newDeps(t *testing.T) *Deps {
	t.Helper()
	s := lobby.DefaultSettings()
	s.AgentDelay = time.Hour
	m := lobby.NewManager(s, deciders{}, maps{"classic": {"S  G", "    ", "  C "}}, zap.NewNop())
	t.Cleanup(func() {
		for _, l := range m.Lobbies() {
			m.Finalize(l.ID)
		}
	})
	return &Deps{Lobbies: m, Log: zap.NewNop()}
}

func newRegistry(deps *Deps) *Registry {
	reg := NewRegistry(zap.NewNop())
	RegisterAll(reg, deps)
	return reg
}

func cmd(op string, data any) []byte {
	c := map[string]any{"op": op, "id": op + "-1"}
	if data != nil {
		c["data"] = data
	}
	raw, _ := json.Marshal(c)
	return raw
}

func TestDispatchChecksState(t *testing.T) {
	deps := newDeps(t)
	reg := newRegistry(deps)
	sess := NewSession(deps.Lobbies.CreateClient("alice"), deps)

	r := reg.Dispatch(sess, cmd("jump", nil))
	assert.False(t, r.OK)
	assert.Contains(t, r.Error, ErrBadState.Error())
	assert.Equal(t, "jump-1", r.ID)

	r = reg.Dispatch(sess, cmd("fly", nil))
	assert.Equal(t, ErrUnknownOp.Error(), r.Error)

	r = reg.Dispatch(sess, []byte("{"))
	assert.Contains(t, r.Error, ErrBadPayload.Error())

	r = reg.Dispatch(sess, cmd("list_lobbies", nil))
	require.True(t, r.OK, r.Error)
	assert.Empty(t, r.Data)
}

func TestDispatchRecoversPanics(t *testing.T) {
	deps := newDeps(t)
	reg := NewRegistry(zap.NewNop())
	reg.Register("boom", anyState, func(*Session, json.RawMessage) (any, error) { panic("bad") })
	r := reg.Dispatch(NewSession(deps.Lobbies.CreateClient("alice"), deps), cmd("boom", nil))
	assert.False(t, r.OK)
	assert.Contains(t, r.Error, "panic")
}

func TestLobbyFlow(t *testing.T) {
	deps := newDeps(t)
	reg := newRegistry(deps)
	alice := NewSession(deps.Lobbies.CreateClient("alice"), deps)
	bob := NewSession(deps.Lobbies.CreateClient("bob"), deps)

	r := reg.Dispatch(alice, cmd("create_lobby", map[string]string{"name": "den", "password": "pw", "difficulty": "difficult"}))
	require.True(t, r.OK, r.Error)
	created := r.Data.(LobbySummary)
	assert.Equal(t, "DIFFICULT", created.Difficulty)
	assert.True(t, created.Locked)
	assert.Equal(t, StateInLobby, alice.State())

	r = reg.Dispatch(bob, cmd("join_lobby", map[string]string{"lobbyId": created.ID, "password": "no"}))
	assert.Equal(t, lobby.ErrWrongPassword.Error(), r.Error)
	r = reg.Dispatch(bob, cmd("join_lobby", map[string]string{"lobbyId": created.ID, "password": "pw"}))
	require.True(t, r.OK, r.Error)

	r = reg.Dispatch(bob, cmd("start_game", nil))
	assert.Contains(t, r.Error, lobby.ErrNotAdmin.Error())
	r = reg.Dispatch(bob, cmd("select_map", map[string]string{"name": "classic"}))
	assert.Equal(t, lobby.ErrNotAdmin.Error(), r.Error)
	r = reg.Dispatch(bob, cmd("select_role", map[string]string{"role": "PREY"}))
	require.True(t, r.OK, r.Error)
	r = reg.Dispatch(alice, cmd("select_role", map[string]string{"role": "ROGUE"}))
	assert.Contains(t, r.Error, ErrBadPayload.Error())

	r = reg.Dispatch(alice, cmd("lobby_info", nil))
	require.True(t, r.OK, r.Error)
	info := r.Data.(LobbyInfo)
	assert.Equal(t, alice.ID(), info.Admin)
	require.Len(t, info.Members, 2)
	assert.Equal(t, "PREY", info.Members[1].Role)

	r = reg.Dispatch(alice, cmd("start_game", nil))
	require.True(t, r.OK, r.Error)
	assert.Equal(t, StatePlaying, alice.State())
	assert.Equal(t, StatePlaying, bob.State())

	r = reg.Dispatch(alice, cmd("jump", nil))
	assert.Equal(t, ErrNotPrey.Error(), r.Error)
	r = reg.Dispatch(bob, cmd("jump", nil))
	require.True(t, r.OK, r.Error)
	assert.Equal(t, actionResult{Accepted: true}, r.Data)
	r = reg.Dispatch(bob, cmd("sprint", map[string]bool{"on": true}))
	require.True(t, r.OK, r.Error)
}

func TestMoveCommand(t *testing.T) {
	deps := newDeps(t)
	reg := newRegistry(deps)
	sess := NewSession(deps.Lobbies.CreateClient("alice"), deps)
	r := reg.Dispatch(sess, cmd("start_singleplayer", nil))
	require.True(t, r.OK, r.Error)

	l, err := sess.Lobby()
	require.NoError(t, err)
	before := l.Avatar().Position()
	r = reg.Dispatch(sess, cmd("move", map[string]any{"backward": true, "dt": 20}))
	require.True(t, r.OK, r.Error)
	after := l.Avatar().Position()
	assert.InDelta(t, 0.13, after.Z()-before.Z(), 1e-9)
}

func TestPlayServer(t *testing.T) {
	deps := newDeps(t)
	srv := httptest.NewServer(NewServer(newRegistry(deps), deps, time.Second))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url+"/play", nil)
	require.Error(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url+"/play?name=alice", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(time.Second))

	var greet struct {
		Op   string `json:"op"`
		Data hello  `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&greet))
	assert.Equal(t, "hello", greet.Op)
	assert.Equal(t, "alice", greet.Data.Name)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, cmd("create_lobby", map[string]string{"name": "den"})))
	var reply struct {
		OK   bool         `json:"ok"`
		ID   string       `json:"id"`
		Data LobbySummary `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.True(t, reply.OK)
	assert.Equal(t, "create_lobby-1", reply.ID)
	assert.Equal(t, "den", reply.Data.Name)

	conn.Close()
	require.Eventually(t, func() bool { return len(deps.Lobbies.Lobbies()) == 0 }, time.Second, 5*time.Millisecond)
}
