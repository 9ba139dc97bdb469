package handler

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/snackarena/server/internal/lobby"
)

// Deps holds shared dependencies injected into all command handlers.
type Deps struct {
	Lobbies *lobby.Manager
	Log     *zap.Logger
}

// Session is one player connection.
type Session struct {
	Client *lobby.Client
	deps   *Deps
}

func NewSession(c *lobby.Client, deps *Deps) *Session {
	return &Session{Client: c, deps: deps}
}

func (s *Session) ID() string { return s.Client.ID }

// Lobby returns the client's current lobby.
func (s *Session) Lobby() (*lobby.Lobby, error) {
	return s.deps.Lobbies.Lobby(s.Client.LobbyID())
}

func (s *Session) State() State {
	l, err := s.Lobby()
	if err != nil {
		return StateConnected
	}
	if _, err := l.Player(s.Client.ID); err == nil {
		return StatePlaying
	}
	return StateInLobby
}

var (
	connected = []State{StateConnected}
	inLobby   = []State{StateInLobby}
	playing   = []State{StatePlaying}
	anyState  = []State{StateConnected, StateInLobby, StatePlaying}
	member    = []State{StateInLobby, StatePlaying}
)

// ErrNotPrey is returned for avatar-only actions sent by a predator.
var ErrNotPrey = errors.New("only the prey can do that")

// RegisterAll registers every command handler into the registry.
func RegisterAll(reg *Registry, deps *Deps) {
	reg.Register("list_lobbies", anyState, func(sess *Session, _ json.RawMessage) (any, error) {
		return HandleListLobbies(deps), nil
	})
	reg.Register("create_lobby", connected, func(sess *Session, data json.RawMessage) (any, error) {
		return HandleCreateLobby(sess, data, deps)
	})
	reg.Register("join_lobby", connected, func(sess *Session, data json.RawMessage) (any, error) {
		return HandleJoinLobby(sess, data, deps)
	})
	reg.Register("start_singleplayer", connected, func(sess *Session, data json.RawMessage) (any, error) {
		return HandleStartSingleplayer(sess, data, deps)
	})
	reg.Register("leave_lobby", member, func(sess *Session, _ json.RawMessage) (any, error) {
		return nil, deps.Lobbies.LeaveLobby(sess.ID())
	})
	reg.Register("lobby_info", member, func(sess *Session, _ json.RawMessage) (any, error) {
		return HandleLobbyInfo(sess)
	})
	reg.Register("select_map", inLobby, func(sess *Session, data json.RawMessage) (any, error) {
		return nil, HandleSelectMap(sess, data, deps)
	})
	reg.Register("upload_map", inLobby, func(sess *Session, data json.RawMessage) (any, error) {
		return nil, HandleUploadMap(sess, data, deps)
	})
	reg.Register("choose_roles", inLobby, func(sess *Session, _ json.RawMessage) (any, error) {
		return nil, deps.Lobbies.ChooseRoles(sess.ID(), sess.Client.LobbyID())
	})
	reg.Register("select_role", inLobby, func(sess *Session, data json.RawMessage) (any, error) {
		return nil, HandleSelectRole(sess, data, deps)
	})
	reg.Register("start_game", inLobby, func(sess *Session, _ json.RawMessage) (any, error) {
		return HandleStartGame(sess, deps)
	})
	reg.Register("close_lobby", member, func(sess *Session, _ json.RawMessage) (any, error) {
		return nil, deps.Lobbies.CloseLobby(sess.ID(), sess.Client.LobbyID())
	})

	reg.Register("move", playing, func(sess *Session, data json.RawMessage) (any, error) {
		return nil, HandleMove(sess, data)
	})
	reg.Register("jump", playing, func(sess *Session, _ json.RawMessage) (any, error) {
		return HandleJump(sess, false)
	})
	reg.Register("double_jump", playing, func(sess *Session, _ json.RawMessage) (any, error) {
		return HandleJump(sess, true)
	})
	reg.Register("sprint", playing, func(sess *Session, data json.RawMessage) (any, error) {
		return HandleSprint(sess, data)
	})
}
