package handler

import (
	"fmt"

	"github.com/snackarena/server/internal/lobby"
	"github.com/snackarena/server/internal/world"
)

// LobbySummary is one entry of list_lobbies.
type LobbySummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phase      string `json:"phase"`
	Members    int    `json:"members"`
	Locked     bool   `json:"locked"`
	Map        string `json:"map"`
	Difficulty string `json:"difficulty"`
}

// LobbyInfo describes the caller's lobby.
type LobbyInfo struct {
	LobbySummary
	Admin   string       `json:"admin"`
	Members []MemberInfo `json:"memberList"`
}

type MemberInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func summarize(l *lobby.Lobby) LobbySummary {
	return LobbySummary{
		ID:         l.ID,
		Name:       l.Name,
		Phase:      l.Phase().String(),
		Members:    len(l.Members()),
		Locked:     l.Locked(),
		Map:        l.MapName(),
		Difficulty: l.Difficulty.String(),
	}
}

func HandleListLobbies(deps *Deps) []LobbySummary {
	out := []LobbySummary{}
	for _, l := range deps.Lobbies.Lobbies() {
		out = append(out, summarize(l))
	}
	return out
}

func HandleLobbyInfo(sess *Session) (LobbyInfo, error) {
	l, err := sess.Lobby()
	if err != nil {
		return LobbyInfo{}, err
	}
	info := LobbyInfo{LobbySummary: summarize(l), Admin: l.Admin()}
	for _, c := range l.Members() {
		info.Members = append(info.Members, MemberInfo{ID: c.ID, Name: c.Name, Role: c.Role().String()})
	}
	return info, nil
}

type createLobbyReq struct {
	Name       string `json:"name"`
	Password   string `json:"password"`
	Difficulty string `json:"difficulty"`
}

func HandleCreateLobby(sess *Session, data []byte, deps *Deps) (LobbySummary, error) {
	var req createLobbyReq
	if err := decode(data, &req); err != nil {
		return LobbySummary{}, err
	}
	l, err := deps.Lobbies.CreateLobby(sess.ID(), req.Name, req.Password, world.ParseDifficulty(req.Difficulty))
	if err != nil {
		return LobbySummary{}, err
	}
	return summarize(l), nil
}

type joinLobbyReq struct {
	LobbyID  string `json:"lobbyId"`
	Password string `json:"password"`
}

func HandleJoinLobby(sess *Session, data []byte, deps *Deps) (LobbySummary, error) {
	var req joinLobbyReq
	if err := decode(data, &req); err != nil {
		return LobbySummary{}, err
	}
	if err := deps.Lobbies.JoinLobby(sess.ID(), req.LobbyID, req.Password); err != nil {
		return LobbySummary{}, err
	}
	l, err := sess.Lobby()
	if err != nil {
		return LobbySummary{}, err
	}
	return summarize(l), nil
}

type singleplayerReq struct {
	Map        string `json:"map"`
	Difficulty string `json:"difficulty"`
}

func HandleStartSingleplayer(sess *Session, data []byte, deps *Deps) (LobbySummary, error) {
	var req singleplayerReq
	if err := decode(data, &req); err != nil {
		return LobbySummary{}, err
	}
	l, err := deps.Lobbies.StartSingleplayer(sess.ID(), req.Map, world.ParseDifficulty(req.Difficulty))
	if err != nil {
		return LobbySummary{}, err
	}
	return summarize(l), nil
}

type selectMapReq struct {
	Name string   `json:"name"`
	Rows []string `json:"rows"`
}

func HandleSelectMap(sess *Session, data []byte, deps *Deps) error {
	var req selectMapReq
	if err := decode(data, &req); err != nil {
		return err
	}
	if err := requireAdmin(sess); err != nil {
		return err
	}
	return deps.Lobbies.SelectMap(sess.Client.LobbyID(), req.Name)
}

func HandleUploadMap(sess *Session, data []byte, deps *Deps) error {
	var req selectMapReq
	if err := decode(data, &req); err != nil {
		return err
	}
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if req.Name == "" {
		req.Name = "custom"
	}
	return deps.Lobbies.UploadMap(sess.Client.LobbyID(), req.Name, req.Rows)
}

type selectRoleReq struct {
	Role string `json:"role"`
}

func HandleSelectRole(sess *Session, data []byte, deps *Deps) error {
	var req selectRoleReq
	if err := decode(data, &req); err != nil {
		return err
	}
	role, ok := lobby.ParseRole(req.Role)
	if !ok {
		return fmt.Errorf("%w: role %q", ErrBadPayload, req.Role)
	}
	return deps.Lobbies.SelectRole(sess.ID(), role)
}

func HandleStartGame(sess *Session, deps *Deps) (LobbySummary, error) {
	l, err := deps.Lobbies.StartGame(sess.ID(), sess.Client.LobbyID())
	if err != nil {
		return LobbySummary{}, err
	}
	return summarize(l), nil
}

func requireAdmin(sess *Session) error {
	l, err := sess.Lobby()
	if err != nil {
		return err
	}
	if l.Admin() != sess.ID() {
		return lobby.ErrNotAdmin
	}
	return nil
}
