package lobby

import "errors"

var (
	ErrLobbyNotFound      = errors.New("lobby not found")
	ErrLobbyExists        = errors.New("lobby already exists")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrNotEnoughPlayers   = errors.New("not enough players")
	ErrNoMap              = errors.New("no map selected")
	ErrInvalidMap         = errors.New("map cannot host a round")
	ErrWrongPassword      = errors.New("wrong lobby password")
	ErrRoleTaken          = errors.New("role already taken")
	ErrNoPrey             = errors.New("nobody can play the prey")
	ErrUnknownMember      = errors.New("unknown member")
	ErrNotAdmin           = errors.New("only the lobby admin may do this")
	ErrAlreadyInLobby     = errors.New("client already in a lobby")
	ErrNotRunning         = errors.New("round not running")
)
