package handler

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// State is a connection's protocol phase, derived from its client's lobby.
type State int

const (
	StateConnected State = iota // no lobby
	StateInLobby                // member of a lobby that is not running
	StatePlaying                // controls a mob in a running round
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateInLobby:
		return "InLobby"
	case StatePlaying:
		return "Playing"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

var (
	ErrUnknownOp  = errors.New("unknown op")
	ErrBadState   = errors.New("op not allowed now")
	ErrBadPayload = errors.New("malformed payload")
)

// Command is one inbound frame: {"op": "...", "id": "...", "data": {...}}.
type Command struct {
	Op   string          `json:"op"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Reply answers a command. ID echoes the command's id.
type Reply struct {
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// HandlerFunc runs one command. The returned value becomes the reply data.
type HandlerFunc func(sess *Session, data json.RawMessage) (any, error)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[State]bool
}

// Registry maps ops to handlers with state-based access control.
type Registry struct {
	handlers map[string]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]*handlerEntry),
		log:      log,
	}
}

// Register maps an op to a handler, restricted to the given states.
func (reg *Registry) Register(op string, states []State, fn HandlerFunc) {
	allowed := make(map[State]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[op] = &handlerEntry{fn: fn, allowedStates: allowed}
}

// Dispatch decodes a frame, checks the session state and runs the handler.
// Every outcome, including failures, is reported in the reply.
func (reg *Registry) Dispatch(sess *Session, raw []byte) Reply {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return Reply{Error: fmt.Errorf("%w: %v", ErrBadPayload, err).Error()}
	}
	reply := Reply{Op: cmd.Op, ID: cmd.ID}
	state := sess.State()

	entry, ok := reg.handlers[cmd.Op]
	if !ok {
		reg.log.Debug("unknown op", zap.String("op", cmd.Op), zap.String("client", sess.ID()))
		reply.Error = ErrUnknownOp.Error()
		return reply
	}
	if !entry.allowedStates[state] {
		reg.log.Debug("op not allowed",
			zap.String("op", cmd.Op),
			zap.Stringer("state", state),
			zap.String("client", sess.ID()),
		)
		reply.Error = fmt.Sprintf("%v: %s in state %s", ErrBadState, cmd.Op, state)
		return reply
	}

	data, err := reg.safeCall(entry.fn, sess, cmd)
	if err != nil {
		reply.Error = err.Error()
		return reply
	}
	reply.OK, reply.Data = true, data
	return reply
}

// safeCall runs a handler with panic recovery so a bad frame cannot take the
// connection's goroutine down.
func (reg *Registry) safeCall(fn HandlerFunc, sess *Session, cmd Command) (data any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.String("op", cmd.Op),
				zap.Any("panic", rec),
			)
			data, err = nil, fmt.Errorf("handler panic for op %s: %v", cmd.Op, rec)
		}
	}()
	return fn(sess, cmd.Data)
}

// decode unmarshals a payload; an empty payload leaves v untouched.
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}
