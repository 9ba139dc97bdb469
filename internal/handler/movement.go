package handler

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/snackarena/server/internal/world"
)

// Time step bounds for one move command.
const (
	defaultFrame = 50 * time.Millisecond
	maxFrame     = 100 * time.Millisecond
)

type moveReq struct {
	Forward  bool `json:"forward"`
	Backward bool `json:"backward"`
	Left     bool `json:"left"`
	Right    bool `json:"right"`
	Rotation *struct {
		X, Y, Z, W float64
	} `json:"rotation"`
	DtMillis float64 `json:"dt"`
}

// HandleMove applies one frame of directional input. A missing rotation is
// the identity, a missing dt is one tick.
func HandleMove(sess *Session, data []byte) error {
	var req moveReq
	if err := decode(data, &req); err != nil {
		return err
	}
	rot := mgl64.QuatIdent()
	if r := req.Rotation; r != nil {
		rot = mgl64.Quat{W: r.W, V: mgl64.Vec3{r.X, r.Y, r.Z}}
	}
	dt := time.Duration(req.DtMillis * float64(time.Millisecond))
	switch {
	case dt <= 0:
		dt = defaultFrame
	case dt > maxFrame:
		dt = maxFrame
	}
	l, err := sess.Lobby()
	if err != nil {
		return err
	}
	in := world.Input{Forward: req.Forward, Backward: req.Backward, Left: req.Left, Right: req.Right}
	return l.Move(sess.ID(), in, rot, dt)
}

func avatarOf(sess *Session) (*world.Avatar, error) {
	l, err := sess.Lobby()
	if err != nil {
		return nil, err
	}
	p, err := l.Player(sess.ID())
	if err != nil {
		return nil, err
	}
	a, ok := p.(*world.Avatar)
	if !ok {
		return nil, ErrNotPrey
	}
	return a, nil
}

type actionResult struct {
	Accepted bool `json:"accepted"`
}

// HandleJump starts a jump, or a double jump while airborne.
func HandleJump(sess *Session, double bool) (actionResult, error) {
	a, err := avatarOf(sess)
	if err != nil {
		return actionResult{}, err
	}
	if double {
		return actionResult{Accepted: a.DoubleJump()}, nil
	}
	return actionResult{Accepted: a.Jump()}, nil
}

type sprintReq struct {
	On bool `json:"on"`
}

func HandleSprint(sess *Session, data []byte) (actionResult, error) {
	var req sprintReq
	if err := decode(data, &req); err != nil {
		return actionResult{}, err
	}
	a, err := avatarOf(sess)
	if err != nil {
		return actionResult{}, err
	}
	if !req.On {
		a.StopSprint()
		return actionResult{Accepted: true}, nil
	}
	return actionResult{Accepted: a.StartSprint()}, nil
}
