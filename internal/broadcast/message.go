// Package broadcast turns a session's per-tick state into client messages and
// hands them to a Sink.
package broadcast

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/snackarena/server/internal/core/event"
	"github.com/snackarena/server/internal/world"
)

// Message types as seen by clients.
const (
	TypeAvatarUpdate         = "AvatarUpdate"
	TypePredatorPlayerUpdate = "PredatorPlayerUpdate"
	TypeTileUpdate           = "TileUpdate"
	TypeHerbivoreUpdate      = "HerbivoreUpdate"
	TypePredatorUpdate       = "PredatorUpdate"
	TypeRoundEnd             = "RoundEnd"
)

// MaxCaloriesNotice is attached to avatar updates at or above the message
// energy threshold.
const MaxCaloriesNotice = "Maximum calories reached!"

// Message is one entry of a broadcast batch.
type Message struct {
	Type    string `json:"type" msgpack:"type"`
	Payload any    `json:"payload" msgpack:"payload"`
}

type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

type Quat struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
	W float64 `json:"w" msgpack:"w"`
}

func vec(v mgl64.Vec3) Vec3 { return Vec3{X: v[0], Y: v[1], Z: v[2]} }

func quat(q mgl64.Quat) Quat { return Quat{X: q.V[0], Y: q.V[1], Z: q.V[2], W: q.W} }

type AvatarUpdate struct {
	Position       Vec3    `json:"position" msgpack:"position"`
	Quat           Quat    `json:"quat" msgpack:"quat"`
	Radius         float64 `json:"radius" msgpack:"radius"`
	Speed          float64 `json:"speed" msgpack:"speed"`
	PlayerID       string  `json:"playerId" msgpack:"playerId"`
	SprintTimeLeft float64 `json:"sprintTimeLeft" msgpack:"sprintTimeLeft"` // seconds
	IsSprinting    bool    `json:"isSprinting" msgpack:"isSprinting"`
	IsInCooldown   bool    `json:"isInCooldown" msgpack:"isInCooldown"`
	Calories       int     `json:"calories" msgpack:"calories"`
	Message        string  `json:"message,omitempty" msgpack:"message,omitempty"`
	IsScared       bool    `json:"isScared" msgpack:"isScared"`
}

type PredatorPlayerUpdate struct {
	Position Vec3    `json:"position" msgpack:"position"`
	Rotation Quat    `json:"rotation" msgpack:"rotation"`
	Radius   float64 `json:"radius" msgpack:"radius"`
	Speed    float64 `json:"speed" msgpack:"speed"`
	PlayerID string  `json:"playerId" msgpack:"playerId"`
}

type TileUpdate struct {
	X         int    `json:"x" msgpack:"x"`
	Z         int    `json:"z" msgpack:"z"`
	Kind      string `json:"kind" msgpack:"kind"`
	ItemKind  string `json:"itemKind" msgpack:"itemKind"`
	ItemValue int    `json:"itemValue" msgpack:"itemValue"`
}

type HerbivoreUpdate struct {
	ID        string `json:"id" msgpack:"id"`
	X         int    `json:"x" msgpack:"x"`
	Z         int    `json:"z" msgpack:"z"`
	Thickness string `json:"thickness" msgpack:"thickness"`
	Facing    int    `json:"facing" msgpack:"facing"`
	IsScared  bool   `json:"isScared" msgpack:"isScared"`
}

type PredatorUpdate struct {
	ID     string `json:"id" msgpack:"id"`
	X      int    `json:"x" msgpack:"x"`
	Z      int    `json:"z" msgpack:"z"`
	Facing int    `json:"facing" msgpack:"facing"`
}

type RoundEnd struct {
	WinningRole       string `json:"winningRole" msgpack:"winningRole"`
	TimePlayed        int64  `json:"timePlayed" msgpack:"timePlayed"`
	CaloriesCollected int    `json:"caloriesCollected" msgpack:"caloriesCollected"`
	LobbyID           string `json:"lobbyId" msgpack:"lobbyId"`
}

// SampleMessage converts a player mob sample. Avatars at or above
// messageEnergy carry MaxCaloriesNotice.
func SampleMessage(s world.Sample, messageEnergy int) Message {
	if s.Kind != world.KindAvatar {
		return Message{Type: TypePredatorPlayerUpdate, Payload: PredatorPlayerUpdate{
			Position: vec(s.Position),
			Rotation: quat(s.Orientation),
			Radius:   s.Radius,
			Speed:    s.Speed,
			PlayerID: s.ID,
		}}
	}
	u := AvatarUpdate{
		Position:       vec(s.Position),
		Quat:           quat(s.Orientation),
		Radius:         s.Radius,
		Speed:          s.Speed,
		PlayerID:       s.ID,
		SprintTimeLeft: s.SprintLeft.Seconds(),
		IsSprinting:    s.Sprinting,
		IsInCooldown:   s.SprintCooldown,
		Calories:       s.Energy,
		IsScared:       s.Scared,
	}
	if s.Energy >= messageEnergy {
		u.Message = MaxCaloriesNotice
	}
	return Message{Type: TypeAvatarUpdate, Payload: u}
}

func TileMessage(e event.TileChanged) Message {
	return Message{Type: TypeTileUpdate, Payload: TileUpdate{
		X: e.X, Z: e.Z, Kind: e.Kind, ItemKind: e.Item, ItemValue: e.ItemValue,
	}}
}

func HerbivoreMessage(e event.HerbivoreChanged) Message {
	return Message{Type: TypeHerbivoreUpdate, Payload: HerbivoreUpdate{
		ID: e.ID, X: e.X, Z: e.Z, Thickness: e.Thickness, Facing: e.Facing, IsScared: e.Scared,
	}}
}

func PredatorMessage(e event.PredatorChanged) Message {
	return Message{Type: TypePredatorUpdate, Payload: PredatorUpdate{
		ID: e.ID, X: e.X, Z: e.Z, Facing: e.Facing,
	}}
}

func RoundEndMessage(e event.RoundEnded) Message {
	return Message{Type: TypeRoundEnd, Payload: RoundEnd{
		WinningRole:       e.WinningRole,
		TimePlayed:        e.TimePlayed,
		CaloriesCollected: e.Calories,
		LobbyID:           e.LobbyID,
	}}
}

// Batch orders one tick of a session: player samples as given, then tile,
// herbivore and predator updates in enqueue order. Round-end events are not
// part of a regular batch.
func Batch(samples []world.Sample, b event.Batch, messageEnergy int) []Message {
	n := len(samples) + len(b.Tiles) + len(b.Herbivores) + len(b.Predators)
	if n == 0 {
		return nil
	}
	out := make([]Message, 0, n)
	for _, s := range samples {
		out = append(out, SampleMessage(s, messageEnergy))
	}
	for _, e := range b.Tiles {
		out = append(out, TileMessage(e))
	}
	for _, e := range b.Herbivores {
		out = append(out, HerbivoreMessage(e))
	}
	for _, e := range b.Predators {
		out = append(out, PredatorMessage(e))
	}
	return out
}
