package server

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	jsoniter "github.com/json-iterator/go"

	"github.com/gekko3d/ragdoll"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	MessageTypePointer = "pointer"
	MessageTypeSave    = "save"
	MessageTypeRespawn = "respawn"
	MessageTypeFrame   = "frame"
	MessageTypeSaved   = "saved"
	MessageTypeError   = "error"
)

var ErrInvalidMessage = errors.New("invalid message")

// Ray is a pointer ray in world space; it is intersected with the figure plane.
type Ray struct {
	Origin [3]float64 `json:"origin"`
	Dir    [3]float64 `json:"dir"`
}

// PointerMessage carries either a plane point (x, y) or a Ray.
type PointerMessage struct {
	Type    string  `json:"type"`
	Action  string  `json:"action"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Ray     *Ray    `json:"ray,omitempty"`
	Buttons int     `json:"buttons"`
}

// Event converts m into a simulation pointer event.
func (m *PointerMessage) Event() (ragdoll.PointerEvent, error) {
	action, ok := ragdoll.ParsePointerAction(m.Action)
	if !ok {
		return ragdoll.PointerEvent{}, fmt.Errorf("%w: pointer action %q", ErrInvalidMessage, m.Action)
	}
	p := mgl64.Vec3{m.X, m.Y, 0}
	if m.Ray != nil {
		hit, ok := ragdoll.RayPlaneZ(mgl64.Vec3(m.Ray.Origin), mgl64.Vec3(m.Ray.Dir))
		if !ok {
			return ragdoll.PointerEvent{}, fmt.Errorf("%w: ray misses the plane", ErrInvalidMessage)
		}
		p = hit
	}
	return ragdoll.PointerEvent{Action: action, Point: p, Buttons: m.Buttons}, nil
}

type SaveMessage struct {
	Type string `json:"type"`
}

type RespawnMessage struct {
	Type string `json:"type"`
}

type FrameMessage struct {
	Type  string         `json:"type"`
	Frame *ragdoll.Frame `json:"frame"`
}

type SavedMessage struct {
	Type    string `json:"type"`
	Session string `json:"session"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ParseMessage decodes an inbound message into its concrete type.
func ParseMessage(data []byte) (any, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	var msg any
	switch base.Type {
	case MessageTypePointer:
		msg = &PointerMessage{}
	case MessageTypeSave:
		msg = &SaveMessage{}
	case MessageTypeRespawn:
		msg = &RespawnMessage{}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, base.Type)
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return msg, nil
}
