package ragdoll

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Vec3State struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func vec3State(v mgl64.Vec3) Vec3State { return Vec3State{X: v[0], Y: v[1], Z: v[2]} }

func (v Vec3State) Vec3() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

type QuatState struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

func quatState(q mgl64.Quat) QuatState {
	return QuatState{X: q.V[0], Y: q.V[1], Z: q.V[2], W: q.W}
}

// Quat returns the stored rotation, normalised. A zero quaternion reads as
// the identity.
func (q QuatState) Quat() mgl64.Quat {
	out := mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}
	if out.Len() == 0 {
		return mgl64.QuatIdent()
	}
	return out.Normalize()
}

// PartState is the saved motion of one body.
type PartState struct {
	Pos    Vec3State `json:"pos"`
	Quat   QuatState `json:"quat"`
	Vel    Vec3State `json:"vel"`
	AngVel Vec3State `json:"angVel"`
}

// FigureSnapshot is the persisted form of a figure, keyed by part name.
type FigureSnapshot struct {
	Username string               `json:"username"`
	Parts    map[string]PartState `json:"parts"`
}

func (f *Figure) Snapshot() FigureSnapshot {
	snap := FigureSnapshot{
		Username: f.Username,
		Parts:    make(map[string]PartState, len(f.parts)),
	}
	for _, p := range f.parts {
		b := p.Body
		snap.Parts[p.Role.String()] = PartState{
			Pos:    vec3State(b.Position),
			Quat:   quatState(b.Rotation),
			Vel:    vec3State(b.Velocity),
			AngVel: vec3State(b.AngularVelocity),
		}
	}
	return snap
}

// apply copies every recognised part state onto f. Parts missing from the
// snapshot keep their current state; unknown keys are returned.
func (s FigureSnapshot) apply(f *Figure) (unknown []string) {
	for name, ps := range s.Parts {
		role, err := ParseRole(name)
		if err != nil {
			unknown = append(unknown, name)
			continue
		}
		b := f.Body(role)
		b.Position = ps.Pos.Vec3()
		b.Rotation = ps.Quat.Quat()
		b.Velocity = ps.Vel.Vec3()
		b.AngularVelocity = ps.AngVel.Vec3()
	}
	return unknown
}

func (s FigureSnapshot) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func ParseSnapshot(data []byte) (FigureSnapshot, error) {
	var s FigureSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return FigureSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
