package ragdoll

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

const neverTouched = math.MinInt64

// InteractionClock records the last time a pointer or drag touched a figure.
// It is safe to write from input handlers while the simulation reads it.
type InteractionClock struct {
	last atomic.Int64
}

func NewInteractionClock() *InteractionClock {
	c := &InteractionClock{}
	c.last.Store(neverTouched)
	return c
}

func (c *InteractionClock) Touch(now time.Duration) { c.last.Store(int64(now)) }

func (c *InteractionClock) Reset() { c.last.Store(neverTouched) }

// Last returns the last interaction time and whether there has been one.
func (c *InteractionClock) Last() (time.Duration, bool) {
	v := c.last.Load()
	return time.Duration(v), v != neverTouched
}

// Age is the time since the last interaction, or the largest duration if
// there has never been one.
func (c *InteractionClock) Age(now time.Duration) time.Duration {
	last, ok := c.Last()
	if !ok {
		return time.Duration(math.MaxInt64)
	}
	return now - last
}

// BodyPicker finds the body under a point on the figure plane.
type BodyPicker interface {
	PickBody(p mgl64.Vec3) (*RigidBody, bool)
}

// RayPlaneZ intersects a ray with the z = 0 plane.
func RayPlaneZ(origin, dir mgl64.Vec3) (mgl64.Vec3, bool) {
	if math.Abs(dir.Z()) < 1e-9 {
		return mgl64.Vec3{}, false
	}
	t := -origin.Z() / dir.Z()
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	p := origin.Add(dir.Mul(t))
	p[2] = 0
	return p, true
}

// DragBridge pins a grabbed body to a kinematic cursor body with a point
// constraint and stamps the interaction clock on every grab and move.
type DragBridge struct {
	// MaxForce caps the drag joint; zero means unlimited.
	MaxForce float64

	world   World
	picker  BodyPicker
	clock   *InteractionClock
	cursor  *RigidBody
	joint   *PointConstraint
	grabbed *RigidBody
}

func NewDragBridge(world World, picker BodyPicker, clock *InteractionClock) *DragBridge {
	cursor := NewKinematicBody("cursor", mgl64.Vec3{})
	world.AddBody(cursor)
	return &DragBridge{
		MaxForce: 5000,
		world:    world,
		picker:   picker,
		clock:    clock,
		cursor:   cursor,
	}
}

func (d *DragBridge) Grabbed() *RigidBody { return d.grabbed }

func (d *DragBridge) Dragging() bool { return d.grabbed != nil }

// Grab attaches the body under p, if any. A grab while already dragging
// releases the previous body first.
func (d *DragBridge) Grab(p mgl64.Vec3, now time.Duration) bool {
	if d.grabbed != nil {
		d.Release(now)
	}
	body, ok := d.picker.PickBody(p)
	if !ok || body == nil || !body.IsDynamic() {
		return false
	}
	d.cursor.Position = p
	d.joint = NewPointConstraint(body, body.PointToLocal(p), d.cursor, mgl64.Vec3{})
	d.joint.MaxForce = d.MaxForce
	d.world.AddConstraint(d.joint)
	d.grabbed = body
	d.clock.Touch(now)
	return true
}

func (d *DragBridge) Move(p mgl64.Vec3, now time.Duration) {
	d.cursor.Position = p
	if d.grabbed != nil {
		d.clock.Touch(now)
	}
}

func (d *DragBridge) Release(now time.Duration) {
	if d.grabbed == nil {
		return
	}
	d.world.RemoveConstraint(d.joint)
	d.joint = nil
	d.grabbed = nil
	d.clock.Touch(now)
}

// forget drops the drag if it holds one of bodies. The joint is assumed to
// have left the world with them.
func (d *DragBridge) forget(bodies ...*RigidBody) {
	if d.grabbed == nil {
		return
	}
	for _, b := range bodies {
		if b == d.grabbed {
			d.world.RemoveConstraint(d.joint)
			d.joint = nil
			d.grabbed = nil
			return
		}
	}
}

// Close removes the cursor body from the world.
func (d *DragBridge) Close() {
	d.forget(d.grabbed)
	d.world.RemoveBody(d.cursor)
}
