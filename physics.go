package ragdoll

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type BodyKind int

const (
	BodyDynamic BodyKind = iota
	BodyStatic
	// BodyKinematic bodies are moved by the caller and never integrated.
	BodyKinematic
)

// RigidBody is a box-shaped body. Position and Rotation are the body's
// centre of mass and orientation in world space.
type RigidBody struct {
	Name            string
	Kind            BodyKind
	HalfExtents     mgl64.Vec3
	Mass            float64
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	LinearDamping   float64
	AngularDamping  float64
	Friction        float64

	invMass         float64
	inertiaLocal    mgl64.Vec3
	invInertiaLocal mgl64.Vec3
	force           mgl64.Vec3
	torque          mgl64.Vec3
}

// NewBoxBody creates a dynamic box. A mass of zero yields a static body.
func NewBoxBody(name string, halfExtents mgl64.Vec3, mass float64, pos mgl64.Vec3) *RigidBody {
	rb := &RigidBody{
		Name:        name,
		Kind:        BodyDynamic,
		HalfExtents: halfExtents,
		Mass:        mass,
		Position:    pos,
		Rotation:    mgl64.QuatIdent(),
	}
	if mass <= 0 {
		rb.Kind = BodyStatic
	}
	rb.updateMassProperties()
	return rb
}

// NewKinematicBody creates a massless body the caller positions directly.
func NewKinematicBody(name string, pos mgl64.Vec3) *RigidBody {
	return &RigidBody{
		Name:     name,
		Kind:     BodyKinematic,
		Position: pos,
		Rotation: mgl64.QuatIdent(),
	}
}

func (rb *RigidBody) updateMassProperties() {
	if rb.Kind != BodyDynamic || rb.Mass <= 0 {
		rb.invMass = 0
		rb.inertiaLocal = mgl64.Vec3{}
		rb.invInertiaLocal = mgl64.Vec3{}
		return
	}
	a, b, c := rb.HalfExtents.X(), rb.HalfExtents.Y(), rb.HalfExtents.Z()
	rb.invMass = 1 / rb.Mass
	rb.inertiaLocal = mgl64.Vec3{
		rb.Mass / 3 * (b*b + c*c),
		rb.Mass / 3 * (a*a + c*c),
		rb.Mass / 3 * (a*a + b*b),
	}
	for i, v := range rb.inertiaLocal {
		if v > 0 {
			rb.invInertiaLocal[i] = 1 / v
		}
	}
}

func (rb *RigidBody) IsDynamic() bool { return rb.Kind == BodyDynamic && rb.invMass > 0 }

func (rb *RigidBody) InverseMass() float64 { return rb.invMass }

// InverseInertiaWorld returns R * I^-1 * R^T.
func (rb *RigidBody) InverseInertiaWorld() mgl64.Mat3 {
	if !rb.IsDynamic() {
		return mgl64.Mat3{}
	}
	r := rb.Rotation.Mat4().Mat3()
	return r.Mul3(mgl64.Diag3(rb.invInertiaLocal)).Mul3(r.Transpose())
}

// MomentAbout returns the moment of inertia about a world axis through the
// centre of mass.
func (rb *RigidBody) MomentAbout(axis mgl64.Vec3) float64 {
	local := rb.Rotation.Conjugate().Rotate(axis.Normalize())
	return local[0]*local[0]*rb.inertiaLocal[0] +
		local[1]*local[1]*rb.inertiaLocal[1] +
		local[2]*local[2]*rb.inertiaLocal[2]
}

func (rb *RigidBody) ApplyForce(force mgl64.Vec3) {
	if rb.IsDynamic() {
		rb.force = rb.force.Add(force)
	}
}

func (rb *RigidBody) ApplyTorque(torque mgl64.Vec3) {
	if rb.IsDynamic() {
		rb.torque = rb.torque.Add(torque)
	}
}

// Torque returns the torque accumulated since the last world step.
func (rb *RigidBody) Torque() mgl64.Vec3 { return rb.torque }

func (rb *RigidBody) ClearForces() {
	rb.force = mgl64.Vec3{}
	rb.torque = mgl64.Vec3{}
}

func (rb *RigidBody) PointToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return rb.Rotation.Conjugate().Rotate(p.Sub(rb.Position))
}

func (rb *RigidBody) PointToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return rb.Position.Add(rb.Rotation.Rotate(local))
}

// VelocityAt returns the velocity of the world point at offset r from the centre.
func (rb *RigidBody) VelocityAt(r mgl64.Vec3) mgl64.Vec3 {
	return rb.Velocity.Add(rb.AngularVelocity.Cross(r))
}

// ApplyImpulse applies impulse j at offset r from the centre of mass.
func (rb *RigidBody) ApplyImpulse(j, r mgl64.Vec3) {
	if !rb.IsDynamic() {
		return
	}
	rb.Velocity = rb.Velocity.Add(j.Mul(rb.invMass))
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.InverseInertiaWorld().Mul3x1(r.Cross(j)))
}

// ContainsPlanar reports whether p lies inside the body's mid-plane rectangle.
func (rb *RigidBody) ContainsPlanar(p mgl64.Vec3) bool {
	local := rb.PointToLocal(p)
	return math.Abs(local.X()) <= rb.HalfExtents.X() && math.Abs(local.Y()) <= rb.HalfExtents.Y()
}

// planarCorners returns the four corners of the body's mid-plane rectangle as
// offsets from the centre, in world orientation.
func (rb *RigidBody) planarCorners() [4]mgl64.Vec3 {
	a, b := rb.HalfExtents.X(), rb.HalfExtents.Y()
	return [4]mgl64.Vec3{
		rb.Rotation.Rotate(mgl64.Vec3{-a, -b, 0}),
		rb.Rotation.Rotate(mgl64.Vec3{a, -b, 0}),
		rb.Rotation.Rotate(mgl64.Vec3{a, b, 0}),
		rb.Rotation.Rotate(mgl64.Vec3{-a, b, 0}),
	}
}

// Plane is a static half-space boundary; points with Normal·p >= Offset are free.
type Plane struct {
	Normal   mgl64.Vec3
	Offset   float64
	Friction float64
}

// World is what the figure needs from a rigid-body engine.
type World interface {
	AddBody(rb *RigidBody)
	RemoveBody(rb *RigidBody)
	AddConstraint(c *PointConstraint)
	RemoveConstraint(c *PointConstraint)
	GroundHeight() float64
}

type PhysicsWorld struct {
	Gravity mgl64.Vec3
	// MaxSubstep is the largest internal timestep; a frame is split into
	// ceil(dt/MaxSubstep) equal substeps, at most MaxSubsteps of them.
	MaxSubstep  float64
	MaxSubsteps int
	Iterations  int
	Baumgarte   float64
	Slop        float64

	bodies      []*RigidBody
	constraints []*PointConstraint
	boundaries  []Plane
}

func NewPhysicsWorld() *PhysicsWorld {
	return &PhysicsWorld{
		Gravity:     mgl64.Vec3{0, -30, 0},
		MaxSubstep:  1.0 / 120.0,
		MaxSubsteps: 40,
		Iterations:  20,
		Baumgarte:   0.2,
		Slop:        0.005,
	}
}

func (w *PhysicsWorld) AddBody(rb *RigidBody) {
	for _, b := range w.bodies {
		if b == rb {
			return
		}
	}
	w.bodies = append(w.bodies, rb)
}

// RemoveBody removes rb and every constraint attached to it.
func (w *PhysicsWorld) RemoveBody(rb *RigidBody) {
	for i, b := range w.bodies {
		if b == rb {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	kept := w.constraints[:0]
	for _, c := range w.constraints {
		if c.BodyA != rb && c.BodyB != rb {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(w.constraints); i++ {
		w.constraints[i] = nil
	}
	w.constraints = kept
}

func (w *PhysicsWorld) AddConstraint(c *PointConstraint) {
	for _, existing := range w.constraints {
		if existing == c {
			return
		}
	}
	w.constraints = append(w.constraints, c)
}

func (w *PhysicsWorld) RemoveConstraint(c *PointConstraint) {
	for i, existing := range w.constraints {
		if existing == c {
			w.constraints = append(w.constraints[:i], w.constraints[i+1:]...)
			return
		}
	}
}

func (w *PhysicsWorld) HasBody(rb *RigidBody) bool {
	for _, b := range w.bodies {
		if b == rb {
			return true
		}
	}
	return false
}

func (w *PhysicsWorld) HasConstraint(c *PointConstraint) bool {
	for _, existing := range w.constraints {
		if existing == c {
			return true
		}
	}
	return false
}

func (w *PhysicsWorld) Bodies() []*RigidBody { return w.bodies }

func (w *PhysicsWorld) Constraints() []*PointConstraint { return w.constraints }

func (w *PhysicsWorld) AddBoundary(p Plane) {
	p.Normal = p.Normal.Normalize()
	w.boundaries = append(w.boundaries, p)
}

func (w *PhysicsWorld) ClearBoundaries() { w.boundaries = nil }

func (w *PhysicsWorld) Boundaries() []Plane { return w.boundaries }

// SetBox installs floor, ceiling and side walls enclosing the given extents.
func (w *PhysicsWorld) SetBox(floor, ceiling, left, right, friction float64) {
	w.ClearBoundaries()
	w.AddBoundary(Plane{Normal: mgl64.Vec3{0, 1, 0}, Offset: floor, Friction: friction})
	w.AddBoundary(Plane{Normal: mgl64.Vec3{0, -1, 0}, Offset: -ceiling, Friction: 0.1})
	w.AddBoundary(Plane{Normal: mgl64.Vec3{1, 0, 0}, Offset: left, Friction: 0.1})
	w.AddBoundary(Plane{Normal: mgl64.Vec3{-1, 0, 0}, Offset: -right, Friction: 0.1})
}

// GroundHeight is the height of the first upward-facing boundary, or -Inf
// when the world has no floor.
func (w *PhysicsWorld) GroundHeight() float64 {
	for _, p := range w.boundaries {
		if p.Normal.Y() > 0.99 {
			return p.Offset / p.Normal.Y()
		}
	}
	return math.Inf(-1)
}

type contact struct {
	body     *RigidBody
	r        mgl64.Vec3
	normal   mgl64.Vec3
	tangents [2]mgl64.Vec3
	depth    float64
	friction float64
	jn       float64
	jt       [2]float64
}

// Step advances the world by dt seconds. Accumulated forces and torques act
// over every substep and are cleared afterwards.
func (w *PhysicsWorld) Step(dt float64) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return
	}
	substeps := 1
	if w.MaxSubstep > 0 {
		substeps = int(math.Ceil(dt/w.MaxSubstep - 1e-9))
	}
	if substeps < 1 {
		substeps = 1
	}
	if w.MaxSubsteps > 0 && substeps > w.MaxSubsteps {
		substeps = w.MaxSubsteps
	}
	h := dt / float64(substeps)
	for i := 0; i < substeps; i++ {
		w.substep(h)
	}
	for _, b := range w.bodies {
		b.ClearForces()
	}
}

func (w *PhysicsWorld) substep(h float64) {
	for _, b := range w.bodies {
		if !b.IsDynamic() {
			continue
		}
		b.Velocity = b.Velocity.Add(w.Gravity.Add(b.force.Mul(b.invMass)).Mul(h))
		b.AngularVelocity = b.AngularVelocity.Add(b.InverseInertiaWorld().Mul3x1(b.torque).Mul(h))
		b.Velocity = b.Velocity.Mul(math.Pow(1-b.LinearDamping, h))
		b.AngularVelocity = b.AngularVelocity.Mul(math.Pow(1-b.AngularDamping, h))
	}

	contacts := w.collectContacts()
	for it := 0; it < w.Iterations; it++ {
		for _, c := range w.constraints {
			c.solve(h, w.Baumgarte)
		}
		for i := range contacts {
			w.solveContact(&contacts[i], h)
		}
	}

	for _, b := range w.bodies {
		if !b.IsDynamic() {
			continue
		}
		b.Position = b.Position.Add(b.Velocity.Mul(h))
		if b.AngularVelocity.LenSqr() > 0 {
			spin := mgl64.Quat{W: 0, V: b.AngularVelocity.Mul(0.5 * h)}
			b.Rotation = b.Rotation.Add(spin.Mul(b.Rotation)).Normalize()
		}
	}
}

func (w *PhysicsWorld) collectContacts() []contact {
	if len(w.boundaries) == 0 {
		return nil
	}
	var contacts []contact
	for _, b := range w.bodies {
		if !b.IsDynamic() {
			continue
		}
		for _, r := range b.planarCorners() {
			p := b.Position.Add(r)
			for _, plane := range w.boundaries {
				sep := plane.Normal.Dot(p) - plane.Offset
				if sep >= 0 {
					continue
				}
				contacts = append(contacts, contact{
					body:     b,
					r:        r,
					normal:   plane.Normal,
					tangents: tangentBasis(plane.Normal),
					depth:    -sep,
					friction: (b.Friction + plane.Friction) * 0.5,
				})
			}
		}
	}
	return contacts
}

func tangentBasis(n mgl64.Vec3) [2]mgl64.Vec3 {
	t1 := n.Cross(PlaneNormal)
	if t1.LenSqr() < 1e-12 {
		t1 = n.Cross(mgl64.Vec3{1, 0, 0})
	}
	t1 = t1.Normalize()
	return [2]mgl64.Vec3{t1, n.Cross(t1).Normalize()}
}

// effectiveMass returns the inverse effective mass of b along dir at offset r.
func effectiveMass(b *RigidBody, r, dir mgl64.Vec3) float64 {
	rxd := r.Cross(dir)
	return b.invMass + b.InverseInertiaWorld().Mul3x1(rxd).Cross(r).Dot(dir)
}

func (w *PhysicsWorld) solveContact(c *contact, h float64) {
	b := c.body
	vn := c.normal.Dot(b.VelocityAt(c.r))
	kn := effectiveMass(b, c.r, c.normal)
	if kn <= 0 {
		return
	}
	bias := w.Baumgarte / h * math.Max(c.depth-w.Slop, 0)
	jn := -(vn - bias) / kn
	old := c.jn
	c.jn = math.Max(old+jn, 0)
	jn = c.jn - old
	b.ApplyImpulse(c.normal.Mul(jn), c.r)

	limit := c.friction * c.jn
	for i, t := range c.tangents {
		vt := t.Dot(b.VelocityAt(c.r))
		kt := effectiveMass(b, c.r, t)
		if kt <= 0 {
			continue
		}
		jt := -vt / kt
		old := c.jt[i]
		c.jt[i] = clamp(old+jt, -limit, limit)
		jt = c.jt[i] - old
		b.ApplyImpulse(t.Mul(jt), c.r)
	}
}
