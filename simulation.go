package ragdoll

import (
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// SimConfig describes the arena and the watchdog limits.
type SimConfig struct {
	Username string
	Spawn    mgl64.Vec3

	Gravity       float64
	Floor         float64
	Ceiling       float64
	Left          float64
	Right         float64
	FloorFriction float64

	// MaxDt caps a single step, in seconds.
	MaxDt float64
	// A figure is respawned when its torso leaves this radius or drops
	// below MinHeight.
	MaxDistance float64
	MinHeight   float64
}

func DefaultSimConfig() SimConfig {
	return SimConfig{
		Username:      "Steve",
		Spawn:         mgl64.Vec3{8, 10, 0},
		Gravity:       -30,
		Floor:         -15,
		Ceiling:       16,
		Left:          -28,
		Right:         28,
		FloorFriction: 0.8,
		MaxDt:         0.1,
		MaxDistance:   200,
		MinHeight:     -50,
	}
}

// Simulation owns the physics world, the figures in it and the drag bridge.
// It is not safe for concurrent use; Runner serialises access to it.
type Simulation struct {
	World  *PhysicsWorld
	Tuning Tuning
	Config SimConfig
	Clock  *InteractionClock
	Drag   *DragBridge
	Input  *PointerInput

	// OnRespawn is called after the watchdog replaces a figure.
	OnRespawn func(old, replacement *Figure)
	// OnTransition is installed on every figure's controller.
	OnTransition func(f *Figure, from, to PostureState)

	log     Logger
	figures []*Figure
	now     time.Duration
	steps   uint64
}

func NewSimulation(cfg SimConfig, tuning Tuning, log Logger) *Simulation {
	if log == nil {
		log = NewNopLogger()
	}
	world := NewPhysicsWorld()
	world.Gravity = mgl64.Vec3{0, cfg.Gravity, 0}
	world.SetBox(cfg.Floor, cfg.Ceiling, cfg.Left, cfg.Right, cfg.FloorFriction)

	s := &Simulation{
		World:  world,
		Tuning: tuning,
		Config: cfg,
		Clock:  NewInteractionClock(),
		Input:  &PointerInput{},
		log:    log,
	}
	s.Drag = NewDragBridge(world, s, s.Clock)
	return s
}

// Now is the elapsed simulation time.
func (s *Simulation) Now() time.Duration { return s.now }

func (s *Simulation) Steps() uint64 { return s.steps }

func (s *Simulation) Figures() []*Figure { return s.figures }

// Primary returns the first figure, if any.
func (s *Simulation) Primary() (*Figure, bool) {
	if len(s.figures) == 0 {
		return nil, false
	}
	return s.figures[0], true
}

func (s *Simulation) Figure(id string) (*Figure, bool) {
	for _, f := range s.figures {
		if f.ID.String() == id {
			return f, true
		}
	}
	return nil, false
}

// Spawn adds a figure rooted at pos.
func (s *Simulation) Spawn(username string, pos mgl64.Vec3) *Figure {
	if username == "" {
		username = s.Config.Username
	}
	f := NewFigure(s.World, username, pos, s.Tuning, s.Clock, s.log)
	f.Controller.OnTransition = s.OnTransition
	s.figures = append(s.figures, f)
	s.log.Infof("spawned figure %s (%s) at (%.2f, %.2f)", f.ID, username, pos.X(), pos.Y())
	return f
}

// Remove destroys f and drops it from the simulation.
func (s *Simulation) Remove(f *Figure) bool {
	for i, g := range s.figures {
		if g == f {
			s.destroy(f)
			s.figures = append(s.figures[:i], s.figures[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Simulation) destroy(f *Figure) {
	bodies := make([]*RigidBody, 0, len(f.parts))
	for _, p := range f.parts {
		bodies = append(bodies, p.Body)
	}
	s.Drag.forget(bodies...)
	f.Destroy()
}

// Reset destroys every figure and spawns a single fresh one at the
// configured spawn point, keeping the primary figure's username.
func (s *Simulation) Reset() *Figure {
	username := s.Config.Username
	if f, ok := s.Primary(); ok {
		username = f.Username
	}
	s.clear()
	return s.Spawn(username, s.Config.Spawn)
}

func (s *Simulation) clear() {
	for _, f := range s.figures {
		s.destroy(f)
	}
	s.figures = nil
}

// Respawn replaces f with a fresh figure at the spawn point, in place.
func (s *Simulation) Respawn(f *Figure) *Figure {
	for i, g := range s.figures {
		if g != f {
			continue
		}
		s.destroy(f)
		nf := NewFigure(s.World, f.Username, s.Config.Spawn, s.Tuning, s.Clock, s.log)
		nf.Controller.OnTransition = s.OnTransition
		s.figures[i] = nf
		if s.OnRespawn != nil {
			s.OnRespawn(f, nf)
		}
		return nf
	}
	return nil
}

// Step advances the simulation by dt seconds: queued pointer input, one
// world step, then the watchdog and each figure's control update.
func (s *Simulation) Step(dt float64) {
	if !(dt > 0) {
		dt = 0
	}
	if s.Config.MaxDt > 0 && dt > s.Config.MaxDt {
		dt = s.Config.MaxDt
	}
	s.now += time.Duration(dt * float64(time.Second))
	s.steps++

	// 1. Pointer input
	s.applyInput()

	// 2. Physics
	s.World.Step(dt)

	// 3. Watchdog and control
	for _, f := range s.figures {
		if reason := s.unhealthy(f); reason != "" {
			s.log.Warnf("figure %s %s, respawning", f.ID, reason)
			s.Respawn(f)
			continue
		}
		f.Update(s.now, dt)
	}
}

func (s *Simulation) applyInput() {
	for _, ev := range s.Input.Drain() {
		switch ev.Action {
		case PointerDown:
			s.Drag.Grab(ev.Point, s.now)
		case PointerMove:
			if s.Drag.Dragging() && ev.Buttons&ButtonPrimary == 0 {
				s.Drag.Release(s.now)
				continue
			}
			s.Drag.Move(ev.Point, s.now)
		case PointerUp:
			s.Drag.Release(s.now)
		}
	}
}

func (s *Simulation) unhealthy(f *Figure) string {
	if !f.Finite() {
		return "has a non-finite pose"
	}
	torso := f.Torso()
	if s.Config.MaxDistance > 0 && torso.Position.Len() > s.Config.MaxDistance {
		return "left the arena"
	}
	if torso.Position.Y() < s.Config.MinHeight {
		return "fell out of the world"
	}
	return ""
}

// PickBody returns the figure part under p. Limbs win over the torso they
// overlap, and a head hit is redirected to the torso since the head only
// follows it.
func (s *Simulation) PickBody(p mgl64.Vec3) (*RigidBody, bool) {
	order := [...]PartRole{RoleArmRight, RoleArmLeft, RoleLegLeft, RoleLegRight, RoleHead, RoleTorso}
	for _, f := range s.figures {
		for _, role := range order {
			if f.Body(role).ContainsPlanar(p) {
				if role == RoleHead {
					return f.Torso(), true
				}
				return f.Body(role), true
			}
		}
	}
	return nil, false
}

// Snapshot captures the primary figure.
func (s *Simulation) Snapshot() (FigureSnapshot, error) {
	f, ok := s.Primary()
	if !ok {
		return FigureSnapshot{}, ErrNoFigure
	}
	return f.Snapshot(), nil
}

// Restore replaces every figure with one rebuilt from snap. Parts missing
// from snap keep their spawn pose. The figure resumes standing when the
// snapshot is at rest and upright, otherwise it starts rising.
func (s *Simulation) Restore(snap FigureSnapshot) *Figure {
	s.clear()
	root := s.Config.Spawn
	if ps, ok := snap.Parts[RoleTorso.String()]; ok && finiteVec(ps.Pos.Vec3()) {
		root = ps.Pos.Vec3()
	}
	f := s.Spawn(snap.Username, root)
	if unknown := snap.apply(f); len(unknown) > 0 {
		sort.Strings(unknown)
		s.log.Debugf("restore ignored unknown parts %v", unknown)
	}
	f.Controller.resume(s.now)
	return f
}
