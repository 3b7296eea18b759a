package ragdoll

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

type PostureState int

const (
	FallingOrRising PostureState = iota
	Dragged
	StableIdle
	StableWave
)

func (s PostureState) String() string {
	switch s {
	case FallingOrRising:
		return "FALLING_OR_RISING"
	case Dragged:
		return "DRAGGED"
	case StableIdle:
		return "STABLE_IDLE"
	case StableWave:
		return "STABLE_WAVE"
	}
	return "UNKNOWN"
}

// PostureController decides each step whether a figure is being dragged,
// actively balancing, or held in a kinematic pose.
type PostureController struct {
	figure *Figure
	tuning Tuning
	clock  *InteractionClock
	log    Logger

	state       PostureState
	standFactor float64
	dwelling    bool
	dwellStart  time.Duration
	stableStart time.Duration

	homePos   mgl64.Vec3
	homeAngle float64
	limbStart [len(allRoles)]float64

	wavePhase     WavePhase
	waveCount     int
	waveTimer     float64
	waved         bool
	lastWaveDone  time.Duration
	armRightPivot mgl64.Vec3

	// OnTransition, when set, is called after every state change.
	OnTransition func(f *Figure, from, to PostureState)
}

func newPostureController(f *Figure, tuning Tuning, clock *InteractionClock, log Logger) *PostureController {
	if clock == nil {
		clock = NewInteractionClock()
	}
	return &PostureController{
		figure:        f,
		tuning:        tuning,
		clock:         clock,
		log:           log,
		armRightPivot: Sockets[RoleArmRight].TorsoOffset,
	}
}

func (pc *PostureController) State() PostureState      { return pc.state }
func (pc *PostureController) StandFactor() float64     { return pc.standFactor }
func (pc *PostureController) WavePhase() WavePhase     { return pc.wavePhase }
func (pc *PostureController) WaveCount() int           { return pc.waveCount }
func (pc *PostureController) Tuning() Tuning           { return pc.tuning }
func (pc *PostureController) Clock() *InteractionClock { return pc.clock }

// LastWave reports when the most recent wave finished.
func (pc *PostureController) LastWave() (time.Duration, bool) {
	return pc.lastWaveDone, pc.waved
}

// StableSince reports when the figure last became stable.
func (pc *PostureController) StableSince() (time.Duration, bool) {
	return pc.stableStart, pc.state == StableIdle || pc.state == StableWave
}

func (pc *PostureController) setState(to PostureState) {
	from := pc.state
	if from == to {
		return
	}
	pc.state = to
	pc.log.Debugf("figure %s: %s -> %s", pc.figure.ID, from, to)
	if pc.OnTransition != nil {
		pc.OnTransition(pc.figure, from, to)
	}
}

// Update runs the posture behaviour for one step. now is elapsed simulation
// time and dt the step length in seconds.
func (pc *PostureController) Update(now time.Duration, dt float64) {
	window := time.Duration(pc.tuning.InteractionWindowMs * float64(time.Millisecond))
	if pc.clock.Age(now) < window {
		pc.enterDragged()
		pc.applyActivePose(now, dt, 0)
		pc.figure.lockHead()
		return
	}
	if pc.state == Dragged {
		pc.setState(FallingOrRising)
	}

	switch pc.state {
	case StableIdle, StableWave:
		pc.updateStable(now, dt)
	default:
		pc.updateRising(now, dt)
	}
}

func (pc *PostureController) enterDragged() {
	pc.standFactor = 0
	pc.dwelling = false
	pc.stableStart = 0
	pc.resetWave()
	pc.setState(Dragged)
}

func (pc *PostureController) resetWave() {
	pc.wavePhase = WaveIdle
	pc.waveCount = 0
	pc.waveTimer = 0
	pc.armRightPivot = Sockets[RoleArmRight].TorsoOffset
}

func (pc *PostureController) updateRising(now time.Duration, dt float64) {
	st := pc.tuning.Stand
	torso := pc.figure.Torso()
	speed := torso.Velocity.Len()
	angle := TwistAngle(torso.Rotation)

	if speed < st.SlowSpeed && math.Abs(angle) < st.UprightAngle {
		pc.standFactor += dt * st.RiseRate
		// Absorb rounding so a second of steps sums to exactly 1.
		if pc.standFactor > 1-1e-9 {
			pc.standFactor = 1
		}
	} else {
		pc.standFactor = math.Max(0, pc.standFactor-dt*st.DecayRate)
	}

	pc.applyActivePose(now, dt, pc.standFactor)
	pc.figure.lockHead()

	sb := pc.tuning.Stability
	settled := speed < sb.Speed &&
		math.Abs(torso.AngularVelocity.Z()) < sb.AngularSpeed &&
		math.Abs(angle) < sb.Angle &&
		pc.standFactor >= 1
	if !settled {
		pc.dwelling = false
		return
	}
	if !pc.dwelling {
		pc.dwelling = true
		pc.dwellStart = now
	}
	if msSince(now, pc.dwellStart) > sb.DwellMs {
		pc.becomeStable(now)
	}
}

// becomeStable records the pose the statue blend starts from.
func (pc *PostureController) becomeStable(now time.Duration) {
	torso := pc.figure.Torso()
	pc.dwelling = false
	pc.stableStart = now
	pc.homePos = torso.Position
	pc.homeAngle = TwistAngle(torso.Rotation)
	for _, p := range pc.figure.parts {
		pc.limbStart[p.Role] = TwistAngle(p.Body.Rotation)
	}
	pc.resetWave()
	pc.setState(StableIdle)
}

func (pc *PostureController) updateStable(now time.Duration, dt float64) {
	torso := pc.figure.Torso()
	if torso.Velocity.Len() > pc.tuning.Stability.BreakSpeed {
		pc.stableStart = 0
		pc.resetWave()
		pc.setState(FallingOrRising)
		return
	}

	w := pc.tuning.Wave
	if pc.state == StableIdle && msSince(now, pc.stableStart) > w.DelayMs &&
		(!pc.waved || msSince(now, pc.lastWaveDone) > w.CooldownMs) {
		pc.resetWave()
		pc.wavePhase = WaveRaising
		pc.setState(StableWave)
	}

	if pc.state == StableWave {
		pc.poseWave(now, dt)
	} else {
		pc.poseStatue(now)
	}
	pc.figure.lockHead()
}

// resume picks the posture a freshly restored figure continues in: stable
// when every part is at rest and the torso upright, otherwise rising.
func (pc *PostureController) resume(now time.Duration) {
	sb := pc.tuning.Stability
	torso := pc.figure.Torso()
	atRest := math.Abs(TwistAngle(torso.Rotation)) < sb.Angle
	for _, p := range pc.figure.parts {
		if p.Body.Velocity.Len() >= sb.Speed || math.Abs(p.Body.AngularVelocity.Z()) >= sb.AngularSpeed {
			atRest = false
		}
	}
	if atRest {
		pc.standFactor = 1
		pc.becomeStable(now)
		return
	}
	pc.standFactor = 0
	pc.dwelling = false
	pc.resetWave()
	pc.setState(FallingOrRising)
}

func msSince(now, then time.Duration) float64 {
	return float64(now-then) / float64(time.Millisecond)
}
