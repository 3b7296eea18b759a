package ragdoll

import "time"

type WavePhase int

const (
	WaveIdle WavePhase = iota
	WaveRaising
	WaveDown
	WaveUp
	WaveLowering
)

func (p WavePhase) String() string {
	switch p {
	case WaveIdle:
		return "IDLE"
	case WaveRaising:
		return "RAISING"
	case WaveDown:
		return "WAVE_DOWN"
	case WaveUp:
		return "WAVE_UP"
	case WaveLowering:
		return "LOWERING"
	}
	return "UNKNOWN"
}

// poseWave advances the wave and poses the figure: statue pose everywhere
// except the right arm, which follows the wave angle relative to the torso.
func (pc *PostureController) poseWave(now time.Duration, dt float64) {
	w := pc.tuning.Wave
	pc.waveTimer += dt * 1000

	progress := func(d float64) float64 { return clamp(pc.waveTimer/d, 0, 1) }
	var angle float64
	switch pc.wavePhase {
	case WaveRaising:
		angle = lerp(w.Rest, w.Top, progress(w.RaiseMs))
		if pc.waveTimer > w.RaiseMs {
			pc.wavePhase, pc.waveTimer = WaveDown, 0
		}
	case WaveDown:
		angle = lerp(w.Top, w.Low, progress(w.SwingMs))
		if pc.waveTimer > w.SwingMs {
			pc.wavePhase, pc.waveTimer = WaveUp, 0
		}
	case WaveUp:
		angle = lerp(w.Low, w.Top, progress(w.SwingMs))
		if pc.waveTimer > w.SwingMs {
			pc.waveCount++
			pc.waveTimer = 0
			if pc.waveCount >= w.Repetitions {
				pc.wavePhase = WaveLowering
			} else {
				pc.wavePhase = WaveDown
			}
		}
	case WaveLowering:
		angle = lerp(w.Top, w.Rest, progress(w.LowerMs))
		if pc.waveTimer > w.LowerMs {
			pc.finishWave(now)
			pc.poseStatue(now)
			return
		}
	default:
		pc.finishWave(now)
		pc.poseStatue(now)
		return
	}

	pc.poseStatue(now)

	pivot := WavePivot
	if angle > w.PivotAngle {
		pivot = WaveLowPivot
	}
	pc.armRightPivot = pivot
	pc.pinLimb(RoleArmRight, TwistAngle(pc.figure.Torso().Rotation)+angle, pivot)
}

func (pc *PostureController) finishWave(now time.Duration) {
	pc.resetWave()
	pc.waved = true
	pc.lastWaveDone = now
	pc.setState(StableIdle)
}
