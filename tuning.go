package ragdoll

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type AngleRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type Gain struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// At interpolates the gain for a stand factor in [0,1].
func (g Gain) At(f float64) float64 { return lerp(g.Min, g.Max, f) }

type LimitTuning struct {
	ArmRight  AngleRange `yaml:"arm_right"`
	ArmLeft   AngleRange `yaml:"arm_left"`
	Leg       AngleRange `yaml:"leg"`
	Stiffness float64    `yaml:"stiffness"`
	Damping   float64    `yaml:"damping"`
	SnapDecay float64    `yaml:"snap_decay"`
}

type StandTuning struct {
	TorsoKp      Gain    `yaml:"torso_kp"`
	TorsoKd      float64 `yaml:"torso_kd"`
	LimbKp       Gain    `yaml:"limb_kp"`
	LimbKpScale  float64 `yaml:"limb_kp_scale"`
	LimbKd       Gain    `yaml:"limb_kd"`
	LimbKdScale  float64 `yaml:"limb_kd_scale"`
	LegKp        float64 `yaml:"leg_kp"`
	MaxTorque    float64 `yaml:"max_torque"`
	ArmBias      float64 `yaml:"arm_bias"`
	BreathAmp    float64 `yaml:"breath_amplitude"`
	BreathPeriod float64 `yaml:"breath_divisor_ms"`
	UprightAngle float64 `yaml:"upright_angle"`
	SlowSpeed    float64 `yaml:"slow_speed"`
	RiseRate     float64 `yaml:"rise_rate"`
	DecayRate    float64 `yaml:"decay_rate"`
}

type StabilityTuning struct {
	Speed        float64 `yaml:"speed"`
	AngularSpeed float64 `yaml:"angular_speed"`
	Angle        float64 `yaml:"angle"`
	DwellMs      float64 `yaml:"dwell_ms"`
	BreakSpeed   float64 `yaml:"break_speed"`
	BlendMs      float64 `yaml:"blend_ms"`
}

type WaveTuning struct {
	DelayMs     float64 `yaml:"delay_ms"`
	CooldownMs  float64 `yaml:"cooldown_ms"`
	RaiseMs     float64 `yaml:"raise_ms"`
	SwingMs     float64 `yaml:"swing_ms"`
	LowerMs     float64 `yaml:"lower_ms"`
	Repetitions int     `yaml:"repetitions"`
	Rest        float64 `yaml:"rest_angle"`
	Top         float64 `yaml:"top_angle"`
	Low         float64 `yaml:"low_angle"`
	PivotAngle  float64 `yaml:"pivot_angle"`
}

// Tuning holds every constant the posture controller reads.
type Tuning struct {
	InteractionWindowMs float64         `yaml:"interaction_window_ms"`
	CohesionTolerance   float64         `yaml:"cohesion_tolerance"`
	Limits              LimitTuning     `yaml:"limits"`
	Stand               StandTuning     `yaml:"stand"`
	Stability           StabilityTuning `yaml:"stability"`
	Wave                WaveTuning      `yaml:"wave"`
}

func DefaultTuning() Tuning {
	return Tuning{
		InteractionWindowMs: 200,
		CohesionTolerance:   0.4,
		Limits: LimitTuning{
			ArmRight:  AngleRange{Min: -0.2, Max: 2.8},
			ArmLeft:   AngleRange{Min: -2.8, Max: 0.2},
			Leg:       AngleRange{Min: -1.0, Max: 1.0},
			Stiffness: 800,
			Damping:   10,
			SnapDecay: 0.1,
		},
		Stand: StandTuning{
			TorsoKp:      Gain{Min: 2500, Max: 3500},
			TorsoKd:      250,
			LimbKp:       Gain{Min: 300, Max: 500},
			LimbKpScale:  0.8,
			LimbKd:       Gain{Min: 20, Max: 150},
			LimbKdScale:  1.2,
			LegKp:        800,
			MaxTorque:    1500,
			ArmBias:      0.10,
			BreathAmp:    0.05,
			BreathPeriod: 600,
			UprightAngle: 0.3,
			SlowSpeed:    1.0,
			RiseRate:     1,
			DecayRate:    2,
		},
		Stability: StabilityTuning{
			Speed:        0.1,
			AngularSpeed: 0.1,
			Angle:        0.1,
			DwellMs:      500,
			BreakSpeed:   5.0,
			BlendMs:      6000,
		},
		Wave: WaveTuning{
			DelayMs:     3000,
			CooldownMs:  7000,
			RaiseMs:     800,
			SwingMs:     300,
			LowerMs:     800,
			Repetitions: 5,
			Rest:        0.10,
			Top:         2.7,
			Low:         2.1,
			PivotAngle:  1.0,
		},
	}
}

// LoadTuning overlays the YAML file at path onto DefaultTuning.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	ranges := map[string]AngleRange{
		"limits.arm_right": t.Limits.ArmRight,
		"limits.arm_left":  t.Limits.ArmLeft,
		"limits.leg":       t.Limits.Leg,
	}
	for name, r := range ranges {
		if r.Min > r.Max {
			return fmt.Errorf("%w: %s min %.3f > max %.3f", ErrBadTuning, name, r.Min, r.Max)
		}
	}
	durations := map[string]float64{
		"wave.raise_ms":           t.Wave.RaiseMs,
		"wave.swing_ms":           t.Wave.SwingMs,
		"wave.lower_ms":           t.Wave.LowerMs,
		"stand.breath_divisor_ms": t.Stand.BreathPeriod,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrBadTuning, name)
		}
	}
	if t.Wave.Repetitions < 1 {
		return fmt.Errorf("%w: wave.repetitions must be at least 1", ErrBadTuning)
	}
	if t.Stand.MaxTorque <= 0 {
		return fmt.Errorf("%w: stand.max_torque must be positive", ErrBadTuning)
	}
	return nil
}

// YAML renders t as a tuning file.
func (t Tuning) YAML() ([]byte, error) {
	return yaml.Marshal(t)
}

func (t Tuning) limitFor(role PartRole) (AngleRange, bool) {
	switch role {
	case RoleArmRight:
		return t.Limits.ArmRight, true
	case RoleArmLeft:
		return t.Limits.ArmLeft, true
	case RoleLegLeft, RoleLegRight:
		return t.Limits.Leg, true
	}
	return AngleRange{}, false
}
