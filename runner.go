package ragdoll

import (
	"context"
	"sync/atomic"
	"time"
)

// PartFrame is one body's pose in a published frame.
type PartFrame struct {
	Role string     `json:"role"`
	Pos  [3]float64 `json:"pos"`
	Quat [4]float64 `json:"quat"` // x, y, z, w
}

type FigureFrame struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	State       string      `json:"state"`
	Wave        string      `json:"wave"`
	StandFactor float64     `json:"standFactor"`
	Grounded    bool        `json:"grounded"`
	Parts       []PartFrame `json:"parts"`
}

type PointerFrame struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressed  bool    `json:"pressed"`
	Dragging bool    `json:"dragging"`
}

// Frame is an immutable view of the simulation after one step.
type Frame struct {
	Tick    uint64        `json:"tick"`
	Time    float64       `json:"time"` // seconds
	Pointer PointerFrame  `json:"pointer"`
	Figures []FigureFrame `json:"figures"`
}

// BuildFrame captures the current state of s.
func BuildFrame(s *Simulation) *Frame {
	fr := &Frame{
		Tick:    s.Steps(),
		Time:    s.Now().Seconds(),
		Figures: make([]FigureFrame, 0, len(s.figures)),
		Pointer: PointerFrame{
			X:        s.Input.Position.X(),
			Y:        s.Input.Position.Y(),
			Pressed:  s.Input.Pressed,
			Dragging: s.Drag.Dragging(),
		},
	}
	for _, f := range s.figures {
		ff := FigureFrame{
			ID:          f.ID.String(),
			Username:    f.Username,
			State:       f.Controller.State().String(),
			Wave:        f.Controller.WavePhase().String(),
			StandFactor: f.Controller.StandFactor(),
			Grounded:    f.Grounded(),
			Parts:       make([]PartFrame, 0, len(f.parts)),
		}
		for _, p := range f.parts {
			b := p.Body
			ff.Parts = append(ff.Parts, PartFrame{
				Role: p.Role.String(),
				Pos:  [3]float64{b.Position[0], b.Position[1], b.Position[2]},
				Quat: [4]float64{b.Rotation.V[0], b.Rotation.V[1], b.Rotation.V[2], b.Rotation.W},
			})
		}
		fr.Figures = append(fr.Figures, ff)
	}
	return fr
}

// FrameProxy hands the latest frame from the simulation goroutine to readers.
type FrameProxy struct {
	latest atomic.Pointer[Frame]
}

func (p *FrameProxy) Load() *Frame { return p.latest.Load() }

func (p *FrameProxy) store(f *Frame) { p.latest.Store(f) }

type command struct {
	fn   func(*Simulation) error
	done chan error
}

// Runner steps a Simulation on its own goroutine at a fixed rate. Other
// goroutines reach the simulation only through Do, Post and Pointer.
type Runner struct {
	sim      *Simulation
	clock    FrameClock
	proxy    FrameProxy
	commands chan command
	interval time.Duration
	log      Logger
}

func NewRunner(sim *Simulation, hz float64, log Logger) *Runner {
	if log == nil {
		log = NewNopLogger()
	}
	if hz <= 0 {
		hz = 60
	}
	interval := time.Duration(float64(time.Second) / hz)
	r := &Runner{
		sim:      sim,
		clock:    FrameClock{MaxDt: time.Duration(sim.Config.MaxDt * float64(time.Second)), Fallback: interval},
		commands: make(chan command, 64),
		interval: interval,
		log:      log,
	}
	r.proxy.store(BuildFrame(sim))
	return r
}

func (r *Runner) Frames() *FrameProxy { return &r.proxy }

// Pointer queues a pointer event for the next step.
func (r *Runner) Pointer(ev PointerEvent) { r.sim.Input.Push(ev) }

// Post queues fn without waiting. It reports false when the queue is full.
func (r *Runner) Post(fn func(*Simulation)) bool {
	select {
	case r.commands <- command{fn: func(s *Simulation) error { fn(s); return nil }}:
		return true
	default:
		return false
	}
}

// Do runs fn on the simulation goroutine and waits for its result.
func (r *Runner) Do(ctx context.Context, fn func(*Simulation) error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case r.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run steps the simulation until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.log.Infof("runner started at %v per step", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.log.Infof("runner stopped after %d steps", r.sim.Steps())
			return nil
		case now := <-ticker.C:
			r.drain()
			r.sim.Step(r.clock.Tick(now))
			r.proxy.store(BuildFrame(r.sim))
		}
	}
}

func (r *Runner) drain() {
	for {
		select {
		case cmd := <-r.commands:
			err := cmd.fn(r.sim)
			if cmd.done != nil {
				cmd.done <- err
			}
		default:
			return
		}
	}
}
