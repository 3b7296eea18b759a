package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"github.com/gekko3d/ragdoll"
)

type simulateOptions struct {
	seconds float64
	hz      float64
	restore string
	save    string
	tilt    float64
}

func newSimulateCmd(a *app) *cobra.Command {
	opts := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a headless simulation and report posture transitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.simulate(cmd, opts)
		},
	}
	cmd.Flags().Float64Var(&opts.seconds, "seconds", 10, "simulated seconds to run")
	cmd.Flags().Float64Var(&opts.hz, "hz", 0, "step rate (defaults to sim.hz)")
	cmd.Flags().StringVar(&opts.restore, "restore", "", "snapshot JSON to start from")
	cmd.Flags().StringVar(&opts.save, "save", "", "write the final snapshot JSON here")
	cmd.Flags().Float64Var(&opts.tilt, "tilt", 0, "initial torso tilt in radians")
	return cmd
}

func (a *app) simulate(cmd *cobra.Command, opts simulateOptions) error {
	tuning, err := a.tuning()
	if err != nil {
		return err
	}
	hz := opts.hz
	if hz <= 0 {
		hz = a.cfg.Sim.Hz
	}

	sim := ragdoll.NewSimulation(a.cfg.Sim.Simulation(), tuning, a.log)
	sim.OnTransition = func(f *ragdoll.Figure, from, to ragdoll.PostureState) {
		fmt.Fprintf(cmd.OutOrStdout(), "%8.3fs  %s -> %s\n", sim.Now().Seconds(), from, to)
	}
	sim.OnRespawn = func(old, _ *ragdoll.Figure) {
		fmt.Fprintf(cmd.OutOrStdout(), "%8.3fs  respawned %s\n", sim.Now().Seconds(), old.Username)
	}

	if opts.restore != "" {
		data, err := os.ReadFile(opts.restore)
		if err != nil {
			return err
		}
		snap, err := ragdoll.ParseSnapshot(data)
		if err != nil {
			return err
		}
		sim.Restore(snap)
	} else {
		f := sim.Reset()
		if opts.tilt != 0 {
			tiltFigure(f, opts.tilt)
		}
	}

	dt := 1 / hz
	steps := int(opts.seconds * hz)
	start := time.Now()
	for i := 0; i < steps; i++ {
		sim.Step(dt)
	}
	a.log.Debugf("simulated %d steps in %v", steps, time.Since(start))

	f, _ := sim.Primary()
	torso := f.Torso()
	fmt.Fprintf(cmd.OutOrStdout(), "final: %s at (%.2f, %.2f), twist %.3f, stand %.2f\n",
		f.Controller.State(), torso.Position.X(), torso.Position.Y(),
		ragdoll.TwistAngle(torso.Rotation), f.Controller.StandFactor())

	if opts.save != "" {
		data, err := f.Snapshot().MarshalIndent()
		if err != nil {
			return err
		}
		return os.WriteFile(opts.save, data, 0o644)
	}
	return nil
}

// tiltFigure rotates every part of f about the torso centre.
func tiltFigure(f *ragdoll.Figure, angle float64) {
	pivot := f.Torso().Position
	rot := ragdoll.AxisAngleZ(angle)
	for _, p := range f.Parts() {
		b := p.Body
		b.Position = pivot.Add(rot.Rotate(b.Position.Sub(pivot)))
		b.Rotation = rot.Mul(b.Rotation).Normalize()
		b.Velocity = mgl64.Vec3{}
	}
}
