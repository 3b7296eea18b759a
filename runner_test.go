package ragdoll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// lumberjack starts its mill goroutine on first write and never stops it.
var ignoreLogMill = goleak.IgnoreAnyFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun")

func TestRunnerStepsAndPublishes(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLogMill)

	sim, f := newTestSim(t, -30)
	r := NewRunner(sim, 200, nil)
	first := r.Frames().Load()
	require.NotNil(t, first)
	assert.Equal(t, uint64(0), first.Tick)
	require.Len(t, first.Figures, 1)
	assert.Equal(t, f.ID.String(), first.Figures[0].ID)
	assert.Len(t, first.Figures[0].Parts, 6)
	assert.Equal(t, "FALLING_OR_RISING", first.Figures[0].State)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		return r.Frames().Load().Tick >= 5
	}, 2*time.Second, 5*time.Millisecond)

	var username string
	err := r.Do(ctx, func(s *Simulation) error {
		p, _ := s.Primary()
		username = p.Username
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Steve", username)

	boom := errors.New("boom")
	assert.ErrorIs(t, r.Do(ctx, func(*Simulation) error { return boom }), boom)

	require.True(t, r.Post(func(s *Simulation) { s.Reset() }))
	require.Eventually(t, func() bool {
		fr := r.Frames().Load()
		return len(fr.Figures) == 1 && fr.Figures[0].ID != f.ID.String()
	}, 2*time.Second, 5*time.Millisecond)

	r.Pointer(PointerEvent{Action: PointerDown, Point: mgl64.Vec3{-100, -100, 0}, Buttons: ButtonPrimary})

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}

	assert.ErrorIs(t, r.Do(ctx, func(*Simulation) error { return nil }), context.Canceled)
}

func TestBuildFrameCarriesPointer(t *testing.T) {
	sim, f := newTestSim(t, 0)
	at := f.Torso().Position
	sim.Input.Push(PointerEvent{Action: PointerDown, Point: at, Buttons: ButtonPrimary})
	sim.Step(1.0 / 60)

	fr := BuildFrame(sim)
	assert.Equal(t, PointerFrame{X: at.X(), Y: at.Y(), Pressed: true, Dragging: true}, fr.Pointer)

	sim.Input.Push(PointerEvent{Action: PointerUp, Point: at})
	sim.Step(1.0 / 60)
	fr = BuildFrame(sim)
	assert.False(t, fr.Pointer.Pressed)
	assert.False(t, fr.Pointer.Dragging)
}
