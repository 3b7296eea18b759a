package ragdoll

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestPointerInputState(t *testing.T) {
	in := &PointerInput{}
	assert.Empty(t, in.Drain())

	in.Push(PointerEvent{Action: PointerDown, Point: mgl64.Vec3{1, 2, 0}, Buttons: ButtonPrimary})
	in.Push(PointerEvent{Action: PointerMove, Point: mgl64.Vec3{3, 4, 0}, Buttons: ButtonPrimary})
	events := in.Drain()
	assert.Len(t, events, 2)
	assert.True(t, in.Pressed)
	assert.Equal(t, mgl64.Vec3{3, 4, 0}, in.Position)

	// A move without the primary button means the release was missed.
	in.Push(PointerEvent{Action: PointerMove, Point: mgl64.Vec3{5, 5, 0}})
	in.Drain()
	assert.False(t, in.Pressed)

	in.Push(PointerEvent{Action: PointerDown, Point: mgl64.Vec3{5, 5, 0}, Buttons: ButtonPrimary})
	in.Push(PointerEvent{Action: PointerUp, Point: mgl64.Vec3{6, 5, 0}})
	in.Drain()
	assert.False(t, in.Pressed)
	assert.Equal(t, mgl64.Vec3{6, 5, 0}, in.Position)
}

func TestPointerActionNames(t *testing.T) {
	for _, a := range []PointerAction{PointerDown, PointerMove, PointerUp} {
		got, ok := ParsePointerAction(a.String())
		assert.True(t, ok)
		assert.Equal(t, a, got)
	}
	_, ok := ParsePointerAction("wheel")
	assert.False(t, ok)
	assert.Equal(t, "unknown", PointerAction(9).String())
}
