package dynamics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/dynamics/body"
	"github.com/gekko3d/dynamics/constraint"
)

// emptyWorld is a NarrowPhase/JointSet stub reporting no manifolds, no
// joints, and no graph adjacency — the minimal collaborator needed to
// exercise Step's orchestration without a real broad/narrow phase.
type emptyWorld struct{}

func (emptyWorld) ContactNeighborsOf(h body.Handle) []body.Handle { return nil }
func (emptyWorld) JointNeighborsOf(h body.Handle) []body.Handle   { return nil }
func (emptyWorld) ActiveManifolds() []*constraint.ContactManifold { return nil }
func (emptyWorld) ActiveJoints() []*constraint.JointEdge          { return nil }

func TestStepIntegratesAFallingBodyWithNoContacts(t *testing.T) {
	p := DefaultIntegrationParameters()
	w := NewWorld()

	rb := body.NewDynamic(1, mgl32.Ident3())
	h := w.Bodies.Insert(rb)
	w.Bodies.WakeUp(h, true)

	ew := emptyWorld{}
	w.Step(&p, mgl32.Vec3{0, -10, 0}, ew, ew, nil)

	after, ok := w.Bodies.Get(h)
	require.True(t, ok)
	assert.Less(t, after.Pose.Position.Y(), float32(0))
}

func TestStepIsStableAcrossManySteps(t *testing.T) {
	p := DefaultIntegrationParameters()
	w := NewWorld()

	rb := body.NewDynamic(1, mgl32.Ident3())
	h := w.Bodies.Insert(rb)
	w.Bodies.WakeUp(h, true)

	ew := emptyWorld{}
	for i := 0; i < 60; i++ {
		w.Step(&p, mgl32.Vec3{0, -10, 0}, ew, ew, nil)
	}

	after, ok := w.Bodies.Get(h)
	require.True(t, ok)
	// After one second at -10 m/s^2 from rest, roughly v = -10 m/s.
	assert.InDelta(t, -10, after.LinVel.Y(), 1.0)
}
