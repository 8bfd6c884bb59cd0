package body

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestUpdateMassPropertiesDynamic(t *testing.T) {
	rb := NewDynamic(2, mgl32.Ident3())
	rb.UpdateMassProperties()

	assert.InDelta(t, 0.5, rb.EffectiveInvMass, 1e-6)

	// The square root of the identity matrix is the identity.
	ident := mgl32.Ident3()
	for i := 0; i < 9; i++ {
		assert.InDelta(t, ident[i], rb.EffectiveWorldInvInertiaSqrt[i], 1e-3)
	}
}

func TestUpdateMassPropertiesNonDynamicIsInert(t *testing.T) {
	rb := NewStatic()
	rb.UpdateMassProperties()
	assert.Equal(t, float32(0), rb.EffectiveInvMass)
}

func TestIsMoving(t *testing.T) {
	rb := NewDynamic(1, mgl32.Ident3())
	if rb.IsMoving() {
		t.Errorf("a body at rest should not report IsMoving")
	}
	rb.LinVel = mgl32.Vec3{1, 0, 0}
	if !rb.IsMoving() {
		t.Errorf("a body with linear velocity should report IsMoving")
	}
}

func TestWakeAndSleep(t *testing.T) {
	rb := NewDynamic(1, mgl32.Ident3())
	rb.Sleep()
	assert.True(t, rb.Activation.Sleeping)
	assert.Equal(t, float32(0), rb.Activation.Energy)

	rb.Wake(true)
	assert.False(t, rb.Activation.Sleeping)
}

func TestUpdateEnergyDecays(t *testing.T) {
	rb := NewDynamic(1, mgl32.Ident3())
	rb.LinVel = mgl32.Vec3{5, 0, 0}
	rb.UpdateEnergy()
	first := rb.Activation.Energy

	rb.LinVel = mgl32.Vec3{}
	rb.UpdateEnergy()
	second := rb.Activation.Energy

	if second >= first {
		t.Errorf("energy should decay once linear velocity drops to zero: first=%f second=%f", first, second)
	}
}
