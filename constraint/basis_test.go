package constraint

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestOrthonormalBasisIsOrthogonalToNormal(t *testing.T) {
	n := mgl32.Vec3{0, 1, 0}
	t1, t2 := orthonormalBasis(n)

	assert.InDelta(t, 0, t1.Dot(n), 1e-5)
	assert.InDelta(t, 0, t2.Dot(n), 1e-5)
	assert.InDelta(t, 0, t1.Dot(t2), 1e-5)
	assert.InDelta(t, 1, t1.Len(), 1e-5)
}

func TestVelocityAlignedBasisFallsBackWhenSlow(t *testing.T) {
	n := mgl32.Vec3{0, 1, 0}
	_, _, rot := velocityAlignedBasis(n, mgl32.Vec3{1e-6, 0, 0})

	assert.InDelta(t, 1, rot[0], 1e-6)
	assert.InDelta(t, 0, rot[1], 1e-6)
}

func TestRotateInverseRotateRoundTrips(t *testing.T) {
	v := [2]float32{0.3, -0.7}
	rot := [2]float32{0.6, 0.8} // unit length (0.36+0.64 = 1): the conjugate is the inverse only for a unit rotation

	got := inverseRotate2(rotate2(v, rot), rot)
	assert.InDelta(t, v[0], got[0], 1e-4)
	assert.InDelta(t, v[1], got[1], 1e-4)
}
