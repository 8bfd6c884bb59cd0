package constraint

import "github.com/go-gl/mathgl/mgl32"

// orthonormalBasis builds a fixed, deterministic tangent basis for a
// unit normal, used both as the fallback when the relative tangential
// velocity is too small to define a direction and as the reference
// frame that a contact point's warmstart tangent impulse is stored in
// across frames (see velocityAlignedBasis).
func orthonormalBasis(n mgl32.Vec3) (t1, t2 mgl32.Vec3) {
	var a mgl32.Vec3
	if abs32(n.X()) < 0.9 {
		a = mgl32.Vec3{1, 0, 0}
	} else {
		a = mgl32.Vec3{0, 1, 0}
	}
	t1 = a.Sub(n.Mul(a.Dot(n))).Normalize()
	t2 = n.Cross(t1)
	return t1, t2
}

// velocityAlignedBasis chooses the tangent basis along the tangential
// component of the relative velocity (spec §4.3: "the tangent basis is
// chosen along the tangential relative velocity (falling back to an
// orthonormal basis when it is below 1e-4)"), and returns the unit
// complex rotation (cos, sin) from the fixed reference basis
// (orthonormalBasis) to the chosen one, so a tangent impulse stored in
// the reference frame across steps can be rotated into whichever frame
// this step solves in, and rotated back on writeback.
func velocityAlignedBasis(n, relVel mgl32.Vec3) (t1, t2 mgl32.Vec3, rot [2]float32) {
	refT1, refT2 := orthonormalBasis(n)

	tangentialVel := relVel.Sub(n.Mul(relVel.Dot(n)))
	if tangentialVel.Dot(tangentialVel) < 1e-4*1e-4 {
		return refT1, refT2, [2]float32{1, 0}
	}

	t1 = tangentialVel.Normalize()
	t2 = n.Cross(t1)
	rot = [2]float32{t1.Dot(refT1), t1.Dot(refT2)}
	return t1, t2, rot
}

// rotate2 applies the unit complex number rot to the 2-vector v
// (rotating a tangent impulse between the reference basis and the
// velocity-aligned solving basis).
func rotate2(v [2]float32, rot [2]float32) [2]float32 {
	cos, sin := rot[0], rot[1]
	return [2]float32{cos*v[0] - sin*v[1], sin*v[0] + cos*v[1]}
}

// inverseRotate2 applies the conjugate of rot.
func inverseRotate2(v [2]float32, rot [2]float32) [2]float32 {
	return rotate2(v, [2]float32{rot[0], -rot[1]})
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clamp32(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
