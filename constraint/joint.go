package constraint

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/dynamics/body"
	"github.com/gekko3d/dynamics/params"
)

// jointRow is one scalar equality row of a joint (one Cartesian axis
// of a ball/fixed anchor constraint, or an angular axis of a
// fixed/revolute orientation constraint), following g3n-engine's
// equation.go SPOOK-parameter pattern: every row is an equality
// constraint whose impulse is bounded by a large but finite force
// (±1e6) rather than left truly unbounded, so a degenerate Jacobian
// cannot produce an infinite correction in one step.
const jointForceBound = 1e6

type jointRow struct {
	AngJacobian1, AngJacobian2 mgl32.Vec3
	Dir                        mgl32.Vec3
	EffectiveMass              float32
	Impulse                    float32
	RHS                        float32
}

// JointConstraint is the velocity-constraint side of a JointEdge: one
// row per constrained Cartesian/angular degree of freedom. Ball joints
// use 3 linear rows; Fixed uses 3 linear + 3 angular; Prismatic uses 2
// linear rows (perpendicular to its axis, which is left free to slide
// along) plus 3 angular; Revolute uses 3 linear plus 2 angular rows
// (rotation about its axis is left unconstrained).
type JointConstraint struct {
	Body1, Body2 body.Handle
	Kind         JointKind

	InvMass1, InvMass2               float32
	InvInertiaSqrt1, InvInertiaSqrt2 mgl32.Mat3

	LinearRows  []jointRow
	AngularRows []jointRow
}

// BuildJoint constructs the velocity constraint for one joint edge,
// grounded on g3n-engine's PointToPointConstraint/equation.go for the
// anchor rows and generalized with angular rows for Fixed/Prismatic/
// Revolute per spec §3's JointParams fields.
func BuildJoint(p *params.IntegrationParameters, edge *JointEdge, b1, b2 *body.RigidBody) JointConstraint {
	jc := JointConstraint{
		Body1: edge.Body1, Body2: edge.Body2, Kind: edge.Params.Kind,
		InvMass1: b1.EffectiveInvMass, InvMass2: b2.EffectiveInvMass,
		InvInertiaSqrt1: b1.EffectiveWorldInvInertiaSqrt, InvInertiaSqrt2: b2.EffectiveWorldInvInertiaSqrt,
	}

	anchor1 := b1.Pose.Position.Add(b1.Pose.Rotation.Rotate(edge.Params.LocalAnchor1))
	anchor2 := b2.Pose.Position.Add(b2.Pose.Rotation.Rotate(edge.Params.LocalAnchor2))
	gap := anchor2.Sub(anchor1)

	r1 := anchor1.Sub(b1.Pose.Position)
	r2 := anchor2.Sub(b2.Pose.Position)

	axes := [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	linearAxes := axes[:]
	if edge.Params.Kind == JointPrismatic {
		// Only the two directions perpendicular to the sliding axis are constrained.
		axisWorld := b1.Pose.Rotation.Rotate(edge.Params.LocalAxis1).Normalize()
		t1, t2 := orthonormalBasis(axisWorld)
		linearAxes = []mgl32.Vec3{t1, t2}
	}
	for _, axis := range linearAxes {
		jc.LinearRows = append(jc.LinearRows, buildJointRow(p, axis, r1, r2, gap.Dot(axis), jc.InvMass1, jc.InvMass2, jc.InvInertiaSqrt1, jc.InvInertiaSqrt2, true))
	}

	switch edge.Params.Kind {
	case JointFixed, JointPrismatic:
		angErr := orientationError(b1.Pose.Rotation, b2.Pose.Rotation, edge.Params.LocalFrame1, edge.Params.LocalFrame2)
		for _, axis := range axes {
			jc.AngularRows = append(jc.AngularRows, buildJointRow(p, axis, mgl32.Vec3{}, mgl32.Vec3{}, angErr.Dot(axis), jc.InvMass1, jc.InvMass2, jc.InvInertiaSqrt1, jc.InvInertiaSqrt2, false))
		}
	case JointRevolute:
		axisWorld := b1.Pose.Rotation.Rotate(edge.Params.LocalAxis1).Normalize()
		t1, t2 := orthonormalBasis(axisWorld)
		angErr := orientationError(b1.Pose.Rotation, b2.Pose.Rotation, edge.Params.LocalFrame1, edge.Params.LocalFrame2)
		for _, axis := range [2]mgl32.Vec3{t1, t2} {
			jc.AngularRows = append(jc.AngularRows, buildJointRow(p, axis, mgl32.Vec3{}, mgl32.Vec3{}, angErr.Dot(axis), jc.InvMass1, jc.InvMass2, jc.InvInertiaSqrt1, jc.InvInertiaSqrt2, false))
		}
	}

	return jc
}

func buildJointRow(p *params.IntegrationParameters, axis, r1, r2 mgl32.Vec3, posError float32,
	invMass1, invMass2 float32, invInertiaSqrt1, invInertiaSqrt2 mgl32.Mat3, linear bool) jointRow {

	var angJac1, angJac2 mgl32.Vec3
	invMassSum := invMass1 + invMass2
	if linear {
		angJac1 = invInertiaSqrt1.Mul3x1(r1.Cross(axis))
		angJac2 = invInertiaSqrt2.Mul3x1(r2.Cross(axis))
	} else {
		angJac1 = invInertiaSqrt1.Mul3x1(axis)
		angJac2 = invInertiaSqrt2.Mul3x1(axis)
		invMassSum = 0
	}
	invMassSum += angJac1.Dot(angJac1) + angJac2.Dot(angJac2)

	effMass := float32(0)
	if invMassSum > 1e-12 {
		effMass = 1.0 / invMassSum
	}

	return jointRow{
		AngJacobian1: angJac1, AngJacobian2: angJac2, Dir: axis,
		EffectiveMass: effMass,
		RHS:           posError * p.VelocityBasedERPInvDt(),
	}
}

// orientationError returns a small-angle axis-angle vector
// approximating the rotation needed to bring body2's frame back onto
// body1's, following the 2*(q.V) small-angle approximation common to
// SPOOK-style angular constraints (and used by g3n-engine's
// RotationalEquation).
func orientationError(rot1, rot2, frame1, frame2 mgl32.Quat) mgl32.Vec3 {
	q1 := rot1.Mul(frame1)
	q2 := rot2.Mul(frame2)
	diff := q1.Conjugate().Mul(q2)
	if diff.W < 0 {
		diff = mgl32.Quat{W: -diff.W, V: diff.V.Mul(-1)}
	}
	return diff.V.Mul(2)
}

// Warmstart applies each row's current Impulse. BuildJoint creates every
// row with a zero Impulse and joint impulses are not stored across
// steps, so on a freshly built constraint this applies nothing.
func (jc *JointConstraint) Warmstart(b1, b2 *body.RigidBody, coeff float32) {
	for i := range jc.LinearRows {
		applyJointImpulse(b1, b2, &jc.LinearRows[i], jc.LinearRows[i].Impulse*coeff, jc.InvMass1, jc.InvMass2)
	}
	for i := range jc.AngularRows {
		applyJointImpulse(b1, b2, &jc.AngularRows[i], jc.AngularRows[i].Impulse*coeff, 0, 0)
	}
}

func applyJointImpulse(b1, b2 *body.RigidBody, row *jointRow, impulse float32, invMass1, invMass2 float32) {
	if invMass1 != 0 || invMass2 != 0 {
		b1.LinVel = b1.LinVel.Sub(row.Dir.Mul(impulse * invMass1))
		b2.LinVel = b2.LinVel.Add(row.Dir.Mul(impulse * invMass2))
	}
	b1.AngVel = b1.AngVel.Sub(row.AngJacobian1.Mul(impulse))
	b2.AngVel = b2.AngVel.Add(row.AngJacobian2.Mul(impulse))
}

// Solve runs one sequential-impulse iteration over every row, each
// clamped to [-jointForceBound, +jointForceBound] rather than left
// truly unbounded (see jointRow doc).
func (jc *JointConstraint) Solve(b1, b2 *body.RigidBody) {
	for i := range jc.LinearRows {
		solveJointRow(b1, b2, &jc.LinearRows[i], jc.InvMass1, jc.InvMass2, true)
	}
	for i := range jc.AngularRows {
		solveJointRow(b1, b2, &jc.AngularRows[i], 0, 0, false)
	}
}

func solveJointRow(b1, b2 *body.RigidBody, row *jointRow, invMass1, invMass2 float32, linear bool) {
	dv := b2.AngVel.Dot(row.AngJacobian2) - b1.AngVel.Dot(row.AngJacobian1)
	if linear {
		dv += b2.LinVel.Sub(b1.LinVel).Dot(row.Dir)
	}
	delta := -(dv + row.RHS) * row.EffectiveMass
	newImpulse := clamp32(row.Impulse+delta, -jointForceBound, jointForceBound)
	delta = newImpulse - row.Impulse
	row.Impulse = newImpulse
	applyJointImpulse(b1, b2, row, delta, invMass1, invMass2)
}
