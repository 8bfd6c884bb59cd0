package constraint

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/dynamics/body"
	"github.com/gekko3d/dynamics/params"
)

// NormalPart is the per-point non-penetration constraint row: its
// effective mass, accumulated impulse and the right-hand-side baked in
// at build time (restitution target plus the velocity-based ERP term
// for resting contacts, per spec §4.3).
type NormalPart struct {
	EffectiveMass float32
	Impulse       float32
	RHS           float32

	AngJacobian1 mgl32.Vec3
	AngJacobian2 mgl32.Vec3
}

// tangentRow is one of a point's two friction directions: the world
// direction itself, the world-space angular Jacobian against each
// body, and the combined effective mass.
type tangentRow struct {
	Dir           mgl32.Vec3
	AngJacobian1  mgl32.Vec3
	AngJacobian2  mgl32.Vec3
	EffectiveMass float32
	Impulse       float32
}

// TangentPart is the per-point friction row pair (two tangent
// directions), sharing a single friction-cone bound derived from the
// associated NormalPart's impulse each iteration.
type TangentPart struct {
	Rows [2]tangentRow

	// Rot is the unit complex rotation from the fixed reference tangent
	// basis to this step's velocity-aligned basis (see basis.go); the
	// warmstart impulse carried over from the previous step is rotated
	// into this frame before solving and rotated back on writeback.
	Rot [2]float32
}

// ContactPoint bundles one manifold point's normal and tangent rows
// plus the bookkeeping the solver writes back to the manifold.
type ContactPoint struct {
	Point mgl32.Vec3

	// R1, R2 are the world-space arms from each body's center to Point,
	// frozen at build time: bodies do not move during the velocity
	// solve, so these are reused every iteration instead of being
	// recomputed from a (stale) body position.
	R1, R2 mgl32.Vec3

	Normal  NormalPart
	Tangent TangentPart

	Friction    float32
	Restitution float32

	// ManifoldPointIndex lets WritebackImpulses find its way back to
	// the originating SolverContactPoint.
	ManifoldPointIndex int
}

// GroundContact is a velocity constraint between one dynamic body
// (Body2) and a body the solver treats as immovable: a Static or
// Kinematic body (spec §4.3 "ground" variant, grounded on
// velocity_ground_constraint.rs's WBodyVelocityGroundConstraint). The
// rhs is built from Body2's velocity alone; a Kinematic body's own
// velocity is not taken into account.
type GroundContact struct {
	Body2 body.Handle

	Normal mgl32.Vec3
	Points []ContactPoint

	InvMass2        float32
	InvInertiaSqrt2 mgl32.Mat3
}

// TwoBodyContact is a velocity constraint between two dynamic bodies.
type TwoBodyContact struct {
	Body1, Body2 body.Handle

	Normal mgl32.Vec3
	Points []ContactPoint

	InvMass1, InvMass2               float32
	InvInertiaSqrt1, InvInertiaSqrt2 mgl32.Mat3
}

// relativeVelocityAt returns the relative linear velocity of body2
// with respect to body1 (nil for a ground contact) at a world point:
// v2 + w2×r2 - v1 - w1×r1. Used only at build time, once per step,
// against each body's real, current velocity (spec §4.3's rhs is
// baked from this snapshot; the iterative solve afterwards runs
// against a separate Δv accumulator, see relativeDeltaVelAt).
func relativeVelocityAt(b1, b2 *body.RigidBody, point mgl32.Vec3) mgl32.Vec3 {
	r2 := point.Sub(b2.Pose.Position)
	v2 := b2.LinVel.Add(b2.AngVel.Cross(r2))
	if b1 == nil {
		return v2
	}
	r1 := point.Sub(b1.Pose.Position)
	v1 := b1.LinVel.Add(b1.AngVel.Cross(r1))
	return v2.Sub(v1)
}

// relativeDeltaVelAt is relativeVelocityAt's counterpart for the
// per-iteration Δv accumulator, using the arms frozen at build time
// instead of re-deriving them from a body's (unmoving, during the
// velocity solve) position.
func relativeDeltaVelAt(dv1, dv2 *DeltaVel, r1, r2 mgl32.Vec3) mgl32.Vec3 {
	v2 := dv2.Linear.Add(dv2.Angular.Cross(r2))
	if dv1 == nil {
		return v2
	}
	v1 := dv1.Linear.Add(dv1.Angular.Cross(r1))
	return v2.Sub(v1)
}

// buildPoint fills in the Jacobian rows, effective masses and rhs for
// one manifold point, shared by the ground and two-body builders. b1
// is nil for a ground contact.
//
// The rhs formula is ported term-for-term from
// velocity_ground_constraint.rs's generate(): a bouncy point (restitution
// applies) corrects its full incoming velocity every step; a resting
// point is throttled by VelocitySolveFraction and picks up a
// velocity-based-ERP term pulling it out of any penetration. The two
// branches are mutually exclusive (IsBouncy selects one), matching the
// original's `is_bouncy`/`is_resting` complementary multipliers.
//
// warmstartCorrection shrinks a warmstart impulse that was computed
// against a very different rhs last step (spec §4.3), bounded by
// warmstartCoeff*manifold.WarmstartMultiplier so a brand new contact
// (WarmstartMultiplier starting at 0) never inherits one.
func buildPoint(p *params.IntegrationParameters, sp *SolverContactPoint, pointIdx int, normal mgl32.Vec3,
	b1, b2 *body.RigidBody, invMass1, invMass2 float32, invInertiaSqrt1, invInertiaSqrt2 mgl32.Mat3,
	warmstartMultiplier, warmstartCoeff float32) ContactPoint {

	relVel := relativeVelocityAt(b1, b2, sp.Point)

	r2 := sp.Point.Sub(b2.Pose.Position)
	angJacWorld2 := invInertiaSqrt2.Mul3x1(r2.Cross(normal))

	var r1, angJacWorld1 mgl32.Vec3
	if b1 != nil {
		r1 = sp.Point.Sub(b1.Pose.Position)
		angJacWorld1 = invInertiaSqrt1.Mul3x1(r1.Cross(normal))
	}

	invMassSum := invMass2 + angJacWorld2.Dot(angJacWorld2)
	if b1 != nil {
		invMassSum += invMass1 + angJacWorld1.Dot(angJacWorld1)
	}
	effMass := float32(0)
	if invMassSum > 1e-12 {
		effMass = 1.0 / invMassSum
	}

	normalVel := relVel.Dot(normal)

	rhs := normalVel
	if sp.IsBouncy {
		rhs += sp.Restitution * normalVel
	}
	rhs += max32(sp.Dist, 0) * p.InvDt
	if sp.IsBouncy {
		// is_bouncy branch: multiplier is 1, no resting ERP term.
	} else {
		rhs *= p.VelocitySolveFraction
		rhs += p.VelocityBasedERPInvDt() * min32(sp.Dist, 0)
	}

	warmstartCorrection := p.WarmstartCorrectionSlope / abs32(rhs-sp.PrevRHS)
	warmstartCorrection = min32(warmstartCorrection, warmstartCoeff*warmstartMultiplier)

	tangentialVel := relVel.Sub(normal.Mul(normalVel))
	t1, t2, rot := velocityAlignedBasis(normal, tangentialVel)

	tangent := TangentPart{Rot: rot}
	for i, dir := range [2]mgl32.Vec3{t1, t2} {
		aj2 := invInertiaSqrt2.Mul3x1(r2.Cross(dir))
		im := invMass2 + aj2.Dot(aj2)
		row := tangentRow{Dir: dir, AngJacobian2: aj2}
		if b1 != nil {
			aj1 := invInertiaSqrt1.Mul3x1(r1.Cross(dir))
			im += invMass1 + aj1.Dot(aj1)
			row.AngJacobian1 = aj1
		}
		if im > 1e-12 {
			row.EffectiveMass = 1.0 / im
		}
		tangent.Rows[i] = row
	}
	warmstartTangent := inverseRotate2(sp.WarmstartTangentImpulse, rot)
	tangent.Rows[0].Impulse = warmstartTangent[0] * warmstartCorrection
	tangent.Rows[1].Impulse = warmstartTangent[1] * warmstartCorrection

	return ContactPoint{
		Point: sp.Point,
		R1:    r1,
		R2:    r2,
		Normal: NormalPart{
			EffectiveMass: effMass,
			Impulse:       sp.WarmstartImpulse * warmstartCorrection,
			RHS:           rhs,
			AngJacobian1:  angJacWorld1,
			AngJacobian2:  angJacWorld2,
		},
		Tangent:            tangent,
		Friction:            sp.Friction,
		Restitution:         sp.Restitution,
		ManifoldPointIndex:  pointIdx,
	}
}

// GenerateGroundContact builds a GroundContact constraint from a
// manifold whose Body1 side the caller has determined to be immovable
// for the solver's purposes (flipped selects which manifold side maps
// to Body2, the only side that actually accumulates impulses).
func GenerateGroundContact(p *params.IntegrationParameters, manifold *ContactManifold, b2 *body.RigidBody, flipped bool) GroundContact {
	normal := manifold.Normal
	if flipped {
		normal = normal.Mul(-1)
	}

	gc := GroundContact{
		Body2:           manifold.Body2,
		Normal:          normal,
		InvMass2:        b2.EffectiveInvMass,
		InvInertiaSqrt2: b2.EffectiveWorldInvInertiaSqrt,
		Points:          make([]ContactPoint, len(manifold.Points)),
	}
	if flipped {
		gc.Body2 = manifold.Body1
	}
	for i := range manifold.Points {
		gc.Points[i] = buildPoint(p, &manifold.Points[i], i, normal, nil, b2, 0, gc.InvMass2, mgl32.Mat3{}, gc.InvInertiaSqrt2,
			manifold.WarmstartMultiplier, p.WarmstartCoeff)
	}
	return gc
}

// GenerateTwoBodyContact builds a TwoBodyContact constraint between
// two dynamic bodies.
func GenerateTwoBodyContact(p *params.IntegrationParameters, manifold *ContactManifold, b1, b2 *body.RigidBody) TwoBodyContact {
	tc := TwoBodyContact{
		Body1:           manifold.Body1,
		Body2:           manifold.Body2,
		Normal:          manifold.Normal,
		InvMass1:        b1.EffectiveInvMass,
		InvMass2:        b2.EffectiveInvMass,
		InvInertiaSqrt1: b1.EffectiveWorldInvInertiaSqrt,
		InvInertiaSqrt2: b2.EffectiveWorldInvInertiaSqrt,
		Points:          make([]ContactPoint, len(manifold.Points)),
	}
	for i := range manifold.Points {
		tc.Points[i] = buildPoint(p, &manifold.Points[i], i, manifold.Normal, b1, b2, tc.InvMass1, tc.InvMass2, tc.InvInertiaSqrt1, tc.InvInertiaSqrt2,
			manifold.WarmstartMultiplier, p.WarmstartCoeff)
	}
	return tc
}

// Warmstart applies each point's carried-over impulse to Body2's Δv
// accumulator before the first velocity-solver iteration (spec §4.3
// warmstarting); dv2 starts at zero and is only folded into the real
// body velocity once, after every iteration has run (see
// solver.ApplyDeltaVelocities).
func (gc *GroundContact) Warmstart(dv2 *DeltaVel, coeff float32) {
	for i := range gc.Points {
		warmstartApply(nil, dv2, &gc.Points[i], gc.Normal, 0, gc.InvMass2, coeff)
	}
}

// Warmstart applies each point's carried-over impulse to both bodies'
// Δv accumulators.
func (tc *TwoBodyContact) Warmstart(dv1, dv2 *DeltaVel, coeff float32) {
	for i := range tc.Points {
		warmstartApply(dv1, dv2, &tc.Points[i], tc.Normal, tc.InvMass1, tc.InvMass2, coeff)
	}
}

func warmstartApply(dv1, dv2 *DeltaVel, cp *ContactPoint, normal mgl32.Vec3, invMass1, invMass2, coeff float32) {
	impulse := normal.Mul(cp.Normal.Impulse * coeff)
	for i := range cp.Tangent.Rows {
		impulse = impulse.Add(cp.Tangent.Rows[i].Dir.Mul(cp.Tangent.Rows[i].Impulse * coeff))
	}
	applyImpulseAt(dv1, dv2, cp, impulse, invMass1, invMass2, coeff)
}

// applyImpulseAt distributes a linear impulse (already oriented) to
// both bodies' Δv accumulators, linear and, via each row's
// precomputed world-space angular Jacobian, angular.
func applyImpulseAt(dv1, dv2 *DeltaVel, cp *ContactPoint, impulse mgl32.Vec3, invMass1, invMass2, coeff float32) {
	dv2.Linear = dv2.Linear.Add(impulse.Mul(invMass2))
	angImpulse2 := cp.Normal.AngJacobian2.Mul(cp.Normal.Impulse * coeff)
	for i := range cp.Tangent.Rows {
		angImpulse2 = angImpulse2.Add(cp.Tangent.Rows[i].AngJacobian2.Mul(cp.Tangent.Rows[i].Impulse * coeff))
	}
	dv2.Angular = dv2.Angular.Add(angImpulse2)

	if dv1 != nil {
		dv1.Linear = dv1.Linear.Sub(impulse.Mul(invMass1))
		angImpulse1 := cp.Normal.AngJacobian1.Mul(cp.Normal.Impulse * coeff)
		for i := range cp.Tangent.Rows {
			angImpulse1 = angImpulse1.Add(cp.Tangent.Rows[i].AngJacobian1.Mul(cp.Tangent.Rows[i].Impulse * coeff))
		}
		dv1.Angular = dv1.Angular.Sub(angImpulse1)
	}
}

// Solve runs one sequential-impulse iteration over every point: the
// two tangent (friction) rows first, clamped to the cone bound set by
// the previous iteration's normal impulse, then the normal row clamped
// to [0, +inf) (order follows velocity_ground_constraint.rs, which
// biases friction toward the last-known-good normal force rather than
// the one about to be computed this iteration).
func (gc *GroundContact) Solve(dv2 *DeltaVel) {
	solvePoints(nil, dv2, gc.Points, gc.Normal, 0, gc.InvMass2)
}

func (tc *TwoBodyContact) Solve(dv1, dv2 *DeltaVel) {
	solvePoints(dv1, dv2, tc.Points, tc.Normal, tc.InvMass1, tc.InvMass2)
}

func solvePoints(dv1, dv2 *DeltaVel, points []ContactPoint, normal mgl32.Vec3, invMass1, invMass2 float32) {
	for i := range points {
		cp := &points[i]

		for t := range cp.Tangent.Rows {
			row := &cp.Tangent.Rows[t]
			dv := tangentRelVel(dv1, dv2, cp, row)
			bound := cp.Friction * cp.Normal.Impulse
			delta := -dv * row.EffectiveMass
			newImpulse := clamp32(row.Impulse+delta, -bound, bound)
			delta = newImpulse - row.Impulse
			row.Impulse = newImpulse
			applyDelta(dv1, dv2, row.Dir.Mul(delta), row.AngJacobian1.Mul(delta), row.AngJacobian2.Mul(delta), invMass1, invMass2)
		}

		dv := relativeDeltaVelAt(dv1, dv2, cp.R1, cp.R2).Dot(normal)
		delta := -(dv + cp.Normal.RHS) * cp.Normal.EffectiveMass
		newImpulse := max32(cp.Normal.Impulse+delta, 0)
		delta = newImpulse - cp.Normal.Impulse
		cp.Normal.Impulse = newImpulse
		applyDelta(dv1, dv2, normal.Mul(delta), cp.Normal.AngJacobian1.Mul(delta), cp.Normal.AngJacobian2.Mul(delta), invMass1, invMass2)
	}
}

func tangentRelVel(dv1, dv2 *DeltaVel, cp *ContactPoint, row *tangentRow) float32 {
	lin := dv2.Linear.Add(dv2.Angular.Cross(cp.R2))
	if dv1 != nil {
		lin = lin.Sub(dv1.Linear.Add(dv1.Angular.Cross(cp.R1)))
	}
	return lin.Dot(row.Dir)
}

func applyDelta(dv1, dv2 *DeltaVel, linear, angJac1, angJac2 mgl32.Vec3, invMass1, invMass2 float32) {
	dv2.Linear = dv2.Linear.Add(linear.Mul(invMass2))
	dv2.Angular = dv2.Angular.Add(angJac2)
	if dv1 != nil {
		dv1.Linear = dv1.Linear.Sub(linear.Mul(invMass1))
		dv1.Angular = dv1.Angular.Sub(angJac1)
	}
}

// WritebackGround and WritebackTwoBody copy each point's final impulse
// back into the originating manifold so next step's Warmstart has
// something to read, rotating the tangent impulse back into the fixed
// reference basis first (spec §4.3), and record this step's rhs as
// next step's PrevRHS for the warmstart-correction comparison.
func WritebackGround(gc *GroundContact, manifold *ContactManifold) {
	for i := range gc.Points {
		writebackPoint(&gc.Points[i], manifold)
	}
}

func WritebackTwoBody(tc *TwoBodyContact, manifold *ContactManifold) {
	for i := range tc.Points {
		writebackPoint(&tc.Points[i], manifold)
	}
}

func writebackPoint(cp *ContactPoint, manifold *ContactManifold) {
	sp := &manifold.Points[cp.ManifoldPointIndex]
	sp.WarmstartImpulse = cp.Normal.Impulse
	solved := [2]float32{cp.Tangent.Rows[0].Impulse, cp.Tangent.Rows[1].Impulse}
	sp.WarmstartTangentImpulse = rotate2(solved, cp.Tangent.Rot)
	sp.PrevRHS = cp.Normal.RHS
}
