// Package solver runs the velocity and position phases over the
// constraint bundles package constraint builds, following spec §4.3
// and §4.5: integrate forces, warmstart, iterate Sequential Impulse,
// integrate velocities into a predicted pose, then iteratively project
// position error out of that prediction.
package solver

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/dynamics/body"
	"github.com/gekko3d/dynamics/constraint"
	"github.com/gekko3d/dynamics/params"
)

// IntegrateForces applies gravity and accumulated external force/
// torque to every body named by handles, following the teacher's
// mod_physics.go gravity-plus-damping integration step generalized to
// per-body gravity scale and angular state (spec §4.1).
func IntegrateForces(p *params.IntegrationParameters, gravity mgl32.Vec3, store *body.Store, handles []body.Handle) {
	for _, h := range handles {
		rb, ok := store.Get(h)
		if !ok || !rb.IsDynamic() {
			continue
		}
		linAccel := gravity.Mul(rb.GravityScale).Add(rb.Force.Mul(rb.InvMass))
		rb.LinVel = rb.LinVel.Add(linAccel.Mul(p.Dt))
		angAccel := rb.EffectiveWorldInvInertiaSqrt.Mul3x1(rb.EffectiveWorldInvInertiaSqrt.Mul3x1(rb.Torque))
		rb.AngVel = rb.AngVel.Add(angAccel.Mul(p.Dt))

		rb.LinVel = rb.LinVel.Mul(1.0 / (1.0 + p.Dt*rb.Damping))
		rb.AngVel = rb.AngVel.Mul(1.0 / (1.0 + p.Dt*rb.AngularDamping))
	}
}

// deltaVelFor returns the island-local Δv accumulator slot for h,
// indexed by its RigidBody.ActiveSetOffset (spec §4.4). A stale handle
// (already removed from the store) gets a throwaway accumulator rather
// than a nil pointer, since it cannot meaningfully appear in an active
// island's constraints in the first place.
func deltaVelFor(store *body.Store, deltaVels []constraint.DeltaVel, h body.Handle) *constraint.DeltaVel {
	rb, ok := store.Get(h)
	if !ok {
		return &constraint.DeltaVel{}
	}
	return &deltaVels[rb.ActiveSetOffset]
}

// WarmstartVelocity applies every constraint's carried-over impulse,
// scaled by coeff, into each body's Δv accumulator rather than its
// real velocity (spec §4.3: coeff is IntegrationParameters.
// WarmstartCoeff times whatever ramp-up the caller has already folded
// into the manifold's per-point warmstart impulses via
// ContactManifold.WarmstartMultiplier — a brand new contact's narrow
// phase starts that multiplier at 0 so it never "inherits" a phantom
// impulse from an unrelated prior manifold). deltaVels must be sized
// to the island (one slot per handle passed to SolveVelocityIteration's
// island) and zeroed by the caller before the first warmstart of the
// step.
func WarmstartVelocity(store *body.Store, deltaVels []constraint.DeltaVel, velocityConstraints []constraint.VelocityConstraint, coeff float32) {
	for i := range velocityConstraints {
		vc := &velocityConstraints[i]
		switch vc.Kind {
		case constraint.NongroupedGround:
			dv2 := deltaVelFor(store, deltaVels, vc.Ground.Body2)
			vc.Ground.Warmstart(dv2, coeff)
		case constraint.Nongrouped:
			dv1 := deltaVelFor(store, deltaVels, vc.TwoBody.Body1)
			dv2 := deltaVelFor(store, deltaVels, vc.TwoBody.Body2)
			vc.TwoBody.Warmstart(dv1, dv2, coeff)
		case constraint.GroupedGround:
			for lane := 0; lane < vc.GroupLen; lane++ {
				gc := &vc.GroundGroup[lane]
				dv2 := deltaVelFor(store, deltaVels, gc.Body2)
				gc.Warmstart(dv2, coeff)
			}
		case constraint.Grouped:
			for lane := 0; lane < vc.GroupLen; lane++ {
				tc := &vc.Group[lane]
				dv1 := deltaVelFor(store, deltaVels, tc.Body1)
				dv2 := deltaVelFor(store, deltaVels, tc.Body2)
				tc.Warmstart(dv1, dv2, coeff)
			}
		}
	}
}

// WarmstartJoints applies every joint row's current impulse; joint
// impulses are not stored across steps, so freshly built joint
// constraints contribute nothing here (see JointConstraint.Warmstart).
func WarmstartJoints(store *body.Store, jointConstraints []constraint.JointConstraint, coeff float32) {
	for i := range jointConstraints {
		jc := &jointConstraints[i]
		b1, _ := store.Modify(jc.Body1)
		b2, _ := store.Modify(jc.Body2)
		jc.Warmstart(b1, b2, coeff)
	}
}

// SolveVelocityIteration runs one Projected-Gauss-Seidel sweep over
// every velocity constraint in island order (spec §4.3). Joint rows
// bake only a position-error term into their rhs (no restitution-style
// baked velocity term), so they solve directly against each body's
// real velocity as before; contacts solve against deltaVels, the
// island's Δv accumulators (see WarmstartVelocity), committed to real
// velocity once by ApplyDeltaVelocities after the last iteration.
func SolveVelocityIteration(store *body.Store, deltaVels []constraint.DeltaVel, velocityConstraints []constraint.VelocityConstraint, jointConstraints []constraint.JointConstraint) {
	for i := range jointConstraints {
		jc := &jointConstraints[i]
		b1, _ := store.Modify(jc.Body1)
		b2, _ := store.Modify(jc.Body2)
		jc.Solve(b1, b2)
	}

	for i := range velocityConstraints {
		vc := &velocityConstraints[i]
		switch vc.Kind {
		case constraint.NongroupedGround:
			dv2 := deltaVelFor(store, deltaVels, vc.Ground.Body2)
			vc.Ground.Solve(dv2)
		case constraint.Nongrouped:
			dv1 := deltaVelFor(store, deltaVels, vc.TwoBody.Body1)
			dv2 := deltaVelFor(store, deltaVels, vc.TwoBody.Body2)
			vc.TwoBody.Solve(dv1, dv2)
		case constraint.GroupedGround:
			for lane := 0; lane < vc.GroupLen; lane++ {
				gc := &vc.GroundGroup[lane]
				dv2 := deltaVelFor(store, deltaVels, gc.Body2)
				gc.Solve(dv2)
			}
		case constraint.Grouped:
			for lane := 0; lane < vc.GroupLen; lane++ {
				tc := &vc.Group[lane]
				dv1 := deltaVelFor(store, deltaVels, tc.Body1)
				dv2 := deltaVelFor(store, deltaVels, tc.Body2)
				tc.Solve(dv1, dv2)
			}
		}
	}
}

// ApplyDeltaVelocities folds each island body's accumulated Δv into
// its real velocity exactly once, after every warmstart/solve
// iteration for this step has run against the accumulator instead of
// the body's actual LinVel/AngVel (spec §4.4), and before
// IntegrateVelocities predicts the next pose from that velocity.
func ApplyDeltaVelocities(store *body.Store, handles []body.Handle, deltaVels []constraint.DeltaVel) {
	for _, h := range handles {
		rb, ok := store.Modify(h)
		if !ok {
			continue
		}
		dv := &deltaVels[rb.ActiveSetOffset]
		rb.LinVel = rb.LinVel.Add(dv.Linear)
		rb.AngVel = rb.AngVel.Add(dv.Angular)
	}
}

// IntegrateVelocities predicts each body's NextPose from its
// post-solve velocity (spec §4.1): this is the "predicted position"
// the position solver then corrects, not the body's final pose.
func IntegrateVelocities(p *params.IntegrationParameters, store *body.Store, handles []body.Handle) {
	for _, h := range handles {
		rb, ok := store.Get(h)
		if !ok {
			continue
		}
		rb.NextPose.Position = rb.Pose.Position.Add(rb.LinVel.Mul(p.Dt))
		angDisp := rb.AngVel.Mul(p.Dt)
		dq := mgl32.Quat{W: 0, V: angDisp.Mul(0.5)}
		prod := dq.Mul(rb.Pose.Rotation)
		rb.NextPose.Rotation = mgl32.Quat{W: rb.Pose.Rotation.W + prod.W, V: rb.Pose.Rotation.V.Add(prod.V)}.Normalize()
	}
}

// WritebackImpulses copies every constraint's final impulses back to
// their source manifolds for next step's warmstart.
func WritebackImpulses(velocityConstraints []constraint.VelocityConstraint, manifoldOf func(constraintIndex int) *constraint.ContactManifold) {
	idx := 0
	for i := range velocityConstraints {
		vc := &velocityConstraints[i]
		switch vc.Kind {
		case constraint.NongroupedGround:
			constraint.WritebackGround(vc.Ground, manifoldOf(idx))
			idx++
		case constraint.Nongrouped:
			constraint.WritebackTwoBody(vc.TwoBody, manifoldOf(idx))
			idx++
		case constraint.GroupedGround:
			for lane := 0; lane < vc.GroupLen; lane++ {
				constraint.WritebackGround(&vc.GroundGroup[lane], manifoldOf(idx))
				idx++
			}
		case constraint.Grouped:
			for lane := 0; lane < vc.GroupLen; lane++ {
				constraint.WritebackTwoBody(&vc.Group[lane], manifoldOf(idx))
				idx++
			}
		}
	}
}
