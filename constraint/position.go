package constraint

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/dynamics/body"
	"github.com/gekko3d/dynamics/params"
)

// GroundContactPosition and TwoBodyContactPosition store just enough
// of a contact's original geometry (local anchors, not world points)
// to recompute a pseudo-correction separation and Jacobian each
// position iteration against the bodies' NextPose (spec §4.5), the way
// the original source's PositionConstraint::update recomputes from
// local anchors rather than caching world-space Jacobians that would
// go stale as NextPose is corrected.
type PositionPoint struct {
	LocalAnchor1, LocalAnchor2 mgl32.Vec3
	LocalNormal1               mgl32.Vec3
	Dist                       float32
}

type GroundContactPosition struct {
	Body2        body.Handle
	InvMass2     float32
	InvInertia2  mgl32.Mat3
	Points       []PositionPoint
	AnchorBody1  mgl32.Vec3 // not set by BuildGroundPosition; Solve does not read it
	Normal       mgl32.Vec3 // fixed world normal, immovable side's frame
}

type TwoBodyContactPosition struct {
	Body1, Body2               body.Handle
	Normal                     mgl32.Vec3
	InvMass1, InvMass2         float32
	InvInertia1, InvInertia2   mgl32.Mat3
	Points                     []PositionPoint
}

// BuildGroundPosition captures a ground contact's local anchors for
// iterative re-projection.
func BuildGroundPosition(manifold *ContactManifold, b1, b2 *body.RigidBody, flipped bool) GroundContactPosition {
	normal := manifold.Normal
	if flipped {
		normal = normal.Mul(-1)
	}
	gp := GroundContactPosition{
		Body2:       manifold.Body2,
		InvMass2:    b2.EffectiveInvMass,
		InvInertia2: b2.EffectiveWorldInvInertiaSqrt,
		Normal:      normal,
		Points:      make([]PositionPoint, len(manifold.Points)),
	}
	if flipped {
		gp.Body2 = manifold.Body1
	}
	for i, sp := range manifold.Points {
		gp.Points[i] = PositionPoint{
			LocalAnchor2: worldToLocal(b2, sp.Point),
			Dist:         sp.Dist,
		}
	}
	return gp
}

// BuildTwoBodyPosition captures a two-body contact's local anchors.
func BuildTwoBodyPosition(manifold *ContactManifold, b1, b2 *body.RigidBody) TwoBodyContactPosition {
	tp := TwoBodyContactPosition{
		Body1:       manifold.Body1,
		Body2:       manifold.Body2,
		Normal:      manifold.Normal,
		InvMass1:    b1.EffectiveInvMass,
		InvMass2:    b2.EffectiveInvMass,
		InvInertia1: b1.EffectiveWorldInvInertiaSqrt,
		InvInertia2: b2.EffectiveWorldInvInertiaSqrt,
		Points:      make([]PositionPoint, len(manifold.Points)),
	}
	for i, sp := range manifold.Points {
		tp.Points[i] = PositionPoint{
			LocalAnchor1: worldToLocal(b1, sp.Point),
			LocalAnchor2: worldToLocal(b2, sp.Point),
			Dist:         sp.Dist,
		}
	}
	return tp
}

func worldToLocal(b *body.RigidBody, world mgl32.Vec3) mgl32.Vec3 {
	inv := b.Pose.Rotation.Inverse()
	return inv.Rotate(world.Sub(b.Pose.Position))
}

// Solve runs one position-solver iteration (spec §4.5): recompute each
// point's current world separation from NextPose, and if it exceeds
// AllowedLinearError, apply a clamped pseudo-impulse directly to
// NextPose's position and rotation (never to velocity).
func (gp *GroundContactPosition) Solve(p *params.IntegrationParameters, b2 *body.RigidBody) {
	for i := range gp.Points {
		solvePositionPoint(p, nil, b2, &gp.Points[i], gp.Normal, 0, gp.InvMass2, mgl32.Mat3{}, gp.InvInertia2)
	}
}

func (tp *TwoBodyContactPosition) Solve(p *params.IntegrationParameters, b1, b2 *body.RigidBody) {
	for i := range tp.Points {
		solvePositionPoint(p, b1, b2, &tp.Points[i], tp.Normal, tp.InvMass1, tp.InvMass2, tp.InvInertia1, tp.InvInertia2)
	}
}

func solvePositionPoint(p *params.IntegrationParameters, b1, b2 *body.RigidBody, pt *PositionPoint, normal mgl32.Vec3,
	invMass1, invMass2 float32, invInertia1, invInertia2 mgl32.Mat3) {

	world2 := b2.NextPose.Position.Add(b2.NextPose.Rotation.Rotate(pt.LocalAnchor2))
	var world1 mgl32.Vec3
	if b1 != nil {
		world1 = b1.NextPose.Position.Add(b1.NextPose.Rotation.Rotate(pt.LocalAnchor1))
	} else {
		// Immovable side: the contact point where it was at build time;
		// Pose itself is not changed until FinalizePoses.
		world1 = b2.Pose.Position.Add(b2.Pose.Rotation.Rotate(pt.LocalAnchor2))
	}
	separation := world2.Sub(world1).Dot(normal) + pt.Dist

	if separation >= -p.AllowedLinearError {
		return
	}

	r2 := world2.Sub(b2.NextPose.Position)
	angJac2 := invInertia2.Mul3x1(r2.Cross(normal))
	invMassSum := invMass2 + angJac2.Dot(angJac2)

	var r1, angJac1 mgl32.Vec3
	if b1 != nil {
		r1 = world1.Sub(b1.NextPose.Position)
		angJac1 = invInertia1.Mul3x1(r1.Cross(normal))
		invMassSum += invMass1 + angJac1.Dot(angJac1)
	}
	if invMassSum < 1e-12 {
		return
	}

	correction := clamp32(-p.ERP*(separation+p.AllowedLinearError), -p.MaxLinearCorrection, p.MaxLinearCorrection)
	lambda := correction / invMassSum

	linear := normal.Mul(lambda)
	b2.NextPose.Position = b2.NextPose.Position.Add(linear.Mul(invMass2))
	b2.NextPose.Rotation = integrateRotation(b2.NextPose.Rotation, angJac2.Mul(lambda))

	if b1 != nil {
		b1.NextPose.Position = b1.NextPose.Position.Sub(linear.Mul(invMass1))
		b1.NextPose.Rotation = integrateRotation(b1.NextPose.Rotation, angJac1.Mul(-lambda))
	}
}

// integrateRotation applies a small-angle rotation (given as an
// angular displacement vector) to q and renormalizes, the standard
// first-order quaternion integration used by the position solver.
func integrateRotation(q mgl32.Quat, angularDisp mgl32.Vec3) mgl32.Quat {
	dq := mgl32.Quat{W: 0, V: angularDisp.Mul(0.5)}
	sum := mgl32.Quat{
		W: q.W + (dq.Mul(q)).W,
		V: q.V.Add((dq.Mul(q)).V),
	}
	return sum.Normalize()
}
