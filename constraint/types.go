// Package constraint builds velocity and position constraints from
// contact manifolds and joint edges (spec §4.3), groups them into
// SIMD-lane-wide bundles where lane bodies are distinct, and hands the
// result to package solver.
package constraint

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/dynamics/body"
)

// LaneWidth is the width of a "Grouped" constraint bundle. Go has no
// portable SIMD, so a bundle here is a plain array of LaneWidth scalar
// constraints solved lane-by-lane; the coloring that produces a bundle
// still guarantees no two lanes reference the same body, which is
// what would make a real vectorized port correct.
const LaneWidth = 4

// SolverContactPoint is one point of a contact manifold already
// reduced to the form the velocity solver needs (spec §3
// ContactManifold point fields).
type SolverContactPoint struct {
	Point           mgl32.Vec3
	Dist            float32 // signed separation; negative is penetration
	Friction        float32
	Restitution     float32
	TangentVelocity mgl32.Vec3
	IsBouncy        bool
	ContactID       uint8

	PrevRHS                 float32
	WarmstartImpulse        float32
	WarmstartTangentImpulse [2]float32
}

// ContactManifold is the per-pair input consumed from the (external)
// narrow phase.
type ContactManifold struct {
	Body1, Body2 body.Handle
	Normal       mgl32.Vec3 // points from Body1 towards Body2
	Points       []SolverContactPoint

	WarmstartMultiplier float32
	UserData            uint32
}

// JointKind tags which parameter record a JointEdge carries.
type JointKind int

const (
	JointBall JointKind = iota
	JointFixed
	JointPrismatic
	JointRevolute
)

// JointParams is the parameter record shared by every joint kind; Kind
// selects which of its fields BuildJoint reads.
type JointParams struct {
	Kind JointKind

	// Anchor points, in each body's local frame.
	LocalAnchor1, LocalAnchor2 mgl32.Vec3

	// Local-frame basis vectors for the free axis (prismatic
	// translation axis, revolute hinge axis). Unused by Ball/Fixed.
	LocalAxis1, LocalAxis2 mgl32.Vec3

	// Relative orientation at rest, used by Fixed/Prismatic/Revolute
	// to measure angular position error.
	LocalFrame1, LocalFrame2 mgl32.Quat
}

// JointEdge connects two bodies via a parameterized joint; EdgeID is
// the joint-interaction-graph edge id used to find neighbors during
// island extraction.
type JointEdge struct {
	Body1, Body2 body.Handle
	Params       JointParams
	EdgeID       uint32
}

// Kind tags which variant a Constraint value holds (design note
// "Polymorphic constraints"). Empty is the zero value; Builder never
// emits it, since it appends each constraint as it is built.
type Kind int

const (
	Empty Kind = iota
	NongroupedGround
	Nongrouped
	GroupedGround
	Grouped
)

// VelocityConstraint is a tagged union over the five constraint
// shapes. Exactly one of the pointer fields is non-nil, matching Kind
// (none for Empty).
type VelocityConstraint struct {
	Kind Kind

	Ground  *GroundContact
	TwoBody *TwoBodyContact

	GroundGroup *[LaneWidth]GroundContact
	Group       *[LaneWidth]TwoBodyContact

	// GroupLen is the number of lanes actually populated in a
	// GroundGroup/Group bundle (<= LaneWidth); unused lanes are
	// zero-impulse no-ops.
	GroupLen int
}

// PositionConstraint mirrors VelocityConstraint for the position
// solver (spec §4.5): it stores enough of the original geometry to
// recompute a pseudo-correction each position iteration.
type PositionConstraint struct {
	Kind Kind

	Ground  *GroundContactPosition
	TwoBody *TwoBodyContactPosition

	GroundGroup *[LaneWidth]GroundContactPosition
	Group       *[LaneWidth]TwoBodyContactPosition
	GroupLen    int
}
