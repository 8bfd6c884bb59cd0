package body

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Kind is the rigid body's simulation category.
type Kind int

const (
	Dynamic Kind = iota
	Kinematic
	Static
)

// ChangeFlags track user-visible mutations made to a body since the
// last call to Store.HandleUserChanges.
type ChangeFlags uint32

const (
	ChangePosition ChangeFlags = 1 << iota
	ChangeVelocity
	ChangeSleep
	ChangeColliders
	ChangeBodyStatus
	ChangeDominance
	ChangeModified
)

const changeAll = ChangePosition | ChangeVelocity | ChangeSleep | ChangeColliders |
	ChangeBodyStatus | ChangeDominance | ChangeModified

// Activation holds the sleep-related bookkeeping for a dynamic body.
type Activation struct {
	Energy    float32
	Threshold float32
	Sleeping  bool
}

// DefaultActivationThreshold matches the teacher's PhysicsWorld
// default sleep threshold (physics.go's NewPhysicsWorld), expressed as
// an energy rather than a raw speed.
const DefaultActivationThreshold = 0.01

// Pose is a rigid transform: world position plus orientation.
type Pose struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// RigidBody is the per-body simulation state described in the data
// model: pose, velocities, mass properties, solver scratch fields and
// the activation/sleep state.
type RigidBody struct {
	Kind Kind

	Pose         Pose
	NextPose     Pose
	LinVel       mgl32.Vec3
	AngVel       mgl32.Vec3

	Mass            float32
	InvMass         float32
	InvInertiaLocal mgl32.Mat3

	// EffectiveInvMass and EffectiveWorldInvInertiaSqrt are the
	// solver-facing mass properties: zero for any body that is not
	// Dynamic. They do not take dominance into account.
	EffectiveInvMass             float32
	EffectiveWorldInvInertiaSqrt mgl32.Mat3

	Force  mgl32.Vec3
	Torque mgl32.Vec3

	Damping        float32
	AngularDamping float32
	GravityScale   float32

	// Dominance is the body's dominance group. It is stored with the
	// body, but the constraint builder does not read it: which side of
	// a contact acts as ground is decided by Kind alone.
	Dominance int8

	Colliders       []ColliderHandle
	JointGraphIndex uint32

	// Solver scratch, written by the (single-threaded) island extractor
	// between steps; Store also sets ActiveSetID whenever it adds a body
	// to an active set or moves one within it.
	ActiveSetID        int
	ActiveIslandID     int
	ActiveSetOffset    int
	ActiveSetTimestamp uint32

	Activation Activation
	Changes    ChangeFlags
}

// NewDynamic builds a dynamic rigid body with the given mass and local
// inverse inertia tensor, ready for insertion into a Store.
func NewDynamic(mass float32, invInertiaLocal mgl32.Mat3) RigidBody {
	rb := RigidBody{
		Kind:            Dynamic,
		Pose:            Pose{Rotation: mgl32.QuatIdent()},
		Mass:            mass,
		InvMass:         invMass(mass),
		InvInertiaLocal: invInertiaLocal,
		Damping:         0,
		AngularDamping:  0,
		GravityScale:    1,
		Activation: Activation{
			Threshold: DefaultActivationThreshold,
		},
	}
	rb.NextPose = rb.Pose
	rb.UpdateMassProperties()
	return rb
}

// NewStatic builds an immovable body.
func NewStatic() RigidBody {
	rb := RigidBody{
		Kind: Static,
		Pose: Pose{Rotation: mgl32.QuatIdent()},
	}
	rb.NextPose = rb.Pose
	return rb
}

// NewKinematic builds a body driven by external pose assignment rather
// than by the solver.
func NewKinematic() RigidBody {
	rb := RigidBody{
		Kind: Kinematic,
		Pose: Pose{Rotation: mgl32.QuatIdent()},
	}
	rb.NextPose = rb.Pose
	return rb
}

func invMass(mass float32) float32 {
	if mass <= 0 {
		return 0
	}
	return 1.0 / mass
}

func (rb *RigidBody) IsDynamic() bool   { return rb.Kind == Dynamic }
func (rb *RigidBody) IsKinematic() bool { return rb.Kind == Kinematic }
func (rb *RigidBody) IsStatic() bool    { return rb.Kind == Static }

// IsMoving reports whether a kinematic body currently has a non-zero
// velocity, i.e. whether it should wake its sleeping dynamic contact
// neighbors during island extraction (spec §4.2 step 2).
func (rb *RigidBody) IsMoving() bool {
	const eps = 1e-8
	return rb.LinVel.Dot(rb.LinVel) > eps || rb.AngVel.Dot(rb.AngVel) > eps
}

// Wake clears the sleeping flag; if strong, the energy accumulator is
// reset so the body does not immediately re-sleep on the next
// island-extraction pass.
func (rb *RigidBody) Wake(strong bool) {
	rb.Activation.Sleeping = false
	if strong {
		rb.Activation.Energy = rb.Activation.Threshold * 2
	}
	rb.Changes |= ChangeSleep
}

// Sleep zeroes velocities and marks the body sleeping.
func (rb *RigidBody) Sleep() {
	rb.Activation.Sleeping = true
	rb.LinVel = mgl32.Vec3{}
	rb.AngVel = mgl32.Vec3{}
	rb.Changes |= ChangeSleep
}

// UpdateEnergy recomputes the body's kinetic-energy estimate, blended
// with an exponential moving average so a single low-velocity frame
// (e.g. at the apex of a bounce) does not trigger sleeping.
func (rb *RigidBody) UpdateEnergy() {
	const decay = 0.75
	instant := rb.LinVel.Dot(rb.LinVel) + rb.AngVel.Dot(rb.AngVel)
	rb.Activation.Energy = rb.Activation.Energy*decay + instant*(1-decay)
}

// UpdateMassProperties refreshes the world-space, dominance-unaware
// mass properties from the current pose and local inertia. Callers
// must invoke this whenever Pose.Rotation or InvInertiaLocal changes.
func (rb *RigidBody) UpdateMassProperties() {
	if rb.Kind != Dynamic {
		rb.EffectiveInvMass = 0
		rb.EffectiveWorldInvInertiaSqrt = mgl32.Mat3{}
		return
	}
	rb.EffectiveInvMass = rb.InvMass
	r := quatToMat3(rb.Pose.Rotation)
	worldInvInertia := r.Mul3(rb.InvInertiaLocal).Mul3(r.Transpose())
	rb.EffectiveWorldInvInertiaSqrt = mat3Sqrt(worldInvInertia)
}

// quatToMat3 mirrors the teacher's QuatToMat3 helper (physics.go):
// mathgl's Quat exposes Mat4, not Mat3, so the rotation matrix is
// built by hand from the quaternion components.
func quatToMat3(q mgl32.Quat) mgl32.Mat3 {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W
	x2, y2, z2 := x+x, y+y, z+z
	xx, xy, xz := x*x2, x*y2, x*z2
	yy, yz, zz := y*y2, y*z2, z*z2
	wx, wy, wz := w*x2, w*y2, w*z2
	return mgl32.Mat3{
		1 - (yy + zz), xy + wz, xz - wy,
		xy - wz, 1 - (xx + zz), yz + wx,
		xz + wy, yz - wx, 1 - (xx + yy),
	}
}

// mat3Sqrt computes the principal square root of a symmetric
// positive-semidefinite 3x3 matrix via Denman-Beavers iteration, used
// to derive the solver's pre-multiplied inverse-inertia form (spec
// §3: "square-root form, pre-multiplied for use in the solver") so the
// velocity solver's inner loop needs no further inertia transform.
// Inertia tensors are always symmetric PSD, so a fixed small iteration
// count converges to float32 precision for any physically valid body.
func mat3Sqrt(m mgl32.Mat3) mgl32.Mat3 {
	if isZero3(m) {
		return m
	}
	y := m
	z := mgl32.Ident3()
	for i := 0; i < 8; i++ {
		yInv := y.Inv()
		zInv := z.Inv()
		yNext := y.Add(zInv).Mul(0.5)
		zNext := z.Add(yInv).Mul(0.5)
		y, z = yNext, zNext
	}
	return y
}

func isZero3(m mgl32.Mat3) bool {
	for _, v := range m {
		if v != 0 {
			return false
		}
	}
	return true
}
