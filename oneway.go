package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/dynamics/body"
)

// One-way-platform FSM states, persisted in a ContactManifold's
// UserData slot (spec §6's "per-manifold 32-bit user slot"), grounded
// on physics_hooks.rs's update_as_oneway_platform CONTACT_CONFIGURATION_*
// constants.
const (
	oneWayUnknown uint32 = iota
	oneWayAllowed
	oneWayForbidden
)

// OneWayPlatform implements the reference one-way-platform contact
// filter spec §6 names: a dynamic body on the Allowed side collides
// with the platform and can rest on it, and one approaching from the
// opposite side passes through unobstructed (spec §8 S5).
//
// Fixed from the original source (spec §9 REDESIGN FLAGS): the
// original FORBIDDEN -> ALLOWED transition requires every current
// solver contact to have dist > 0, which vacuously holds when there
// are zero contacts; here, zero contacts in the FORBIDDEN state stays
// FORBIDDEN instead of silently letting the pass-through succeed.
type OneWayPlatform struct {
	// Allowed is the world-space direction a contact normal must nearly
	// align with for the contact to be kept — pointing away from the
	// platform's surface, toward the side bodies collide with it from.
	Allowed mgl32.Vec3

	// CosAngle is cos(allowed_angle): the minimum alignment between the
	// manifold normal and Allowed for the UNKNOWN->ALLOWED and
	// FORBIDDEN->ALLOWED transitions (spec §6 "n1·allowed ≥ cos(θ)").
	CosAngle float32
}

// NewOneWayPlatform builds a one-way-platform filter that keeps a
// contact when the contact normal is within allowedAngle (radians) of
// Allowed, and lets a body coming from the other side pass through.
func NewOneWayPlatform(allowed mgl32.Vec3, allowedAngle float32) *OneWayPlatform {
	return &OneWayPlatform{
		Allowed:  allowed.Normalize(),
		CosAngle: float32(math.Cos(float64(allowedAngle))),
	}
}

func (o *OneWayPlatform) Flags() PhysicsHooksFlags { return ModifySolverContacts }

func (o *OneWayPlatform) FilterContactPair(body1, body2 body.Handle, collider1, collider2 body.ColliderHandle) bool {
	return true
}

func (o *OneWayPlatform) FilterIntersectionPair(body1, body2 body.Handle, collider1, collider2 body.ColliderHandle) bool {
	return true
}

// ModifySolverContacts runs the UNKNOWN/FORBIDDEN/ALLOWED transition
// table (spec §6) against the manifold's normal — assumed to point
// away from collider1, the platform — and its persisted UserData
// state:
//
//	UNKNOWN:   if n1·allowed >= cos(θ) -> ALLOWED
//	           else: clear contacts; if |n1|^2 > 0.1 -> FORBIDDEN
//	FORBIDDEN: if ok AND all dist>0 -> ALLOWED else clear contacts
//	ALLOWED:   if contacts empty -> UNKNOWN
func (o *OneWayPlatform) ModifySolverContacts(body1, body2 body.Handle, collider1, collider2 body.ColliderHandle, mods *SolverContactModification) {
	contactOK := mods.Normal.Dot(o.Allowed) >= o.CosAngle

	switch *mods.UserData {
	case oneWayUnknown:
		if contactOK {
			*mods.UserData = oneWayAllowed
		} else {
			clearContacts(mods)
			// A manifold caught exactly touching at one point may report
			// a zero normal; in that rare case we can't yet tell and
			// wait for a later step rather than latching FORBIDDEN.
			if mods.Normal.Dot(mods.Normal) > 0.1 {
				*mods.UserData = oneWayForbidden
			}
		}
	case oneWayForbidden:
		if contactOK && allDistPositive(mods) {
			*mods.UserData = oneWayAllowed
		} else {
			clearContacts(mods)
		}
	case oneWayAllowed:
		if len(mods.Skip) == 0 {
			*mods.UserData = oneWayUnknown
		}
	}
}

func clearContacts(mods *SolverContactModification) {
	for i := range mods.Skip {
		mods.Skip[i] = true
	}
}

// allDistPositive reports whether every current solver contact is
// non-penetrating; vacuously false on zero contacts (spec §9's
// REDESIGN FLAGS note: zero contacts must not vacuously satisfy "all
// dist>0", or a FORBIDDEN platform with no current contact would
// incorrectly unlatch to ALLOWED).
func allDistPositive(mods *SolverContactModification) bool {
	if len(mods.Dist) == 0 {
		return false
	}
	for _, d := range mods.Dist {
		if d <= 0 {
			return false
		}
	}
	return true
}
