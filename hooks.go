package dynamics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/dynamics/body"
)

// PhysicsHooksFlags advertises which optional callbacks a PhysicsHooks
// implementation wants invoked, following the original source's
// capability-flag pattern (physics_hooks.rs ActiveHooks) so Step never
// pays for an interface call a hook does not use.
type PhysicsHooksFlags uint32

const (
	FilterContactPair PhysicsHooksFlags = 1 << iota
	FilterIntersectionPair
	ModifySolverContacts
)

// SolverContactModification is the subset of a manifold a
// ModifySolverContacts hook is allowed to inspect and edit before
// constraints are built from it (spec §6: "may mutate the contact
// list, the normal, and a per-manifold 32-bit user slot"). A hook can
// veto individual points, tweak friction/restitution, or steer the
// whole manifold's solve direction by overwriting Normal.
// TangentVelocity is copied back onto the contact points, but the
// constraint builder does not read it, so changing it does not affect
// the solve. Dist is exposed
// read-only (contact geometry itself is never moved) so a hook like
// OneWayPlatform can inspect per-point penetration depth.
type SolverContactModification struct {
	Skip            []bool
	Friction        []float32
	Restitution     []float32
	TangentVelocity []mgl32.Vec3
	Dist            []float32

	// Normal is the manifold's contact normal, points from body1 toward
	// body2; read and, optionally, overwritten by the hook.
	Normal mgl32.Vec3

	// UserData points directly at the manifold's persistent 32-bit
	// scratch slot, letting a hook (e.g. OneWayPlatform) keep state
	// across steps without external bookkeeping.
	UserData *uint32
}

// PhysicsHooks lets external code veto contact/intersection pairs and
// post-process solver contacts before they become constraints. A nil
// PhysicsHooks is equivalent to one with Flags() == 0: every pair is
// accepted and no contact is modified, matching the original source's
// "absence of hooks behaves like the permissive default" behavior.
type PhysicsHooks interface {
	Flags() PhysicsHooksFlags
	FilterContactPair(body1, body2 body.Handle, collider1, collider2 body.ColliderHandle) bool
	FilterIntersectionPair(body1, body2 body.Handle, collider1, collider2 body.ColliderHandle) bool
	ModifySolverContacts(body1, body2 body.Handle, collider1, collider2 body.ColliderHandle, mods *SolverContactModification)
}
