package constraint

import "github.com/go-gl/mathgl/mgl32"

// DeltaVel is the per-body velocity-change accumulator the velocity
// solver warmstarts and iterates against, kept separate from the
// body's real LinVel/AngVel (spec §4.4: "a velocity-delta record ...
// JΔv is read from the two lambda slots"). It starts at zero every
// step; a contact's rhs is baked once, at build time, from the body's
// actual pre-solve velocity, so solving against a zero-started Δv
// instead of the live velocity avoids counting that pre-solve velocity
// twice. The caller folds the accumulated Δv into the real body
// velocity exactly once, after every warmstart/solve iteration for the
// step has run, indexed by RigidBody.ActiveSetOffset within the
// island being solved.
type DeltaVel struct {
	Linear  mgl32.Vec3
	Angular mgl32.Vec3
}
