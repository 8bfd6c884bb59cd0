// Package dynamics is an island-based constrained-dynamics physics
// solver: each Step call partitions the awake dynamic bodies into
// islands, builds velocity and position constraints from contact
// manifolds and joints, solves them with warmstarted Sequential
// Impulse / Projected Gauss-Seidel iteration, integrates the result,
// and updates sleep state — optionally fanning islands' solve phases
// across a lock-free worker pool (spec §4).
package dynamics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/dynamics/body"
	"github.com/gekko3d/dynamics/constraint"
	"github.com/gekko3d/dynamics/internal/elog"
	"github.com/gekko3d/dynamics/island"
	"github.com/gekko3d/dynamics/parallel"
	"github.com/gekko3d/dynamics/params"
	"github.com/gekko3d/dynamics/solver"
)

// NarrowPhase is the external collaborator (spec §1 Non-goals: broad
// and narrow phase are out of scope) that Step reads contact manifolds
// from and reports island-graph adjacency to.
type NarrowPhase interface {
	island.ContactNeighbors
	ActiveManifolds() []*constraint.ContactManifold
}

// JointSet is the external collaborator owning joint edges.
type JointSet interface {
	island.JointNeighbors
	ActiveJoints() []*constraint.JointEdge
}

// World bundles everything one Step call advances.
type World struct {
	Bodies  *body.Store
	extractor island.Extractor
	builder   constraint.Builder
}

// NewWorld returns an empty physics world.
func NewWorld() *World {
	return &World{Bodies: body.NewStore()}
}

// Step advances the world by one timestep (spec §4): island
// extraction, constraint build, solve, integrate, sleep. hooks may be
// nil, matching a permissive PhysicsHooks with Flags() == 0.
func (w *World) Step(p *params.IntegrationParameters, gravity mgl32.Vec3, narrow NarrowPhase, joints JointSet, hooks PhysicsHooks) {
	traceID := uuid.New()
	log := elog.Current()
	log.Debugf("step %s: begin dt=%f", traceID, p.Dt)

	w.extractor.Update(w.Bodies, narrow, joints, p.MinIslandSize)

	manifolds := filterManifolds(narrow.ActiveManifolds(), w.Bodies, hooks)
	edges := joints.ActiveJoints()

	islands := w.Bodies.ActiveIslands()

	for i := 0; i < w.Bodies.NumIslands(); i++ {
		handles := w.Bodies.ActiveDynamic()[islands[i]:islands[i+1]]
		runner := parallel.NewRunner(p.Parallel, p.NumWorkers)
		w.stepIsland(p, gravity, handles, manifolds, edges, runner, traceID.String())
	}

	log.Debugf("step %s: end, %d islands", traceID, w.Bodies.NumIslands())
}

// filterManifolds drops any pair a PhysicsHooks.FilterContactPair
// rejects, then runs ModifySolverContacts (spec §9), then drops
// whatever has no solver-contact points left. ModifySolverContacts
// runs even over a manifold the narrow phase currently reports zero
// points for, so a stateful hook like OneWayPlatform can observe its
// ALLOWED -> UNKNOWN "contacts empty" transition (spec §6); it is
// skipped only for manifolds FilterContactPair has already rejected.
func filterManifolds(in []*constraint.ContactManifold, store *body.Store, hooks PhysicsHooks) []*constraint.ContactManifold {
	out := make([]*constraint.ContactManifold, 0, len(in))
	for _, m := range in {
		if hooks != nil && hooks.Flags()&FilterContactPair != 0 {
			if !hooks.FilterContactPair(m.Body1, m.Body2, 0, 0) {
				continue
			}
		}
		if hooks != nil && hooks.Flags()&ModifySolverContacts != 0 {
			mods := &SolverContactModification{
				Skip:            make([]bool, len(m.Points)),
				Friction:        make([]float32, len(m.Points)),
				Restitution:     make([]float32, len(m.Points)),
				TangentVelocity: make([]mgl32.Vec3, len(m.Points)),
				Dist:            make([]float32, len(m.Points)),
				Normal:          m.Normal,
				UserData:        &m.UserData,
			}
			for i, pt := range m.Points {
				mods.Friction[i] = pt.Friction
				mods.Restitution[i] = pt.Restitution
				mods.TangentVelocity[i] = pt.TangentVelocity
				mods.Dist[i] = pt.Dist
			}
			hooks.ModifySolverContacts(m.Body1, m.Body2, 0, 0, mods)
			m.Normal = mods.Normal
			kept := m.Points[:0]
			for i, pt := range m.Points {
				if mods.Skip[i] {
					continue
				}
				pt.Friction = mods.Friction[i]
				pt.Restitution = mods.Restitution[i]
				pt.TangentVelocity = mods.TangentVelocity[i]
				kept = append(kept, pt)
			}
			m.Points = kept
		}
		if len(m.Points) == 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// stepIsland runs the full velocity+position pipeline for one island's
// handles, using runner to fan the per-constraint work of each phase
// across workers (or run it inline, for SequentialContext).
func (w *World) stepIsland(p *params.IntegrationParameters, gravity mgl32.Vec3, handles []body.Handle,
	manifolds []*constraint.ContactManifold, edges []*constraint.JointEdge, runner parallel.Runner, traceID string) {

	islandManifolds := manifoldsTouching(manifolds, w.Bodies, handles)
	islandEdges := jointsTouching(edges, w.Bodies, handles)

	velocityConstraints, positionConstraints, constraintManifolds := w.builder.BuildContacts(p, w.Bodies, islandManifolds)
	jointConstraints := w.builder.BuildJoints(p, w.Bodies, islandEdges)

	solver.IntegrateForces(p, gravity, w.Bodies, handles)

	deltaVels := make([]constraint.DeltaVel, len(handles))

	solver.WarmstartJoints(w.Bodies, jointConstraints, p.WarmstartCoeff)
	solver.WarmstartVelocity(w.Bodies, deltaVels, velocityConstraints, p.WarmstartCoeff)

	for it := 0; it < p.NumVelocityIterations; it++ {
		runner.RunPhase(len(velocityConstraints)+boolToInt(len(jointConstraints) > 0), func(idx int) {
			if len(jointConstraints) > 0 && idx == 0 {
				solver.SolveVelocityIteration(w.Bodies, deltaVels, nil, jointConstraints)
				return
			}
			j := idx
			if len(jointConstraints) > 0 {
				j--
			}
			solver.SolveVelocityIteration(w.Bodies, deltaVels, velocityConstraints[j:j+1], nil)
		})
	}

	solver.ApplyDeltaVelocities(w.Bodies, handles, deltaVels)
	solver.IntegrateVelocities(p, w.Bodies, handles)

	for it := 0; it < p.NumPositionIterations; it++ {
		runner.RunPhase(len(positionConstraints), func(idx int) {
			solver.SolvePositionIteration(p, w.Bodies, positionConstraints[idx:idx+1])
		})
	}

	solver.FinalizePoses(w.Bodies, handles)

	manifoldOf := func(constraintIndex int) *constraint.ContactManifold {
		return constraintManifolds[constraintIndex]
	}
	solver.WritebackImpulses(velocityConstraints, manifoldOf)

	elog.Current().Debugf("step %s: island of %d bodies, %d contacts, %d joints",
		traceID, len(handles), len(islandManifolds), len(islandEdges))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func manifoldsTouching(all []*constraint.ContactManifold, store *body.Store, handles []body.Handle) []*constraint.ContactManifold {
	set := make(map[body.Handle]bool, len(handles))
	for _, h := range handles {
		set[h] = true
	}
	out := make([]*constraint.ContactManifold, 0, len(all))
	for _, m := range all {
		if set[m.Body1] || set[m.Body2] {
			out = append(out, m)
		}
	}
	return out
}

func jointsTouching(all []*constraint.JointEdge, store *body.Store, handles []body.Handle) []*constraint.JointEdge {
	set := make(map[body.Handle]bool, len(handles))
	for _, h := range handles {
		set[h] = true
	}
	out := make([]*constraint.JointEdge, 0, len(all))
	for _, e := range all {
		if set[e.Body1] || set[e.Body2] {
			out = append(out, e)
		}
	}
	return out
}
