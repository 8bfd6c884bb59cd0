package constraint

import (
	"github.com/gekko3d/dynamics/body"
	"github.com/gekko3d/dynamics/params"
)

// Builder turns one island's contact manifolds and joint edges into
// the VelocityConstraint/PositionConstraint slices the solver
// consumes, grouping independent interactions into LaneWidth-wide
// bundles where possible (spec §4.4).
type Builder struct{}

// BuildContacts classifies and groups every manifold touching the
// island (manifolds are pre-filtered by the caller to those with at
// least one non-empty solver-contact list, per spec §4.2). A manifold
// where one side is Static or Kinematic (moving or not) is built as a
// ground contact against whichever side is Dynamic.
//
// The third return value names each constraint's originating manifold
// in the exact same flattened emission order as the first two return
// values (including one entry per lane of a grouped bundle): grouping
// by color, and ground-before-two-body within a color class, reorders
// constraints relative to the input manifolds slice, so a caller that
// needs to get back from a solved constraint to its manifold (e.g.
// WritebackImpulses) must walk this slice in lockstep rather than
// assume a 1:1 correspondence with the input order.
func (Builder) BuildContacts(p *params.IntegrationParameters, store *body.Store, manifolds []*ContactManifold) ([]VelocityConstraint, []PositionConstraint, []*ContactManifold) {
	type built struct {
		idx     int
		ground  bool
		flipped bool
		gv      GroundContact
		tv      TwoBodyContact
		gp      GroundContactPosition
		tp      TwoBodyContactPosition
		pair    [2]body.Handle
	}

	items := make([]built, 0, len(manifolds))
	for i, m := range manifolds {
		b1, ok1 := store.Get(m.Body1)
		b2, ok2 := store.Get(m.Body2)
		if !ok1 || !ok2 {
			continue
		}

		switch {
		case !b1.IsDynamic() && b2.IsDynamic():
			it := built{idx: i, ground: true, flipped: false}
			it.gv = GenerateGroundContact(p, m, b2, false)
			it.gp = BuildGroundPosition(m, b1, b2, false)
			it.pair = [2]body.Handle{body.Invalid, m.Body2}
			items = append(items, it)
		case b1.IsDynamic() && !b2.IsDynamic():
			it := built{idx: i, ground: true, flipped: true}
			it.gv = GenerateGroundContact(p, m, b1, true)
			it.gp = BuildGroundPosition(m, b2, b1, true)
			it.pair = [2]body.Handle{body.Invalid, m.Body1}
			items = append(items, it)
		case b1.IsDynamic() && b2.IsDynamic():
			it := built{idx: i, ground: false}
			it.tv = GenerateTwoBodyContact(p, m, b1, b2)
			it.tp = BuildTwoBodyPosition(m, b1, b2)
			it.pair = [2]body.Handle{m.Body1, m.Body2}
			items = append(items, it)
		default:
			continue // both sides non-dynamic: cannot happen within an island
		}
	}

	pairs := make([][2]body.Handle, len(items))
	for i, it := range items {
		pairs[i] = it.pair
	}
	classes := groupByColor(pairs)

	var velocityOut []VelocityConstraint
	var positionOut []PositionConstraint
	var manifoldOut []*ContactManifold

	for _, class := range classes {
		groundIdx := make([]int, 0, len(class))
		twoBodyIdx := make([]int, 0, len(class))
		for _, ci := range class {
			if items[ci].ground {
				groundIdx = append(groundIdx, ci)
			} else {
				twoBodyIdx = append(twoBodyIdx, ci)
			}
		}

		groundGroups, groundRest := chunkLanes(groundIdx)
		for _, g := range groundGroups {
			var bundle [LaneWidth]GroundContact
			var pbundle [LaneWidth]GroundContactPosition
			for lane, ci := range g {
				bundle[lane] = items[ci].gv
				pbundle[lane] = items[ci].gp
				manifoldOut = append(manifoldOut, manifolds[items[ci].idx])
			}
			velocityOut = append(velocityOut, VelocityConstraint{Kind: GroupedGround, GroundGroup: &bundle, GroupLen: len(g)})
			positionOut = append(positionOut, PositionConstraint{Kind: GroupedGround, GroundGroup: &pbundle, GroupLen: len(g)})
		}
		for _, ci := range groundRest {
			gv := items[ci].gv
			gp := items[ci].gp
			velocityOut = append(velocityOut, VelocityConstraint{Kind: NongroupedGround, Ground: &gv})
			positionOut = append(positionOut, PositionConstraint{Kind: NongroupedGround, Ground: &gp})
			manifoldOut = append(manifoldOut, manifolds[items[ci].idx])
		}

		twoGroups, twoRest := chunkLanes(twoBodyIdx)
		for _, g := range twoGroups {
			var bundle [LaneWidth]TwoBodyContact
			var pbundle [LaneWidth]TwoBodyContactPosition
			for lane, ci := range g {
				bundle[lane] = items[ci].tv
				pbundle[lane] = items[ci].tp
				manifoldOut = append(manifoldOut, manifolds[items[ci].idx])
			}
			velocityOut = append(velocityOut, VelocityConstraint{Kind: Grouped, Group: &bundle, GroupLen: len(g)})
			positionOut = append(positionOut, PositionConstraint{Kind: Grouped, Group: &pbundle, GroupLen: len(g)})
		}
		for _, ci := range twoRest {
			tv := items[ci].tv
			tp := items[ci].tp
			velocityOut = append(velocityOut, VelocityConstraint{Kind: Nongrouped, TwoBody: &tv})
			positionOut = append(positionOut, PositionConstraint{Kind: Nongrouped, TwoBody: &tp})
			manifoldOut = append(manifoldOut, manifolds[items[ci].idx])
		}
	}

	return velocityOut, positionOut, manifoldOut
}

// BuildJoints builds one JointConstraint per joint edge in the island;
// joints are not lane-grouped (spec §4.4 scopes SIMD grouping to
// contacts, where manifold counts are large; joint counts per island
// are typically small enough that scalar solving is not a bottleneck).
func (Builder) BuildJoints(p *params.IntegrationParameters, store *body.Store, edges []*JointEdge) []JointConstraint {
	out := make([]JointConstraint, 0, len(edges))
	for _, e := range edges {
		b1, ok1 := store.Get(e.Body1)
		b2, ok2 := store.Get(e.Body2)
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, BuildJoint(p, e, b1, b2))
	}
	return out
}
