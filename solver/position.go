package solver

import (
	"github.com/gekko3d/dynamics/body"
	"github.com/gekko3d/dynamics/constraint"
	"github.com/gekko3d/dynamics/params"
)

// SolvePositionIteration runs one position-projection sweep over every
// position constraint, correcting NextPose in place (spec §4.5).
func SolvePositionIteration(p *params.IntegrationParameters, store *body.Store, positionConstraints []constraint.PositionConstraint) {
	for i := range positionConstraints {
		pc := &positionConstraints[i]
		switch pc.Kind {
		case constraint.NongroupedGround:
			b2, _ := store.Modify(pc.Ground.Body2)
			pc.Ground.Solve(p, b2)
		case constraint.Nongrouped:
			b1, _ := store.Modify(pc.TwoBody.Body1)
			b2, _ := store.Modify(pc.TwoBody.Body2)
			pc.TwoBody.Solve(p, b1, b2)
		case constraint.GroupedGround:
			for lane := 0; lane < pc.GroupLen; lane++ {
				gp := &pc.GroundGroup[lane]
				b2, _ := store.Modify(gp.Body2)
				gp.Solve(p, b2)
			}
		case constraint.Grouped:
			for lane := 0; lane < pc.GroupLen; lane++ {
				tp := &pc.Group[lane]
				b1, _ := store.Modify(tp.Body1)
				b2, _ := store.Modify(tp.Body2)
				tp.Solve(p, b1, b2)
			}
		}
	}
}

// FinalizePoses commits NextPose to Pose at the end of the position
// solver, for every handle in the island (spec §4.5 final step), and
// refreshes each body's world-space mass properties for its new
// rotation.
func FinalizePoses(store *body.Store, handles []body.Handle) {
	for _, h := range handles {
		rb, ok := store.Get(h)
		if !ok {
			continue
		}
		rb.Pose = rb.NextPose
		rb.UpdateMassProperties()
	}
}
