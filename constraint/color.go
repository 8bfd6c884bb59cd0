package constraint

import "github.com/gekko3d/dynamics/body"

// colorAssignment greedily assigns each interaction (contact manifold or
// joint edge, identified only by the pair of bodies it touches) a color
// such that no two interactions sharing a color also share a body — the
// condition a Grouped/GroupedGround lane bundle needs to be solvable
// with each lane touching disjoint bodies (spec §4.4). Static/kinematic
// bodies (a ground interaction's "immovable" side, represented by the
// body.Invalid sentinel here) never constrain a color, matching the
// original source's "a fixed body has no color" rule.
type colorAssignment struct {
	colors       []int
	bodyLastUsed map[body.Handle]map[int]bool
}

func newColorAssignment() *colorAssignment {
	return &colorAssignment{bodyLastUsed: make(map[body.Handle]map[int]bool)}
}

// assign returns the lowest color not already used by b1 or b2 in this
// island, then records that both bodies now use it.
func (c *colorAssignment) assign(b1, b2 body.Handle) int {
	used := func(h body.Handle) map[int]bool {
		if !h.IsValid() {
			return nil
		}
		return c.bodyLastUsed[h]
	}
	u1, u2 := used(b1), used(b2)

	color := 0
	for {
		if (u1 == nil || !u1[color]) && (u2 == nil || !u2[color]) {
			break
		}
		color++
	}

	mark := func(h body.Handle) {
		if !h.IsValid() {
			return
		}
		m, ok := c.bodyLastUsed[h]
		if !ok {
			m = make(map[int]bool)
			c.bodyLastUsed[h] = m
		}
		m[color] = true
	}
	mark(b1)
	mark(b2)
	return color
}

// groupByColor buckets n interactions (given their two endpoint
// handles, with body.Invalid standing in for a ground contact's
// immovable side) into color classes, returning the interaction
// indices in each class in the order they were assigned.
func groupByColor(pairs [][2]body.Handle) [][]int {
	ca := newColorAssignment()
	byColor := map[int][]int{}
	maxColor := -1
	for i, pr := range pairs {
		c := ca.assign(pr[0], pr[1])
		byColor[c] = append(byColor[c], i)
		if c > maxColor {
			maxColor = c
		}
	}
	out := make([][]int, maxColor+1)
	for c := 0; c <= maxColor; c++ {
		out[c] = byColor[c]
	}
	return out
}

// chunkLanes splits one color class's interaction indices into
// LaneWidth-sized groups, returning full LaneWidth groups first and any
// remainder (to be solved Nongrouped) last.
func chunkLanes(indices []int) (grouped [][]int, remainder []int) {
	n := len(indices) / LaneWidth
	grouped = make([][]int, n)
	for i := 0; i < n; i++ {
		grouped[i] = indices[i*LaneWidth : (i+1)*LaneWidth]
	}
	remainder = indices[n*LaneWidth:]
	return grouped, remainder
}
