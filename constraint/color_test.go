package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/dynamics/body"
)

func TestGroupByColorSeparatesSharedBodyInteractions(t *testing.T) {
	a := body.Handle{Index: 1}
	b := body.Handle{Index: 2}
	c := body.Handle{Index: 3}

	// a-b and a-c share body a, so they must land in different colors.
	pairs := [][2]body.Handle{{a, b}, {a, c}}
	classes := groupByColor(pairs)

	assert.Len(t, classes, 2)
	assert.ElementsMatch(t, []int{0}, classes[0])
	assert.ElementsMatch(t, []int{1}, classes[1])
}

func TestGroupByColorPacksDisjointInteractionsTogether(t *testing.T) {
	a := body.Handle{Index: 1}
	b := body.Handle{Index: 2}
	c := body.Handle{Index: 3}
	d := body.Handle{Index: 4}

	pairs := [][2]body.Handle{{a, b}, {c, d}}
	classes := groupByColor(pairs)

	assert.Len(t, classes, 1)
	assert.ElementsMatch(t, []int{0, 1}, classes[0])
}

func TestGroupByColorIgnoresInvalidGroundSide(t *testing.T) {
	b := body.Handle{Index: 2}
	pairs := [][2]body.Handle{{body.Invalid, b}, {body.Invalid, b}}
	classes := groupByColor(pairs)

	// Both touch the same dynamic body b, so they still need different colors
	// even though the ground side never constrains anything.
	assert.Len(t, classes, 2)
}

func TestChunkLanes(t *testing.T) {
	indices := []int{0, 1, 2, 3, 4, 5}
	grouped, remainder := chunkLanes(indices)

	assert.Len(t, grouped, 1)
	assert.Equal(t, []int{0, 1, 2, 3}, grouped[0])
	assert.Equal(t, []int{4, 5}, remainder)
}
