package island

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/dynamics/body"
)

// fakeGraph is a minimal ContactNeighbors/JointNeighbors stub built
// from an adjacency map, standing in for the (out-of-scope) narrow
// phase and joint set.
type fakeGraph struct {
	contacts map[body.Handle][]body.Handle
	joints   map[body.Handle][]body.Handle
}

func (g fakeGraph) ContactNeighborsOf(h body.Handle) []body.Handle { return g.contacts[h] }
func (g fakeGraph) JointNeighborsOf(h body.Handle) []body.Handle   { return g.joints[h] }

func insertAwakeDynamic(t *testing.T, s *body.Store) body.Handle {
	t.Helper()
	rb := body.NewDynamic(1, mgl32.Ident3())
	rb.UpdateMassProperties()
	h := s.Insert(rb)
	s.WakeUp(h, true)
	return h
}

func TestExtractorSplitsDisconnectedBodiesIntoSeparateIslands(t *testing.T) {
	s := body.NewStore()
	a := insertAwakeDynamic(t, s)
	b := insertAwakeDynamic(t, s)

	graph := fakeGraph{contacts: map[body.Handle][]body.Handle{}, joints: map[body.Handle][]body.Handle{}}

	Extractor{}.Update(s, graph, graph, 1)

	require.Equal(t, 2, s.NumIslands())
	require.Len(t, s.ActiveDynamic(), 2)
	_ = a
	_ = b
}

func TestExtractorKeepsContactConnectedBodiesInOneIsland(t *testing.T) {
	s := body.NewStore()
	a := insertAwakeDynamic(t, s)
	b := insertAwakeDynamic(t, s)

	graph := fakeGraph{
		contacts: map[body.Handle][]body.Handle{a: {b}, b: {a}},
		joints:   map[body.Handle][]body.Handle{},
	}

	Extractor{}.Update(s, graph, graph, 1)

	require.Equal(t, 1, s.NumIslands())
}

func TestExtractorMinIslandSizeCoalescesSmallIslands(t *testing.T) {
	s := body.NewStore()
	for i := 0; i < 4; i++ {
		insertAwakeDynamic(t, s)
	}
	graph := fakeGraph{contacts: map[body.Handle][]body.Handle{}, joints: map[body.Handle][]body.Handle{}}

	Extractor{}.Update(s, graph, graph, 4)

	require.Equal(t, 1, s.NumIslands())
}

func TestExtractorPanicsOnInvalidMinIslandSize(t *testing.T) {
	s := body.NewStore()
	graph := fakeGraph{}
	require.Panics(t, func() {
		Extractor{}.Update(s, graph, graph, 0)
	})
}

func TestExtractorSleepsLowEnergyBodies(t *testing.T) {
	s := body.NewStore()
	rb := body.NewDynamic(1, mgl32.Ident3())
	rb.UpdateMassProperties()
	h := s.Insert(rb)
	s.WakeUp(h, true)

	graph := fakeGraph{contacts: map[body.Handle][]body.Handle{}, joints: map[body.Handle][]body.Handle{}}

	// Repeated zero-velocity updates decay the energy EMA below
	// threshold, at which point the body should fall asleep.
	for i := 0; i < 50; i++ {
		Extractor{}.Update(s, graph, graph, 1)
	}

	got, ok := s.Get(h)
	require.True(t, ok)
	require.True(t, got.Activation.Sleeping)
}
