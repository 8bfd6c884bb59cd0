// Package island partitions the awake dynamic body set into connected
// components ("islands") each step, following spec §4.2. It is kept
// separate from package constraint (which consumes islands) so that
// constraint does not need to import island and island does not need
// to import constraint — the same "the consumer defines the
// interface, the producer implements it" split the host engine uses
// for Module.Install(app *App, cmd *Commands).
package island

import (
	"github.com/gekko3d/dynamics/body"
	"github.com/gekko3d/dynamics/internal/elog"
)

// ContactNeighbors reports, for a body, every other body it shares at
// least one manifold with that has a non-empty solver-contact list
// (spec §4.2 step 3: "A contact neighbor exists only if at least one
// manifold between the two bodies has a non-empty solver-contact
// list.").
type ContactNeighbors interface {
	ContactNeighborsOf(h body.Handle) []body.Handle
}

// JointNeighbors reports the other endpoint of every joint edge
// incident to a body's joint-graph vertex.
type JointNeighbors interface {
	JointNeighborsOf(h body.Handle) []body.Handle
}

// Extractor runs the island-partitioning graph walk over a Store.
type Extractor struct{}

// Update rebuilds store's active-dynamic ordering and island ranges in
// place, following spec §4.2 exactly: bodies below the sleep threshold
// seed the "can sleep" workspace, everyone else (plus anyone touching
// a moving kinematic body) seeds the traversal stack, and a
// depth-first walk over contact/joint neighbors assigns islands while
// splitting whenever the stack depth drops below the marker recorded
// when the current island was opened and the island has already
// reached minIslandSize.
func (Extractor) Update(store *body.Store, contacts ContactNeighbors, joints JointNeighbors, minIslandSize int) {
	if minIslandSize < 1 {
		panic("island: min_island_size must be >= 1")
	}

	store.BumpTimestamp()
	timestamp := store.Timestamp()

	stack := store.Stack[:0]
	canSleep := store.CanSleep[:0]

	// Reversed drain preserves body ordering across successive frames
	// (spec §4.2 "Tie-breaks and ordering").
	prevActive := store.ActiveDynamic()
	for i := len(prevActive) - 1; i >= 0; i-- {
		h := prevActive[i]
		rb, ok := store.Get(h)
		if !ok {
			continue
		}
		rb.UpdateEnergy()
		if rb.Activation.Energy <= rb.Activation.Threshold {
			rb.Activation.Sleeping = true
			canSleep = append(canSleep, h)
		} else {
			stack = append(stack, h)
		}
	}

	for _, h := range store.ActiveKinematic() {
		rb, ok := store.Get(h)
		if !ok || !rb.IsMoving() {
			continue
		}
		stack = append(stack, contacts.ContactNeighborsOf(h)...)
	}

	activeDynamic := make([]body.Handle, 0, len(prevActive))
	islands := []int{0}

	// The max(...,1)-1 avoids underflow when the stack starts empty.
	islandMarker := len(stack)
	if islandMarker == 0 {
		islandMarker = 1
	}
	islandMarker--

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rb, ok := store.Get(h)
		if !ok {
			continue
		}
		if rb.ActiveSetTimestamp == timestamp || !rb.IsDynamic() {
			continue
		}

		if len(stack) < islandMarker {
			if len(activeDynamic)-islands[len(islands)-1] >= minIslandSize {
				islands = append(islands, len(activeDynamic))
			}
			islandMarker = len(stack)
		}

		rb.Activation.Sleeping = false
		rb.ActiveIslandID = len(islands) - 1
		rb.ActiveSetID = len(activeDynamic)
		rb.ActiveSetOffset = rb.ActiveSetID - islands[rb.ActiveIslandID]
		rb.ActiveSetTimestamp = timestamp
		activeDynamic = append(activeDynamic, h)

		stack = append(stack, contacts.ContactNeighborsOf(h)...)
		stack = append(stack, joints.JointNeighborsOf(h)...)
	}

	islands = append(islands, len(activeDynamic))

	store.ResetActiveDynamic(activeDynamic)
	store.SetActiveIslands(islands)

	asleep := 0
	for _, h := range canSleep {
		rb, ok := store.Get(h)
		if !ok || !rb.Activation.Sleeping {
			continue
		}
		rb.Sleep()
		asleep++
	}

	store.Stack = stack[:0]
	store.CanSleep = canSleep[:0]

	elog.Current().Debugf("island: %d islands, %d awake, %d newly asleep",
		store.NumIslands(), len(activeDynamic), asleep)
}
