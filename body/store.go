package body

// slot is one arena entry: either a live body at the current
// generation, or a free slot recorded in freeList.
type slot struct {
	body       RigidBody
	generation uint32
	occupied   bool
}

// Store is the generational arena of rigid bodies (spec §3's
// BodyStore): it owns every body, tracks the active dynamic and
// active kinematic sets, the islands partitioning the active dynamic
// set, and the modified/inactive-modified bookkeeping the broad phase
// needs to stay in sync.
type Store struct {
	slots    []slot
	freeList []uint32

	activeDynamic   []Handle
	activeKinematic []Handle
	activeIslands   []int

	modified         []Handle
	modifiedAll      bool
	modifiedInactive []Handle

	// Workspace buffers reused by the island extractor across steps
	// to avoid per-step allocation.
	CanSleep []Handle
	Stack    []Handle

	activeSetTimestamp uint32
}

// NewStore returns an empty body store.
func NewStore() *Store {
	return &Store{activeIslands: []int{0}}
}

// Len returns the number of live bodies (awake or asleep, of any kind).
func (s *Store) Len() int {
	return len(s.slots) - len(s.freeList)
}

// Contains reports whether h currently resolves to a live body.
func (s *Store) Contains(h Handle) bool {
	_, ok := s.get(h)
	return ok
}

func (s *Store) get(h Handle) (*slot, bool) {
	if int(h.Index) >= len(s.slots) {
		return nil, false
	}
	sl := &s.slots[h.Index]
	if !sl.occupied || sl.generation != h.Generation {
		return nil, false
	}
	return sl, true
}

// Get returns a read-only view of the body for h.
func (s *Store) Get(h Handle) (*RigidBody, bool) {
	sl, ok := s.get(h)
	if !ok {
		return nil, false
	}
	return &sl.body, true
}

// Modify returns a mutable pointer to the body for h, registering it
// in the modified set the first time it is touched this cycle. It is
// a separate accessor from Get that marks the body as it returns it;
// callers mutate through the returned pointer directly.
func (s *Store) Modify(h Handle) (*RigidBody, bool) {
	sl, ok := s.get(h)
	if !ok {
		return nil, false
	}
	s.markModified(h)
	return &sl.body, true
}

func (s *Store) markModified(h Handle) {
	if s.modifiedAll {
		return
	}
	sl, ok := s.get(h)
	if !ok {
		return
	}
	if sl.body.Changes&ChangeModified != 0 {
		return
	}
	sl.body.Changes |= ChangeModified
	s.modified = append(s.modified, h)
}

// Modified returns the handles touched since the last
// HandleUserChanges call. While ModifiedAll reports true, every body
// counts as touched; this list is not expanded to include them.
func (s *Store) Modified() []Handle { return s.modified }

// ModifiedAll reports whether every body should be considered touched.
func (s *Store) ModifiedAll() bool { return s.modifiedAll }

// MarkAllModified sets the fast "every body changed" flag, e.g. after
// bulk-loading a scene.
func (s *Store) MarkAllModified() { s.modifiedAll = true }

// ModifiedInactive returns the static-body handles whose position or
// collider change the most recent HandleUserChanges call processed;
// the broad phase must be told
// about these even though they never appear in an active set.
func (s *Store) ModifiedInactive() []Handle { return s.modifiedInactive }

// ActiveDynamic returns the ordered list of awake dynamic body handles.
// Index k in this slice is body.ActiveSetID for that body.
func (s *Store) ActiveDynamic() []Handle { return s.activeDynamic }

// ActiveKinematic returns the ordered list of kinematic body handles.
func (s *Store) ActiveKinematic() []Handle { return s.activeKinematic }

// ActiveIslands returns the half-open island ranges over ActiveDynamic:
// island i spans [ActiveIslands()[i], ActiveIslands()[i+1]).
func (s *Store) ActiveIslands() []int { return s.activeIslands }

// NumIslands returns len(ActiveIslands())-1.
func (s *Store) NumIslands() int {
	if len(s.activeIslands) == 0 {
		return 0
	}
	return len(s.activeIslands) - 1
}

// Insert adds rb to the store and returns its handle. Kinematic bodies
// are appended to the active kinematic set immediately; dynamic bodies
// only become active once the island extractor (or WakeUp) places them.
func (s *Store) Insert(rb RigidBody) Handle {
	rb.Changes |= changeAll
	var idx uint32
	if n := len(s.freeList); n > 0 {
		idx = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		s.slots[idx].occupied = true
		s.slots[idx].body = rb
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot{body: rb, occupied: true})
	}
	h := Handle{Index: idx, Generation: s.slots[idx].generation}

	s.modified = append(s.modified, h)

	if rb.IsKinematic() {
		bd := &s.slots[idx].body
		bd.ActiveSetID = len(s.activeKinematic)
		s.activeKinematic = append(s.activeKinematic, h)
	}
	return h
}

// Remove detaches rb's colliders and joints (via the supplied
// callbacks), swap-removes it from whichever active set it belongs to
// (patching the displaced body's ActiveSetID), bumps the slot's
// generation so the handle can never resolve again, and returns the
// removed body.
func (s *Store) Remove(h Handle, detachCollider func(ColliderHandle), detachJoint func(jointGraphIndex uint32)) (RigidBody, bool) {
	sl, ok := s.get(h)
	if !ok {
		return RigidBody{}, false
	}
	removed := sl.body

	for _, set := range []*[]Handle{&s.activeKinematic, &s.activeDynamic} {
		if removed.ActiveSetID < len(*set) && (*set)[removed.ActiveSetID] == h {
			s.swapRemoveActive(set, removed.ActiveSetID)
		}
	}

	if detachCollider != nil {
		for _, c := range removed.Colliders {
			detachCollider(c)
		}
	}
	if detachJoint != nil {
		detachJoint(removed.JointGraphIndex)
	}

	sl.occupied = false
	sl.generation++
	s.freeList = append(s.freeList, h.Index)

	return removed, true
}

func (s *Store) swapRemoveActive(set *[]Handle, i int) {
	last := len(*set) - 1
	(*set)[i] = (*set)[last]
	*set = (*set)[:last]
	if i < len(*set) {
		replacement := (*set)[i]
		if rsl, ok := s.get(replacement); ok {
			rsl.body.ActiveSetID = i
		}
	}
}

// WakeUp forces a dynamic body awake. If strong, it is guaranteed to
// remain awake across the next few island-extraction passes. Has no
// effect on kinematic or static bodies (spec §9: wake_up applies only
// to dynamic bodies).
func (s *Store) WakeUp(h Handle, strong bool) {
	sl, ok := s.get(h)
	if !ok || !sl.body.IsDynamic() {
		return
	}
	sl.body.Wake(strong)
	if sl.body.ActiveSetID >= len(s.activeDynamic) || s.activeDynamic[sl.body.ActiveSetID] != h {
		sl.body.ActiveSetID = len(s.activeDynamic)
		s.activeDynamic = append(s.activeDynamic, h)
	}
}

// ColliderSync lets the store ask an external collider collection to
// recompute world poses when a body's position or collider set
// changes, without this package depending on the collider type
// (narrow/broad phase are external collaborators per spec §1).
type ColliderSync interface {
	SyncPose(bodyHandle Handle, rb *RigidBody)
}

// HandleUserChanges reconciles flags set by direct user mutation
// (through Modify) since the last call: moving bodies between active
// sets on a status change, resyncing collider poses, and waking bodies
// whose SLEEP flag flipped to awake outside WakeUp. All change flags
// are cleared once processed.
func (s *Store) HandleUserChanges(colliders ColliderSync) {
	s.modifiedInactive = s.modifiedInactive[:0]
	handles := s.modified
	if s.modifiedAll {
		handles = make([]Handle, 0, len(s.slots))
		for i := range s.slots {
			if s.slots[i].occupied {
				handles = append(handles, Handle{Index: uint32(i), Generation: s.slots[i].generation})
			}
		}
	}

	for _, h := range handles {
		sl, ok := s.get(h)
		if !ok {
			continue
		}
		rb := &sl.body
		changes := rb.Changes

		if changes&ChangeBodyStatus != 0 {
			s.reconcileActiveSet(h, rb)
		}

		if changes&(ChangePosition|ChangeColliders) != 0 {
			if colliders != nil {
				colliders.SyncPose(h, rb)
			}
			switch rb.Kind {
			case Static:
				s.modifiedInactive = append(s.modifiedInactive, h)
			case Kinematic:
				if rb.ActiveSetID >= len(s.activeKinematic) || s.activeKinematic[rb.ActiveSetID] != h {
					rb.ActiveSetID = len(s.activeKinematic)
					s.activeKinematic = append(s.activeKinematic, h)
				}
			}
		}

		if changes&ChangeSleep != 0 && rb.IsDynamic() && !rb.Activation.Sleeping {
			if rb.ActiveSetID >= len(s.activeDynamic) || s.activeDynamic[rb.ActiveSetID] != h {
				rb.ActiveSetID = len(s.activeDynamic)
				s.activeDynamic = append(s.activeDynamic, h)
			}
		}

		rb.Changes = 0
	}

	s.modified = s.modified[:0]
	s.modifiedAll = false
}

// reconcileActiveSet moves a body between the kinematic/dynamic active
// sets to match its current Kind, waking it strongly if it just became
// dynamic (spec §4.1).
func (s *Store) reconcileActiveSet(h Handle, rb *RigidBody) {
	for _, set := range []*[]Handle{&s.activeKinematic, &s.activeDynamic} {
		if rb.ActiveSetID < len(*set) && (*set)[rb.ActiveSetID] == h {
			s.swapRemoveActive(set, rb.ActiveSetID)
		}
	}

	switch rb.Kind {
	case Dynamic:
		rb.Wake(true)
		rb.ActiveSetID = len(s.activeDynamic)
		s.activeDynamic = append(s.activeDynamic, h)
	case Kinematic:
		rb.ActiveSetID = len(s.activeKinematic)
		s.activeKinematic = append(s.activeKinematic, h)
	}
}

// ResetActiveDynamic and SetActiveIslands are used by the island
// extractor (package island) to rebuild the active-dynamic ordering
// and island ranges each step; they are not meant for general callers.
func (s *Store) ResetActiveDynamic(handles []Handle) { s.activeDynamic = handles }
func (s *Store) SetActiveIslands(ranges []int)       { s.activeIslands = ranges }

// Timestamp returns the current active-set traversal timestamp.
func (s *Store) Timestamp() uint32 { return s.activeSetTimestamp }

// BumpTimestamp advances the traversal timestamp and returns the new value.
func (s *Store) BumpTimestamp() uint32 {
	s.activeSetTimestamp++
	return s.activeSetTimestamp
}
