package body

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreInsertAndGet(t *testing.T) {
	s := NewStore()
	h := s.Insert(NewDynamic(1, mgl32.Ident3()))

	rb, ok := s.Get(h)
	require.True(t, ok)
	assert.True(t, rb.IsDynamic())
	assert.Equal(t, 1, s.Len())
}

func TestStoreRemoveBumpsGeneration(t *testing.T) {
	s := NewStore()
	h := s.Insert(NewStatic())
	_, ok := s.Remove(h, nil, nil)
	require.True(t, ok)

	if s.Contains(h) {
		t.Errorf("removed handle should no longer resolve")
	}

	h2 := s.Insert(NewStatic())
	if h2.Index == h.Index && h2.Generation == h.Generation {
		t.Errorf("reused slot must bump generation")
	}
}

func TestStoreSwapRemoveActivePatchesDisplaced(t *testing.T) {
	s := NewStore()
	h1 := s.Insert(NewKinematic())
	h2 := s.Insert(NewKinematic())

	s.Remove(h1, nil, nil)

	rb2, ok := s.Get(h2)
	require.True(t, ok)
	assert.Equal(t, 0, rb2.ActiveSetID)
	assert.Equal(t, []Handle{h2}, s.ActiveKinematic())
}

func TestWakeUpIgnoresNonDynamic(t *testing.T) {
	s := NewStore()
	h := s.Insert(NewStatic())
	s.WakeUp(h, true)

	for _, active := range s.ActiveDynamic() {
		if active == h {
			t.Errorf("static body must never enter the active dynamic set")
		}
	}
}

func TestHandleInvalid(t *testing.T) {
	assert.False(t, Invalid.IsValid())
}
