package nodestate

import (
	"fmt"
	"sync/atomic"

	"github.com/dreamware/distsssp/internal/pgraph"
)

// Sentinel is the "unreachable" distance. It is chosen small enough that
// Sentinel + any edge weight this engine accepts does not overflow int32,
// per spec.md §3's overflow-safety requirement.
const Sentinel int32 = 1 << 30

// MaxEdgeWeight is the largest edge weight for which Sentinel + weight stays
// within int32. Neither the loader nor the relaxation kernel compares edge
// weights against it; the kernel clamps any sum above Sentinel instead
// (spec.md §7 Overflow policy).
const MaxEdgeWeight int32 = 1 << 29

// Field identifies one double-buffered per-vertex field by bit position in
// the version word, so a single version word can track several
// double-buffered fields at once (spec.md §9).
type Field uint

// DistField is the only field this engine exercises: the tentative
// shortest-path distance.
const DistField Field = 0

// Store holds the double-buffered distance slots and version bits for every
// local vertex (owned and ghost). Slot reads/writes are index-addressed by
// LID; the zero Store is not usable, use NewStore.
type Store struct {
	slot0   []int32
	slot1   []int32
	version []uint32
}

// NewStore allocates a Store for n local vertices with every distance slot
// initialized to Sentinel and all version bits cleared.
func NewStore(n int) *Store {
	s := &Store{
		slot0:   make([]int32, n),
		slot1:   make([]int32, n),
		version: make([]uint32, n),
	}
	for i := range s.slot0 {
		s.slot0[i] = Sentinel
		s.slot1[i] = Sentinel
	}
	return s
}

// Len returns the number of vertices this store was sized for.
func (s *Store) Len() int { return len(s.slot0) }

func (s *Store) currentBit(field Field, lid pgraph.LID) uint32 {
	return (atomic.LoadUint32(&s.version[lid]) >> field) & 1
}

func (s *Store) slot(bit uint32, lid pgraph.LID) *int32 {
	if bit == 0 {
		return &s.slot0[lid]
	}
	return &s.slot1[lid]
}

// Current returns the value of the round's read-only input slot for field
// at lid.
func (s *Store) Current(field Field, lid pgraph.LID) int32 {
	return atomic.LoadInt32(s.slot(s.currentBit(field, lid), lid))
}

// Next returns the value of the round's write-target slot for field at lid.
func (s *Store) Next(field Field, lid pgraph.LID) int32 {
	return atomic.LoadInt32(s.slot(1-s.currentBit(field, lid), lid))
}

// SetCurrent overwrites the current slot directly. It is used for
// initialization (seeding the source vertex to 0) and by tests; ghost-cell
// receives also write into the current slot, but through MinCurrent.
func (s *Store) SetCurrent(field Field, lid pgraph.LID, v int32) {
	atomic.StoreInt32(s.slot(s.currentBit(field, lid), lid), v)
}

// SetNext overwrites the next slot directly, unconditionally. Relaxation
// uses RelaxNext instead; SetNext exists for initialization and tests.
func (s *Store) SetNext(field Field, lid pgraph.LID, v int32) {
	atomic.StoreInt32(s.slot(1-s.currentBit(field, lid), lid), v)
}

// MinCurrent writes v into the current slot of field at lid if v is
// smaller than what is already there, using the same CAS retry shape as
// RelaxNext. Ghost-cell receives use this instead of SetCurrent so that
// out-of-order or duplicate deliveries are idempotent and commutative
// (spec.md §4.5, §8): applying the same or a stale update twice never
// raises the recorded distance.
func (s *Store) MinCurrent(field Field, lid pgraph.LID, v int32) bool {
	addr := s.slot(s.currentBit(field, lid), lid)
	for {
		old := atomic.LoadInt32(addr)
		if v >= old {
			return false
		}
		if atomic.CompareAndSwapInt32(addr, old, v) {
			return true
		}
	}
}

// Distance returns the current committed distance at lid. It is
// DistField's Current under another name, giving Store the narrower
// (field-free) shape that internal/backend and internal/ghost depend on.
func (s *Store) Distance(lid pgraph.LID) int32 { return s.Current(DistField, lid) }

// MinDistance lowers lid's current distance to v if v is smaller, the
// field-free counterpart to MinCurrent.
func (s *Store) MinDistance(lid pgraph.LID, v int32) bool { return s.MinCurrent(DistField, lid, v) }

// RelaxNext attempts to lower the next slot of field at lid to candidate
// using the label-correcting CAS loop of spec.md §4.3: it retries until
// either candidate is no longer smaller than the observed value (no
// relaxation needed) or the CAS succeeds (this call performed the
// relaxation). It reports whether it actually wrote a new value.
func (s *Store) RelaxNext(field Field, lid pgraph.LID, candidate int32) bool {
	addr := s.slot(1-s.currentBit(field, lid), lid)
	for {
		old := atomic.LoadInt32(addr)
		if candidate >= old {
			return false
		}
		if atomic.CompareAndSwapInt32(addr, old, candidate) {
			return true
		}
	}
}

// Swap atomically flips the version bit for field at lid, turning the
// just-written next slot into the new current slot. Per spec.md §4.4 this
// runs only during the commit phase, non-concurrently with relaxation.
func (s *Store) Swap(field Field, lid pgraph.LID) {
	for {
		old := atomic.LoadUint32(&s.version[lid])
		if atomic.CompareAndSwapUint32(&s.version[lid], old, old^(1<<field)) {
			return
		}
	}
}

// Commit collapses both slots of field at lid to their elementwise minimum
// and then flips the version bit, per spec.md §4.4. It must not run
// concurrently with the relaxation kernel.
func (s *Store) Commit(field Field, lid pgraph.LID) {
	bit := s.currentBit(field, lid)
	cur := s.slot(bit, lid)
	nxt := s.slot(1-bit, lid)

	a, b := atomic.LoadInt32(cur), atomic.LoadInt32(nxt)
	m := a
	if b < m {
		m = b
	}
	atomic.StoreInt32(cur, m)
	atomic.StoreInt32(nxt, m)
	s.Swap(field, lid)
}

// Validate checks that lid is within this store's domain, returning a
// descriptive error otherwise. Callers that resolve lids via pgraph should
// not normally hit this; it exists as a defensive boundary check for values
// arriving from the network (ghost receives).
func (s *Store) Validate(lid pgraph.LID) error {
	if lid < 0 || int(lid) >= len(s.slot0) {
		return fmt.Errorf("nodestate: lid %d out of range [0,%d)", lid, len(s.slot0))
	}
	return nil
}
