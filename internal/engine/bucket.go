package engine

import "github.com/picklr-io/tfreconcile/internal/ir"

// entry is a resource together with the key it was read under.
type entry struct {
	from string
	res  *ir.Resource
}

// bucket collects the resources sharing a logical key. stay has one slot per
// inventory row of the machine class; a nil slot is an unoccupied row.
type bucket struct {
	logical string
	stay    []*entry
	move    []entry
}

// place puts e into stay slot i. It reports false when the slot is taken.
func (b *bucket) place(i int, e entry) bool {
	if b.stay[i] != nil {
		return false
	}
	b.stay[i] = &e
	return true
}

func (b *bucket) evict(e entry) {
	b.move = append(b.move, e)
}

// buckets keeps buckets in the order their logical keys were first seen.
type buckets struct {
	order []*bucket
	byKey map[string]*bucket
}

func newBuckets() *buckets {
	return &buckets{byKey: make(map[string]*bucket)}
}

// get returns the bucket for logical, creating it with slots empty stay slots.
func (bs *buckets) get(logical string, slots int) *bucket {
	if b, ok := bs.byKey[logical]; ok {
		return b
	}
	b := &bucket{logical: logical, stay: make([]*entry, slots)}
	bs.byKey[logical] = b
	bs.order = append(bs.order, b)
	return b
}
