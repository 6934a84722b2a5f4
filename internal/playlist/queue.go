// Package playlist holds the playback queue: the ordered track ids that
// next and previous navigate over.
package playlist

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Policy decides what happens when navigation steps past either end.
type Policy int

const (
	// Wrap continues from the opposite end.
	Wrap Policy = iota
	// Clamp stops at the ends; stepping past them is a no-op.
	Clamp
)

func (p Policy) String() string {
	switch p {
	case Wrap:
		return "wrap"
	case Clamp:
		return "clamp"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps "wrap" or "clamp" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wrap":
		return Wrap, nil
	case "clamp":
		return Clamp, nil
	default:
		return Wrap, fmt.Errorf("unknown boundary policy %q", s)
	}
}

// Queue is an immutable ordered sequence of track ids. The zero value is
// an empty queue.
type Queue struct {
	ids []int64
}

// NewQueue copies ids into a queue.
func NewQueue(ids []int64) Queue {
	if len(ids) == 0 {
		return Queue{}
	}
	return Queue{ids: append([]int64(nil), ids...)}
}

// Len returns the number of tracks in the queue.
func (q Queue) Len() int { return len(q.ids) }

// IsEmpty returns true if the queue has no tracks.
func (q Queue) IsEmpty() bool { return len(q.ids) == 0 }

// IDs returns a copy of the ids in order.
func (q Queue) IDs() []int64 {
	return append([]int64(nil), q.ids...)
}

// At returns the id at index i.
func (q Queue) At(i int) (int64, bool) {
	if i < 0 || i >= len(q.ids) {
		return 0, false
	}
	return q.ids[i], true
}

// IndexOf returns the position of id, or -1.
func (q Queue) IndexOf(id int64) int {
	return lo.IndexOf(q.ids, id)
}

// Contains reports whether id is a member of the queue.
func (q Queue) Contains(id int64) bool {
	return q.IndexOf(id) >= 0
}

// Equal reports whether both queues hold the same ids in the same order.
func (q Queue) Equal(other Queue) bool {
	if len(q.ids) != len(other.ids) {
		return false
	}
	for i := range q.ids {
		if q.ids[i] != other.ids[i] {
			return false
		}
	}
	return true
}

// Adjacent returns the id step positions away from id under policy.
// It returns false when id is not in the queue, when the queue is empty,
// or when Clamp stops at an end.
func (q Queue) Adjacent(id int64, step int, policy Policy) (int64, bool) {
	n := len(q.ids)
	idx := q.IndexOf(id)
	if n == 0 || idx < 0 {
		return 0, false
	}

	target := idx + step
	switch policy {
	case Clamp:
		if target < 0 || target >= n {
			return 0, false
		}
	default:
		target = ((target % n) + n) % n
	}
	return q.ids[target], true
}

// Next is Adjacent with step +1.
func (q Queue) Next(id int64, policy Policy) (int64, bool) {
	return q.Adjacent(id, 1, policy)
}

// Previous is Adjacent with step -1.
func (q Queue) Previous(id int64, policy Policy) (int64, bool) {
	return q.Adjacent(id, -1, policy)
}
