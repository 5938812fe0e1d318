// Package writeq holds the command type and the growable FIFO ring that
// buffers world writes between simulation goroutines and the db worker.
package writeq

// DefaultCapacity is the slot count a Ring starts with when none is given.
const DefaultCapacity = 1024

// Ring is a growable circular buffer of Commands.
//
// One slot always stays open, so start == end means empty and a ring of
// capacity n holds at most n-1 entries before it grows. Ring does no locking;
// callers serialize access.
type Ring struct {
	start uint
	end   uint
	data  []Command
}

// NewRing returns an empty ring with room for capacity slots. A capacity
// below 2 cannot hold any entry with one slot kept open, so it falls back to
// DefaultCapacity.
func NewRing(capacity int) *Ring {
	if capacity < 2 {
		capacity = DefaultCapacity
	}
	return &Ring{data: make([]Command, capacity)}
}

func (r *Ring) Cap() int { return len(r.data) }

func (r *Ring) Len() int {
	n := uint(len(r.data))
	return int((r.end + n - r.start) % n)
}

func (r *Ring) Empty() bool { return r.start == r.end }

func (r *Ring) Full() bool {
	return (r.end+1)%uint(len(r.data)) == r.start
}

// Put appends c, doubling capacity first when the ring is full.
func (r *Ring) Put(c Command) {
	if r.Full() {
		r.grow()
	}
	r.data[r.end] = c
	r.end = (r.end + 1) % uint(len(r.data))
}

// Get removes and returns the oldest command. ok is false when empty.
func (r *Ring) Get() (c Command, ok bool) {
	if r.Empty() {
		return Command{}, false
	}
	c = r.data[r.start]
	r.data[r.start] = Command{}
	r.start = (r.start + 1) % uint(len(r.data))
	return c, true
}

// grow doubles the backing slice, compacting pending entries to index 0.
func (r *Ring) grow() {
	size := r.Len()
	next := make([]Command, len(r.data)*2)
	for i := 0; i < size; i++ {
		next[i] = r.data[(r.start+uint(i))%uint(len(r.data))]
	}
	r.data = next
	r.start = 0
	r.end = uint(size)
}
