package parking

import (
	"sync"
	"time"
)

// Registry owns the fixed, index-ordered set of spaces. All access goes
// through Update or View so that a lookup and the mutation that follows it
// happen under one lock acquisition.
type Registry struct {
	mu     sync.RWMutex
	spaces []*Space
	free   *freeList
	byReg  map[string]int
}

func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		panic("parking: registry capacity must be positive")
	}

	spaces := make([]*Space, capacity)
	for i := 0; i < capacity; i++ {
		spaces[i] = newSpace(i + 1)
	}

	return &Registry{
		spaces: spaces,
		free:   newFreeList(capacity),
		byReg:  make(map[string]int),
	}
}

// Capacity is fixed at construction and needs no lock.
func (r *Registry) Capacity() int {
	return len(r.spaces)
}

// Update runs fn with the registry exclusively locked.
func (r *Registry) Update(fn func(tx *Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return fn(&Tx{registry: r, writable: true})
}

// View runs fn under the shared lock. Park and Vacate panic inside a View.
func (r *Registry) View(fn func(tx *Tx)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn(&Tx{registry: r})
}

func (r *Registry) CountAvailable() int {
	var n int
	r.View(func(tx *Tx) { n = tx.CountAvailable() })
	return n
}

func (r *Registry) CountOccupied() int {
	var n int
	r.View(func(tx *Tx) { n = tx.CountOccupied() })
	return n
}

func (r *Registry) IsVehicleParked(vehicleReg string) bool {
	var parked bool
	r.View(func(tx *Tx) { parked = tx.IsVehicleParked(vehicleReg) })
	return parked
}

// Snapshot copies every space in index order.
func (r *Registry) Snapshot() []SpaceSnapshot {
	var out []SpaceSnapshot
	r.View(func(tx *Tx) {
		out = make([]SpaceSnapshot, 0, len(r.spaces))
		for _, space := range r.spaces {
			out = append(out, space.snapshot())
		}
	})
	return out
}

// Tx exposes the registry primitives to a caller holding the lock. A Tx
// must not be retained after the Update or View callback returns.
type Tx struct {
	registry *Registry
	writable bool
}

func (tx *Tx) Capacity() int {
	return len(tx.registry.spaces)
}

func (tx *Tx) CountAvailable() int {
	return tx.registry.free.Len()
}

func (tx *Tx) CountOccupied() int {
	return len(tx.registry.spaces) - tx.registry.free.Len()
}

// FindFirstAvailable returns the vacant space with the lowest index.
func (tx *Tx) FindFirstAvailable() (*Space, bool) {
	index, ok := tx.registry.free.lowest()
	if !ok {
		return nil, false
	}
	return tx.registry.spaces[index-1], true
}

// FindByVehicleReg matches registrations ignoring ASCII case.
func (tx *Tx) FindByVehicleReg(vehicleReg string) (*Space, bool) {
	index, ok := tx.registry.byReg[foldReg(vehicleReg)]
	if !ok {
		return nil, false
	}
	return tx.registry.spaces[index-1], true
}

func (tx *Tx) IsVehicleParked(vehicleReg string) bool {
	_, ok := tx.FindByVehicleReg(vehicleReg)
	return ok
}

// Park occupies space unconditionally. Rule checks belong to the caller.
func (tx *Tx) Park(space *Space, vehicleReg string, class VehicleClass, timeIn time.Time) {
	tx.mustBeWritable()
	r := tx.registry

	if space.occupied {
		delete(r.byReg, foldReg(space.vehicleReg))
	}
	space.park(vehicleReg, class, timeIn)
	r.free.remove(space.index)
	r.byReg[foldReg(vehicleReg)] = space.index
}

// Vacate clears space unconditionally.
func (tx *Tx) Vacate(space *Space) {
	tx.mustBeWritable()
	r := tx.registry

	if space.occupied {
		key := foldReg(space.vehicleReg)
		if r.byReg[key] == space.index {
			delete(r.byReg, key)
		}
	}
	space.vacate()
	r.free.add(space.index)
}

func (tx *Tx) mustBeWritable() {
	if !tx.writable {
		panic("parking: mutation inside a read-only registry view")
	}
}

// foldReg lower-cases ASCII letters only; other bytes are compared as-is.
func foldReg(vehicleReg string) string {
	b := []byte(vehicleReg)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
