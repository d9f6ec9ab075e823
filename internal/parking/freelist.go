package parking

import "container/heap"

// freeList is a min-heap of vacant space indices. pos tracks where each
// index sits in the heap (-1 when the space is occupied) so a space can be
// removed from the middle when it is parked out of order.
type freeList struct {
	items []int
	pos   []int
}

func newFreeList(capacity int) *freeList {
	f := &freeList{
		items: make([]int, capacity),
		pos:   make([]int, capacity+1),
	}
	f.pos[0] = -1
	// Ascending order already satisfies the heap property.
	for i := 1; i <= capacity; i++ {
		f.items[i-1] = i
		f.pos[i] = i - 1
	}
	return f
}

func (f *freeList) Len() int           { return len(f.items) }
func (f *freeList) Less(i, j int) bool { return f.items[i] < f.items[j] }

func (f *freeList) Swap(i, j int) {
	f.items[i], f.items[j] = f.items[j], f.items[i]
	f.pos[f.items[i]] = i
	f.pos[f.items[j]] = j
}

func (f *freeList) Push(x any) {
	index := x.(int)
	f.pos[index] = len(f.items)
	f.items = append(f.items, index)
}

func (f *freeList) Pop() any {
	last := len(f.items) - 1
	index := f.items[last]
	f.items = f.items[:last]
	f.pos[index] = -1
	return index
}

func (f *freeList) lowest() (int, bool) {
	if len(f.items) == 0 {
		return 0, false
	}
	return f.items[0], true
}

func (f *freeList) contains(index int) bool {
	return f.pos[index] >= 0
}

func (f *freeList) add(index int) {
	if f.contains(index) {
		return
	}
	heap.Push(f, index)
}

func (f *freeList) remove(index int) {
	if !f.contains(index) {
		return
	}
	heap.Remove(f, f.pos[index])
}
