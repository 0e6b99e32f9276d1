package algorithm

import (
	"golang.org/x/exp/constraints"
)

//*******************************************
// priority queue
//*******************************************

type _PQEntry[T constraints.Integer, P constraints.Ordered] struct {
	item     T
	priority P
}

// PriorityQueue is a binary min-heap.
//
// Entries with equal priority are dequeued by ascending item.
type PriorityQueue[T constraints.Integer, P constraints.Ordered] struct {
	entries []_PQEntry[T, P]
}

func NewPriorityQueue[T constraints.Integer, P constraints.Ordered](cap int) PriorityQueue[T, P] {
	return PriorityQueue[T, P]{
		entries: make([]_PQEntry[T, P], 0, cap),
	}
}

func (self *PriorityQueue[T, P]) Len() int {
	return len(self.entries)
}

func (self *PriorityQueue[T, P]) Clear() {
	self.entries = self.entries[:0]
}

func (self *PriorityQueue[T, P]) Enqueue(item T, priority P) {
	self.entries = append(self.entries, _PQEntry[T, P]{item, priority})
	self._Up(len(self.entries) - 1)
}

func (self *PriorityQueue[T, P]) Dequeue() (T, P, bool) {
	var item T
	var priority P
	if len(self.entries) == 0 {
		return item, priority, false
	}
	top := self.entries[0]
	last := len(self.entries) - 1
	self.entries[0] = self.entries[last]
	self.entries = self.entries[:last]
	if last > 0 {
		self._Down(0)
	}
	return top.item, top.priority, true
}

func (self *PriorityQueue[T, P]) _Less(i, j int) bool {
	a := self.entries[i]
	b := self.entries[j]
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.item < b.item
}

func (self *PriorityQueue[T, P]) _Up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !self._Less(i, parent) {
			break
		}
		self.entries[i], self.entries[parent] = self.entries[parent], self.entries[i]
		i = parent
	}
}

func (self *PriorityQueue[T, P]) _Down(i int) {
	n := len(self.entries)
	for {
		smallest := i
		left := 2*i + 1
		right := left + 1
		if left < n && self._Less(left, smallest) {
			smallest = left
		}
		if right < n && self._Less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			return
		}
		self.entries[i], self.entries[smallest] = self.entries[smallest], self.entries[i]
		i = smallest
	}
}
