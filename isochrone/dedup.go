package isochrone

import (
	"sync"
)

//**********************************************************
// deduplicator
//**********************************************************

// Deduplicator keeps the first isochrone produced for every origin id.
//
// Later isochrones of the same id are dropped, never merged. Callers fold
// batches in priority order.
type Deduplicator struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	emitted []Isochrone
	dropped int
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		seen:    make(map[string]struct{}),
		emitted: make([]Isochrone, 0),
	}
}

// Accumulate returns true if iso was emitted and false if it was dropped.
func (self *Deduplicator) Accumulate(iso Isochrone) bool {
	self.mu.Lock()
	defer self.mu.Unlock()

	if _, ok := self.seen[iso.OriginID]; ok {
		self.dropped += 1
		return false
	}
	self.seen[iso.OriginID] = struct{}{}
	self.emitted = append(self.emitted, iso)
	return true
}

func (self *Deduplicator) Seen(origin_id string) bool {
	self.mu.Lock()
	defer self.mu.Unlock()

	_, ok := self.seen[origin_id]
	return ok
}

// Results returns the emitted isochrones in emission order.
func (self *Deduplicator) Results() []Isochrone {
	self.mu.Lock()
	defer self.mu.Unlock()

	results := make([]Isochrone, len(self.emitted))
	copy(results, self.emitted)
	return results
}

func (self *Deduplicator) Dropped() int {
	self.mu.Lock()
	defer self.mu.Unlock()

	return self.dropped
}
