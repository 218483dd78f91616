package partition

import (
	"weekview/internal/model"
)

// identity is the cache key for an input list: either the caller's explicit
// version token or the slice's backing array and length.
type identity struct {
	version uint64
	first   *model.Event
	length  int
}

// Partitioner memoizes Partition over the most recent input only. Re-passing
// the same list (same backing array and length, or the same version token)
// returns the cached buckets; any other input replaces the cache.
//
// Callers must not mutate a list in place and expect a recompute; pass a new
// slice or bump the version instead.
type Partitioner struct {
	valid bool
	last  identity
	out   Buckets

	computes int
}

// Partition returns the buckets for events, reusing the previous result when
// events is the same slice as last time.
func (p *Partitioner) Partition(events []model.Event) (Buckets, error) {
	return p.lookup(identityOf(events), events)
}

// PartitionVersion keys the cache by an explicit version token. Version 0 is
// reserved for identity-keyed calls.
func (p *Partitioner) PartitionVersion(version uint64, events []model.Event) (Buckets, error) {
	if version == 0 {
		return p.Partition(events)
	}
	return p.lookup(identity{version: version}, events)
}

// Computes reports how many times the partition was actually recomputed.
func (p *Partitioner) Computes() int {
	return p.computes
}

// Reset drops the cached pair.
func (p *Partitioner) Reset() {
	p.valid = false
	p.last = identity{}
	p.out = nil
}

func (p *Partitioner) lookup(id identity, events []model.Event) (Buckets, error) {
	if p.valid && p.last == id {
		return p.out, nil
	}
	out, err := Partition(events)
	if err != nil {
		// Keep the previous cache; the bad input is not remembered.
		return nil, err
	}
	p.computes++
	p.valid = true
	p.last = id
	p.out = out
	return out, nil
}

func identityOf(events []model.Event) identity {
	if len(events) == 0 {
		return identity{}
	}
	return identity{first: &events[0], length: len(events)}
}
