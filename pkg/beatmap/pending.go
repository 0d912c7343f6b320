package beatmap

import "sort"

// PendingSet is an unordered collection of beatmap sets keyed by ID.
// It holds at most one entry per ID. Not safe for concurrent use.
type PendingSet struct {
	items map[int64]Set
}

// NewPendingSet creates a pending set holding the given sets
func NewPendingSet(sets ...Set) *PendingSet {
	p := &PendingSet{items: make(map[int64]Set, len(sets))}
	for _, s := range sets {
		p.Add(s)
	}
	return p
}

// Add inserts s and reports whether its ID was new. An existing entry
// with the same ID is kept.
func (p *PendingSet) Add(s Set) bool {
	if _, ok := p.items[s.ID]; ok {
		return false
	}
	p.items[s.ID] = s
	return true
}

// Remove deletes the entry with the given ID and reports whether it existed
func (p *PendingSet) Remove(id int64) bool {
	if _, ok := p.items[id]; !ok {
		return false
	}
	delete(p.items, id)
	return true
}

// Pop removes and returns an arbitrary entry
func (p *PendingSet) Pop() (Set, bool) {
	for id, s := range p.items {
		delete(p.items, id)
		return s, true
	}
	return Set{}, false
}

func (p *PendingSet) Contains(id int64) bool {
	_, ok := p.items[id]
	return ok
}

func (p *PendingSet) Len() int {
	return len(p.items)
}

// Sets returns a snapshot of the entries sorted by ID
func (p *PendingSet) Sets() []Set {
	out := make([]Set, 0, len(p.items))
	for _, s := range p.items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Filter returns a new pending set holding the entries for which keep is true
func (p *PendingSet) Filter(keep func(Set) bool) *PendingSet {
	out := NewPendingSet()
	for _, s := range p.items {
		if keep(s) {
			out.items[s.ID] = s
		}
	}
	return out
}
