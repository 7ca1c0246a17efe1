package frontier

import (
	"strings"
	"sync"
)

// Visited is the admission gate: every address handed out for fetching
// passes through TryAdmit exactly once. Keys are compared case-insensitively
// on the full address string; no other normalisation is applied, so
// "https://a.com/x" and "https://a.com/x/" are distinct.
type Visited struct {
	set map[string]struct{}
	mu  sync.Mutex
}

func NewVisited() *Visited {
	return &Visited{
		set: make(map[string]struct{}),
	}
}

func key(u string) string {
	return strings.ToLower(u)
}

// TryAdmit inserts u if absent and reports whether this call inserted it.
func (v *Visited) TryAdmit(u string) bool {
	k := key(u)
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.set[k]; ok {
		return false
	}
	v.set[k] = struct{}{}
	return true
}

func (v *Visited) Has(u string) bool {
	k := key(u)
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.set[k]
	return ok
}

func (v *Visited) Size() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.set)
}
