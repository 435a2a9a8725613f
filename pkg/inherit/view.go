package inherit

import (
	"fmt"
	"sync"
)

// View is a commit-versioned cache of canonical category lineages. It serves
// exactly one commit at a time: lookups name the commit they expect and miss
// when the cache serves another, so a reader can never mix lineages from two
// snapshots. Refresh builds the replacement map outside the lock and swaps it
// in under a brief write lock; concurrent readers keep the prior version
// until the swap. Lineages handed out are shared, callers must not mutate
// them.
type View struct {
	mu       sync.RWMutex
	commit   string
	lineages map[string]*Lineage
}

// NewView returns an empty view serving no commit.
func NewView() *View {
	return &View{lineages: make(map[string]*Lineage)}
}

// Refresh recomputes the lineage of every given category against src and
// swaps the result in as the view for the given commit. On error the prior
// view stays in place untouched.
func (v *View) Refresh(src Source, commit string, keys []string) error {
	res := NewResolver(src)
	fresh := make(map[string]*Lineage, len(keys))
	for _, key := range keys {
		lin, err := res.Resolve(key)
		if err != nil {
			return fmt.Errorf("refreshing lineage of %q: %w", key, err)
		}
		fresh[key] = lin
	}
	v.mu.Lock()
	v.commit = commit
	v.lineages = fresh
	v.mu.Unlock()
	return nil
}

// Commit returns the commit the view currently serves, empty when the view
// has never been refreshed.
func (v *View) Commit() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.commit
}

// Lookup returns the cached lineage for the category at the given commit.
// Misses when the view serves a different commit or holds no entry.
func (v *View) Lookup(commit, key string) (*Lineage, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if commit != v.commit {
		return nil, false
	}
	lin, ok := v.lineages[key]
	return lin, ok
}

// Put stores one lineage computed at the given commit, read-through style.
// Storing against the served commit adds the entry; storing against any
// other commit resets the view to serve that commit with this single entry,
// which is the explicit invalidation path when the canonical head moves
// between full refreshes.
func (v *View) Put(commit, key string, lin *Lineage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if commit != v.commit {
		v.commit = commit
		v.lineages = make(map[string]*Lineage)
	}
	v.lineages[key] = lin
}

// Len returns the number of cached lineages.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.lineages)
}
