package onenote

import "sync"

// ContainerState tracks where a (subject, scope) pair is in resolution.
type ContainerState int

const (
	StateUnresolved ContainerState = iota
	StateResolving
	StateReady
	StateEmpty
)

func (s ContainerState) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	default:
		return "unresolved"
	}
}

type cacheEntry struct {
	state       ContainerState
	containerID string
}

type cacheKey struct {
	scopeID   string
	subjectID string
}

// ContainerCache maps (scope, subject) pairs to resolved section ids. Bind
// records the selected scope; selecting a different one drops every entry so
// no section id outlives the switch. Lookups for one scope never disturb
// entries of another, so subjects working in different scopes share the cache.
type ContainerCache struct {
	mu      sync.RWMutex
	scopeID string
	entries map[cacheKey]cacheEntry
}

func NewContainerCache() *ContainerCache {
	return &ContainerCache{
		entries: make(map[cacheKey]cacheEntry),
	}
}

// Bind makes scopeID the selected scope. It reports whether the cache was
// invalidated.
func (c *ContainerCache) Bind(scopeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scopeID == scopeID {
		return false
	}
	c.scopeID = scopeID
	c.entries = make(map[cacheKey]cacheEntry)
	return true
}

// Invalidate drops every entry but keeps the bound scope.
func (c *ContainerCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[cacheKey]cacheEntry)
}

func (c *ContainerCache) ScopeID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scopeID
}

func (c *ContainerCache) Lookup(scopeID, subjectID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[cacheKey{scopeID, subjectID}]; ok && e.state == StateReady {
		cacheLookups.WithLabelValues("hit").Inc()
		return e.containerID, true
	}
	cacheLookups.WithLabelValues("miss").Inc()
	return "", false
}

func (c *ContainerCache) Put(scopeID, subjectID, containerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey{scopeID, subjectID}] = cacheEntry{state: StateReady, containerID: containerID}
}

// SetState records a non-ready state. Use Put for StateReady.
func (c *ContainerCache) SetState(scopeID, subjectID string, state ContainerState) {
	if state == StateReady {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey{scopeID, subjectID}] = cacheEntry{state: state}
}

func (c *ContainerCache) State(scopeID, subjectID string) ContainerState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[cacheKey{scopeID, subjectID}].state
}
