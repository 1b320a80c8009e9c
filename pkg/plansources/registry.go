package plansources

import (
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Source)
)

// Register registers a plan-catalog source.
func Register(s Source) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if s == nil {
		panic("plansources: Register source is nil")
	}
	if _, dup := registry[s.Key()]; dup {
		panic("plansources: Register called twice for source " + s.Key())
	}
	registry[s.Key()] = s
}

// Get returns a source by key.
func Get(key string) (Source, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[key]
	return s, ok
}

// List returns a sorted list of registered source keys.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var keys []string
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetAll returns all registered sources.
func GetAll() []Source {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var sources []Source
	for _, s := range registry {
		sources = append(sources, s)
	}
	return sources
}
