package dsp

import (
	"sort"
	"sync"
)

// Entry is a registered kernel set.
type Entry struct {
	Name     string
	Level    SIMDLevel // capability the set needs
	Priority int       // higher wins among supported entries
	Kernels  *Kernels
}

var (
	registryMu sync.RWMutex
	registry   []Entry
)

// Register adds a kernel set. Sets register themselves from init.
func Register(e Entry) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, e)
	sort.SliceStable(registry, func(i, j int) bool {
		return registry[i].Priority > registry[j].Priority
	})
}

// Entries returns the registered sets, highest priority first.
func Entries() []Entry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Entry, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the highest priority set that f supports.
func Lookup(f Features) *Entry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for i := range registry {
		if Supports(f, registry[i].Level) {
			e := registry[i]
			return &e
		}
	}
	return nil
}

// Select returns the kernel set for this CPU, or the generic set when
// forceGeneric is true.
func Select(forceGeneric bool) *Kernels {
	f := DetectFeatures()
	f.ForceGeneric = f.ForceGeneric || forceGeneric
	if e := Lookup(f); e != nil {
		return e.Kernels
	}
	return &generic
}
