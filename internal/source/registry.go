// Package source provides keypoint sources: pairs of a camera provider and
// a pose detector. Local sources register themselves in init() so the CLI
// can pick one by name.
package source

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/pose-match/internal/pose"
)

// Source pairs a camera with the detector that reads it.
type Source struct {
	Provider pose.VideoProvider
	Detector pose.Detector
}

// Options configure source construction.
type Options struct {
	Seed      int64  // RNG seed for synthetic sources, 0 = time based
	Recording string // Path to a recording for replay sources
}

// Info contains metadata about a registered source.
type Info struct {
	ID          string
	Description string
}

// Factory creates a new source.
type Factory func(opts Options) (Source, error)

var (
	factories    = make(map[string]Factory)
	descriptions = make(map[string]string)
	mu           sync.RWMutex
)

// Register adds a source factory to the registry.
// Panics if a source with the same ID is already registered.
func Register(id, description string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("source: %q already registered", id))
	}
	factories[id] = f
	descriptions[id] = description
}

// List returns all registered sources, sorted by ID.
func List() []Info {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Info, 0, len(factories))
	for id := range factories {
		result = append(result, Info{ID: id, Description: descriptions[id]})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Create builds the source registered under id.
func Create(id string, opts Options) (Source, error) {
	mu.RLock()
	f, ok := factories[id]
	mu.RUnlock()

	if !ok {
		return Source{}, fmt.Errorf("source: unknown source %q", id)
	}
	return f(opts)
}

// Exists checks if a source with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
