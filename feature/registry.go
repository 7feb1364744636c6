package feature

import (
	"fmt"
	"sort"
	"sync"
)

// Extractor categories.
const (
	CategoryGeometry    = "geometry"
	CategoryRecognition = "recognition"
)

var categoryText = map[string]string{
	CategoryGeometry:    "Extracts features based upon spatial relations between blobs",
	CategoryRecognition: "Extracts features based upon the results of the OCR engine",
}

// Registration describes an extractor factory.
type Registration struct {
	Name        string
	Category    string
	Description string
	New         func(config Config) Extractor
}

// Category groups the registered extractors of one kind.
type Category struct {
	Name        string
	Description string
	Extractors  []string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Registration)
)

// Register makes an extractor available by name. It panics if the name is
// already registered, the category is unknown or the factory is nil.
func Register(r Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if r.New == nil {
		panic("feature: Register factory is nil for " + r.Name)
	}
	if _, ok := categoryText[r.Category]; !ok {
		panic("feature: Register unknown category " + r.Category + " for " + r.Name)
	}
	if _, dup := registry[r.Name]; dup {
		panic("feature: Register called twice for " + r.Name)
	}
	registry[r.Name] = r
}

// Lookup returns the registration for name.
func Lookup(name string) (Registration, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	r, ok := registry[name]
	if !ok {
		return Registration{}, fmt.Errorf("%q: %w", name, ErrUnknownExtractor)
	}
	return r, nil
}

// Names returns the sorted names of all registered extractors.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Categories returns every category with its registered extractors, sorted
// by category name.
func Categories() []Category {
	registryMu.RLock()
	defer registryMu.RUnlock()

	byName := make(map[string]*Category, len(categoryText))
	for name, text := range categoryText {
		byName[name] = &Category{Name: name, Description: text}
	}
	for _, r := range registry {
		c := byName[r.Category]
		c.Extractors = append(c.Extractors, r.Name)
	}

	out := make([]Category, 0, len(byName))
	for _, c := range byName {
		sort.Strings(c.Extractors)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
