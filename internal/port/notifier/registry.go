package notifier

import (
	"fmt"
	"sort"
	"sync"
)

// Factory is a constructor function that creates a new UI instance.
type Factory func(config map[string]string) (UI, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a UI factory available by name.
// It is typically called from an init() function in the adapter package.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("notifier: duplicate registration for %q", name))
	}
	factories[name] = factory
}

// New creates a new UI by name using the registered factory. An empty name
// returns ErrNotConfigured.
func New(name string, config map[string]string) (UI, error) {
	if name == "" {
		return nil, ErrNotConfigured
	}

	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("notifier: unknown ui %q", name)
	}
	return factory(config)
}

// Available returns the sorted names of all registered UIs.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
