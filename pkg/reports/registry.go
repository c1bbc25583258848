package reports

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

type entry struct {
	reg      Registration
	once     sync.Once
	instance Plugin
}

// Registry maps report names to plugins. It is populated at startup and read
// afterwards; plugin instances are created on first lookup and reused.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
	sources Sources
	log     *logrus.Logger
}

// NewRegistry creates an empty registry whose plugins read from sources
func NewRegistry(sources Sources, log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.New()
	}

	return &Registry{
		entries: make(map[string]*entry),
		sources: sources,
		log:     log,
	}
}

// Register adds a plugin under its descriptor name
func (r *Registry) Register(reg Registration) error {
	if err := validateRegistration(reg); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := reg.Descriptor.Name
	if _, exists := r.entries[name]; exists {
		return &DuplicateNameError{Name: name}
	}

	r.entries[name] = &entry{reg: reg}
	r.order = append(r.order, name)
	r.log.Debugf("Registered report plugin: %s", name)
	return nil
}

// Replace registers reg, overriding any plugin of the same name. Intended for tests.
func (r *Registry) Replace(reg Registration) error {
	if err := validateRegistration(reg); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := reg.Descriptor.Name
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = &entry{reg: reg}
	r.log.Debugf("Replaced report plugin: %s", name)
	return nil
}

func validateRegistration(reg Registration) error {
	if reg.Descriptor.Name == "" {
		return fmt.Errorf("cannot register report plugin without a name")
	}
	if reg.New == nil {
		return fmt.Errorf("report plugin %s has no constructor", reg.Descriptor.Name)
	}
	return nil
}

// Available returns every registered descriptor in registration order
func (r *Registry) Available() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.entries[name].reg.Descriptor)
	}
	return result
}

// Get returns the plugin registered under name, creating it on first use
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return nil, notFound(name)
	}

	e.once.Do(func() {
		e.instance = e.reg.New(e.reg.Descriptor, r.sources)
		r.log.Debugf("Instantiated report plugin: %s", name)
	})
	return e.instance, nil
}

// Has checks if a plugin is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.entries[name]
	return exists
}

// Count returns the number of registered plugins
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
