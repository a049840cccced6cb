// Package registry holds the ordered collection of loaded template modules.
package registry

import (
	"sync"
	"time"

	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/types"
)

// TemplateRegistry manages loaded template modules keyed by feature name.
// Iteration follows registration order.
type TemplateRegistry struct {
	templates map[string]*types.TemplateModuleInternal
	order     []string
	mutex     sync.RWMutex
	watchers  []chan TemplateEvent
}

// TemplateEvent represents a change in the template registry
type TemplateEvent struct {
	Type      EventType
	Template  *types.TemplateModuleInternal
	Timestamp time.Time
}

// EventType represents the type of template event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// NewTemplateRegistry creates a new template registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]*types.TemplateModuleInternal),
		watchers:  make([]chan TemplateEvent, 0),
	}
}

// Register adds a template. Feature names must be unique.
func (r *TemplateRegistry) Register(tmpl *types.TemplateModuleInternal) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.templates[tmpl.TemplateName]; exists {
		return errors.ErrDuplicateFeature(tmpl.TemplateName).WithFile(tmpl.Path)
	}

	r.templates[tmpl.TemplateName] = tmpl
	r.order = append(r.order, tmpl.TemplateName)
	r.notify(EventTypeAdded, tmpl)
	return nil
}

// Replace adds or updates a template, keeping its original position on update.
func (r *TemplateRegistry) Replace(tmpl *types.TemplateModuleInternal) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.templates[tmpl.TemplateName]; exists {
		eventType = EventTypeUpdated
	} else {
		r.order = append(r.order, tmpl.TemplateName)
	}

	r.templates[tmpl.TemplateName] = tmpl
	r.notify(eventType, tmpl)
}

// Get retrieves a template by feature name
func (r *TemplateRegistry) Get(name string) (*types.TemplateModuleInternal, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tmpl, exists := r.templates[name]
	return tmpl, exists
}

// Find returns the first template, in registration order, matching the predicate.
func (r *TemplateRegistry) Find(match func(*types.TemplateModuleInternal) bool) (*types.TemplateModuleInternal, bool) {
	for _, tmpl := range r.All() {
		if match(tmpl) {
			return tmpl, true
		}
	}
	return nil, false
}

// All returns the registered templates in registration order
func (r *TemplateRegistry) All() []*types.TemplateModuleInternal {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*types.TemplateModuleInternal, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.templates[name])
	}
	return result
}

// Names returns the feature names in registration order
func (r *TemplateRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Remove removes a template from the registry
func (r *TemplateRegistry) Remove(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	tmpl, exists := r.templates[name]
	if !exists {
		return
	}

	delete(r.templates, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.notify(EventTypeRemoved, tmpl)
}

// Watch returns a channel that receives template events
func (r *TemplateRegistry) Watch() <-chan TemplateEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan TemplateEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *TemplateRegistry) UnWatch(ch <-chan TemplateEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered templates
func (r *TemplateRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.templates)
}

// notify must be called with the mutex held.
func (r *TemplateRegistry) notify(eventType EventType, tmpl *types.TemplateModuleInternal) {
	event := TemplateEvent{
		Type:      eventType,
		Template:  tmpl,
		Timestamp: time.Now(),
	}

	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
