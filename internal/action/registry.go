package action

import "sync"

// Registry maps action type tags to implementations. Registration happens
// once at startup; last registration for a tag wins.
type Registry struct {
	mu     sync.RWMutex
	byType map[string]Action
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byType: map[string]Action{}}
}

func (r *Registry) Register(actions ...Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range actions {
		if a == nil {
			continue
		}
		if _, exists := r.byType[a.Type()]; !exists {
			r.order = append(r.order, a.Type())
		}
		r.byType[a.Type()] = a
	}
}

func (r *Registry) Get(actionType string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, exists := r.byType[actionType]
	return a, exists
}

func (r *Registry) Has(actionType string) bool {
	_, exists := r.Get(actionType)
	return exists
}

// All returns a snapshot in registration order, for UI enumeration.
func (r *Registry) All() []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Action, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.byType[t])
	}
	return out
}
