package metadata

import "sync"

// Registry holds relation descriptors indexed per collection. It is loaded
// once by the caller and read by the engine on every recomputation; Load may
// be called again after schema changes.
type Registry struct {
	mu           sync.RWMutex
	byCollection map[string][]*Relation
}

func NewRegistry() *Registry {
	return &Registry{
		byCollection: make(map[string][]*Relation),
	}
}

// RelationsFor returns all relations that involve the given collection on
// either side.
func (r *Registry) RelationsFor(collection string) []*Relation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byCollection[collection]
}

// Load replaces all relations in the registry.
func (r *Registry) Load(relations []*Relation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byCollection = make(map[string][]*Relation)
	for _, rel := range relations {
		r.byCollection[rel.Collection] = append(r.byCollection[rel.Collection], rel)
		if rel.RelatedCollection != rel.Collection {
			r.byCollection[rel.RelatedCollection] = append(r.byCollection[rel.RelatedCollection], rel)
		}
	}
}
