package engine

// pass stages one recomputation's cache effects. Reads fall through staged
// state to the resolver's committed caches; writes stay staged until commit,
// so a pass that fails or gets superseded leaves the committed caches
// untouched.
type pass struct {
	r       *Resolver
	cleared bool
	fields  map[string][]any
	items   map[string]map[string]map[string]any
}

func newPass(r *Resolver) *pass {
	return &pass{
		r:      r,
		fields: make(map[string][]any),
		items:  make(map[string]map[string]map[string]any),
	}
}

// invalidate drops everything: staged state now, committed state at commit
// time. Triggered by the save/reset shape transitions.
func (p *pass) invalidate() {
	p.cleared = true
	p.fields = make(map[string][]any)
	p.items = make(map[string]map[string]map[string]any)
}

func (p *pass) baseline(field string) ([]any, bool) {
	if ids, ok := p.fields[field]; ok {
		return ids, true
	}
	if p.cleared {
		return nil, false
	}
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	ids, ok := p.r.fieldCache[field]
	return ids, ok
}

func (p *pass) setBaseline(field string, ids []any) {
	p.fields[field] = ids
}

func (p *pass) item(collection, key string) (map[string]any, bool) {
	if col, ok := p.items[collection]; ok {
		if entity, ok := col[key]; ok {
			return entity, true
		}
	}
	if p.cleared {
		return nil, false
	}
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	col, ok := p.r.itemCache[collection]
	if !ok {
		return nil, false
	}
	entity, ok := col[key]
	return entity, ok
}

func (p *pass) putItems(collection string, rows []map[string]any) {
	col := p.items[collection]
	if col == nil {
		col = make(map[string]map[string]any, len(rows))
		p.items[collection] = col
	}
	for _, row := range rows {
		id, ok := row["id"]
		if !ok {
			continue
		}
		col[idKey(id)] = row
	}
}

// commit merges staged state into the resolver's caches. The caller holds
// r.mu and has already verified this pass is still the newest one.
func (p *pass) commit() {
	r := p.r
	if p.cleared {
		r.fieldCache = make(map[string][]any)
		r.itemCache = make(map[string]map[string]map[string]any)
	}
	for field, ids := range p.fields {
		r.fieldCache[field] = ids
	}
	for collection, col := range p.items {
		dst := r.itemCache[collection]
		if dst == nil {
			dst = make(map[string]map[string]any, len(col))
			r.itemCache[collection] = dst
		}
		for key, entity := range col {
			dst[key] = entity
		}
	}
}
