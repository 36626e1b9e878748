// Package engine computes the deep values view of a record under edit:
// relational fields referenced by the display template are resolved into the
// related records' actual data, reconciled with the field's pending unsaved
// mutations, so the template can interpolate nested fields like
// {{author.name}} while the user types.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deepview/fetch"
	"deepview/metadata"
	"deepview/record"
	"deepview/template"
)

// CurrentUserKey is the reserved resolved-record key carrying the session's
// user snapshot.
const CurrentUserKey = "$CURRENT_USER"

// NewRecordSentinel is the primary key value of a record that has not been
// persisted yet. Baseline lookups are skipped for such records.
const NewRecordSentinel = "+"

// RelationsFunc supplies the relation descriptors involving the edited
// collection. It is re-read on every recomputation; the caller owns loading
// and caching (see metadata.Registry).
type RelationsFunc func() []*metadata.Relation

// UserFunc supplies the current user snapshot (see auth.TokenStore).
type UserFunc func() map[string]any

// Resolver is the deep values engine for one edit session. It observes the
// edited record through OnChange, decides whether recomputation is warranted,
// resolves relational fields through its two caches, and publishes the
// resolved composite record.
type Resolver struct {
	collection string
	template   string
	pk         string
	fetcher    fetch.Fetcher
	relations  RelationsFunc
	user       UserFunc
	log        *zap.SugaredLogger
	session    string

	mu          sync.Mutex
	gen         uint64
	primed      bool
	prevSerial  map[string]string
	prevRaw     map[string]any
	resolved    map[string]any
	fieldCache  map[string][]any                     // field -> baseline related ids
	itemCache   map[string]map[string]map[string]any // collection -> id -> entity
	subscribers []func(map[string]any)
}

type Option func(*Resolver)

// WithPrimaryKey overrides the primary key field name (default "id").
func WithPrimaryKey(field string) Option {
	return func(r *Resolver) { r.pk = field }
}

// New creates a resolver for one edit session. All collaborators are injected;
// the engine holds no ambient state. A nil logger disables logging.
func New(collection, tmpl string, fetcher fetch.Fetcher, relations RelationsFunc, user UserFunc, logger *zap.SugaredLogger, opts ...Option) *Resolver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	r := &Resolver{
		collection: collection,
		template:   tmpl,
		pk:         "id",
		fetcher:    fetcher,
		relations:  relations,
		user:       user,
		session:    uuid.NewString(),
		fieldCache: make(map[string][]any),
		itemCache:  make(map[string]map[string]map[string]any),
	}
	r.log = logger.With("session", r.session, "collection", collection)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers a callback invoked with a copy of each newly published
// resolved record.
func (r *Resolver) Subscribe(fn func(map[string]any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Resolved returns a copy of the last published resolved record, or nil
// before the first successful recomputation.
func (r *Resolver) Resolved() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return record.Clone(r.resolved)
}

// OnChange is the engine's entry point, invoked by the caller's change
// observation on every mutation tick with the record's current state.
//
// The first invocation always recomputes. Afterwards the record is diffed
// against the previous snapshot by per-field serialization: an empty diff
// still recomputes (callers rely on this for initial population), a non-empty
// diff recomputes only when some changed field is referenced by the template.
// Edits to unreferenced fields return the previous resolved record with no
// fetches.
//
// A pass that a newer change overtakes returns ErrSuperseded and leaves the
// caches and the published record to the newer pass. A pass whose fetch fails
// returns that error; the previously published record stays visible.
func (r *Resolver) OnChange(ctx context.Context, rec map[string]any) (map[string]any, error) {
	serial := record.Serialize(rec)

	r.mu.Lock()
	if r.primed {
		changed := record.ChangedKeys(r.prevSerial, serial)
		if len(changed) > 0 && !r.anyReferenced(changed) {
			prev := r.resolved
			r.mu.Unlock()
			r.log.Debugw("skipping recompute, no referenced field changed", "changed", changed)
			return record.Clone(prev), nil
		}
	}
	r.gen++
	gen := r.gen
	prevRaw := r.prevRaw
	prevResolved := r.resolved
	r.mu.Unlock()

	p := newPass(r)
	resolved, err := r.resolve(ctx, p, rec, prevRaw, prevResolved)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.gen != gen {
		r.mu.Unlock()
		return nil, ErrSuperseded
	}
	p.commit()
	r.prevSerial = serial
	r.prevRaw = record.Clone(rec)
	r.resolved = resolved
	r.primed = true
	subs := make([]func(map[string]any), len(r.subscribers))
	copy(subs, r.subscribers)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(record.Clone(resolved))
	}
	return record.Clone(resolved), nil
}

func (r *Resolver) anyReferenced(fields []string) bool {
	for _, f := range fields {
		if template.FieldIsReferenced(r.template, f) {
			return true
		}
	}
	return false
}

func (r *Resolver) resolve(ctx context.Context, p *pass, rec, prevRaw, prevResolved map[string]any) (map[string]any, error) {
	rels := r.relations()

	out := make(map[string]any, len(rec)+1)
	// The downstream reactive merge never removes keys on its own, so a key
	// dropped from the edited record is published as an explicit null.
	for k := range prevResolved {
		if _, ok := rec[k]; !ok {
			out[k] = nil
		}
	}
	for k, v := range rec {
		out[k] = v
	}

	// Relational fields are resolved sequentially in field order: later
	// fields see cache state staged by earlier fields in the same pass.
	for _, key := range record.SortedKeys(rec) {
		if !template.FieldIsReferenced(r.template, key) {
			continue
		}
		fr := metadata.Classify(rels, key, r.collection)
		if fr == nil {
			continue
		}
		value, present, err := r.resolveField(ctx, p, rec, prevRaw[key], key, fr)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", key, err)
		}
		if present {
			out[key] = value
		} else {
			delete(out, key)
		}
	}

	if r.user != nil {
		out[CurrentUserKey] = r.user()
	}
	return out, nil
}

func (r *Resolver) resolveField(ctx context.Context, p *pass, rec map[string]any, prevRaw any, key string, fr *metadata.FieldRelation) (any, bool, error) {
	raw := rec[key]

	var mut Mutation
	if fr.ManyToOne {
		if scalarReset(prevRaw, raw) {
			r.log.Debugw("relation value reverted to scalar, clearing caches", "field", key)
			p.invalidate()
		}
		mut = normalizeManyToOne(raw)
	} else {
		if arrayReset(prevRaw, raw) {
			r.log.Debugw("relation value reloaded as array, clearing caches", "field", key)
			p.invalidate()
		}
		mut = normalizeOneToMany(raw)
	}

	ids := mut.UpdateIDs()
	if !fr.ManyToOne {
		baseline, err := r.baselineIDs(ctx, p, rec, key, &mut)
		if err != nil {
			return nil, false, err
		}
		ids = append(baseline, ids...)
	}

	entities, err := r.resolveEntities(ctx, p, fr.RelatedCollection, ids, &mut)
	if err != nil {
		return nil, false, err
	}
	entities = append(entities, mut.Create...)

	if fr.ManyToOne {
		if len(entities) == 0 {
			return nil, false, nil
		}
		return entities[0], true, nil
	}
	if entities == nil {
		entities = []map[string]any{}
	}
	return entities, true, nil
}

// baselineIDs returns the related ids currently linked to the record in
// storage, before pending edits: fetched once per field, memoized in the
// field cache, then filtered against the mutation's update and delete lists.
func (r *Resolver) baselineIDs(ctx context.Context, p *pass, rec map[string]any, field string, mut *Mutation) ([]any, error) {
	if pk, ok := rec[r.pk].(string); ok && pk == NewRecordSentinel {
		// Unsaved record: nothing is linked in storage yet.
		return nil, nil
	}

	ids, ok := p.baseline(field)
	if !ok {
		value, err := r.fetcher.FetchField(ctx, r.collection, rec[r.pk], field)
		if err != nil {
			return nil, err
		}
		ids = idList(value)
		p.setBaseline(field, ids)
	}

	var out []any
	for _, id := range ids {
		if mut.UpdateFor(id) != nil || mut.Deleted(id) {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// resolveEntities materializes full entities for the given ids, fetching only
// when the item cache cannot satisfy every id, and overlays each entity with
// its pending update partial (unsaved edits win over fetched data).
func (r *Resolver) resolveEntities(ctx context.Context, p *pass, collection string, ids []any, mut *Mutation) ([]map[string]any, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	missing := false
	for _, id := range ids {
		if _, ok := p.item(collection, idKey(id)); !ok {
			missing = true
			break
		}
	}
	if missing {
		rows, err := r.fetcher.FetchMany(ctx, collection, dedupeIDs(ids))
		if err != nil {
			return nil, err
		}
		p.putItems(collection, rows)
	}

	out := make([]map[string]any, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		key := idKey(id)
		if seen[key] {
			continue
		}
		seen[key] = true

		merged := make(map[string]any)
		if entity, ok := p.item(collection, key); ok {
			for k, v := range entity {
				merged[k] = v
			}
		}
		if upd := mut.UpdateFor(id); upd != nil {
			for k, v := range upd {
				merged[k] = v
			}
		}
		if _, ok := merged["id"]; !ok {
			merged["id"] = id
		}
		out = append(out, merged)
	}
	return out, nil
}

func dedupeIDs(ids []any) []any {
	seen := make(map[string]bool, len(ids))
	var out []any
	for _, id := range ids {
		key := idKey(id)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, id)
	}
	return out
}
