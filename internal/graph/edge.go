package graph

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appheap/tase/pkg/errors"
)

// ValidateEndpoints checks both vertices against the edge type's declared
// permitted collections. A violation is a caller error and is returned,
// never swallowed; the creating paths run this before any key derivation
// or I/O.
func ValidateEndpoints(spec TypeSpec, from, to Vertex) error {
	if !slices.Contains(spec.FromKinds, from.Collection()) {
		return errors.NewInvalidEndpoint(spec.Collection, "from", from.Collection())
	}
	if !slices.Contains(spec.ToKinds, to.Collection()) {
		return errors.NewInvalidEndpoint(spec.Collection, "to", to.Collection())
	}
	return nil
}

// Edges is the typed client of one directed-link collection. One
// relationship type per concrete edge type; keys are derived
// deterministically by the model constructors so at most one edge of a
// type exists per ordered endpoint pair (plus disambiguators). The
// store-side unique key is the sole dedup mechanism under concurrency;
// this layer adds no locking.
type Edges[E Edge] struct {
	col *Collection[E]
	log *zap.Logger
}

// NewEdges binds an edge type to its link collection.
func NewEdges[E Edge](exec *Executor, spec TypeSpec, factory func() E) *Edges[E] {
	col := NewCollection(exec, spec, factory)
	return &Edges[E]{col: col, log: col.log}
}

// Name returns the bound collection name.
func (e *Edges[E]) Name() string { return e.col.spec.Collection }

func (e *Edges[E]) decode(doc map[string]any) (E, error) {
	v, err := e.col.decode(doc)
	if err != nil {
		return v, err
	}
	em := v.LinkMeta()
	if em.From == "" || em.To == "" {
		var zero E
		return zero, errors.NewDanglingEndpoint(e.col.spec.Collection, v.DocMeta().Key)
	}
	return v, nil
}

// endpointLabel extracts the collection from a vertex id ("users/42").
func endpointLabel(id string) string {
	if i := strings.IndexByte(id, '/'); i > 0 {
		return id[:i]
	}
	return ""
}

// Link inserts the edge between its two already-persisted endpoints and
// hydrates metadata from the store response. Missing endpoint identity,
// an endpoint outside the permitted sets, a key conflict, or a store
// failure all fail closed with false.
func (e *Edges[E]) Link(ctx context.Context, edge E) (E, bool) {
	em := edge.LinkMeta()
	if em.Key == "" || em.From == "" || em.To == "" {
		e.log.Error("link without identity", zap.Error(errors.NewMissingIdentity(e.col.spec.Collection)))
		return edge, false
	}

	fromCol := endpointLabel(em.From)
	toCol := endpointLabel(em.To)
	if !slices.Contains(e.col.spec.FromKinds, fromCol) {
		e.log.Error("link endpoint rejected", zap.Error(errors.NewInvalidEndpoint(e.col.spec.Collection, "from", fromCol)))
		return edge, false
	}
	if !slices.Contains(e.col.spec.ToKinds, toCol) {
		e.log.Error("link endpoint rejected", zap.Error(errors.NewInvalidEndpoint(e.col.spec.Collection, "to", toCol)))
		return edge, false
	}

	doc, err := e.col.mapper.ToDocument(edge)
	if err != nil {
		e.log.Error("link conversion failed", zap.Error(err))
		return edge, false
	}
	now := time.Now().Unix()
	if doc[fieldCreatedAt] == int64(0) {
		doc[fieldCreatedAt] = now
	}
	doc[fieldModifiedAt] = now
	doc[DocID] = e.col.spec.Collection + "/" + em.Key
	doc[DocRev] = uuid.NewString()

	query := `
		MATCH (f:@fcol {_id: $from})
		MATCH (t:@tcol {_id: $to})
		MERGE (f)-[r:@rel {_key: $key}]->(t)
		ON CREATE SET r = $props, r.__created = true
		WITH r, coalesce(r.__created, false) AS created
		REMOVE r.__created
		RETURN properties(r) AS doc, created
	`
	rows := e.col.exec.Write(ctx, query,
		map[string]string{"rel": e.col.spec.Collection, "fcol": fromCol, "tcol": toCol},
		map[string]any{"from": em.From, "to": em.To, "key": em.Key, "props": doc},
	)
	if len(rows) == 0 {
		return edge, false
	}
	if !rowBool(rows[0], "created") {
		e.log.Debug("link conflict", zap.Error(errors.NewKeyConflict(e.col.spec.Collection, em.Key)))
		return edge, false
	}

	stored, ok := rows[0]["doc"].(map[string]any)
	if !ok {
		return edge, false
	}
	if err := e.col.mapper.FromDocument(stored, edge); err != nil {
		e.log.Debug("post-link rehydration failed", zap.Error(err))
	}
	return edge, true
}

// Get fetches an edge by its derived key. Absence and store failure both
// yield (nil, nil); a dangling endpoint reference is an integrity error
// and is returned.
func (e *Edges[E]) Get(ctx context.Context, key string) (E, error) {
	var zero E
	if key == "" {
		return zero, nil
	}
	query := `
		MATCH ()-[r:@rel {_key: $key}]->()
		RETURN properties(r) AS doc
	`
	rows := e.col.exec.Read(ctx, query,
		map[string]string{"rel": e.col.spec.Collection},
		map[string]any{"key": key},
	)
	if len(rows) == 0 {
		return zero, nil
	}
	doc, ok := rows[0]["doc"].(map[string]any)
	if !ok {
		return zero, nil
	}
	v, err := e.decode(doc)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeIntegrity) {
			return zero, err
		}
		e.log.Debug("edge decode failed", zap.String("key", key), zap.Error(err))
		return zero, nil
	}
	return v, nil
}

// GetOrCreate returns the existing edge with the same derived key, or
// links the given one. Concurrent creators race on the store's unique key;
// the loser observes a conflict and refetches.
func (e *Edges[E]) GetOrCreate(ctx context.Context, edge E) (E, error) {
	var zero E
	key := edge.DocMeta().Key
	if key == "" {
		return zero, errors.New(errors.ErrorTypeUsage, "edge key not derivable", nil)
	}

	existing, err := e.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if !isZero(existing) {
		return existing, nil
	}

	if created, ok := e.Link(ctx, edge); ok {
		return created, nil
	}
	// Lost a creation race or the store failed; one more read settles it.
	return e.Get(ctx, key)
}

// UpdateOrCreate is GetOrCreate that additionally refreshes the payload
// fields of an already-existing edge from the given one. Endpoints and key
// never change through this path.
func (e *Edges[E]) UpdateOrCreate(ctx context.Context, edge E) (E, error) {
	var zero E
	key := edge.DocMeta().Key
	if key == "" {
		return zero, errors.New(errors.ErrorTypeUsage, "edge key not derivable", nil)
	}

	existing, err := e.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if isZero(existing) {
		if created, ok := e.Link(ctx, edge); ok {
			return created, nil
		}
		return e.Get(ctx, key)
	}

	if !e.Update(ctx, existing, edge) {
		return zero, nil
	}
	return existing, nil
}

// Update writes newState's payload over the stored edge addressed by obj,
// with the same reservation and revision semantics as vertex updates. The
// in-memory obj is refreshed in place on success.
func (e *Edges[E]) Update(ctx context.Context, obj E, newState E, opts ...UpdateOption) bool {
	return e.col.update(ctx, edgeMatch, obj, newState, opts...)
}

// Find returns a lazy cursor over edges matching the equality filters.
func (e *Edges[E]) Find(ctx context.Context, filters map[string]any, opts ...FindOption) (*Cursor[E], error) {
	cursor, err := e.col.find(ctx, "MATCH ()-[n:@col]->()", filters, opts...)
	if err != nil {
		return nil, err
	}
	cursor.decode = e.decode
	return cursor, nil
}

// FindOne materializes the first match of Find.
func (e *Edges[E]) FindOne(ctx context.Context, filters map[string]any, opts ...FindOption) (E, error) {
	var zero E
	cursor, err := e.Find(ctx, filters, append(opts, WithLimit(1))...)
	if err != nil {
		return zero, err
	}
	if cursor.Next() {
		return cursor.Value(), nil
	}
	return zero, cursor.Err()
}

// Delete removes the edge, ignoring missing documents.
func (e *Edges[E]) Delete(ctx context.Context, edge E) bool {
	return e.DeleteByKey(ctx, edge.DocMeta().Key)
}

// DeleteByKey removes the edge with the derived key, ignoring missing
// documents.
func (e *Edges[E]) DeleteByKey(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	query := `
		OPTIONAL MATCH ()-[r:@rel {_key: $key}]->()
		DELETE r
		RETURN count(r) AS total
	`
	rows := e.col.exec.Write(ctx, query,
		map[string]string{"rel": e.col.spec.Collection},
		map[string]any{"key": key},
	)
	return len(rows) > 0
}

// Count returns the number of edges in the collection.
func (e *Edges[E]) Count(ctx context.Context) (int64, bool) {
	query := `
		MATCH ()-[r:@rel]->()
		RETURN count(r) AS total
	`
	rows := e.col.exec.Read(ctx, query, map[string]string{"rel": e.col.spec.Collection}, nil)
	if len(rows) == 0 {
		return 0, false
	}
	return rowInt64(rows[0], "total"), true
}

func isZero[T any](v T) bool {
	var zero T
	return any(v) == any(zero)
}
