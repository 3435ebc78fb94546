package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appheap/tase/pkg/errors"
	"github.com/appheap/tase/pkg/logger"
)

// FindOptions control Find/FindOne.
type FindOptions struct {
	Offset               int
	Limit                int
	FilterOutSoftDeleted bool
}

// FindOption mutates FindOptions.
type FindOption func(*FindOptions)

// WithOffset skips the first n matches.
func WithOffset(n int) FindOption { return func(o *FindOptions) { o.Offset = n } }

// WithLimit caps the number of matches.
func WithLimit(n int) FindOption { return func(o *FindOptions) { o.Limit = n } }

// FilterOutSoftDeleted excludes soft-deleted documents. Using it on a type
// that is not soft-deletable is a usage error detected before any I/O.
func FilterOutSoftDeleted() FindOption {
	return func(o *FindOptions) { o.FilterOutSoftDeleted = true }
}

// UpdateOptions control Update. Both guards default to on.
type UpdateOptions struct {
	CheckRevision       bool
	ReserveNonUpdatable bool
}

// UpdateOption mutates UpdateOptions.
type UpdateOption func(*UpdateOptions)

// SkipRevisionCheck disables the optimistic revision check.
func SkipRevisionCheck() UpdateOption {
	return func(o *UpdateOptions) { o.CheckRevision = false }
}

// SkipFieldReservation disables copying of non-updatable fields from the
// current state onto the new one.
func SkipFieldReservation() UpdateOption {
	return func(o *UpdateOptions) { o.ReserveNonUpdatable = false }
}

// Collection is the typed CRUD client of one vertex collection. One node
// label per concrete type; the unique `_key` constraint on the label is
// the backstop for every idempotence guarantee in this file.
//
// Failure contract: store failures and expected absence both collapse to
// nil/false results (logged); only usage and integrity errors surface as
// errors.
type Collection[T Entity] struct {
	exec    *Executor
	spec    TypeSpec
	mapper  *Mapper
	factory func() T
	log     *zap.Logger
}

// NewCollection binds a document type to its collection.
func NewCollection[T Entity](exec *Executor, spec TypeSpec, factory func() T) *Collection[T] {
	return &Collection[T]{
		exec:    exec,
		spec:    spec,
		mapper:  NewMapper(spec),
		factory: factory,
		log:     logger.Named("graph." + spec.Collection),
	}
}

// Name returns the bound collection name.
func (c *Collection[T]) Name() string { return c.spec.Collection }

// Spec returns the bound type configuration.
func (c *Collection[T]) Spec() TypeSpec { return c.spec }

// Mapper returns the type's attribute mapper.
func (c *Collection[T]) Mapper() *Mapper { return c.mapper }

func (c *Collection[T]) decode(doc map[string]any) (T, error) {
	v := c.factory()
	if err := c.mapper.FromDocument(doc, v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Insert writes a new document and, on success, populates the in-memory
// object's identity metadata from the store response. A key conflict or
// any store failure returns the object unchanged with false.
func (c *Collection[T]) Insert(ctx context.Context, obj T) (T, bool) {
	meta := obj.DocMeta()
	if meta.Key == "" {
		c.log.Error("insert without key", zap.String("collection", c.spec.Collection))
		return obj, false
	}

	doc, err := c.mapper.ToDocument(obj)
	if err != nil {
		c.log.Error("insert conversion failed", zap.Error(err))
		return obj, false
	}

	now := time.Now().Unix()
	if doc[fieldCreatedAt] == int64(0) {
		doc[fieldCreatedAt] = now
	}
	doc[fieldModifiedAt] = now
	doc[DocID] = c.spec.Collection + "/" + meta.Key
	doc[DocRev] = uuid.NewString()

	query := `
		MERGE (n:@col {_key: $key})
		ON CREATE SET n = $props, n.__created = true
		WITH n, coalesce(n.__created, false) AS created
		REMOVE n.__created
		RETURN properties(n) AS doc, created
	`
	rows := c.exec.Write(ctx, query,
		map[string]string{"col": c.spec.Collection},
		map[string]any{"key": meta.Key, "props": doc},
	)
	if len(rows) == 0 {
		return obj, false
	}
	if !rowBool(rows[0], "created") {
		c.log.Debug("insert conflict", zap.Error(errors.NewKeyConflict(c.spec.Collection, meta.Key)))
		return obj, false
	}

	stored, ok := rows[0]["doc"].(map[string]any)
	if !ok {
		return obj, false
	}
	if err := c.mapper.FromDocument(stored, obj); err != nil {
		c.log.Debug("post-insert rehydration failed", zap.Error(err))
	}
	return obj, true
}

// Get fetches by key. Expected absence and store failures both yield
// (nil, nil); only integrity errors are returned.
func (c *Collection[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T
	if key == "" {
		return zero, nil
	}

	query := `
		MATCH (n:@col {_key: $key})
		RETURN properties(n) AS doc
	`
	rows := c.exec.Read(ctx, query,
		map[string]string{"col": c.spec.Collection},
		map[string]any{"key": key},
	)
	if len(rows) == 0 {
		return zero, nil
	}
	doc, ok := rows[0]["doc"].(map[string]any)
	if !ok {
		return zero, nil
	}

	v, err := c.decode(doc)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeIntegrity) {
			return zero, err
		}
		c.log.Debug("get decode failed", zap.String("key", key), zap.Error(err))
		return zero, nil
	}
	return v, nil
}

// Has reports whether a document with the key exists. The second result is
// false when the check itself failed, distinguishing "confirmed absent"
// from "unknown".
func (c *Collection[T]) Has(ctx context.Context, key string) (exists bool, known bool) {
	query := `
		MATCH (n:@col {_key: $key})
		RETURN count(n) AS total
	`
	// A count query always yields one row, so a nil result means failure.
	rows := c.exec.Read(ctx, query,
		map[string]string{"col": c.spec.Collection},
		map[string]any{"key": key},
	)
	if len(rows) == 0 {
		return false, false
	}
	return rowInt64(rows[0], "total") > 0, true
}

// Find returns a lazy cursor over documents matching the equality filters.
// Filter names must be plain document field names.
func (c *Collection[T]) Find(ctx context.Context, filters map[string]any, opts ...FindOption) (*Cursor[T], error) {
	return c.find(ctx, "MATCH (n:@col)", filters, opts...)
}

func (c *Collection[T]) find(ctx context.Context, match string, filters map[string]any, opts ...FindOption) (*Cursor[T], error) {
	o := FindOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.FilterOutSoftDeleted && !c.spec.SoftDeletable {
		return nil, errors.NewNotSoftDeletable(c.spec.Collection)
	}

	where, params, err := buildFilters("n", filters)
	if err != nil {
		return nil, err
	}
	if o.FilterOutSoftDeleted {
		where = append(where, "coalesce(n."+fieldIsSoftDeleted+", false) = false")
	}

	query := match
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nRETURN properties(n) AS doc\nORDER BY n._key"
	if o.Offset > 0 {
		query += "\nSKIP $skip"
		params["skip"] = o.Offset
	}
	if o.Limit > 0 {
		query += "\nLIMIT $limit"
		params["limit"] = o.Limit
	}

	rows := c.exec.Read(ctx, query, map[string]string{"col": c.spec.Collection}, params)
	return newCursor(rows, c.decode, c.log), nil
}

// FindOne materializes the first match of Find.
func (c *Collection[T]) FindOne(ctx context.Context, filters map[string]any, opts ...FindOption) (T, error) {
	var zero T
	cursor, err := c.Find(ctx, filters, append(opts, WithLimit(1))...)
	if err != nil {
		return zero, err
	}
	if cursor.Next() {
		return cursor.Value(), nil
	}
	return zero, cursor.Err()
}

// Update writes newState over the stored document addressed by obj's
// identity. Non-updatable fields (created_at plus the type's declared set)
// are copied from obj onto newState first unless disabled, making them
// update-proof through this path. On success obj's fields are replaced in
// place, including the fresh revision; revision mismatch or store failure
// returns false without touching obj.
func (c *Collection[T]) Update(ctx context.Context, obj T, newState T, opts ...UpdateOption) bool {
	return c.update(ctx, vertexMatch, obj, newState, opts...)
}

const (
	vertexMatch = "MATCH (n:@col {_key: $key})"
	edgeMatch   = "MATCH ()-[n:@col {_key: $key}]->()"
)

func (c *Collection[T]) update(ctx context.Context, match string, obj T, newState T, opts ...UpdateOption) bool {
	o := UpdateOptions{CheckRevision: true, ReserveNonUpdatable: true}
	for _, opt := range opts {
		opt(&o)
	}

	meta := obj.DocMeta()
	if !meta.Persisted() {
		c.log.Error("update of non-persisted document", zap.Error(errors.NewMissingIdentity(c.spec.Collection)))
		return false
	}

	// Address the correct document regardless of what newState carries.
	nm := newState.DocMeta()
	nm.ID = meta.ID
	nm.Key = meta.Key
	nm.Rev = meta.Rev

	doc, err := c.mapper.ToDocument(newState)
	if err != nil {
		c.log.Error("update conversion failed", zap.Error(err))
		return false
	}

	if o.ReserveNonUpdatable {
		current, err := c.mapper.ToDocument(obj)
		if err != nil {
			c.log.Error("update reservation failed", zap.Error(err))
			return false
		}
		for _, name := range c.reservedFields() {
			if v, ok := current[name]; ok {
				doc[name] = v
			}
		}
	}

	doc[fieldModifiedAt] = time.Now().Unix()
	doc[DocRev] = uuid.NewString()

	query := match + "\n"
	params := map[string]any{"key": meta.Key, "props": doc}
	if o.CheckRevision {
		query += "WHERE n._rev = $rev\n"
		params["rev"] = meta.Rev
	}
	query += "SET n += $props\nRETURN properties(n) AS doc"

	rows := c.exec.Write(ctx, query, map[string]string{"col": c.spec.Collection}, params)
	if len(rows) == 0 {
		return false
	}
	stored, ok := rows[0]["doc"].(map[string]any)
	if !ok {
		return false
	}
	if err := c.mapper.FromDocument(stored, obj); err != nil {
		c.log.Debug("post-update rehydration failed", zap.Error(err))
	}
	return true
}

func (c *Collection[T]) reservedFields() []string {
	return append([]string{fieldCreatedAt}, c.spec.NonUpdatable...)
}

// Replace overwrites the full stored document with newState rather than
// merging, with the same identity addressing and field reservation as
// Update.
func (c *Collection[T]) Replace(ctx context.Context, obj T, newState T, opts ...UpdateOption) (T, bool) {
	return c.replace(ctx, vertexMatch, obj, newState, opts...)
}

func (c *Collection[T]) replace(ctx context.Context, match string, obj T, newState T, opts ...UpdateOption) (T, bool) {
	o := UpdateOptions{CheckRevision: true, ReserveNonUpdatable: true}
	for _, opt := range opts {
		opt(&o)
	}

	meta := obj.DocMeta()
	if !meta.Persisted() {
		c.log.Error("replace of non-persisted document", zap.Error(errors.NewMissingIdentity(c.spec.Collection)))
		return obj, false
	}

	nm := newState.DocMeta()
	nm.ID = meta.ID
	nm.Key = meta.Key
	nm.Rev = meta.Rev

	doc, err := c.mapper.ToDocument(newState)
	if err != nil {
		c.log.Error("replace conversion failed", zap.Error(err))
		return obj, false
	}
	if o.ReserveNonUpdatable {
		current, cerr := c.mapper.ToDocument(obj)
		if cerr != nil {
			c.log.Error("replace reservation failed", zap.Error(cerr))
			return obj, false
		}
		for _, name := range c.reservedFields() {
			if v, ok := current[name]; ok {
				doc[name] = v
			}
		}
	}
	doc[fieldModifiedAt] = time.Now().Unix()
	doc[DocRev] = uuid.NewString()

	query := match + "\n"
	params := map[string]any{"key": meta.Key, "props": doc}
	if o.CheckRevision {
		query += "WHERE n._rev = $rev\n"
		params["rev"] = meta.Rev
	}
	query += "SET n = $props\nRETURN properties(n) AS doc"

	rows := c.exec.Write(ctx, query, map[string]string{"col": c.spec.Collection}, params)
	if len(rows) == 0 {
		return obj, false
	}
	stored, ok := rows[0]["doc"].(map[string]any)
	if !ok {
		return obj, false
	}
	if err := c.mapper.FromDocument(stored, obj); err != nil {
		c.log.Debug("post-replace rehydration failed", zap.Error(err))
	}
	return obj, true
}

// Delete hard-deletes by the object's key. Missing documents count as
// success, so the operation is idempotent.
func (c *Collection[T]) Delete(ctx context.Context, obj T) bool {
	return c.DeleteByKey(ctx, obj.DocMeta().Key)
}

// DeleteByKey hard-deletes by key, ignoring missing documents.
func (c *Collection[T]) DeleteByKey(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	query := `
		OPTIONAL MATCH (n:@col {_key: $key})
		DETACH DELETE n
		RETURN count(n) AS total
	`
	rows := c.exec.Write(ctx, query,
		map[string]string{"col": c.spec.Collection},
		map[string]any{"key": key},
	)
	return len(rows) > 0
}

// SoftDelete flips the soft-delete fields through the normal update path
// with field reservation off; it is a field update, not a store-level
// delete, so the document stays queryable. No guard prevents soft-deleting
// twice or un-deleting via a later update; that mirrors the update
// semantics of every other payload field.
func (c *Collection[T]) SoftDelete(ctx context.Context, obj T, deletedAt int64, precise bool) (bool, error) {
	if !c.spec.SoftDeletable {
		return false, errors.NewNotSoftDeletable(c.spec.Collection)
	}

	doc, err := c.mapper.ToDocument(obj)
	if err != nil {
		c.log.Error("soft delete conversion failed", zap.Error(err))
		return false, nil
	}
	clone := c.factory()
	if err := c.mapper.FromDocument(doc, clone); err != nil {
		c.log.Error("soft delete clone failed", zap.Error(err))
		return false, nil
	}

	sd, ok := any(clone).(SoftDeletable)
	if !ok {
		return false, errors.NewNotSoftDeletable(c.spec.Collection)
	}
	if deletedAt == 0 {
		deletedAt = time.Now().Unix()
	}
	s := sd.softDeleteMeta()
	s.IsSoftDeleted = true
	s.SoftDeletedAt = deletedAt
	s.IsSoftDeletedTimePrecise = precise

	return c.Update(ctx, obj, clone, SkipFieldReservation()), nil
}

// Count returns the number of documents in the collection.
func (c *Collection[T]) Count(ctx context.Context) (int64, bool) {
	query := `
		MATCH (n:@col)
		RETURN count(n) AS total
	`
	rows := c.exec.Read(ctx, query, map[string]string{"col": c.spec.Collection}, nil)
	if len(rows) == 0 {
		return 0, false
	}
	return rowInt64(rows[0], "total"), true
}

// buildFilters renders equality predicates over validated field names.
func buildFilters(alias string, filters map[string]any) ([]string, map[string]any, error) {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	where := make([]string, 0, len(names))
	params := make(map[string]any, len(names))
	for i, name := range names {
		if !identPattern.MatchString(name) {
			return nil, nil, errors.New(errors.ErrorTypeUsage, "invalid filter field "+name, nil)
		}
		p := fmt.Sprintf("f%d", i)
		where = append(where, alias+"."+name+" = $"+p)
		params[p] = filters[name]
	}
	return where, params, nil
}

func rowBool(row map[string]any, key string) bool {
	if v, ok := row[key].(bool); ok {
		return v
	}
	return false
}

func rowInt64(row map[string]any, key string) int64 {
	switch v := row[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
