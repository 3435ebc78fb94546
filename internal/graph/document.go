package graph

// Meta carries identity and bookkeeping fields common to every stored
// document. ID and Rev are populated by the storage layer on a successful
// write and are never client-guessed; Key is immutable after the first
// successful insert. Timestamps are epoch seconds.
type Meta struct {
	ID            string `json:"id"`
	Key           string `json:"key"`
	Rev           string `json:"rev"`
	CreatedAt     int64  `json:"created_at"`
	ModifiedAt    int64  `json:"modified_at"`
	SchemaVersion int    `json:"schema_version"`
}

// DocMeta exposes the embedded metadata to the generic layer. The name
// must differ from the embedded type's so the promoted method is not
// shadowed by the field on embedding structs.
func (m *Meta) DocMeta() *Meta { return m }

// Persisted reports whether the document has store identity.
func (m *Meta) Persisted() bool {
	return m.ID != "" && m.Key != "" && m.Rev != ""
}

// SoftDeleteMeta is embedded by types that opt into soft deletion.
// IsSoftDeletedTimePrecise distinguishes an exact deletion time from one
// estimated after the fact (e.g. deletion inferred from absence).
type SoftDeleteMeta struct {
	IsSoftDeleted            bool  `json:"is_soft_deleted"`
	SoftDeletedAt            int64 `json:"soft_deleted_at"`
	IsSoftDeletedTimePrecise bool  `json:"is_soft_deleted_time_precise"`
}

func (s *SoftDeleteMeta) softDeleteMeta() *SoftDeleteMeta { return s }

// SoftDeletable is satisfied by embedding SoftDeleteMeta. A type must opt
// in this way before the soft-delete paths accept it.
type SoftDeletable interface {
	softDeleteMeta() *SoftDeleteMeta
}

// EdgeMeta extends Meta with the two endpoint references of a directed
// edge. From and To hold store ids of the referenced vertices.
type EdgeMeta struct {
	Meta
	From string `json:"from"`
	To   string `json:"to"`
}

// LinkMeta exposes the embedded edge metadata to the generic layer.
func (m *EdgeMeta) LinkMeta() *EdgeMeta { return m }

// Entity is the contract every stored document type implements. Encode
// and decode cover the type's domain attributes only; metadata is handled
// by the mapper.
type Entity interface {
	DocMeta() *Meta
	// EncodeAttrs returns the domain attributes as ordered fields with
	// their document names. Enum values and nested value objects may be
	// returned as-is; the mapper pipeline flattens them.
	EncodeAttrs() (Fields, error)
	// DecodeAttrs sets the domain attributes from document fields.
	// Metadata fields have already been stripped.
	DecodeAttrs(Fields) error
}

// Vertex is an Entity stored in a node collection.
type Vertex interface {
	Entity
	// Collection returns the node collection the type is bound to.
	Collection() string
}

// Edge is an Entity stored in a directed-link collection.
type Edge interface {
	Entity
	LinkMeta() *EdgeMeta
}

// Enum is implemented by enum-typed attribute values; the mapper flattens
// them to their primitive representation on encode.
type Enum interface {
	Primitive() any
}

// Nested is implemented by value objects embedded in an entity; the
// mapper flattens them into prefixed top-level fields on encode.
type Nested interface {
	DocumentFields() (Fields, error)
}

// TypeSpec is the static per-type configuration supplied at registration:
// collection binding, schema version, soft-delete opt-in, the fields that
// Update must never overwrite, extra mapper processors, and (for edges)
// the permitted endpoint collections.
type TypeSpec struct {
	Collection    string
	SchemaVersion int
	SoftDeletable bool
	// NonUpdatable lists document field names copied from the current
	// state onto any update, in addition to created_at.
	NonUpdatable []string
	// Extra processors appended after the standard pipeline.
	Extra []Processor
	// FromKinds and ToKinds are the permitted endpoint collections of an
	// edge type; empty for vertex types.
	FromKinds []string
	ToKinds   []string
}

// IsEdge reports whether the type declares endpoint sets.
func (s TypeSpec) IsEdge() bool {
	return len(s.FromKinds) > 0 || len(s.ToKinds) > 0
}
