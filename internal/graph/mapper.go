package graph

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/appheap/tase/pkg/errors"
)

// Reserved document field names. Attribute-side names are renamed to these
// by the first pipeline pass on the way into the store and back again on
// the way out.
const (
	DocID   = "_id"
	DocKey  = "_key"
	DocRev  = "_rev"
	DocFrom = "_from"
	DocTo   = "_to"

	attrID   = "id"
	attrKey  = "key"
	attrRev  = "rev"
	attrFrom = "from"
	attrTo   = "to"

	fieldCreatedAt     = "created_at"
	fieldModifiedAt    = "modified_at"
	fieldSchemaVersion = "schema_version"

	fieldIsSoftDeleted     = "is_soft_deleted"
	fieldSoftDeletedAt     = "soft_deleted_at"
	fieldSoftDeletePrecise = "is_soft_deleted_time_precise"
)

var validate = validator.New()

// Processor is one bidirectional pass over the ordered field list. Encode
// runs attribute-side to document-side, Decode the inverse. Any error
// aborts the whole conversion; no partial document is ever written.
type Processor interface {
	Encode(Fields) (Fields, error)
	Decode(Fields) (Fields, error)
}

// Rename maps an attribute-side field name to its document-side name.
type Rename struct {
	Attr string
	Doc  string
}

type renameProcessor struct {
	renames []Rename
}

// NewRenameProcessor builds the reserved-field renaming pass.
func NewRenameProcessor(renames ...Rename) Processor {
	return &renameProcessor{renames: renames}
}

func (p *renameProcessor) Encode(fs Fields) (Fields, error) {
	for _, r := range p.renames {
		fs.Rename(r.Attr, r.Doc)
	}
	return fs, nil
}

func (p *renameProcessor) Decode(fs Fields) (Fields, error) {
	for _, r := range p.renames {
		fs.Rename(r.Doc, r.Attr)
	}
	return fs, nil
}

type enumProcessor struct{}

// NewEnumProcessor builds the enum-to-primitive flattening pass. The
// decode direction is a no-op: the concrete type rebuilds its enums in
// DecodeAttrs.
func NewEnumProcessor() Processor { return enumProcessor{} }

func (enumProcessor) Encode(fs Fields) (Fields, error) {
	for i := range fs {
		if e, ok := fs[i].Value.(Enum); ok {
			fs[i].Value = e.Primitive()
		}
	}
	return fs, nil
}

func (enumProcessor) Decode(fs Fields) (Fields, error) { return fs, nil }

type nestedProcessor struct{}

// NewNestedProcessor builds the nested value-object flattening pass. The
// store only holds flat property maps, so a nested object is expanded
// into prefixed top-level fields ("thumb" becomes "thumb_width", ...),
// recursively, including enums inside nested objects. Decode is a no-op
// for the same reason as the enum pass: the concrete type rebuilds its
// value objects in DecodeAttrs.
func NewNestedProcessor() Processor { return nestedProcessor{} }

func (nestedProcessor) Encode(fs Fields) (Fields, error) {
	out := make(Fields, 0, len(fs))
	for _, f := range fs {
		expanded, err := expandField(f)
		if err != nil {
			return nil, fmt.Errorf("flatten %s: %w", f.Name, err)
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func (nestedProcessor) Decode(fs Fields) (Fields, error) { return fs, nil }

func expandField(f Field) (Fields, error) {
	switch t := f.Value.(type) {
	case Nested:
		inner, err := t.DocumentFields()
		if err != nil {
			return nil, err
		}
		out := make(Fields, 0, len(inner))
		for _, in := range inner {
			sub, err := expandField(Field{Name: f.Name + "_" + in.Name, Value: in.Value})
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	case Enum:
		return Fields{{Name: f.Name, Value: t.Primitive()}}, nil
	default:
		return Fields{f}, nil
	}
}

var vertexRenames = []Rename{
	{Attr: attrID, Doc: DocID},
	{Attr: attrKey, Doc: DocKey},
	{Attr: attrRev, Doc: DocRev},
}

var edgeRenames = append([]Rename{
	{Attr: attrFrom, Doc: DocFrom},
	{Attr: attrTo, Doc: DocTo},
}, vertexRenames...)

// Mapper runs the ordered processor pipeline for one bound type.
type Mapper struct {
	spec  TypeSpec
	procs []Processor
}

// NewMapper assembles the standard pipeline for the type: reserved-field
// renaming, enum flattening, nested-object flattening, then the type's
// extra processors.
func NewMapper(spec TypeSpec) *Mapper {
	renames := vertexRenames
	if spec.IsEdge() {
		renames = edgeRenames
	}
	procs := []Processor{
		NewRenameProcessor(renames...),
		NewEnumProcessor(),
		NewNestedProcessor(),
	}
	procs = append(procs, spec.Extra...)
	return &Mapper{spec: spec, procs: procs}
}

// ToDocument converts an entity to a store document map. Identity fields
// that are still unset (pre-insert) are omitted.
func (m *Mapper) ToDocument(e Entity) (map[string]any, error) {
	meta := e.DocMeta()

	fs := Fields{}
	if meta.ID != "" {
		fs.Set(attrID, meta.ID)
	}
	if meta.Key != "" {
		fs.Set(attrKey, meta.Key)
	}
	if meta.Rev != "" {
		fs.Set(attrRev, meta.Rev)
	}
	fs.Set(fieldCreatedAt, meta.CreatedAt)
	fs.Set(fieldModifiedAt, meta.ModifiedAt)

	version := meta.SchemaVersion
	if version == 0 {
		version = m.spec.SchemaVersion
	}
	fs.Set(fieldSchemaVersion, version)

	if sd, ok := e.(SoftDeletable); ok && m.spec.SoftDeletable {
		s := sd.softDeleteMeta()
		fs.Set(fieldIsSoftDeleted, s.IsSoftDeleted)
		fs.Set(fieldSoftDeletedAt, s.SoftDeletedAt)
		fs.Set(fieldSoftDeletePrecise, s.IsSoftDeletedTimePrecise)
	}

	if edge, ok := e.(Edge); ok {
		em := edge.LinkMeta()
		fs.Set(attrFrom, em.From)
		fs.Set(attrTo, em.To)
	}

	attrs, err := e.EncodeAttrs()
	if err != nil {
		return nil, errors.NewNotPersistable(m.spec.Collection, err)
	}
	fs = append(fs, attrs...)

	for _, p := range m.procs {
		fs, err = p.Encode(fs)
		if err != nil {
			return nil, errors.NewNotPersistable(m.spec.Collection, err)
		}
	}

	return fs.Map(), nil
}

// FromDocument rehydrates an entity from a store document map. Metadata is
// split off first, then the type decodes its attributes and the struct is
// validated. A validation failure is an error the caller is expected to
// degrade gracefully on; schema drift on read is tolerated that way.
func (m *Mapper) FromDocument(doc map[string]any, into Entity) error {
	fs := FieldsFromMap(doc)

	var err error
	for i := len(m.procs) - 1; i >= 0; i-- {
		fs, err = m.procs[i].Decode(fs)
		if err != nil {
			return fmt.Errorf("decode pipeline for %s: %w", m.spec.Collection, err)
		}
	}

	meta := into.DocMeta()
	meta.ID = fs.GetString(attrID)
	meta.Key = fs.GetString(attrKey)
	meta.Rev = fs.GetString(attrRev)
	meta.CreatedAt = fs.GetInt64(fieldCreatedAt)
	meta.ModifiedAt = fs.GetInt64(fieldModifiedAt)
	meta.SchemaVersion = fs.GetInt(fieldSchemaVersion)
	fs.Delete(attrID)
	fs.Delete(attrKey)
	fs.Delete(attrRev)
	fs.Delete(fieldCreatedAt)
	fs.Delete(fieldModifiedAt)
	fs.Delete(fieldSchemaVersion)

	if sd, ok := into.(SoftDeletable); ok && m.spec.SoftDeletable {
		s := sd.softDeleteMeta()
		s.IsSoftDeleted = fs.GetBool(fieldIsSoftDeleted)
		s.SoftDeletedAt = fs.GetInt64(fieldSoftDeletedAt)
		s.IsSoftDeletedTimePrecise = fs.GetBool(fieldSoftDeletePrecise)
	}
	fs.Delete(fieldIsSoftDeleted)
	fs.Delete(fieldSoftDeletedAt)
	fs.Delete(fieldSoftDeletePrecise)

	if edge, ok := into.(Edge); ok {
		em := edge.LinkMeta()
		em.From = fs.GetString(attrFrom)
		em.To = fs.GetString(attrTo)
		fs.Delete(attrFrom)
		fs.Delete(attrTo)
	}

	if err := into.DecodeAttrs(fs); err != nil {
		return fmt.Errorf("decode attrs for %s: %w", m.spec.Collection, err)
	}

	if err := validate.Struct(into); err != nil {
		return fmt.Errorf("validate %s: %w", m.spec.Collection, err)
	}

	return nil
}
