package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appheap/tase/pkg/errors"
)

type widgetColor int

func (c widgetColor) Primitive() any { return int64(c) }

type widgetDims struct {
	Width  int64
	Height int64
}

func (d *widgetDims) DocumentFields() (Fields, error) {
	return Fields{
		{Name: "width", Value: d.Width},
		{Name: "height", Value: d.Height},
	}, nil
}

type widget struct {
	Meta
	SoftDeleteMeta

	Name  string `validate:"required"`
	Color widgetColor
	Dims  *widgetDims

	failEncode bool
}

func (*widget) Collection() string { return "widgets" }

func (w *widget) EncodeAttrs() (Fields, error) {
	if w.failEncode {
		return nil, fmt.Errorf("broken widget")
	}
	fs := Fields{
		{Name: "name", Value: w.Name},
		{Name: "color", Value: w.Color},
	}
	if w.Dims != nil {
		fs.Set("dims", w.Dims)
	}
	return fs, nil
}

func (w *widget) DecodeAttrs(fs Fields) error {
	w.Name = fs.GetString("name")
	w.Color = widgetColor(fs.GetInt64("color"))
	if sub := fs.WithPrefix("dims_"); len(sub) > 0 {
		w.Dims = &widgetDims{
			Width:  sub.GetInt64("width"),
			Height: sub.GetInt64("height"),
		}
	}
	return nil
}

var widgetSpec = TypeSpec{
	Collection:    "widgets",
	SchemaVersion: 2,
	SoftDeletable: true,
}

func TestMapper_ToDocument(t *testing.T) {
	m := NewMapper(widgetSpec)

	w := &widget{
		Name:  "gear",
		Color: widgetColor(3),
		Dims:  &widgetDims{Width: 90, Height: 60},
	}
	w.Key = "w1"
	w.CreatedAt = 100

	doc, err := m.ToDocument(w)
	require.NoError(t, err)

	assert.Equal(t, "w1", doc[DocKey])
	assert.Equal(t, int64(100), doc["created_at"])
	assert.Equal(t, 2, doc["schema_version"])

	// Pre-insert documents carry no store identity.
	_, hasID := doc[DocID]
	assert.False(t, hasID)
	_, hasRev := doc[DocRev]
	assert.False(t, hasRev)

	// Enums become primitives, nested objects prefixed fields.
	assert.Equal(t, int64(3), doc["color"])
	assert.Equal(t, int64(90), doc["dims_width"])
	assert.Equal(t, int64(60), doc["dims_height"])
	_, hasDims := doc["dims"]
	assert.False(t, hasDims)

	// Soft-delete bookkeeping is present for opted-in types.
	assert.Equal(t, false, doc["is_soft_deleted"])
}

func TestMapper_ToDocumentKeepsIdentityWhenSet(t *testing.T) {
	m := NewMapper(widgetSpec)

	w := &widget{Name: "gear"}
	w.ID = "widgets/w1"
	w.Key = "w1"
	w.Rev = "r1"

	doc, err := m.ToDocument(w)
	require.NoError(t, err)
	assert.Equal(t, "widgets/w1", doc[DocID])
	assert.Equal(t, "r1", doc[DocRev])
}

func TestMapper_EncodeErrorAborts(t *testing.T) {
	m := NewMapper(widgetSpec)

	w := &widget{Name: "gear", failEncode: true}
	doc, err := m.ToDocument(w)
	require.Error(t, err)
	assert.Nil(t, doc)

	// Conversion failures surface as the not-persistable usage error.
	assert.True(t, errors.IsType(err, errors.ErrorTypeUsage))
	var np *errors.ErrNotPersistable
	require.ErrorAs(t, err, &np)
	assert.Equal(t, "widgets", np.Collection)
}

func TestMapper_RoundTrip(t *testing.T) {
	m := NewMapper(widgetSpec)

	orig := &widget{
		Name:  "gear",
		Color: widgetColor(5),
		Dims:  &widgetDims{Width: 12, Height: 7},
	}
	orig.ID = "widgets/w1"
	orig.Key = "w1"
	orig.Rev = "r1"
	orig.CreatedAt = 100
	orig.ModifiedAt = 200
	orig.IsSoftDeleted = true
	orig.SoftDeletedAt = 150

	doc, err := m.ToDocument(orig)
	require.NoError(t, err)

	got := &widget{}
	require.NoError(t, m.FromDocument(doc, got))

	assert.Equal(t, orig.Meta, got.Meta)
	assert.Equal(t, orig.SoftDeleteMeta, got.SoftDeleteMeta)
	assert.Equal(t, orig.Name, got.Name)
	assert.Equal(t, orig.Color, got.Color)
	assert.Equal(t, orig.Dims, got.Dims)
}

func TestMapper_FromDocumentValidates(t *testing.T) {
	m := NewMapper(widgetSpec)

	// A document with no name fails struct validation.
	doc := map[string]any{
		DocID:  "widgets/w1",
		DocKey: "w1",
		DocRev: "r1",
	}
	err := m.FromDocument(doc, &widget{})
	assert.Error(t, err)
}

func TestMapper_SchemaVersionDefaulted(t *testing.T) {
	m := NewMapper(widgetSpec)

	w := &widget{Name: "gear"}
	doc, err := m.ToDocument(w)
	require.NoError(t, err)
	assert.Equal(t, 2, doc["schema_version"])

	// An explicit version survives.
	w.SchemaVersion = 1
	doc, err = m.ToDocument(w)
	require.NoError(t, err)
	assert.Equal(t, 1, doc["schema_version"])
}

type plainEdge struct {
	EdgeMeta
}

func (*plainEdge) EncodeAttrs() (Fields, error) { return nil, nil }
func (*plainEdge) DecodeAttrs(Fields) error     { return nil }

// The metadata accessors carry names distinct from the embedded types;
// an accessor named after its type would be shadowed by the embedded
// field and the contracts below would stop being satisfied.
var (
	_ Vertex = (*widget)(nil)
	_ Edge   = (*plainEdge)(nil)
)

func TestMetaAccessorsResolveThroughEmbedding(t *testing.T) {
	w := &widget{}
	w.Key = "w1"
	assert.Same(t, &w.Meta, w.DocMeta())

	e := &plainEdge{}
	e.From = "users/42"
	assert.Same(t, &e.EdgeMeta, e.LinkMeta())
	assert.Same(t, &e.EdgeMeta.Meta, e.DocMeta())
}

func TestMapper_EdgeEndpointRenames(t *testing.T) {
	spec := TypeSpec{
		Collection:    "owns",
		SchemaVersion: 1,
		FromKinds:     []string{"users"},
		ToKinds:       []string{"widgets"},
	}
	m := NewMapper(spec)

	e := &plainEdge{}
	e.Key = "42:w1"
	e.From = "users/42"
	e.To = "widgets/w1"

	doc, err := m.ToDocument(e)
	require.NoError(t, err)
	assert.Equal(t, "users/42", doc[DocFrom])
	assert.Equal(t, "widgets/w1", doc[DocTo])

	got := &plainEdge{}
	require.NoError(t, m.FromDocument(doc, got))
	assert.Equal(t, "users/42", got.From)
	assert.Equal(t, "widgets/w1", got.To)
}
