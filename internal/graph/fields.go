package graph

import "sort"

// Field is one (name, value) pair of a document.
type Field struct {
	Name  string
	Value any
}

// Fields is the ordered intermediate form a document passes through on its
// way to and from the store. Order is preserved across processor passes so
// transformations stay deterministic.
type Fields []Field

// Get returns the value of the named field.
func (f Fields) Get(name string) (any, bool) {
	for i := range f {
		if f[i].Name == name {
			return f[i].Value, true
		}
	}
	return nil, false
}

// Set replaces the named field's value, appending the field when absent.
func (f *Fields) Set(name string, value any) {
	for i := range *f {
		if (*f)[i].Name == name {
			(*f)[i].Value = value
			return
		}
	}
	*f = append(*f, Field{Name: name, Value: value})
}

// Rename changes a field's name in place; it reports whether the field
// existed.
func (f Fields) Rename(from, to string) bool {
	for i := range f {
		if f[i].Name == from {
			f[i].Name = to
			return true
		}
	}
	return false
}

// Delete removes the named field; it reports whether the field existed.
func (f *Fields) Delete(name string) bool {
	for i := range *f {
		if (*f)[i].Name == name {
			*f = append((*f)[:i], (*f)[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	copy(out, f)
	return out
}

// Map flattens the fields into a property map for the driver.
func (f Fields) Map() map[string]any {
	out := make(map[string]any, len(f))
	for i := range f {
		out[f[i].Name] = f[i].Value
	}
	return out
}

// FieldsFromMap builds Fields from a raw store document. Names are sorted
// so decode passes see a deterministic order.
func FieldsFromMap(m map[string]any) Fields {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(Fields, 0, len(m))
	for _, name := range names {
		out = append(out, Field{Name: name, Value: m[name]})
	}
	return out
}

// Typed accessors for decode paths. The driver hands back int64 for all
// integers and []any for lists.

// GetString returns the named field as a string.
func (f Fields) GetString(name string) string {
	if v, ok := f.Get(name); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetInt64 returns the named field as an int64.
func (f Fields) GetInt64(name string) int64 {
	v, ok := f.Get(name)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// GetInt returns the named field as an int.
func (f Fields) GetInt(name string) int {
	return int(f.GetInt64(name))
}

// GetBool returns the named field as a bool.
func (f Fields) GetBool(name string) bool {
	if v, ok := f.Get(name); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// GetFloat64 returns the named field as a float64.
func (f Fields) GetFloat64(name string) float64 {
	v, ok := f.Get(name)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

// WithPrefix returns the fields whose names begin with prefix, with the
// prefix trimmed. Decode paths use it to rebuild flattened value objects.
func (f Fields) WithPrefix(prefix string) Fields {
	var out Fields
	for i := range f {
		if len(f[i].Name) > len(prefix) && f[i].Name[:len(prefix)] == prefix {
			out = append(out, Field{Name: f[i].Name[len(prefix):], Value: f[i].Value})
		}
	}
	return out
}
