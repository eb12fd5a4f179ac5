// Document is the central entity of the domain.
package core

import "sort"

// IDField is the reserved document field holding the collection-unique id.
const IDField = "_id"

// Field is a single named value inside a Document.
type Field struct {
	Name  string
	Value any
}

// Document is an ordered mapping from field names to values.
// It represents one record identified by its "_id" field.
// Supported values: nil, bool, integers, float64, string, time.Time,
// nested *Document and []any sequences, as handled by the Codec.
type Document struct {
	fields []Field
	byName map[string]int
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{byName: make(map[string]int)}
}

// FromMap builds a document from a plain map. Field order is normalized
// by sorting names, matching the canonicalization applied before persisting.
func FromMap(m map[string]any) *Document {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := NewDocument()
	for _, name := range names {
		doc.Set(name, m[name])
	}
	return doc
}

// Set assigns a field value, replacing it in place if the name already
// exists, or appending it otherwise.
func (d *Document) Set(name string, value any) {
	if d.byName == nil {
		d.byName = make(map[string]int)
	}
	if i, ok := d.byName[name]; ok {
		d.fields[i].Value = value
		return
	}
	d.byName[name] = len(d.fields)
	d.fields = append(d.fields, Field{Name: name, Value: value})
}

// Get returns a field value and whether the field exists.
func (d *Document) Get(name string) (any, bool) {
	i, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return d.fields[i].Value, true
}

// Len returns the number of fields.
func (d *Document) Len() int {
	return len(d.fields)
}

// Fields returns the fields in document order. The slice is shared;
// callers must not mutate it.
func (d *Document) Fields() []Field {
	return d.fields
}

// ID returns the value of the reserved "_id" field, or "" if unset.
func (d *Document) ID() string {
	v, ok := d.Get(IDField)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

// SetID assigns the reserved "_id" field.
func (d *Document) SetID(id string) {
	d.Set(IDField, id)
}

// Normalize sorts the fields by name. Save applies it before encoding so
// that semantically identical documents produce identical bytes and hashes.
func (d *Document) Normalize() {
	sort.SliceStable(d.fields, func(i, j int) bool {
		return d.fields[i].Name < d.fields[j].Name
	})
	for i, f := range d.fields {
		d.byName[f.Name] = i
	}
}
