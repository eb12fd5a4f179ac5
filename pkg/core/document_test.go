package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentInsertionOrder(t *testing.T) {
	doc := NewDocument()
	doc.Set("zebra", 1)
	doc.Set("apple", 2)
	doc.Set("mango", 3)

	var names []string
	for _, f := range doc.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"zebra", "apple", "mango"}, names)
}

func TestDocumentSetReplacesInPlace(t *testing.T) {
	doc := NewDocument()
	doc.Set("a", 1)
	doc.Set("b", 2)
	doc.Set("a", 3)

	require.Equal(t, 2, doc.Len())
	v, ok := doc.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, "a", doc.Fields()[0].Name)
}

func TestFromMapSortsFields(t *testing.T) {
	doc := FromMap(map[string]any{"c": 1, "a": 2, "b": 3})

	var names []string
	for _, f := range doc.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestNormalize(t *testing.T) {
	doc := NewDocument()
	doc.Set("z", 1)
	doc.Set("a", 2)
	doc.Normalize()

	assert.Equal(t, "a", doc.Fields()[0].Name)
	assert.Equal(t, "z", doc.Fields()[1].Name)

	// Lookups still work after reordering.
	v, ok := doc.Get("z")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestDocumentID(t *testing.T) {
	doc := NewDocument()
	assert.Equal(t, "", doc.ID())

	doc.SetID("abc")
	assert.Equal(t, "abc", doc.ID())

	v, ok := doc.Get(IDField)
	require.True(t, ok)
	assert.Equal(t, "abc", v)
}
