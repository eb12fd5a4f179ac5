package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStringifyNil(t *testing.T) {
	assert.Nil(t, Stringify(nil))
}

func TestStringifyIntegers(t *testing.T) {
	assert.Equal(t, "0000000000000005", Stringify(5))
	assert.Equal(t, "0000000000000012", Stringify(int64(12)))
	assert.Equal(t, "0000000000000000", Stringify(uint8(0)))
}

// Lexicographic order of the zero-padded form must match numeric order for
// non-negative integers up to 16 digits.
func TestStringifyOrdering(t *testing.T) {
	pairs := [][2]int64{
		{5, 12},
		{0, 1},
		{99, 100},
		{9999999999999998, 9999999999999999},
	}
	for _, p := range pairs {
		a := Stringify(p[0]).(string)
		b := Stringify(p[1]).(string)
		assert.Less(t, a, b, "stringify(%d) should sort before stringify(%d)", p[0], p[1])
	}
}

func TestStringifyTimestamp(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2011, 2, 1, 13, 30, 5, 0, loc)
	assert.Equal(t, "2011-02-01T12:30:05Z", Stringify(ts))
}

func TestStringifyDefault(t *testing.T) {
	assert.Equal(t, "hello", Stringify("hello"))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "1.5", Stringify(1.5))
}
