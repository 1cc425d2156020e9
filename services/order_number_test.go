package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderNumberFormat(t *testing.T) {
	gen := NewOrderNumberGenerator("GF")
	assert.Regexp(t, regexp.MustCompile(`^GF\d{13}\d{4}$`), gen.Next())
}

func TestOrderNumberSequenceWithinMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	gen := NewOrderNumberGenerator("GF")
	gen.now = func() time.Time { return fixed }

	assert.Equal(t, "GF17000000000000001", gen.Next())
	assert.Equal(t, "GF17000000000000002", gen.Next())

	gen.now = func() time.Time { return fixed.Add(time.Millisecond) }
	assert.Equal(t, "GF17000000000010001", gen.Next())
}

func TestOrderNumberUnique(t *testing.T) {
	gen := NewOrderNumberGenerator("GF")
	seen := make(map[string]bool)
	for i := 0; i < 20000; i++ {
		n := gen.Next()
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
}
