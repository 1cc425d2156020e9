package services

import (
	"fmt"
	"sync"
	"time"
)

const maxOrderSequence = 9999

// OrderNumberGenerator produces order numbers of the form prefix + unix millis + 4-digit sequence
type OrderNumberGenerator struct {
	mu       sync.Mutex
	prefix   string
	lastMs   int64
	sequence int64
	now      func() time.Time
}

// NewOrderNumberGenerator creates a generator for prefix
func NewOrderNumberGenerator(prefix string) *OrderNumberGenerator {
	return &OrderNumberGenerator{prefix: prefix, now: time.Now}
}

// Next returns a number that is unique within this process; the store enforces uniqueness across instances
func (g *OrderNumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms < g.lastMs {
		ms = g.lastMs
	}

	if ms == g.lastMs {
		g.sequence++
		if g.sequence > maxOrderSequence {
			// sequence exhausted, borrow the next millisecond
			ms++
			g.sequence = 1
		}
	} else {
		g.sequence = 1
	}
	g.lastMs = ms

	return fmt.Sprintf("%s%d%04d", g.prefix, ms, g.sequence)
}
