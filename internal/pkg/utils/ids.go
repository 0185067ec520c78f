package utils

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator hands out strictly increasing integer ids derived from the wall
// clock in milliseconds. Two calls in the same millisecond still get distinct
// ids, and ids never go backwards if the clock does.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe raises the floor so ids already present in storage are never reissued.
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}

func NewRowID() string {
	return uuid.NewString()
}
