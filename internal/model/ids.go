package model

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDPrefix is prepended to every generated node id.
const IDPrefix = "node_"

// IDGenerator hands out node ids. Implementations must be safe for concurrent
// use.
type IDGenerator interface {
	NewID() string
}

// RandomIDs generates ids from random (version 4) UUIDs. Uniqueness is
// probabilistic: with 122 random bits a collision inside one session is
// practically impossible, and AddChild still rejects one if it happens.
type RandomIDs struct{}

func (RandomIDs) NewID() string {
	return IDPrefix + uuid.NewString()
}

// Sequence generates "node_1", "node_2", ... in order. It never repeats a
// value, which makes it the deterministic choice for tests.
type Sequence struct {
	prefix string
	next   atomic.Uint64
}

// NewSequence returns a Sequence whose first id ends in start.
func NewSequence(prefix string, start uint64) *Sequence {
	s := &Sequence{prefix: prefix}
	s.next.Store(start)
	return s
}

func (s *Sequence) NewID() string {
	n := s.next.Add(1) - 1
	return s.prefix + strconv.FormatUint(n, 10)
}
