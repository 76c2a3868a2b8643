// Package ident generates identifiers for collections, folders and requests.
//
// Identifiers are opaque strings of the form "<scope>-<token>". They carry no
// ordering and stay fixed for the lifetime of the entity.
package ident

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Scopes used as identifier prefixes.
const (
	ScopeCollection = "col"
	ScopeFolder     = "fld"
	ScopeRequest    = "req"
)

// Generator produces new identifiers.
type Generator interface {
	NewID(scope string) string
}

// Random generates identifiers from random v4 UUIDs.
type Random struct{}

// NewRandom creates a random identifier generator.
func NewRandom() *Random {
	return &Random{}
}

func (Random) NewID(scope string) string {
	return join(scope, uuid.New().String())
}

// Sequence generates identifiers from a monotonic counter. It is safe for
// concurrent use and yields reproducible identifiers for fixtures and tests.
type Sequence struct {
	n atomic.Uint64
}

// NewSequence creates a counter-based generator starting at 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) NewID(scope string) string {
	return join(scope, fmt.Sprintf("%d", s.n.Add(1)))
}

// Unique asks gen for identifiers until taken reports one as free.
func Unique(gen Generator, scope string, taken func(id string) bool) string {
	for {
		id := gen.NewID(scope)
		if taken == nil || !taken(id) {
			return id
		}
	}
}

func join(scope, token string) string {
	if scope == "" {
		return token
	}
	return scope + "-" + token
}
