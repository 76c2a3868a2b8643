package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/reqtree/internal/core"
)

// Common storage errors.
var (
	ErrStoreClosed = errors.New("store is closed")
	ErrInvalidUser = errors.New("invalid user id")
)

// TreeStore persists each user's tree of collections.
type TreeStore interface {
	// LoadTree returns the stored collections for a user. A user with no
	// stored tree gets an empty list and no error.
	LoadTree(ctx context.Context, userID string) ([]core.Collection, error)

	// SaveTree records a mutation and the tree it produced.
	SaveTree(ctx context.Context, userID string, m Mutation) error

	// Close releases the store.
	Close() error
}

// MutationLog is implemented by stores that keep a history of mutations.
type MutationLog interface {
	// RecentMutations returns up to limit mutations, newest first. The
	// returned mutations carry no collections.
	RecentMutations(ctx context.Context, userID string, limit int) ([]Mutation, error)
}

// Mutation describes one change to a tree.
type Mutation struct {
	// Action names the operation, e.g. "add_collection" or "import".
	Action string
	// Collections is the full tree after the change.
	Collections []core.Collection
	At          time.Time
}
