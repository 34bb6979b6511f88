package include

import "github.com/aretw0/promptdown/pkg/domain"

// Chain is the ordered stack of document identities a traversal is currently expanding.
// A Chain belongs to exactly one traversal and is not safe for concurrent use.
type Chain struct {
	stack []string
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Enter pushes id. If id is already active it fails with *domain.CircularIncludeError whose
// Chain runs from the root to the repeated id, and the chain is left unchanged.
// The returned release pops id again and must be called on every exit path, typically deferred.
func (c *Chain) Enter(id string) (release func(), err error) {
	if c.Contains(id) {
		loop := make([]string, 0, len(c.stack)+1)
		loop = append(loop, c.stack...)
		loop = append(loop, id)
		return nil, &domain.CircularIncludeError{Chain: loop}
	}

	depth := len(c.stack)
	c.stack = append(c.stack, id)

	released := false
	return func() {
		if released {
			return
		}
		released = true
		c.stack = c.stack[:depth]
	}, nil
}

// Contains reports whether id is being expanded.
func (c *Chain) Contains(id string) bool {
	for _, active := range c.stack {
		if active == id {
			return true
		}
	}
	return false
}

// Depth is the number of active identities.
func (c *Chain) Depth() int { return len(c.stack) }

// Snapshot copies the active identities, root first.
func (c *Chain) Snapshot() []string {
	return append([]string(nil), c.stack...)
}
