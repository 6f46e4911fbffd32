package agent

import (
	"context"
	"time"
)

// DOM is the minimal page surface the resolver and its callers need. The
// production implementation wraps a rod page; tests substitute fixtures.
type DOM interface {
	// Find waits up to timeout for an element matching the candidate and
	// returns ErrNotFound (possibly wrapped) when nothing appears in time.
	Find(ctx context.Context, c Candidate, timeout time.Duration) (Element, error)
}

// Element is one located page element.
type Element interface {
	Click() error
	// Input replaces the element's current value with text.
	Input(text string) error
	Text() (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(name string) (string, bool, error)
	Visible() (bool, error)
}
