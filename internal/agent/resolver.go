package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Resolver walks a fallback chain in declared order and returns the first
// candidate yielding a match that is present and interactable. Each
// candidate gets one budget covering both conditions; budgets never
// aggregate across candidates, so the total wait is bounded by the number
// of candidates times the per-candidate budget.
type Resolver struct {
	timeout time.Duration
	log     zerolog.Logger
}

// interactablePollInterval spaces out re-checks of a match that exists but
// is still disabled. Storefronts commonly render controls disabled until
// client-side hydration finishes.
const interactablePollInterval = 50 * time.Millisecond

func NewResolver(perCandidateTimeout time.Duration, log zerolog.Logger) *Resolver {
	if perCandidateTimeout <= 0 {
		perCandidateTimeout = 3 * time.Second
	}
	return &Resolver{timeout: perCandidateTimeout, log: log}
}

func (r *Resolver) Resolve(ctx context.Context, dom DOM, chain Chain) (Element, error) {
	for i, c := range chain.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		el, ok := r.awaitInteractable(ctx, dom, c)
		if !ok {
			r.log.Debug().
				Str("action", chain.Action).
				Int("candidate", i).
				Msg("no interactable match, trying next candidate")
			continue
		}
		r.log.Debug().
			Str("action", chain.Action).
			Int("candidate", i).
			Msg("element resolved")
		return el, nil
	}
	return nil, fmt.Errorf("%s: %w", chain.Action, ErrNotFound)
}

// awaitInteractable waits out one candidate's budget for a match that is
// both present and interactable. A match that exists but fails the
// interactability check is re-polled until it passes or the budget lapses;
// an absent match fails as soon as Find gives up looking for it.
func (r *Resolver) awaitInteractable(ctx context.Context, dom DOM, c Candidate) (Element, bool) {
	deadline := time.Now().Add(r.timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 || ctx.Err() != nil {
			return nil, false
		}
		el, err := dom.Find(ctx, c, remaining)
		if err != nil {
			// Find already waited for presence up to the remaining budget.
			return nil, false
		}
		if ok, err := interactable(el); err == nil && ok {
			return el, true
		}
		wait := interactablePollInterval
		if wait > remaining {
			wait = remaining
		}
		pause(ctx, wait)
	}
}

// interactable requires the element to be visible, not carry a disabled
// attribute, and not be marked with a disabled style class.
func interactable(el Element) (bool, error) {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false, err
	}
	if _, present, err := el.Attribute("disabled"); err != nil {
		return false, err
	} else if present {
		return false, nil
	}
	class, _, err := el.Attribute("class")
	if err != nil {
		return false, err
	}
	if strings.Contains(strings.ToLower(class), "disabled") {
		return false, nil
	}
	return true, nil
}
