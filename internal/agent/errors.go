package agent

import (
	"errors"
	"fmt"
)

// ErrNotFound is the resolver's miss: no candidate in a fallback chain
// produced an interactable element within its wait budget.
var ErrNotFound = errors.New("no interactable element matched")

// InitError means the browser or its environment failed to start. It is
// fatal for the whole run, never a per-order failure.
type InitError struct {
	Err error
}

func (e *InitError) Error() string { return fmt.Sprintf("browser init: %v", e.Err) }
func (e *InitError) Unwrap() error { return e.Err }

// NavigationError means a page did not load within the navigation timeout.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
}
func (e *NavigationError) Unwrap() error { return e.Err }

// InvalidPageError means the page loaded but does not look like a product
// page.
type InvalidPageError struct {
	URL string
}

func (e *InvalidPageError) Error() string {
	return fmt.Sprintf("invalid product page: %s", e.URL)
}

// VariantNotFoundError means a hard-required attribute could not be
// configured on the product page.
type VariantNotFoundError struct {
	Attribute string
	Token     string
}

func (e *VariantNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found or not selectable", e.Attribute, e.Token)
}

// CommitError means the add-to-cart control was unresolvable, disabled, or
// the click itself failed.
type CommitError struct {
	Reason string
	Err    error
}

func (e *CommitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("add to cart: %s: %v", e.Reason, e.Err)
	}
	return "add to cart: " + e.Reason
}
func (e *CommitError) Unwrap() error { return e.Err }

// failureNote turns a per-order error into the human-readable note stored
// on the failed order.
func failureNote(err error) string {
	var nav *NavigationError
	var invalid *InvalidPageError
	var variant *VariantNotFoundError
	var commit *CommitError
	switch {
	case errors.As(err, &nav):
		return fmt.Sprintf("page non chargée: %v", nav.Err)
	case errors.As(err, &invalid):
		return "page produit invalide ou produit non trouvé"
	case errors.As(err, &variant):
		return fmt.Sprintf("%s %q non trouvée ou non sélectionnable", variant.Attribute, variant.Token)
	case errors.As(err, &commit):
		return "échec ajout au panier: " + commit.Reason
	default:
		return "erreur: " + err.Error()
	}
}
