package agent

// Element location strategies. A Candidate describes one way to find one
// page element; a Chain is the ordered fallback list for a UI action.
// Order expresses confidence: most specific selector first, broad text
// match last. Chains are static configuration, never mutated at run time.
type Strategy string

const (
	// BySelector matches a CSS selector.
	BySelector Strategy = "selector"
	// ByText matches visible text inside a scope selector.
	ByText Strategy = "text"
	// ByAttr matches an attribute value fragment inside a scope selector.
	ByAttr Strategy = "attr"
)

type Candidate struct {
	Strategy Strategy
	// Selector is the CSS selector, or the scope for ByText/ByAttr.
	Selector string
	// Attr names the attribute inspected by ByAttr.
	Attr string
	// Value is the text or attribute fragment to match, case-insensitive.
	Value string
}

type Chain struct {
	Action     string
	Candidates []Candidate
}

func css(sel string) Candidate { return Candidate{Strategy: BySelector, Selector: sel} }
func text(scope, v string) Candidate {
	return Candidate{Strategy: ByText, Selector: scope, Value: v}
}
func attr(scope, name, v string) Candidate {
	return Candidate{Strategy: ByAttr, Selector: scope, Attr: name, Value: v}
}

// productPageChain validates that the current page is a product page.
func productPageChain() Chain {
	return Chain{
		Action: "product-page",
		Candidates: []Candidate{
			css(`[data-testid="product-title"]`),
			css(`.product-intro__head-name`),
			css(`.goods-title`),
			css(`h1[class*="product"]`),
			css(`.product-name`),
		},
	}
}

func sizeChain(size string) Chain {
	return Chain{
		Action: "size",
		Candidates: []Candidate{
			css(`[data-testid="size-` + size + `"]`),
			attr(`button`, "title", size),
			text(`.size-item`, size),
			text(`[class*="size"]`, size),
			text(`button, span`, size),
		},
	}
}

func colorChain(color string) Chain {
	return Chain{
		Action: "color",
		Candidates: []Candidate{
			css(`[data-testid="color-` + color + `"]`),
			attr(`[class*="color"], [data-testid*="color"], [class*="swatch"]`, "title", color),
			attr(`[class*="color"] img, [class*="swatch"] img`, "alt", color),
			text(`.color-item`, color),
			text(`[class*="color"], [class*="swatch"]`, color),
		},
	}
}

func quantityInputChain() Chain {
	return Chain{
		Action: "quantity-input",
		Candidates: []Candidate{
			css(`[data-testid="quantity-input"]`),
			css(`input[name="quantity"]`),
			css(`input[class*="quantity"]`),
			css(`.quantity-input input`),
			css(`[class*="qty"] input`),
		},
	}
}

func quantityStepperChain() Chain {
	return Chain{
		Action: "quantity-stepper",
		Candidates: []Candidate{
			css(`[data-testid="quantity-plus"]`),
			css(`button[class*="plus"]`),
			css(`.quantity-plus`),
			text(`button`, "+"),
		},
	}
}

func addToCartChain() Chain {
	return Chain{
		Action: "add-to-cart",
		Candidates: []Candidate{
			css(`[data-testid="add-to-cart"]`),
			text(`button`, "Ajouter au panier"),
			text(`button`, "Add to cart"),
			text(`button`, "AJOUTER"),
			css(`.add-to-cart-btn`),
			css(`[class*="add-cart"]`),
			css(`button[class*="cart"]`),
		},
	}
}

// confirmTextChain looks for an explicit added-to-cart message.
func confirmTextChain() Chain {
	return Chain{
		Action: "cart-confirmation",
		Candidates: []Candidate{
			text(`body`, "Ajouté au panier"),
			text(`body`, "Added to cart"),
			text(`body`, "Produit ajouté"),
			css(`[data-testid="cart-success"]`),
			css(`.success-message`),
			css(`[class*="success"]`),
		},
	}
}

// modalChain detects the overlay some layouts open after a cart add.
func modalChain() Chain {
	return Chain{
		Action: "cart-modal",
		Candidates: []Candidate{
			css(`[role="dialog"]`),
			css(`.modal`),
			css(`.popup`),
			css(`[class*="overlay"]`),
		},
	}
}

// loginChain holds the authenticated-state indicators. Any hit means a
// logged-in session; no hit stays inconclusive on purpose.
func loginChain() Chain {
	return Chain{
		Action: "login-indicator",
		Candidates: []Candidate{
			css(`[data-testid="user-menu"]`),
			css(`.user-info`),
			css(`[class*="user"][class*="avatar"]`),
			text(`body`, "Mon compte"),
			text(`body`, "Profil"),
		},
	}
}
