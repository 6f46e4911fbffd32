package agent

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// rodDOM adapts a rod page to the DOM interface.
type rodDOM struct {
	page *rod.Page
}

// Matches an attribute value fragment case-insensitively within a scope
// selector. Returns null until a match exists so rod keeps polling.
const attrMatchJS = `(sel, attr, frag) => {
	frag = frag.toLowerCase();
	for (const el of document.querySelectorAll(sel)) {
		const v = el.getAttribute(attr);
		if (v && v.toLowerCase().includes(frag)) return el;
	}
	return null;
}`

func (d rodDOM) Find(ctx context.Context, c Candidate, timeout time.Duration) (Element, error) {
	p := d.page.Context(ctx).Timeout(timeout)

	var el *rod.Element
	var err error
	switch c.Strategy {
	case BySelector:
		el, err = p.Element(c.Selector)
	case ByText:
		el, err = p.ElementR(c.Selector, "/"+regexp.QuoteMeta(c.Value)+"/i")
	case ByAttr:
		el, err = p.ElementByJS(rod.Eval(attrMatchJS, c.Selector, c.Attr, c.Value))
	default:
		return nil, fmt.Errorf("unknown locator strategy %q", c.Strategy)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return rodElement{el: el}, nil
}

type rodElement struct {
	el *rod.Element
}

func (e rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e rodElement) Input(text string) error {
	if err := e.el.SelectAllText(); err != nil {
		return err
	}
	return e.el.Input(text)
}

func (e rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e rodElement) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e rodElement) Visible() (bool, error) {
	return e.el.Visible()
}
