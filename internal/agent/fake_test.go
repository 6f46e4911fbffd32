package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shein_sen/internal/model"
)

// fakeElement is a scriptable page element for resolver-level tests.
type fakeElement struct {
	visible  bool
	attrs    map[string]string
	text     string
	clickErr error
	inputErr error

	// enableAt, when set, drops the disabled attribute from that instant
	// on, mimicking a control that enables after hydration.
	enableAt time.Time

	clicks int
	inputs []string
}

func visibleElement() *fakeElement {
	return &fakeElement{visible: true, attrs: map[string]string{}}
}

func disabledElement() *fakeElement {
	return &fakeElement{visible: true, attrs: map[string]string{"disabled": ""}}
}

func (e *fakeElement) Click() error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	return nil
}

func (e *fakeElement) Input(text string) error {
	if e.inputErr != nil {
		return e.inputErr
	}
	e.inputs = append(e.inputs, text)
	return nil
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (string, bool, error) {
	if name == "disabled" && !e.enableAt.IsZero() && time.Now().After(e.enableAt) {
		return "", false, nil
	}
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *fakeElement) Visible() (bool, error) { return e.visible, nil }

// fakeDOM is a static page fixture: candidates map to elements, misses
// return ErrNotFound immediately. Every Find attempt is recorded so tests
// can assert candidate ordering.
type fakeDOM struct {
	elements map[string]*fakeElement
	attempts []Candidate
}

func newFakeDOM() *fakeDOM {
	return &fakeDOM{elements: map[string]*fakeElement{}}
}

func candidateKey(c Candidate) string {
	return fmt.Sprintf("%s|%s|%s|%s", c.Strategy, c.Selector, c.Attr, c.Value)
}

func (d *fakeDOM) set(c Candidate, el *fakeElement) *fakeDOM {
	d.elements[candidateKey(c)] = el
	return d
}

func (d *fakeDOM) Find(_ context.Context, c Candidate, _ time.Duration) (Element, error) {
	d.attempts = append(d.attempts, c)
	if el, ok := d.elements[candidateKey(c)]; ok {
		return el, nil
	}
	return nil, ErrNotFound
}

// productFixture is a product page exposing the given size control, a color
// swatch and a working add-to-cart button with an explicit success message.
type productFixture struct {
	dom       *fakeDOM
	sizeEl    *fakeElement
	colorEl   *fakeElement
	cartEl    *fakeElement
	stepperEl *fakeElement
}

func newProductFixture() *productFixture {
	f := &productFixture{
		dom:    newFakeDOM(),
		cartEl: visibleElement(),
	}
	f.dom.set(css(`.goods-title`), visibleElement())
	f.dom.set(text(`button`, "Add to cart"), f.cartEl)
	f.dom.set(css(`.success-message`), visibleElement())
	return f
}

func (f *productFixture) withSize(token string) *productFixture {
	f.sizeEl = visibleElement()
	f.dom.set(text(`.size-item`, token), f.sizeEl)
	return f
}

func (f *productFixture) withColor(token string) *productFixture {
	f.colorEl = visibleElement()
	f.dom.set(attr(`[class*="color"], [data-testid*="color"], [class*="swatch"]`, "title", token), f.colorEl)
	return f
}

func (f *productFixture) withStepper() *productFixture {
	f.stepperEl = visibleElement()
	f.dom.set(css(`[data-testid="quantity-plus"]`), f.stepperEl)
	return f
}

// fakeBrowser serves one fixture per product URL.
type fakeBrowser struct {
	fixtures    map[string]*productFixture
	navErr      map[string]error
	dead        bool
	navigations []string

	current *fakeDOM
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		fixtures: map[string]*productFixture{},
		navErr:   map[string]error{},
	}
}

func (b *fakeBrowser) serve(url string, f *productFixture) *fakeBrowser {
	b.fixtures[url] = f
	return b
}

func (b *fakeBrowser) Navigate(_ context.Context, url string) error {
	b.navigations = append(b.navigations, url)
	if err := b.navErr[url]; err != nil {
		return err
	}
	if f, ok := b.fixtures[url]; ok {
		b.current = f.dom
	} else {
		b.current = newFakeDOM()
	}
	return nil
}

func (b *fakeBrowser) DOM() DOM { return b.current }

func (b *fakeBrowser) Alive() bool { return !b.dead }

// fakeOrderStore is an in-memory OrderStore recording every transition.
type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[string]*model.Order
	order  []string
}

func newFakeOrderStore(orders ...model.Order) *fakeOrderStore {
	s := &fakeOrderStore{orders: map[string]*model.Order{}}
	for _, o := range orders {
		c := o
		if c.Status == "" {
			c.Status = model.OrderStatusPending
		}
		s.orders[c.ID] = &c
		s.order = append(s.order, c.ID)
	}
	return s
}

func (s *fakeOrderStore) ListPending(context.Context) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, id := range s.order {
		if o := s.orders[id]; o.Status == model.OrderStatusPending {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) GetOrder(_ context.Context, id string) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, fmt.Errorf("order %s not found", id)
	}
	return *o, nil
}

func (s *fakeOrderStore) MarkProcessing(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("order %s not found", id)
	}
	if o.Status != model.OrderStatusPending {
		return fmt.Errorf("order %s is %s", id, o.Status)
	}
	o.Status = model.OrderStatusProcessing
	return nil
}

func (s *fakeOrderStore) MarkOutcome(_ context.Context, id string, status model.OrderStatus, note string, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("order %s not found", id)
	}
	o.Status = status
	o.Note = note
	o.ProcessedAt = processedAt
	return nil
}

func (s *fakeOrderStore) get(id string) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.orders[id]
}
