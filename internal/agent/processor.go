package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"shein_sen/internal/config"
	"shein_sen/internal/logbus"
	"shein_sen/internal/model"
)

// OrderStore is the boundary to the external order record. The processor
// only reads the pending backlog and writes back status, note and
// processed_at; it never deletes.
type OrderStore interface {
	ListPending(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id string) (model.Order, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkOutcome(ctx context.Context, id string, status model.OrderStatus, note string, processedAt time.Time) error
}

// Prober optionally pre-checks a product URL over plain HTTP before the
// browser is spent on it.
type Prober interface {
	Check(ctx context.Context, url string) error
}

type Options struct {
	Store   OrderStore
	Browser Browser
	Probe   Prober
	Bus     *logbus.Bus
	Logger  zerolog.Logger

	ElementTimeout  time.Duration
	Settle          time.Duration
	InterOrderDelay time.Duration
	MaxQuantity     int
}

// Processor walks the pending backlog one order at a time over the shared
// browser. A mutex is the single serialization point: the scheduled batch
// sweep and the immediate single-order path both take it, so no two orders
// ever interleave page state.
type Processor struct {
	store    OrderStore
	browser  Browser
	probe    Prober
	bus      *logbus.Bus
	log      zerolog.Logger
	resolver *Resolver
	variants *VariantConfigurator
	cart     *CartCommitter
	limiter  *rate.Limiter
	maxQty   int

	mu sync.Mutex
}

func NewProcessor(opts Options) *Processor {
	browserCfg := browserTimings(opts.ElementTimeout, opts.Settle)
	resolver := NewResolver(browserCfg.ElementTimeout(), opts.Logger)
	delay := opts.InterOrderDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	maxQty := opts.MaxQuantity
	if maxQty <= 0 {
		maxQty = 10
	}
	bus := opts.Bus
	if bus == nil {
		bus = logbus.New(64)
	}
	return &Processor{
		store:    opts.Store,
		browser:  opts.Browser,
		probe:    opts.Probe,
		bus:      bus,
		log:      opts.Logger.With().Str("component", "processor").Logger(),
		resolver: resolver,
		variants: NewVariantConfigurator(resolver, browserCfg, opts.Logger),
		cart:     NewCartCommitter(resolver, browserCfg, opts.Logger),
		limiter:  rate.NewLimiter(rate.Every(delay), 1),
		maxQty:   maxQty,
	}
}

// ProcessPending drives every pending order through the browser, isolating
// failures per order. Only a dead browser aborts the sweep; the error then
// carries the partial result alongside.
func (p *Processor) ProcessPending(ctx context.Context) (model.BatchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	orders, err := p.store.ListPending(ctx)
	if err != nil {
		return model.BatchResult{}, fmt.Errorf("list pending orders: %w", err)
	}
	if len(orders) == 0 {
		p.log.Info().Msg("no pending orders")
		return model.BatchResult{}, nil
	}
	p.log.Info().Int("count", len(orders)).Msg("processing pending orders")
	p.bus.Log("info", "processing pending orders", map[string]any{"count": len(orders)})

	res := model.BatchResult{Total: len(orders)}
	for _, o := range orders {
		if err := p.limiter.Wait(ctx); err != nil {
			return res, err
		}
		if p.processOne(ctx, o) {
			res.Succeeded++
		} else {
			res.Failed++
			if !p.browser.Alive() {
				p.bus.BatchDone(logbus.BatchFinished(res))
				return res, fmt.Errorf("browser died while processing order %s", o.ID)
			}
		}
	}

	p.log.Info().
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Int("total", res.Total).
		Msg("batch finished")
	p.bus.BatchDone(logbus.BatchFinished(res))
	return res, nil
}

// ProcessOrder is the immediate path used right after intake. It shares
// the serialization point and the pacing limiter with the batch sweep.
func (p *Processor) ProcessOrder(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, err := p.store.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if o.Status != model.OrderStatusPending {
		return fmt.Errorf("order %s is %s, not pending", id, o.Status)
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	if !p.processOne(ctx, o) {
		if !p.browser.Alive() {
			return fmt.Errorf("browser died while processing order %s", id)
		}
		return fmt.Errorf("order %s failed", id)
	}
	return nil
}

// processOne runs the per-order state machine: pending -> processing ->
// completed or failed. All per-order errors are converted into a failed
// status with a readable note; true means completed.
func (p *Processor) processOne(ctx context.Context, o model.Order) bool {
	log := p.log.With().Str("order", o.ID).Logger()

	if err := p.store.MarkProcessing(ctx, o.ID); err != nil {
		log.Error().Err(err).Msg("could not take order")
		return false
	}
	p.bus.OrderUpdated(logbus.OrderUpdate{OrderID: o.ID, Status: string(model.OrderStatusProcessing)})

	note, err := p.attempt(ctx, o, log)
	now := time.Now()
	if err != nil {
		note = failureNote(err)
		log.Error().Err(err).Str("note", note).Msg("order failed")
		p.bus.Log("error", "order failed", map[string]any{"order": o.ID, "note": note})
		if storeErr := p.store.MarkOutcome(ctx, o.ID, model.OrderStatusFailed, note, now); storeErr != nil {
			log.Error().Err(storeErr).Msg("could not record failure")
		}
		p.bus.OrderUpdated(logbus.OrderUpdate{OrderID: o.ID, Status: string(model.OrderStatusFailed), Note: note})
		return false
	}

	log.Info().Str("note", note).Msg("order completed")
	if storeErr := p.store.MarkOutcome(ctx, o.ID, model.OrderStatusCompleted, note, now); storeErr != nil {
		log.Error().Err(storeErr).Msg("could not record completion")
	}
	p.bus.OrderUpdated(logbus.OrderUpdate{OrderID: o.ID, Status: string(model.OrderStatusCompleted), Note: note})
	return true
}

// attempt performs the browser interaction for one order and returns the
// informational note for a completed order.
func (p *Processor) attempt(ctx context.Context, o model.Order, log zerolog.Logger) (string, error) {
	if p.probe != nil {
		if err := p.probe.Check(ctx, o.ProductURL); err != nil {
			return "", &InvalidPageError{URL: o.ProductURL}
		}
	}

	log.Info().
		Str("url", o.ProductURL).
		Str("size", o.Size).
		Str("color", o.Color).
		Int("quantity", o.Quantity).
		Msg("adding product to cart")

	if err := p.browser.Navigate(ctx, o.ProductURL); err != nil {
		return "", err
	}
	dom := p.browser.DOM()

	if _, err := p.resolver.Resolve(ctx, dom, productPageChain()); err != nil {
		if !looksLikeProductURL(o.ProductURL) {
			return "", &InvalidPageError{URL: o.ProductURL}
		}
		log.Debug().Msg("no product title matched, trusting the product-shaped URL")
	}

	var remarks []string
	if err := p.variants.SelectSize(ctx, dom, o.Size); err != nil {
		return "", err
	}
	if remark := p.variants.SelectColor(ctx, dom, o.Color); remark != "" {
		remarks = append(remarks, remark)
	}
	qty := o.Quantity
	if qty > p.maxQty {
		remarks = append(remarks, fmt.Sprintf("quantité plafonnée à %d", p.maxQty))
		qty = p.maxQty
	}
	if remark := p.variants.SetQuantity(ctx, dom, qty); remark != "" {
		remarks = append(remarks, remark)
	}

	conf, err := p.cart.Commit(ctx, dom)
	if err != nil {
		return "", err
	}

	note := "ajouté au panier (" + string(conf) + ")"
	if len(remarks) > 0 {
		note += "; " + strings.Join(remarks, "; ")
	}
	return note, nil
}

// looksLikeProductURL accepts a page by its URL shape when no title
// selector matched, so title markup drift alone does not fail the order.
func looksLikeProductURL(raw string) bool {
	s := strings.ToLower(raw)
	return strings.Contains(s, "/item") || strings.Contains(s, "/product")
}

// browserTimings packs the processor's two page timings into the config
// shape the configurator and committer expect.
func browserTimings(elementTimeout, settle time.Duration) config.BrowserConfig {
	if elementTimeout <= 0 {
		elementTimeout = 3 * time.Second
	}
	if settle <= 0 {
		settle = time.Second
	}
	return config.BrowserConfig{
		ElementTimeoutMs: int(elementTimeout.Milliseconds()),
		SettleMs:         int(settle.Milliseconds()),
	}
}
