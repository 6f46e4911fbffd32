package agent

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"shein_sen/internal/config"
)

// Confirmation is the evidence tier behind a committed cart add. It is
// surfaced in the order note so downstream consumers can weigh how much
// to trust a "completed" order.
type Confirmation string

const (
	// ConfirmedExplicit means an added-to-cart message was visible.
	ConfirmedExplicit Confirmation = "confirmed-explicit"
	// ConfirmedModal means an overlay opened after the click. Strong
	// evidence, not certainty.
	ConfirmedModal Confirmation = "confirmed-modal"
	// ConfirmedOptimistic means no signal appeared either way. The absence
	// of an error is deliberately read as success: failing closed here
	// would mark many legitimate adds as failed.
	ConfirmedOptimistic Confirmation = "confirmed-optimistic"
)

// CartCommitter triggers the add-to-cart action and classifies the outcome.
type CartCommitter struct {
	resolver *Resolver
	cfg      config.BrowserConfig
	log      zerolog.Logger
}

func NewCartCommitter(resolver *Resolver, cfg config.BrowserConfig, log zerolog.Logger) *CartCommitter {
	return &CartCommitter{
		resolver: resolver,
		cfg:      cfg,
		log:      log.With().Str("component", "cart").Logger(),
	}
}

// Commit clicks add-to-cart and waits for confirmation. A disabled button
// never gets clicked; the resolver already refuses disabled matches, so a
// fully disabled chain surfaces as a CommitError.
func (c *CartCommitter) Commit(ctx context.Context, dom DOM) (Confirmation, error) {
	el, err := c.resolver.Resolve(ctx, dom, addToCartChain())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", &CommitError{Reason: "bouton non trouvé ou non cliquable"}
		}
		return "", &CommitError{Reason: "bouton non résolu", Err: err}
	}
	if err := el.Click(); err != nil {
		return "", &CommitError{Reason: "clic échoué", Err: err}
	}
	pause(ctx, c.cfg.Settle())

	if _, err := c.resolver.Resolve(ctx, dom, confirmTextChain()); err == nil {
		c.log.Info().Str("tier", string(ConfirmedExplicit)).Msg("cart add confirmed")
		return ConfirmedExplicit, nil
	}
	if _, err := c.resolver.Resolve(ctx, dom, modalChain()); err == nil {
		c.log.Info().Str("tier", string(ConfirmedModal)).Msg("cart add confirmed by modal")
		return ConfirmedModal, nil
	}
	pause(ctx, c.cfg.Settle())
	c.log.Info().Str("tier", string(ConfirmedOptimistic)).Msg("no error signal, assuming cart add succeeded")
	return ConfirmedOptimistic, nil
}
