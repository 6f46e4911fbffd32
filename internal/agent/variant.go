package agent

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"shein_sen/internal/config"
)

// VariantConfigurator selects size, color and quantity on a product page.
// Size is a hard requirement: a miss fails the order. Color and quantity
// are soft: a miss degrades to the page default and leaves a remark.
type VariantConfigurator struct {
	resolver *Resolver
	cfg      config.BrowserConfig
	log      zerolog.Logger
}

func NewVariantConfigurator(resolver *Resolver, cfg config.BrowserConfig, log zerolog.Logger) *VariantConfigurator {
	return &VariantConfigurator{
		resolver: resolver,
		cfg:      cfg,
		log:      log.With().Str("component", "variant").Logger(),
	}
}

// SelectSize clicks the requested size control. An empty size is a no-op.
func (v *VariantConfigurator) SelectSize(ctx context.Context, dom DOM, size string) error {
	if size == "" {
		return nil
	}
	el, err := v.resolver.Resolve(ctx, dom, sizeChain(size))
	if err != nil {
		v.log.Warn().Str("size", size).Msg("size not found")
		return &VariantNotFoundError{Attribute: "taille", Token: size}
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("click size %q: %w", size, err)
	}
	pause(ctx, v.cfg.Settle())
	v.log.Info().Str("size", size).Msg("size selected")
	return nil
}

// SelectColor clicks the requested color swatch. A miss is tolerated: the
// returned remark documents that the page default was kept.
func (v *VariantConfigurator) SelectColor(ctx context.Context, dom DOM, color string) string {
	if color == "" {
		return ""
	}
	el, err := v.resolver.Resolve(ctx, dom, colorChain(color))
	if err != nil {
		v.log.Warn().Str("color", color).Msg("color not found, keeping page default")
		return fmt.Sprintf("couleur %q non trouvée, couleur par défaut conservée", color)
	}
	if err := el.Click(); err != nil {
		v.log.Warn().Str("color", color).Err(err).Msg("color click failed, keeping page default")
		return fmt.Sprintf("couleur %q non sélectionnable, couleur par défaut conservée", color)
	}
	pause(ctx, v.cfg.Settle())
	v.log.Info().Str("color", color).Msg("color selected")
	return ""
}

// SetQuantity brings the page quantity to n. For n <= 1 the page default
// already matches and no DOM interaction happens. Otherwise the typed
// input chain is tried first, then the stepper fallback clicks the
// increment control n-1 times.
func (v *VariantConfigurator) SetQuantity(ctx context.Context, dom DOM, n int) string {
	if n <= 1 {
		return ""
	}
	if el, err := v.resolver.Resolve(ctx, dom, quantityInputChain()); err == nil {
		if err := el.Click(); err == nil {
			if err := el.Input(strconv.Itoa(n)); err == nil {
				pause(ctx, v.cfg.Settle())
				v.log.Info().Int("quantity", n).Msg("quantity typed")
				return ""
			}
		}
	}
	if el, err := v.resolver.Resolve(ctx, dom, quantityStepperChain()); err == nil {
		for i := 0; i < n-1; i++ {
			if err := el.Click(); err != nil {
				v.log.Warn().Int("quantity", n).Err(err).Msg("stepper click failed")
				return fmt.Sprintf("quantité %d non appliquée, quantité par défaut conservée", n)
			}
			pause(ctx, v.cfg.Settle()/2)
		}
		v.log.Info().Int("quantity", n).Msg("quantity stepped")
		return ""
	}
	v.log.Warn().Int("quantity", n).Msg("no quantity control found")
	return fmt.Sprintf("quantité %d non appliquée, quantité par défaut conservée", n)
}
