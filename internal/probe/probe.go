// Package probe pre-checks product URLs over plain HTTP so obviously dead
// links never reach the browser.
package probe

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"

	"shein_sen/internal/config"
)

type Checker struct {
	client *resty.Client
}

func New(cfg config.ProbeConfig, userAgent string) *Checker {
	client := resty.New().
		SetTimeout(cfg.Timeout()).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "fr-FR,fr;q=0.9")
	return &Checker{client: client}
}

// Check fetches the product URL and fails on transport errors and HTTP
// error statuses. It deliberately does not inspect the body: rendered
// product markup is the browser's job to judge.
func (c *Checker) Check(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("not an absolute URL: %q", rawURL)
	}
	resp, err := c.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("product page returned HTTP %d", resp.StatusCode())
	}
	return nil
}
