// Package agent drives a third-party storefront's web UI: one browser,
// one authenticated session, orders processed strictly one at a time.
package agent

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"

	"shein_sen/internal/config"
	"shein_sen/internal/model"
	"shein_sen/internal/session"
)

// Browser is the navigation surface the batch processor drives. *Agent is
// the production implementation.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	DOM() DOM
	Alive() bool
}

// Agent owns the single browser instance and its browsing context. The
// context carries the authenticated session and is shared by every order
// in a run, so callers must serialize access (the processor's lock does).
type Agent struct {
	cfg      config.BrowserConfig
	homeURL  string
	sessions *session.Store
	resolver *Resolver
	log      zerolog.Logger

	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func NewAgent(cfg config.BrowserConfig, homeURL string, sessions *session.Store, log zerolog.Logger) *Agent {
	return &Agent{
		cfg:      cfg,
		homeURL:  homeURL,
		sessions: sessions,
		resolver: NewResolver(cfg.ElementTimeout(), log),
		log:      log.With().Str("component", "browser").Logger(),
	}
}

// Start launches the browser and prepares the browsing context: fixed
// desktop viewport, realistic desktop user agent, target locale, and the
// persisted session cookies loaded before any navigation.
func (a *Agent) Start(ctx context.Context) error {
	// Leakless deadlocks on Windows, see go-rod/rod#853.
	l := launcher.New().
		Leakless(runtime.GOOS != "windows").
		Headless(a.cfg.Headless).
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")
	if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}
	a.launcher = l

	controlURL, err := l.Launch()
	if err != nil {
		return &InitError{Err: err}
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return &InitError{Err: err}
	}
	a.browser = browser

	cookies, err := a.sessions.Load()
	if err != nil {
		a.log.Warn().Err(err).Msg("session file unreadable, starting unauthenticated")
	} else if len(cookies) > 0 {
		if err := browser.SetCookies(model.CookiesToParams(cookies)); err != nil {
			a.log.Warn().Err(err).Msg("failed to load session cookies")
		} else {
			a.log.Info().Int("cookies", len(cookies)).Msg("session cookies loaded")
		}
	} else {
		a.log.Info().Msg("no saved session, starting unauthenticated")
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return &InitError{Err: err}
	}
	a.page = page

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      a.cfg.UserAgent,
		AcceptLanguage: a.cfg.Locale,
	}); err != nil {
		return &InitError{Err: err}
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             a.cfg.ViewportWidth,
		Height:            a.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return &InitError{Err: err}
	}
	if err := (proto.EmulationSetLocaleOverride{Locale: a.cfg.Locale}).Call(page); err != nil {
		a.log.Warn().Err(err).Msg("locale override not applied")
	}

	a.log.Info().Bool("headless", a.cfg.Headless).Msg("browser ready")
	return nil
}

// Navigate loads a URL and waits for network activity to settle, bounded
// by the configured navigation timeout.
func (a *Agent) Navigate(ctx context.Context, url string) error {
	p := a.page.Context(ctx).Timeout(a.cfg.NavTimeout())
	if err := p.Navigate(url); err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	if err := p.WaitLoad(); err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	// Best effort: give client-side rendering a moment, but never block
	// past the settle window on pages that animate forever.
	if err := p.Timeout(a.cfg.Settle() * 3).WaitStable(a.cfg.Settle()); err != nil {
		a.log.Debug().Err(err).Str("url", url).Msg("page never settled, proceeding")
	}
	return nil
}

// CheckLoggedIn inspects the storefront home page for authenticated-state
// indicators. Ambiguity reads as logged out: a false negative only costs a
// manual login, a false positive silently fills the wrong cart.
func (a *Agent) CheckLoggedIn(ctx context.Context) bool {
	if err := a.Navigate(ctx, a.homeURL); err != nil {
		a.log.Warn().Err(err).Msg("login check: home page did not load")
		return false
	}
	if info, err := a.page.Info(); err == nil {
		if strings.Contains(strings.ToLower(info.URL), "login") {
			a.log.Warn().Msg("login check: redirected to login page")
			return false
		}
	}
	if _, err := a.resolver.Resolve(ctx, a.DOM(), loginChain()); err == nil {
		a.log.Info().Msg("authenticated session detected")
		return true
	}
	a.log.Warn().Msg("login status inconclusive, treating as logged out")
	return false
}

// DOM exposes the current page to the resolver-driven components.
func (a *Agent) DOM() DOM {
	return rodDOM{page: a.page}
}

// Alive reports whether the browser process still answers. The processor
// uses it to tell a dead browser from an uncooperative page.
func (a *Agent) Alive() bool {
	if a.browser == nil {
		return false
	}
	if _, err := a.browser.Version(); err != nil {
		return false
	}
	return true
}

// Shutdown persists the session cookies and releases the browser. It is
// safe on a partially started agent and must run on every exit path.
func (a *Agent) Shutdown() {
	if a.browser != nil && a.Alive() {
		if cookies, err := a.browser.GetCookies(); err != nil {
			a.log.Warn().Err(err).Msg("could not read cookies, session not saved")
		} else if err := a.sessions.Save(model.CookiesFromBrowser(cookies)); err != nil {
			a.log.Warn().Err(err).Msg("session save failed")
		} else {
			a.log.Info().Int("cookies", len(cookies)).Msg("session saved")
		}
	}
	if a.page != nil {
		_ = a.page.Close()
	}
	if a.browser != nil {
		_ = a.browser.Close()
	}
	if a.launcher != nil {
		a.launcher.Cleanup()
	}
	a.log.Info().Msg("browser released")
}

// pause sleeps for d unless the context ends first.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
