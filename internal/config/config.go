package config

import (
	"errors"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"shein_sen/internal/utils"
)

type Config struct {
	Storefront StorefrontConfig `yaml:"storefront"`
	Browser    BrowserConfig    `yaml:"browser"`
	Session    SessionConfig    `yaml:"session"`
	Storage    StorageConfig    `yaml:"storage"`
	Batch      BatchConfig      `yaml:"batch"`
	Probe      ProbeConfig      `yaml:"probe"`
	Notify     NotifyConfig     `yaml:"notify"`
}

type StorefrontConfig struct {
	BaseURL   string `yaml:"baseURL"`
	CartPath  string `yaml:"cartPath"`
	LoginPath string `yaml:"loginPath"`
}

type BrowserConfig struct {
	Headless       bool   `yaml:"headless"`
	UserAgent      string `yaml:"userAgent"`
	Locale         string `yaml:"locale"`
	ViewportWidth  int    `yaml:"viewportWidth"`
	ViewportHeight int    `yaml:"viewportHeight"`
	// NavTimeoutMs bounds one navigation including the network-settle wait.
	NavTimeoutMs int `yaml:"navTimeoutMs"`
	// ElementTimeoutMs is the wait budget of a single locator candidate.
	ElementTimeoutMs int `yaml:"elementTimeoutMs"`
	// SettleMs is the short pause after clicks while page state catches up.
	SettleMs int `yaml:"settleMs"`
}

type SessionConfig struct {
	CookiesPath string `yaml:"cookiesPath"`
}

type StorageConfig struct {
	SQLitePath string `yaml:"sqlitePath"`
}

type BatchConfig struct {
	InterOrderDelayMs int `yaml:"interOrderDelayMs"`
	MaxQuantity       int `yaml:"maxQuantity"`
	MaxItemsPerUser   int `yaml:"maxItemsPerUser"`
}

type ProbeConfig struct {
	Enabled   bool `yaml:"enabled"`
	TimeoutMs int  `yaml:"timeoutMs"`
}

type NotifyConfig struct {
	Email EmailConfig `yaml:"email"`
}

type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	AuthCode string `yaml:"authCode"`
}

func (c BrowserConfig) NavTimeout() time.Duration {
	if c.NavTimeoutMs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.NavTimeoutMs) * time.Millisecond
}

func (c BrowserConfig) ElementTimeout() time.Duration {
	if c.ElementTimeoutMs <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.ElementTimeoutMs) * time.Millisecond
}

func (c BrowserConfig) Settle() time.Duration {
	if c.SettleMs <= 0 {
		return 1 * time.Second
	}
	return time.Duration(c.SettleMs) * time.Millisecond
}

func (c BatchConfig) InterOrderDelay() time.Duration {
	if c.InterOrderDelayMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.InterOrderDelayMs) * time.Millisecond
}

func (c ProbeConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Storefront.BaseURL == "" {
		c.Storefront.BaseURL = "https://www.shein.com/fr/"
	}
	if c.Storefront.CartPath == "" {
		c.Storefront.CartPath = "cart"
	}
	if c.Storefront.LoginPath == "" {
		c.Storefront.LoginPath = "user/login"
	}
	c.Browser.UserAgent = utils.NormalizeDesktopUserAgent(c.Browser.UserAgent)
	if c.Browser.Locale == "" {
		c.Browser.Locale = "fr-FR"
	}
	if c.Browser.ViewportWidth <= 0 {
		c.Browser.ViewportWidth = 1920
	}
	if c.Browser.ViewportHeight <= 0 {
		c.Browser.ViewportHeight = 1080
	}
	if c.Session.CookiesPath == "" {
		c.Session.CookiesPath = "./cookies/shein_cookies.json"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "./data/shein_sen.db"
	}
	if c.Batch.MaxQuantity <= 0 {
		c.Batch.MaxQuantity = 10
	}
	if c.Batch.MaxItemsPerUser <= 0 {
		c.Batch.MaxItemsPerUser = 20
	}
}

func (c Config) validate() error {
	u, err := url.Parse(c.Storefront.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("storefront.baseURL must be an absolute URL")
	}
	if c.Notify.Email.Enabled && c.Notify.Email.Address == "" {
		return errors.New("notify.email.address is required when enabled")
	}
	return nil
}

// StorefrontURL joins a path below the storefront base, e.g. the login page.
func (c Config) StorefrontURL(path string) string {
	u, err := url.Parse(c.Storefront.BaseURL)
	if err != nil {
		return c.Storefront.BaseURL
	}
	ref, err := url.Parse(path)
	if err != nil {
		return c.Storefront.BaseURL
	}
	return u.ResolveReference(ref).String()
}
