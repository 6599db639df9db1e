package woocommerce

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultAPIVersion is the WooCommerce REST namespace
	DefaultAPIVersion = "wc/v3"
	// DefaultTimeout is the per-request HTTP timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRetries is how many times a retryable request is retried
	DefaultMaxRetries = 3
	// DefaultMaxImageBytes caps variation image uploads
	DefaultMaxImageBytes = 10 * 1024 * 1024
)

// Errors for WooCommerce configuration
var (
	ErrConfigMissingStoreURL       = errors.New("woocommerce: store URL is required")
	ErrConfigInvalidStoreURL       = errors.New("woocommerce: store URL is invalid")
	ErrConfigMissingConsumerKey    = errors.New("woocommerce: consumer key is required")
	ErrConfigMissingConsumerSecret = errors.New("woocommerce: consumer secret is required")
)

// Config holds the credentials and tuning of a WooCommerce store connection.
// It is passed explicitly to the client; nothing is read from global state.
type Config struct {
	// StoreURL is the WordPress site root, e.g. https://shop.example.com
	StoreURL string
	// ConsumerKey and ConsumerSecret are the WooCommerce REST API keys
	ConsumerKey    string
	ConsumerSecret string
	// APIVersion is the REST namespace, wc/v3 by default
	APIVersion string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// MaxRetries bounds retries of 429 and 5xx responses
	MaxRetries int
	// WordPressUser and WordPressAppPassword authenticate media uploads.
	// When empty the consumer key and secret are used.
	WordPressUser        string
	WordPressAppPassword string
	// MaxImageBytes caps uploaded image size
	MaxImageBytes int64
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	c.StoreURL = strings.TrimRight(strings.TrimSpace(c.StoreURL), "/")
	if c.StoreURL == "" {
		return ErrConfigMissingStoreURL
	}
	u, err := url.Parse(c.StoreURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrConfigInvalidStoreURL
	}
	if c.ConsumerKey == "" {
		return ErrConfigMissingConsumerKey
	}
	if c.ConsumerSecret == "" {
		return ErrConfigMissingConsumerSecret
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	c.APIVersion = strings.Trim(c.APIVersion, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = DefaultMaxImageBytes
	}
	return nil
}

// apiBase returns the REST root for the configured namespace
func (c *Config) apiBase() string {
	return c.StoreURL + "/wp-json/" + c.APIVersion
}

// mediaEndpoint returns the WordPress media endpoint
func (c *Config) mediaEndpoint() string {
	return c.StoreURL + "/wp-json/wp/v2/media"
}

// mediaCredentials returns the basic auth pair used for media uploads
func (c *Config) mediaCredentials() (string, string) {
	if c.WordPressUser != "" && c.WordPressAppPassword != "" {
		return c.WordPressUser, c.WordPressAppPassword
	}
	return c.ConsumerKey, c.ConsumerSecret
}
