// Package clinic provides a Go client for the clinic appointment-booking
// REST API: role-scoped session storage, authenticated requests, and
// classification of API failures into a small, stable taxonomy.
package clinic

import "time"

// Default client settings.
const (
	DefaultBaseURL       = "http://localhost:4000"
	DefaultTimeout       = 30 * time.Second
	DefaultUploadTimeout = 2 * time.Minute
)

// Config holds all configuration for the clinic API client.
type Config struct {
	// BaseURL is the root URL of the clinic API, without a trailing slash.
	BaseURL string

	// Timeout is the default per-request timeout. Every request runs under
	// a finite deadline; individual calls may override it with WithTimeout.
	Timeout time.Duration

	// UploadTimeout is the deadline applied to multipart uploads, which
	// carry image data and need more headroom than plain JSON calls.
	UploadTimeout time.Duration
}

// DefaultConfig returns a Config with default settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Timeout:       DefaultTimeout,
		UploadTimeout: DefaultUploadTimeout,
	}
}

// WithBaseURL returns a copy of the config pointing at the given API root.
func (c Config) WithBaseURL(url string) Config {
	c.BaseURL = url
	return c
}

// WithTimeout returns a copy of the config with the specified default timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}
