package payment

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
)

const (
	razorpayDefaultBaseURL = "https://api.razorpay.com/v1"
	razorpayDefaultTimeout = 30 * time.Second
)

var (
	ErrRazorpayMissingKeyID     = errors.New("razorpay: missing key ID")
	ErrRazorpayMissingKeySecret = errors.New("razorpay: missing key secret")
	ErrRazorpayInvalidBaseURL   = errors.New("razorpay: invalid base URL")
)

// RazorpayConfig contains credentials for the Razorpay Orders API
type RazorpayConfig struct {
	// KeyID is the public key (rzp_test_... / rzp_live_...)
	KeyID string
	// KeySecret signs API calls and payment signatures
	KeySecret string
	// WebhookSecret signs webhook bodies; webhooks are rejected when empty
	WebhookSecret string
	BaseURL       string
	Timeout       time.Duration
}

// RazorpayConfigFrom maps the application config section
func RazorpayConfigFrom(cfg config.RazorpayConfig) *RazorpayConfig {
	return &RazorpayConfig{
		KeyID:         cfg.KeyID,
		KeySecret:     cfg.KeySecret,
		WebhookSecret: cfg.WebhookSecret,
		BaseURL:       cfg.BaseURL,
		Timeout:       cfg.Timeout,
	}
}

// Validate validates the configuration and fills defaults
func (c *RazorpayConfig) Validate() error {
	if c.KeyID == "" {
		return ErrRazorpayMissingKeyID
	}
	if c.KeySecret == "" {
		return ErrRazorpayMissingKeySecret
	}
	if c.BaseURL == "" {
		c.BaseURL = razorpayDefaultBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrRazorpayInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = razorpayDefaultTimeout
	}
	return nil
}
