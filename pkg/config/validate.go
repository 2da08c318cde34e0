package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sriram-PR/mal-scraper/pkg/utils"
)

const (
	DefaultHostname                = "myanimelist.net"
	DefaultNoPicture               = "https://raw.githubusercontent.com/manami-project/anime-offline-database/master/pics/no_pic.png"
	DefaultNoPictureThumbnail      = "https://raw.githubusercontent.com/manami-project/anime-offline-database/master/pics/no_pic_thumbnail.png"
	DefaultDeadEntryMarker         = "<title>404 Not Found - MyAnimeList.net"
	DefaultTransientNotFoundMarker = "was not found on this server.</p>"
)

// DefaultPlaceholderPictures are the images the site serves when an entry has no cover
var DefaultPlaceholderPictures = []string{
	"https://cdn.myanimelist.net/img/sp/icon/apple-touch-icon-256.png",
	"https://cdn.myanimelist.net/images/qm_50.gif",
}

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// DelayPerRequest
	if c.DelayPerRequest < 0 {
		warnings = append(warnings, "delay_per_request cannot be negative, disabling delay")
		c.DelayPerRequest = 0
	}

	// MaxRequestsPerHost
	if c.MaxRequestsPerHost <= 0 {
		warnings = append(warnings, "max_requests_per_host should be > 0, defaulting to 2")
		c.MaxRequestsPerHost = 2
	}

	// UserAgents
	agents := c.UserAgents[:0]
	for _, ua := range c.UserAgents {
		if ua = strings.TrimSpace(ua); ua != "" {
			agents = append(agents, ua)
		}
	}
	if len(agents) != len(c.UserAgents) {
		warnings = append(warnings, "user_agents contained blank entries, ignoring them")
	}
	c.UserAgents = agents

	warnings = append(warnings, c.Retry.validate()...)
	c.validateHTTPClientSettings()

	providerWarnings, err := c.Provider.validate()
	warnings = append(warnings, providerWarnings...)
	if err != nil {
		return warnings, err
	}

	return warnings, nil
}

// validate applies defaults to the retry policy settings.
func (r *RetryConfig) validate() (warnings []string) {
	if r.MaxAttempts < 0 {
		warnings = append(warnings, "retry.max_attempts cannot be negative, defaulting to 10")
		r.MaxAttempts = 0
	}
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 10
	}

	if r.RetryDelayMin <= 0 {
		r.RetryDelayMin = 4 * time.Second
	}
	if r.RetryDelayMax <= 0 {
		r.RetryDelayMax = 8 * time.Second
	}
	if r.RetryDelayMin > r.RetryDelayMax {
		warnings = append(warnings, fmt.Sprintf(
			"retry.retry_delay_min (%v) > retry.retry_delay_max (%v), using retry_delay_max for both",
			r.RetryDelayMin, r.RetryDelayMax))
		r.RetryDelayMin = r.RetryDelayMax
	}

	if r.CooldownMin <= 0 {
		r.CooldownMin = 5 * time.Minute
	}
	if r.CooldownMax <= 0 {
		r.CooldownMax = 8 * time.Minute
	}
	if r.CooldownMin > r.CooldownMax {
		warnings = append(warnings, fmt.Sprintf(
			"retry.cooldown_min (%v) > retry.cooldown_max (%v), using cooldown_max for both",
			r.CooldownMin, r.CooldownMax))
		r.CooldownMin = r.CooldownMax
	}
	return warnings
}

// validate applies defaults to the provider settings.
func (p *ProviderConfig) validate() (warnings []string, err error) {
	if p.Hostname == "" {
		p.Hostname = DefaultHostname
	}
	if strings.Contains(p.Hostname, "/") {
		return warnings, fmt.Errorf("%w: provider.hostname must not contain a path: %q", utils.ErrConfigValidation, p.Hostname)
	}

	switch p.Scheme {
	case "":
		p.Scheme = "https"
	case "http", "https":
	default:
		return warnings, fmt.Errorf("%w: provider.scheme must be http or https, got %q", utils.ErrConfigValidation, p.Scheme)
	}

	if p.NoPicture == "" {
		p.NoPicture = DefaultNoPicture
	}
	if p.NoPictureThumbnail == "" {
		p.NoPictureThumbnail = DefaultNoPictureThumbnail
	}
	if len(p.PlaceholderPictures) == 0 {
		p.PlaceholderPictures = append([]string(nil), DefaultPlaceholderPictures...)
	}

	if p.DeadEntryMarker == "" {
		p.DeadEntryMarker = DefaultDeadEntryMarker
	}
	if p.TransientNotFoundMarker == "" {
		p.TransientNotFoundMarker = DefaultTransientNotFoundMarker
	}
	if p.DeadEntryMarker == p.TransientNotFoundMarker {
		warnings = append(warnings,
			"provider.dead_entry_marker equals provider.transient_not_found_marker; every matching 404 will be retried")
	}
	return warnings, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 45 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}
