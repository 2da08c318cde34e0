package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/mal-scraper/pkg/utils"
)

// AppConfig holds the global application configuration
type AppConfig struct {
	UserAgents         []string         `yaml:"user_agents,omitempty"`           // Overrides the built-in mobile user-agent pool
	DelayPerRequest    time.Duration    `yaml:"delay_per_request,omitempty"`     // Minimum gap between requests to the host (0 = none)
	MaxRequestsPerHost int              `yaml:"max_requests_per_host,omitempty"` // Concurrent in-flight requests per host
	RespectRobots      bool             `yaml:"respect_robots,omitempty"`
	Retry              RetryConfig      `yaml:"retry,omitempty"`
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
	Provider           ProviderConfig   `yaml:"provider,omitempty"`
}

// RetryConfig describes the host-specific retry behaviour of the downloader
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts,omitempty"`    // Total attempts including the first one
	RetryDelayMin time.Duration `yaml:"retry_delay_min,omitempty"` // Lower bound of the randomized wait for 429/5xx/transient 404
	RetryDelayMax time.Duration `yaml:"retry_delay_max,omitempty"`
	CooldownMin   time.Duration `yaml:"cooldown_min,omitempty"` // Lower bound of the randomized wait after 403 (crawler detected)
	CooldownMax   time.Duration `yaml:"cooldown_max,omitempty"`
}

// ProviderConfig describes the target site: link layout, placeholder images and the copy of its 404 pages
type ProviderConfig struct {
	Hostname                string   `yaml:"hostname,omitempty"`
	Scheme                  string   `yaml:"scheme,omitempty"`
	NoPicture               string   `yaml:"no_picture,omitempty"`
	NoPictureThumbnail      string   `yaml:"no_picture_thumbnail,omitempty"`
	PlaceholderPictures     []string `yaml:"placeholder_pictures,omitempty"`
	DeadEntryMarker         string   `yaml:"dead_entry_marker,omitempty"`          // Body phrase of a confirmed "not found" page
	TransientNotFoundMarker string   `yaml:"transient_not_found_marker,omitempty"` // Body phrase of a 404 that is worth retrying
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// Load reads a YAML config file, applies defaults and returns the validation warnings
func Load(path string) (*AppConfig, []string, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, nil, fmt.Errorf("%w: parse config file '%s': %w", utils.ErrConfigValidation, path, err)
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, warnings, err
	}
	return &cfg, warnings, nil
}

// Default returns a fully defaulted configuration for myanimelist.net
func Default() *AppConfig {
	cfg := &AppConfig{}
	_, _ = cfg.Validate() // never fails on a zero value
	return cfg
}

// BuildAnimeLink returns the canonical link of an entry
func (p ProviderConfig) BuildAnimeLink(id string) string {
	u := url.URL{Scheme: p.Scheme, Host: p.Hostname, Path: "/anime/" + strings.TrimSpace(id)}
	return u.String()
}

// BuildDownloadLink returns the link the raw page is downloaded from.
// It is the canonical link: the mobile markup is selected by the user agent.
func (p ProviderConfig) BuildDownloadLink(id string) string {
	return p.BuildAnimeLink(id)
}

// IsPlaceholderPicture reports whether link is one of the site's "no image" placeholders
func (p ProviderConfig) IsPlaceholderPicture(link string) bool {
	for _, placeholder := range p.PlaceholderPictures {
		if link == placeholder {
			return true
		}
	}
	return false
}
