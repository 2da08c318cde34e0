package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/mal-scraper/pkg/utils"
)

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{} // Zero value
	warnings, err := cfg.Validate()

	require.NoError(t, err)

	assert.Equal(t, 2, cfg.MaxRequestsPerHost)
	assert.Equal(t, time.Duration(0), cfg.DelayPerRequest)
	assert.Empty(t, cfg.UserAgents)

	// Retry defaults
	assert.Equal(t, 10, cfg.Retry.MaxAttempts)
	assert.Equal(t, 4*time.Second, cfg.Retry.RetryDelayMin)
	assert.Equal(t, 8*time.Second, cfg.Retry.RetryDelayMax)
	assert.Equal(t, 5*time.Minute, cfg.Retry.CooldownMin)
	assert.Equal(t, 8*time.Minute, cfg.Retry.CooldownMax)

	// Provider defaults
	assert.Equal(t, "myanimelist.net", cfg.Provider.Hostname)
	assert.Equal(t, "https", cfg.Provider.Scheme)
	assert.Equal(t, DefaultNoPicture, cfg.Provider.NoPicture)
	assert.Equal(t, DefaultNoPictureThumbnail, cfg.Provider.NoPictureThumbnail)
	assert.Equal(t, DefaultPlaceholderPictures, cfg.Provider.PlaceholderPictures)
	assert.Equal(t, DefaultDeadEntryMarker, cfg.Provider.DeadEntryMarker)
	assert.Equal(t, DefaultTransientNotFoundMarker, cfg.Provider.TransientNotFoundMarker)

	// HTTP client defaults
	assert.Equal(t, 45*time.Second, cfg.HTTPClientSettings.Timeout)
	assert.Equal(t, 100, cfg.HTTPClientSettings.MaxIdleConns)
	assert.Equal(t, 2, cfg.HTTPClientSettings.MaxIdleConnsPerHost)
	assert.Equal(t, 90*time.Second, cfg.HTTPClientSettings.IdleConnTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTPClientSettings.TLSHandshakeTimeout)
	assert.Equal(t, 1*time.Second, cfg.HTTPClientSettings.ExpectContinueTimeout)
	assert.Equal(t, 15*time.Second, cfg.HTTPClientSettings.DialerTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTPClientSettings.DialerKeepAlive)

	assert.True(t, containsWarning(warnings, "max_requests_per_host should be > 0"))
}

func TestAppConfig_Validate_ValidConfig(t *testing.T) {
	cfg := AppConfig{
		UserAgents:         []string{"agent-a", "agent-b"},
		DelayPerRequest:    2 * time.Second,
		MaxRequestsPerHost: 1,
		Retry: RetryConfig{
			MaxAttempts:   3,
			RetryDelayMin: time.Second,
			RetryDelayMax: 2 * time.Second,
			CooldownMin:   4 * time.Minute,
			CooldownMax:   6 * time.Minute,
		},
		Provider: ProviderConfig{Hostname: "localhost:8080", Scheme: "http"},
	}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 4*time.Minute, cfg.Retry.CooldownMin)
	assert.Equal(t, "http://localhost:8080/anime/1535", cfg.Provider.BuildAnimeLink("1535"))
}

func TestAppConfig_Validate_Corrections(t *testing.T) {
	t.Run("negative delay is disabled", func(t *testing.T) {
		cfg := AppConfig{DelayPerRequest: -time.Second}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(0), cfg.DelayPerRequest)
		assert.True(t, containsWarning(warnings, "delay_per_request cannot be negative"))
	})

	t.Run("blank user agents are dropped", func(t *testing.T) {
		cfg := AppConfig{UserAgents: []string{"  ", "agent-a", ""}}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, []string{"agent-a"}, cfg.UserAgents)
		assert.True(t, containsWarning(warnings, "user_agents contained blank entries"))
	})

	t.Run("inverted retry range", func(t *testing.T) {
		cfg := AppConfig{Retry: RetryConfig{RetryDelayMin: 10 * time.Second, RetryDelayMax: 2 * time.Second}}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.Retry.RetryDelayMin)
		assert.True(t, containsWarning(warnings, "retry_delay_min"))
	})

	t.Run("inverted cooldown range", func(t *testing.T) {
		cfg := AppConfig{Retry: RetryConfig{CooldownMin: 10 * time.Minute, CooldownMax: 6 * time.Minute}}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, 6*time.Minute, cfg.Retry.CooldownMin)
		assert.True(t, containsWarning(warnings, "cooldown_min"))
	})

	t.Run("negative max attempts", func(t *testing.T) {
		cfg := AppConfig{Retry: RetryConfig{MaxAttempts: -1}}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, 10, cfg.Retry.MaxAttempts)
		assert.True(t, containsWarning(warnings, "max_attempts cannot be negative"))
	})

	t.Run("identical markers", func(t *testing.T) {
		cfg := AppConfig{Provider: ProviderConfig{DeadEntryMarker: "gone", TransientNotFoundMarker: "gone"}}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.True(t, containsWarning(warnings, "every matching 404 will be retried"))
	})
}

func TestAppConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		provider ProviderConfig
	}{
		{"hostname with path", ProviderConfig{Hostname: "myanimelist.net/anime"}},
		{"unsupported scheme", ProviderConfig{Scheme: "ftp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{Provider: tt.provider}
			_, err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, utils.ErrConfigValidation)
		})
	}
}
