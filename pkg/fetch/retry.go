package fetch

import (
	"context"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/mal-scraper/pkg/config"
)

// Response is what a single download attempt observed
type Response struct {
	Code int
	Body string
}

// WaitRange is a closed interval a backoff delay is drawn from
type WaitRange struct {
	Min time.Duration
	Max time.Duration
}

// Random draws a uniformly distributed delay from the range
func (w WaitRange) Random() time.Duration {
	if w.Max <= w.Min {
		return w.Min
	}
	return w.Min + time.Duration(rand.Int63n(int64(w.Max-w.Min)+1))
}

// RetryCase is one retryable response shape
type RetryCase struct {
	Name        string
	Match       func(resp Response) bool
	Wait        WaitRange
	BeforeRetry func(log *logrus.Entry, resp Response, delay time.Duration) // Optional
}

// RetryPolicy is owned by a single Downloader; cases are checked in order
type RetryPolicy struct {
	MaxAttempts int       // Attempts including the first one
	DefaultWait WaitRange // Used after network errors
	Cases       []RetryCase
}

// NewRetryPolicy builds the policy for the configured site: 403 waits out the crawler
// detection, 429/500/504 and the transient 404 back off briefly.
func NewRetryPolicy(retry config.RetryConfig, provider config.ProviderConfig) *RetryPolicy {
	short := WaitRange{Min: retry.RetryDelayMin, Max: retry.RetryDelayMax}
	cooldown := WaitRange{Min: retry.CooldownMin, Max: retry.CooldownMax}
	transientMarker := provider.TransientNotFoundMarker

	return &RetryPolicy{
		MaxAttempts: retry.MaxAttempts,
		DefaultWait: short,
		Cases: []RetryCase{
			{
				Name:  "crawler_detected",
				Match: statusIs(http.StatusForbidden),
				Wait:  cooldown,
				BeforeRetry: func(log *logrus.Entry, _ Response, delay time.Duration) {
					log.WithField("delay", delay).Infof("Crawler has been detected. Pausing for at least %v-%v.", cooldown.Min, cooldown.Max)
				},
			},
			{Name: "rate_limited", Match: statusIs(http.StatusTooManyRequests), Wait: short},
			{Name: "server_error", Match: statusIs(http.StatusInternalServerError), Wait: short},
			{Name: "gateway_timeout", Match: statusIs(http.StatusGatewayTimeout), Wait: short},
			{
				Name: "transient_not_found",
				Match: func(resp Response) bool {
					return resp.Code == http.StatusNotFound && transientMarker != "" && strings.Contains(resp.Body, transientMarker)
				},
				Wait: short,
				BeforeRetry: func(log *logrus.Entry, _ Response, delay time.Duration) {
					log.WithField("delay", delay).Info("Pausing before redownloading 404 candidate.")
				},
			},
		},
	}
}

func statusIs(code int) func(Response) bool {
	return func(resp Response) bool { return resp.Code == code }
}

// Match returns the first case resp matches
func (p *RetryPolicy) Match(resp Response) (RetryCase, bool) {
	for _, c := range p.Cases {
		if c.Match != nil && c.Match(resp) {
			return c, true
		}
	}
	return RetryCase{}, false
}

// Sleeper suspends the caller for d, returning early with ctx.Err() when ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// contextSleep is the default Sleeper
func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
