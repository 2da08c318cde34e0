package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/mal-scraper/pkg/config"
	"github.com/Sriram-PR/mal-scraper/pkg/utils"
)

// bodySnippetLen caps how much of an unexpected body ends up in an error message
const bodySnippetLen = 200

// DeadEntryFunc is called once the site has confirmed that id does not exist
type DeadEntryFunc func(ctx context.Context, id string) error

// Result is the outcome of Fetch: either the page content or a confirmed dead entry
type Result struct {
	Content string
	Dead    bool
}

// Downloader retrieves the raw page of an entry, retrying the site's transient failures
type Downloader struct {
	client      *http.Client
	provider    config.ProviderConfig
	userAgents  []string
	policy      *RetryPolicy
	sleep       Sleeper
	hostSems    *HostSemaphorePool
	rateLimiter *RateLimiter
	robots      *RobotsChecker
	log         *logrus.Entry
}

// Option customizes a Downloader
type Option func(*Downloader)

// WithRetryPolicy replaces the policy derived from the configuration
func WithRetryPolicy(policy *RetryPolicy) Option {
	return func(d *Downloader) { d.policy = policy }
}

// WithSleeper replaces the timer-based backoff wait
func WithSleeper(sleep Sleeper) Option {
	return func(d *Downloader) { d.sleep = sleep }
}

// WithHostSemaphorePool shares a per-host concurrency cap with other downloaders
func WithHostSemaphorePool(pool *HostSemaphorePool) Option {
	return func(d *Downloader) { d.hostSems = pool }
}

// WithRateLimiter shares a politeness delay with other downloaders
func WithRateLimiter(rl *RateLimiter) Option {
	return func(d *Downloader) { d.rateLimiter = rl }
}

// WithRobotsChecker enables robots.txt checks with the given checker
func WithRobotsChecker(rc *RobotsChecker) Option {
	return func(d *Downloader) { d.robots = rc }
}

// NewDownloader creates a Downloader for the site described by cfg.Provider.
// cfg is expected to have been validated.
func NewDownloader(client *http.Client, cfg *config.AppConfig, log *logrus.Entry, opts ...Option) *Downloader {
	dlLog := log.WithField("component", "downloader")
	d := &Downloader{
		client:     client,
		provider:   cfg.Provider,
		userAgents: append([]string(nil), cfg.UserAgents...),
		policy:     NewRetryPolicy(cfg.Retry, cfg.Provider),
		sleep:      contextSleep,
		log:        dlLog,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.hostSems == nil {
		d.hostSems = NewHostSemaphorePool(cfg.MaxRequestsPerHost, dlLog)
	}
	if d.rateLimiter == nil {
		d.rateLimiter = NewRateLimiter(cfg.DelayPerRequest, dlLog)
	}
	if d.robots == nil && cfg.RespectRobots {
		d.robots = NewRobotsChecker(client, pickUserAgent(d.userAgents), d.rateLimiter, d.hostSems, dlLog)
	}
	return d
}

// Download returns the raw page of id. For a confirmed dead entry it calls onDeadEntry
// (if non-nil) with the trimmed id and returns "" without error. A cancelled ctx never reaches onDeadEntry.
func (d *Downloader) Download(ctx context.Context, id string, onDeadEntry DeadEntryFunc) (string, error) {
	id = strings.TrimSpace(id)
	res, err := d.Fetch(ctx, id)
	if err != nil {
		return "", err
	}
	if !res.Dead {
		return res.Content, nil
	}

	if err := ctx.Err(); err != nil {
		return "", utils.WrapErrorf(err, "anime_id %s", id)
	}
	if onDeadEntry != nil {
		if err := onDeadEntry(ctx, id); err != nil {
			return "", utils.WrapErrorf(err, "anime_id %s: dead entry callback", id)
		}
	}
	return "", nil
}

// Fetch downloads the page of id, applying the retry policy until a terminal outcome
func (d *Downloader) Fetch(ctx context.Context, id string) (Result, error) {
	id = strings.TrimSpace(id)
	link := d.provider.BuildDownloadLink(id)
	dlLog := d.log.WithFields(logrus.Fields{
		"anime_id":   id,
		"url":        link,
		"request_id": uuid.NewString(),
	})

	target, err := url.Parse(link)
	if err != nil {
		return Result{}, fmt.Errorf("%w: anime_id %s: %w", utils.ErrRequestCreation, id, err)
	}

	if d.robots != nil && !d.robots.Allowed(ctx, target) {
		dlLog.Warn("Download disallowed by robots.txt")
		return Result{}, fmt.Errorf("%w: anime_id %s: %s", utils.ErrRobotsDisallowed, id, link)
	}

	maxAttempts := max(d.policy.MaxAttempts, 1)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, utils.WrapErrorf(err, "anime_id %s", id)
		}
		attemptLog := dlLog.WithField("attempt", attempt)

		resp, err := d.attempt(ctx, target, attemptLog)

		var (
			lastErr     error
			wait        WaitRange
			beforeRetry func(*logrus.Entry, Response, time.Duration)
		)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, utils.WrapErrorf(ctxErr, "anime_id %s", id)
			}
			if errors.Is(err, utils.ErrRequestCreation) {
				return Result{}, utils.WrapErrorf(err, "anime_id %s", id)
			}
			attemptLog.WithField("error_type", utils.CategorizeError(err)).Warnf("Network error: %v", err)
			lastErr = utils.WrapErrorf(err, "anime_id %s", id)
			wait = d.policy.DefaultWait
		default:
			retryCase, retry := d.policy.Match(resp)
			if !retry {
				return d.classify(id, resp, attemptLog)
			}
			attemptLog.WithFields(logrus.Fields{"status_code": resp.Code, "retry_case": retryCase.Name}).Debug("Retryable response")
			lastErr = fmt.Errorf("anime_id %s: status %d", id, resp.Code)
			wait = retryCase.Wait
			beforeRetry = retryCase.BeforeRetry
		}

		if attempt >= maxAttempts {
			exhausted := fmt.Errorf("%w (%d attempts): %w", utils.ErrRetryExhausted, attempt, lastErr)
			attemptLog.WithField("error_type", utils.CategorizeError(exhausted)).Error("Giving up on download")
			return Result{}, exhausted
		}

		delay := wait.Random()
		if beforeRetry != nil {
			beforeRetry(attemptLog, resp, delay)
		}
		attemptLog.WithField("delay", delay).Warn("Retrying download...")
		if err := d.sleep(ctx, delay); err != nil {
			attemptLog.Warnf("Download abandoned during backoff: %v", err)
			return Result{}, fmt.Errorf("anime_id %s: abandoned during backoff after %v: %w", id, lastErr, err)
		}
	}
}

// attempt performs one GET of target with a user agent from the configured pool
func (d *Downloader) attempt(ctx context.Context, target *url.URL, log *logrus.Entry) (Response, error) {
	log.Debug("Requesting page")
	return throttledGet(ctx, d.client, d.rateLimiter, d.hostSems, target, pickUserAgent(d.userAgents))
}

// throttledGet waits out the host's politeness delay, then performs one GET of target.
// The host permit is held only for the request itself.
func throttledGet(ctx context.Context, client *http.Client, rl *RateLimiter, sems *HostSemaphorePool, target *url.URL, userAgent string) (Response, error) {
	host := target.Host
	if err := rl.ApplyDelay(ctx, host, 0); err != nil {
		return Response{}, err
	}
	if err := sems.Acquire(ctx, host); err != nil {
		return Response{}, err
	}
	defer sems.Release(host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	rl.UpdateLastRequestTime(host)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", utils.ErrResponseBodyRead, err)
	}
	return Response{Code: resp.StatusCode, Body: string(body)}, nil
}

// classify settles a response no retry case matched
func (d *Downloader) classify(id string, resp Response, log *logrus.Entry) (Result, error) {
	resLog := log.WithField("status_code", resp.Code)

	switch {
	case strings.TrimSpace(resp.Body) == "":
		resLog.Error("Response body was blank")
		return Result{}, fmt.Errorf("%w: anime_id %s: status %d", utils.ErrBlankResponseBody, id, resp.Code)

	case resp.Code == http.StatusOK:
		resLog.WithField("content_sha256", utils.CalculateStringSHA256(resp.Body)).Debug("Successfully downloaded")
		return Result{Content: resp.Body}, nil

	case resp.Code == http.StatusNotFound && strings.Contains(resp.Body, d.provider.DeadEntryMarker):
		resLog.Info("Entry confirmed dead")
		return Result{Dead: true}, nil

	case resp.Code == http.StatusNotFound:
		resLog.Error("Unrecognized 404 body")
		return Result{}, fmt.Errorf("%w: anime_id %s: status %d: %q", utils.ErrUnrecognizedDeadEntryBody, id, resp.Code, snippet(resp.Body))

	default:
		resLog.Error("Unhandled response code")
		return Result{}, fmt.Errorf("%w: anime_id %s: status %d: %q", utils.ErrUnhandledResponseCode, id, resp.Code, snippet(resp.Body))
	}
}

func snippet(body string) string {
	body = strings.TrimSpace(body)
	if len(body) <= bodySnippetLen {
		return body
	}
	return body[:bodySnippetLen] + "..."
}
