package fetch

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsChecker fetches, caches and evaluates robots.txt per host.
// A host whose robots.txt cannot be fetched or parsed is treated as allowing everything.
// Only definitive answers are cached: server errors and network failures are retried on the next check.
type RobotsChecker struct {
	client      *http.Client
	userAgent   string
	rateLimiter *RateLimiter
	hostSems    *HostSemaphorePool
	cache       map[string]*robotstxt.RobotsData // hostname -> parsed data (or nil)
	cacheMu     sync.Mutex
	log         *logrus.Entry
}

// NewRobotsChecker creates a RobotsChecker testing rules for userAgent.
// robots.txt requests go through rl and sems like any page request.
func NewRobotsChecker(client *http.Client, userAgent string, rl *RateLimiter, sems *HostSemaphorePool, log *logrus.Entry) *RobotsChecker {
	return &RobotsChecker{
		client:      client,
		userAgent:   userAgent,
		rateLimiter: rl,
		hostSems:    sems,
		cache:       make(map[string]*robotstxt.RobotsData),
		log:         log.WithField("component", "robots"),
	}
}

// Allowed reports whether target may be fetched
func (rc *RobotsChecker) Allowed(ctx context.Context, target *url.URL) bool {
	data := rc.robotsData(ctx, target)
	if data == nil {
		return true
	}
	return data.TestAgent(target.RequestURI(), rc.userAgent)
}

// robotsData returns the cached rules for target's host, fetching them until a definitive answer arrives.
// Concurrent first calls for one host may both fetch; the last result wins.
func (rc *RobotsChecker) robotsData(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	host := target.Host
	rc.cacheMu.Lock()
	data, found := rc.cache[host]
	rc.cacheMu.Unlock()
	if found {
		return data
	}

	data, definitive := rc.fetch(ctx, target)
	if !definitive || ctx.Err() != nil {
		return data
	}
	rc.cacheMu.Lock()
	rc.cache[host] = data
	rc.cacheMu.Unlock()
	return data
}

// fetch retrieves and parses robots.txt. definitive is false when the answer says nothing about the
// host's rules (server error, network failure) and should not be cached.
func (rc *RobotsChecker) fetch(ctx context.Context, target *url.URL) (data *robotstxt.RobotsData, definitive bool) {
	robotsURL := &url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/robots.txt"}
	robotsLog := rc.log.WithField("robots_url", robotsURL.String())

	resp, err := throttledGet(ctx, rc.client, rc.rateLimiter, rc.hostSems, robotsURL, rc.userAgent)
	if err != nil {
		robotsLog.Warnf("Fetching robots.txt failed: %v", err)
		return nil, false
	}
	statusLog := robotsLog.WithField("status_code", resp.Code)

	switch {
	case resp.Code >= 500:
		statusLog.Warn("robots.txt unavailable, allowing for now")
		return nil, false
	case resp.Code < 200 || resp.Code >= 300:
		statusLog.Debug("No robots.txt, allowing everything")
		return nil, true
	}

	data, err = robotstxt.FromBytes([]byte(resp.Body))
	if err != nil {
		statusLog.Warnf("Error parsing robots.txt: %v", err)
		return nil, true
	}
	statusLog.Debug("Fetched robots.txt")
	return data, true
}
