package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func robotsServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	fetches := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fetches.Add(1)
			w.WriteHeader(status)
			_, _ = io.WriteString(w, body)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	t.Cleanup(server.Close)
	return server, fetches
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func newTestRobotsChecker(client *http.Client) *RobotsChecker {
	log := testLogger()
	return NewRobotsChecker(client, RandomMobileUserAgent(), NewRateLimiter(0, log), NewHostSemaphorePool(2, log), log)
}

func TestRobotsChecker_Rules(t *testing.T) {
	server, fetches := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /anime/\nAllow: /\n")
	rc := newTestRobotsChecker(server.Client())

	assert.False(t, rc.Allowed(context.Background(), mustParse(t, server.URL+"/anime/1535")))
	assert.True(t, rc.Allowed(context.Background(), mustParse(t, server.URL+"/manga/21")))
	assert.Equal(t, int32(1), fetches.Load(), "robots.txt is cached per host")
}

func TestRobotsChecker_MissingRobotsAllowsAll(t *testing.T) {
	server, _ := robotsServer(t, http.StatusNotFound, "")
	rc := newTestRobotsChecker(server.Client())

	assert.True(t, rc.Allowed(context.Background(), mustParse(t, server.URL+"/anime/1535")))
}

func TestRobotsChecker_UnreachableHostAllowsAll(t *testing.T) {
	server, _ := robotsServer(t, http.StatusOK, "")
	target := mustParse(t, server.URL+"/anime/1535")
	client := server.Client()
	server.Close()

	rc := newTestRobotsChecker(client)
	assert.True(t, rc.Allowed(context.Background(), target))
}

func TestRobotsChecker_ServerErrorAllowsAndIsNotCached(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetches.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, "maintenance")
			return
		}
		_, _ = io.WriteString(w, "User-agent: *\nDisallow: /anime/\n")
	}))
	t.Cleanup(server.Close)
	rc := newTestRobotsChecker(server.Client())
	target := mustParse(t, server.URL+"/anime/1535")

	assert.True(t, rc.Allowed(context.Background(), target), "5xx is treated as allow")
	assert.False(t, rc.Allowed(context.Background(), target), "rules are fetched again after a 5xx")
	assert.False(t, rc.Allowed(context.Background(), target))
	assert.Equal(t, int32(2), fetches.Load(), "the 2xx answer is cached")
}

func TestRobotsChecker_UsesRateLimiter(t *testing.T) {
	server, _ := robotsServer(t, http.StatusOK, "User-agent: *\nAllow: /\n")
	log := testLogger()
	rl := NewRateLimiter(0, log)
	rc := NewRobotsChecker(server.Client(), RandomMobileUserAgent(), rl, NewHostSemaphorePool(1, log), log)
	target := mustParse(t, server.URL+"/anime/1535")

	assert.True(t, rc.Allowed(context.Background(), target))

	rl.hostLastRequestMu.Lock()
	_, recorded := rl.hostLastRequest[target.Host]
	rl.hostLastRequestMu.Unlock()
	assert.True(t, recorded, "robots.txt request is recorded by the rate limiter")
}
