package gateway

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Options configures how the gateway talks to GitHub.
type Options struct {
	// Token is optional; anonymous requests work against public data with a lower rate limit.
	Token string
	// BaseURL overrides the REST endpoint, e.g. for GitHub Enterprise.
	BaseURL string
	// GraphQLURL overrides the GraphQL endpoint.
	GraphQLURL string
	// DetailAPI selects how per-PR details are fetched: "rest" or "graphql".
	DetailAPI string
	// Timeout bounds every single HTTP request.
	Timeout time.Duration
	// SecondaryLimitWait is the longest the client may sleep on a secondary rate
	// limit. Zero surfaces the limit to the caller right away.
	SecondaryLimitWait time.Duration
}

// newHTTPClient builds the shared transport chain: secondary rate limit
// detection, then the optional static token.
func newHTTPClient(opts Options, logger *zap.Logger) (*http.Client, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil,
		github_ratelimit.WithSingleSleepLimit(opts.SecondaryLimitWait, func(*github_ratelimit.CallbackContext) {
			logger.Warn("secondary rate limit hit, not waiting for reset",
				zap.Duration("max_wait", opts.SecondaryLimitWait))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	return &http.Client{Transport: transport, Timeout: opts.Timeout}, nil
}
