// Package gateway is the single path from the dashboard to the Sportmonks API.
//
// Every request runs the same pipeline: credential check, cache lookup, quota
// admission, one upstream dispatch, then quota accounting and cache fill. Outcomes
// are returned as errors and also published as notices.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/XavierBriggs/Iris/internal/cache"
	"github.com/XavierBriggs/Iris/internal/credential"
	"github.com/XavierBriggs/Iris/internal/logger"
	"github.com/XavierBriggs/Iris/internal/ratelimit"
	"github.com/XavierBriggs/Iris/pkg/contracts"
	"github.com/XavierBriggs/Iris/pkg/models"
)

// Gateway orchestrates credential, cache, quota and transport
type Gateway struct {
	adapter  contracts.VendorAdapter
	limiter  *ratelimit.Limiter
	cache    *cache.Cache
	creds    *credential.Holder
	notifier contracts.Notifier
	log      *logger.Entry

	// collapses concurrent misses on the same signature into one dispatch
	flight singleflight.Group
}

// New creates a gateway. A nil notifier discards notices.
func New(
	adapter contracts.VendorAdapter,
	limiter *ratelimit.Limiter,
	cache *cache.Cache,
	creds *credential.Holder,
	notifier contracts.Notifier,
) *Gateway {
	if notifier == nil {
		notifier = contracts.NotifierFunc(func(models.Notice) {})
	}
	return &Gateway{
		adapter:  adapter,
		limiter:  limiter,
		cache:    cache,
		creds:    creds,
		notifier: notifier,
		log:      logger.Component("gateway"),
	}
}

// Request returns the payload for (endpoint, params), from cache when fresh and
// from the network otherwise. Quota is consumed only by a successful dispatch.
func (g *Gateway) Request(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	token := g.creds.Get()
	if token == "" {
		g.notifier.Notify(models.Notice{
			Level:   models.NoticeDestructive,
			Title:   "API key missing",
			Message: "Please provide your Sportmonks API key.",
		})
		return nil, ErrMissingCredential
	}

	if !g.adapter.SupportsEndpoint(endpoint) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEndpoint, endpoint)
	}

	sig := cache.Signature(endpoint, params)
	if payload, ok := g.cache.Get(sig); ok {
		g.log.WithFields(logger.Fields{"signature": sig}).Debug("cache hit")
		return payload, nil
	}

	// the flight serves every caller on sig; it is bounded by the adapter timeout, not by ctx
	flightCtx := context.WithoutCancel(ctx)
	results := g.flight.DoChan(sig, func() (interface{}, error) {
		return g.dispatch(flightCtx, sig, endpoint, params, token)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Shared {
			g.log.WithFields(logger.Fields{"signature": sig}).Debug("joined in-flight request")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (g *Gateway) dispatch(ctx context.Context, sig, endpoint string, params map[string]string, token string) ([]byte, error) {
	// a call that finished while this one waited on the flight group
	if payload, ok := g.cache.Get(sig); ok {
		return payload, nil
	}

	if !g.limiter.Admit(ctx) {
		g.notifier.Notify(models.Notice{
			Level:   models.NoticeDestructive,
			Title:   "Rate limit reached",
			Message: fmt.Sprintf("At most %d requests per hour are allowed. Please wait.", g.limiter.Limit()),
		})
		g.log.WithFields(logger.Fields{
			"endpoint":      endpoint,
			"reset_minutes": g.limiter.MinutesUntilReset(),
		}).Warn("request denied by quota")
		return nil, ErrQuotaExceeded
	}

	body, err := g.adapter.Get(ctx, endpoint, params, token)
	if err == nil && !json.Valid(body) {
		err = errors.New("response body is not valid JSON")
	}
	if err != nil {
		upstream := newUpstreamError(err)
		g.notifier.Notify(models.Notice{
			Level:   models.NoticeDestructive,
			Title:   "API error",
			Message: upstream.Error(),
		})
		g.log.WithFields(logger.Fields{"endpoint": endpoint, "status": upstream.StatusCode}).
			WithError(err).Warn("upstream request failed")
		return nil, upstream
	}

	g.limiter.RecordHit(ctx)
	g.cache.Put(ctx, sig, body)

	g.log.WithFields(logger.Fields{
		"endpoint":  endpoint,
		"bytes":     len(body),
		"remaining": g.limiter.Remaining(),
	}).Info("fetched from upstream")
	return body, nil
}

// Fixtures requests an endpoint and decodes its fixtures
func (g *Gateway) Fixtures(ctx context.Context, endpoint string, params map[string]string) ([]models.Fixture, error) {
	payload, err := g.Request(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	fixtures, err := g.adapter.DecodeFixtures(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return fixtures, nil
}

// Leagues requests an endpoint and decodes its leagues
func (g *Gateway) Leagues(ctx context.Context, endpoint string, params map[string]string) ([]models.League, error) {
	payload, err := g.Request(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	leagues, err := g.adapter.DecodeLeagues(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return leagues, nil
}

// RemainingQuota returns the requests left in the current window
func (g *Gateway) RemainingQuota() int {
	return g.limiter.Remaining()
}

// MinutesUntilReset returns whole minutes until the window resets, rounded up
func (g *Gateway) MinutesUntilReset() int {
	return g.limiter.MinutesUntilReset()
}

// AdmitCheck reports whether a network call would be admitted right now
func (g *Gateway) AdmitCheck(ctx context.Context) bool {
	return g.limiter.Admit(ctx)
}

// RolloverQuota resets an elapsed quota window without evaluating admission
func (g *Gateway) RolloverQuota(ctx context.Context) bool {
	return g.limiter.Rollover(ctx)
}

// Quota returns the current quota figures
func (g *Gateway) Quota() models.RateLimits {
	return g.limiter.Snapshot()
}

// Credential returns the current token, or "" when none is set
func (g *Gateway) Credential() string {
	return g.creds.Get()
}

// HasCredential reports whether a token is set
func (g *Gateway) HasCredential() bool {
	return g.creds.IsSet()
}

// SetCredential replaces and persists the token. An empty token is ignored.
func (g *Gateway) SetCredential(ctx context.Context, token string) error {
	if err := g.creds.Set(ctx, token); err != nil {
		if errors.Is(err, credential.ErrEmpty) {
			g.log.Debug("ignored empty credential")
			return nil
		}
		return err
	}
	g.log.Info("credential updated")
	return nil
}

// ClearCredential removes the stored token
func (g *Gateway) ClearCredential(ctx context.Context) error {
	return g.creds.Clear(ctx)
}

// MaskedCredential renders the token for display
func (g *Gateway) MaskedCredential() string {
	return g.creds.Masked()
}
