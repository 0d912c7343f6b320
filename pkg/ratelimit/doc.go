// Package ratelimit throttles outbound requests to the osu! website.
//
// TokenBucket wraps golang.org/x/time/rate. NewTokenBucket(60, time.Minute)
// admits a burst of 60 requests and then one request per second. Every
// HTTP call made by the osu client waits on the limiter first, so the
// login, search and download requests share a single budget.
//
//	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
