// Package ratelimit paces requests to the likes API.
//
// The TokenBucket hands out a fixed number of tokens per refill period.
// Callers block in Wait until a token is free or their context ends:
//
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//
// Unlimited satisfies the same interface and never blocks.
package ratelimit
