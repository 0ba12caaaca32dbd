package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/algobasket/hissabbook-api-system/pkg/cache"
	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

// Limiter throttles OTP issuance per identity. Consecutive sends sit
// behind a cooldown and a rolling-window cap; overflowing the cap blocks
// the identity for a while.
type Limiter struct {
	cache       *cache.Cache
	window      time.Duration
	maxInWindow int
	cooldown    time.Duration
	block       time.Duration
}

func NewLimiter(c *cache.Cache, window time.Duration, max int, cooldown, block time.Duration) *Limiter {
	return &Limiter{cache: c, window: window, maxInWindow: max, cooldown: cooldown, block: block}
}

func (l *Limiter) CanRequest(ctx context.Context, identity string) error {
	blockKey := fmt.Sprintf("otp:block:%s", identity)
	lastKey := fmt.Sprintf("otp:last:%s", identity)
	countKey := fmt.Sprintf("otp:count:%s", identity)

	// Blocked from a previous overflow?
	if ttl, _ := l.cache.GetTTL(ctx, "otp_rate", blockKey); ttl > 0 {
		return fmt.Errorf("%w; try again after %d seconds", xerrors.ErrOTPBlocked, int(ttl.Seconds()))
	}

	// Cooldown since the last send?
	if ttl, _ := l.cache.GetTTL(ctx, "otp_rate", lastKey); ttl > 0 {
		return fmt.Errorf("%w; wait %d seconds before requesting another code", xerrors.ErrTooManyOTPRequests, int(ttl.Seconds()))
	}

	cnt, err := l.cache.IncrWithExpire(ctx, "otp_rate", countKey, l.window)
	if err != nil {
		return err
	}

	if int(cnt) > l.maxInWindow {
		_ = l.cache.Set(ctx, "otp_rate", blockKey, "1", l.block)
		return fmt.Errorf("%w; try again after %d seconds", xerrors.ErrOTPBlocked, int(l.block.Seconds()))
	}

	_ = l.cache.Set(ctx, "otp_rate", lastKey, "1", l.cooldown)

	return nil
}
