package ports

import "context"

// ProxyPool supplies egress proxies. Check is a liveness probe; Next
// returns a replacement distinct from current, or
// domain.ErrNoWorkingProxy when the pool is exhausted.
type ProxyPool interface {
	Check(ctx context.Context, proxyURL string) bool
	Next(ctx context.Context, current string) (string, error)
}
