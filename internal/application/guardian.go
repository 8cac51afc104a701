package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

// ProxyGuardian keeps the session's egress proxy alive. Before each
// loop iteration it probes the current proxy and, on failure, swaps in
// a replacement from the pool, rebinding both API transports. The new
// assignment is persisted to the manifest so restarts keep it.
type ProxyGuardian struct {
	pool    ports.ProxyPool
	repo    ports.AccountRepository
	rebinds []interface{ Rebind(proxyURL string) error }
	logger  *zap.Logger

	enabled bool
	account domain.Account
	current string
}

func NewProxyGuardian(pool ports.ProxyPool, repo ports.AccountRepository, account domain.Account, enabled bool, logger *zap.Logger, rebinds ...interface{ Rebind(proxyURL string) error }) *ProxyGuardian {
	return &ProxyGuardian{
		pool:    pool,
		repo:    repo,
		rebinds: rebinds,
		logger:  logger,
		enabled: enabled,
		account: account,
		current: account.Proxy,
	}
}

// VerifyOrReplace returns true when the session may proceed: proxying
// is disabled, the current proxy is healthy, or a replacement was
// installed. False means the pool is exhausted; the control loop backs
// off and retries the whole iteration.
func (g *ProxyGuardian) VerifyOrReplace(ctx context.Context) (bool, error) {
	if !g.enabled {
		return true, nil
	}

	if g.current != "" && g.pool.Check(ctx, g.current) {
		return true, nil
	}

	replacement, err := g.pool.Next(ctx, g.current)
	if err != nil {
		if errors.Is(err, domain.ErrNoWorkingProxy) {
			return false, nil
		}
		return false, err
	}

	for _, transport := range g.rebinds {
		if err := transport.Rebind(replacement); err != nil {
			return false, err
		}
	}
	g.current = replacement
	g.logger.Info("switched to new proxy", zap.String("proxy", replacement))

	g.account.Proxy = replacement
	if err := g.repo.Save(ctx, g.account); err != nil {
		g.logger.Warn("persist proxy assignment failed", zap.Error(err))
	}

	return true, nil
}

// Current reports the active proxy endpoint.
func (g *ProxyGuardian) Current() string {
	return g.current
}
