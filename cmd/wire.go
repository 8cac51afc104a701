package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bitfarm-bot/bitfarm/internal/adapters/adsgram"
	"github.com/bitfarm-bot/bitfarm/internal/adapters/bitapp"
	"github.com/bitfarm-bot/bitfarm/internal/adapters/joiner"
	"github.com/bitfarm-bot/bitfarm/internal/adapters/manifest"
	statusrender "github.com/bitfarm-bot/bitfarm/internal/adapters/render/status"
	"github.com/bitfarm-bot/bitfarm/internal/application"
	"github.com/bitfarm-bot/bitfarm/internal/config"
	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/logging"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

// refIDWeight is the share of sessions that carry the configured
// referral id; the rest fall back to the built-in one.
const refIDWeight = 0.7

type app struct {
	settings       config.Settings
	repo           *manifest.Repository
	statusRenderer func([]application.Status, statusrender.RenderOptions) (string, error)
	now            func() time.Time

	debug bool
}

func wireApp() (*app, error) {
	settings, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	repo, err := manifest.NewRepository(settings.AccountsPath)
	if err != nil {
		return nil, fmt.Errorf("wire account repository: %w", err)
	}

	return &app{
		settings:       settings,
		repo:           repo,
		statusRenderer: statusrender.Render,
		now:            time.Now,
	}, nil
}

func (a *app) newLogger() *zap.Logger {
	return logging.New(a.debug || a.settings.Debug)
}

// newBackend binds a fresh API client to one account. The referral id
// is drawn once per client.
func (a *app) newBackend(account domain.Account) *bitapp.Client {
	return bitapp.New(a.settings.BaseURL, account, chooseRefID(a.settings))
}

// buildSession assembles the full per-account component graph. The
// proxy pool and voucher ledger are process-wide; everything else is
// owned by the session.
func (a *app) buildSession(account domain.Account, pool ports.ProxyPool, voucherLedger ports.VoucherLedger, logger *zap.Logger) *application.Session {
	settings := a.settings
	clock := ports.SystemClock{}

	backend := a.newBackend(account)
	ads := adsgram.New(settings.AdPlatformURL, settings.AdPlacementID, account.UserAgent, account.Proxy)
	source := &manifest.InitDataSource{Repo: a.repo}

	creds := application.NewCredentialManager(backend, source, account, clock, logger)
	guardian := application.NewProxyGuardian(pool, a.repo, account, settings.UseProxy && pool != nil, logger, backend, ads)
	catalog := application.NewCatalog(backend, logger)
	watcher := application.NewAdWatcher(ads, logger)
	executor := application.NewExecutor(backend, joiner.Unsupported{}, watcher, settings.TaskPolicy, logger)
	timer := application.NewEligibilityTimer(backend, clock, settings, logger)
	vouchers := application.NewVoucherProcessor(backend, voucherLedger, clock, settings.Vouchers, account.Name, logger)
	minigame := application.NewMiniGame(backend, clock, settings.MiniGame, settings.ActionDelay, logger)

	return application.NewSession(account, settings, application.SessionDeps{
		Backend:  backend,
		Ads:      ads,
		Creds:    creds,
		Guardian: guardian,
		Catalog:  catalog,
		Executor: executor,
		Watcher:  watcher,
		Timer:    timer,
		Vouchers: vouchers,
		MiniGame: minigame,
		Logger:   logger,
	})
}

func chooseRefID(settings config.Settings) string {
	if settings.RefID == "" {
		return settings.FallbackRefID
	}
	if rand.Float64() < refIDWeight {
		return settings.RefID
	}
	return settings.FallbackRefID
}
