package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitfarm-bot/bitfarm/internal/adapters/ledger"
	"github.com/bitfarm-bot/bitfarm/internal/adapters/proxypool"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

func newRunCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run farming sessions for every account in the manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := app.newLogger()
			defer func() { _ = logger.Sync() }()

			accounts, err := app.repo.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				return errors.New("no accounts configured, add entries to " + app.settings.AccountsPath)
			}

			var pool ports.ProxyPool
			if app.settings.UseProxy {
				filePool, err := proxypool.NewFromFile(app.settings.ProxiesPath, app.settings.ProxyProbeURL, logger)
				if err != nil {
					return err
				}
				pool = filePool
			}

			voucherLedger, err := ledger.NewFile(app.settings.Vouchers.StorageFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting sessions", zap.Int("accounts", len(accounts)))

			var wg sync.WaitGroup
			for _, account := range accounts {
				sessionLogger := logger.With(zap.String("account", account.Name))
				session := app.buildSession(account, pool, voucherLedger, sessionLogger)

				wg.Add(1)
				go func() {
					defer wg.Done()
					err := session.Run(ctx)
					if err != nil && !errors.Is(err, context.Canceled) {
						sessionLogger.Error("session terminated", zap.Error(err))
					}
				}()
			}

			wg.Wait()
			logger.Info("all sessions stopped")
			return nil
		},
	}
}
