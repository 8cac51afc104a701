package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	statusrender "github.com/bitfarm-bot/bitfarm/internal/adapters/render/status"
	"github.com/bitfarm-bot/bitfarm/internal/application"
)

func newStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show balance, tickets and clan for every account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := app.repo.List(cmd.Context())
			if err != nil {
				return err
			}

			statuses := make([]application.Status, len(accounts))
			fetch := func(ctx context.Context) error {
				var wg sync.WaitGroup
				for i, account := range accounts {
					wg.Add(1)
					go func() {
						defer wg.Done()
						statuses[i] = application.CollectStatus(ctx, app.newBackend(account), account)
					}()
				}
				wg.Wait()
				return nil
			}

			if err := runStatusFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), fetch); err != nil {
				return err
			}

			rendered, err := app.statusRenderer(statuses, statusrender.RenderOptions{Now: app.now()})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}
}
