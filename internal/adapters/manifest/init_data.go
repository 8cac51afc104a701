package manifest

import (
	"context"
	"fmt"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

// InitDataSource serves the web-session blob straight from the
// manifest entry. Re-reads the repository on every call so a refreshed
// blob is picked up without restarting the process.
type InitDataSource struct {
	Repo ports.AccountRepository
}

var _ ports.InitDataSource = (*InitDataSource)(nil)

func (s *InitDataSource) InitData(ctx context.Context, account domain.Account) (string, error) {
	current, err := s.Repo.GetByID(ctx, account.ID)
	if err != nil {
		return "", fmt.Errorf("load account %s: %w", account.ID, err)
	}
	if current.InitData == "" {
		return "", fmt.Errorf("account %s has no init data: %w", account.ID, domain.ErrInvalidSession)
	}
	return current.InitData, nil
}
