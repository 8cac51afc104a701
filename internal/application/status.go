package application

import (
	"context"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

// Status is a one-shot snapshot of an account for terminal rendering.
// Err carries the first failure so the renderer can show partial rows
// instead of aborting the whole listing.
type Status struct {
	Account domain.Account
	Profile domain.Profile
	Clan    *domain.Clan
	Err     error
}

// CollectStatus authenticates the account and fetches its profile and
// clan. It never returns an error; failures are embedded in the Status.
func CollectStatus(ctx context.Context, backend ports.Backend, account domain.Account) Status {
	status := Status{Account: account}

	token, err := backend.Authenticate(ctx, account.InitData)
	if err != nil {
		status.Err = err
		return status
	}
	backend.SetToken(token)

	profile, err := backend.Profile(ctx)
	if err != nil {
		status.Err = err
		return status
	}
	status.Profile = profile

	if profile.ClanID != nil {
		clan, err := backend.ClanInfo(ctx, *profile.ClanID)
		if err == nil {
			status.Clan = &clan
		}
	}

	return status
}
