package ports

import (
	"context"
	"time"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
)

// Backend is the rewards API contract. One implementation instance is
// bound to one account's transport and bearer token; sessions never
// share a Backend.
type Backend interface {
	// Authenticate exchanges the opaque web-session blob for a bearer
	// token. The token is not retained; callers pass it to SetToken.
	Authenticate(ctx context.Context, initData string) (string, error)
	// SetToken installs the bearer token used by all authenticated calls.
	SetToken(token string)
	// Rebind tears down the current transport and builds a new one bound
	// to proxyURL. An empty proxyURL binds a direct transport.
	Rebind(proxyURL string) error

	Profile(ctx context.Context) (domain.Profile, error)

	SearchClans(ctx context.Context, query string, limit, offset int) ([]domain.Clan, error)
	ClanInfo(ctx context.Context, id int64) (domain.Clan, error)
	JoinClan(ctx context.Context, id int64) error
	LeaveClan(ctx context.Context) error

	// Speedtest returns the server-declared next-available timestamp for
	// the timed activity; nil means the activity is eligible now.
	Speedtest(ctx context.Context) (*time.Time, error)
	SubmitSpeedtest(ctx context.Context, download, upload int) (int64, error)

	Tasks(ctx context.Context) ([]domain.Task, error)
	Task(ctx context.Context, id int64) (domain.Task, error)
	ProcessTask(ctx context.Context, id int64) error

	ReferralCount(ctx context.Context) (int, error)

	CheckInAvailable(ctx context.Context) (bool, error)
	CheckIn(ctx context.Context) error

	CreateVoucher(ctx context.Context, amount int64) (domain.Voucher, error)

	SubmitMiniGame(ctx context.Context, score int, startAt, endAt time.Time) (int64, error)
}
