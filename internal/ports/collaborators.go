package ports

import (
	"context"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
)

// InitDataSource produces the opaque signed web-session blob for an
// account. How the blob is obtained (host messaging client, manifest,
// ...) is outside the core's concern.
type InitDataSource interface {
	InitData(ctx context.Context, account domain.Account) (string, error)
}

// ChannelJoiner performs the external subscription-join flow for
// subscription tasks. Implementations that cannot join return
// domain.ErrJoinUnsupported.
type ChannelJoiner interface {
	Join(ctx context.Context, task domain.Task) (bool, error)
}

// VoucherLedger is the append-only record of created vouchers.
type VoucherLedger interface {
	Append(ctx context.Context, voucher domain.Voucher) error
	List(ctx context.Context) ([]domain.Voucher, error)
}
