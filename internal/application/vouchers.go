package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bitfarm-bot/bitfarm/internal/config"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

// VoucherProcessor turns a share of the account balance into a
// transferable voucher and records it in the append-only ledger.
type VoucherProcessor struct {
	backend  ports.Backend
	ledger   ports.VoucherLedger
	clock    ports.Clock
	settings config.VoucherSettings
	session  string
	logger   *zap.Logger
}

func NewVoucherProcessor(backend ports.Backend, ledger ports.VoucherLedger, clock ports.Clock, settings config.VoucherSettings, session string, logger *zap.Logger) *VoucherProcessor {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &VoucherProcessor{
		backend:  backend,
		ledger:   ledger,
		clock:    clock,
		settings: settings,
		session:  session,
		logger:   logger,
	}
}

// Process is best-effort: every failure is logged and absorbed, never
// propagated, so voucher bookkeeping cannot take down the session.
func (p *VoucherProcessor) Process(ctx context.Context) {
	if !p.settings.Enabled {
		return
	}

	profile, err := p.backend.Profile(ctx)
	if err != nil {
		p.logger.Error("balance fetch for voucher failed", zap.Error(err))
		return
	}

	if profile.Balance < p.settings.MinBalance {
		p.logger.Info("not enough balance for voucher",
			zap.Int64("balance", profile.Balance), zap.Int64("required", p.settings.MinBalance))
		return
	}

	amount := int64(float64(profile.Balance) * p.settings.Percent / 100)
	if amount <= 0 {
		p.logger.Warn("calculated voucher amount is too small", zap.Int64("amount", amount))
		return
	}

	voucher, err := p.backend.CreateVoucher(ctx, amount)
	if err != nil {
		p.logger.Error("voucher creation failed", zap.Error(err))
		return
	}
	p.logger.Info("created voucher", zap.Int64("amount", amount))

	if voucher.ID == "" {
		voucher.ID = uuid.NewString()
	}
	voucher.CreatedAt = p.clock.Now()
	voucher.CreatedBy = p.session
	voucher.TargetSession = p.settings.TargetSession

	if err := p.ledger.Append(ctx, voucher); err != nil {
		p.logger.Error("voucher ledger append failed", zap.Error(err))
		return
	}

	if p.settings.TargetSession != "" {
		p.logger.Info("voucher ready for transfer",
			zap.String("target", p.settings.TargetSession))
	}
}
