package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

// CredentialManager owns the bearer token lifecycle for one session:
// it exchanges the opaque web-session blob for a token when none exists
// or the current one has aged out, and performs the daily check-in
// whenever a fresh token lands.
type CredentialManager struct {
	backend ports.Backend
	source  ports.InitDataSource
	account domain.Account
	clock   ports.Clock
	logger  *zap.Logger

	issuedAt time.Time
	hasToken bool
	initData string
}

func NewCredentialManager(backend ports.Backend, source ports.InitDataSource, account domain.Account, clock ports.Clock, logger *zap.Logger) *CredentialManager {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &CredentialManager{
		backend: backend,
		source:  source,
		account: account,
		clock:   clock,
		logger:  logger,
	}
}

// EnsureFresh re-authenticates when the token is missing or older than
// maxAge. Returns whether a refresh happened. Authentication failures
// are session-fatal: they wrap domain.ErrInvalidSession.
func (m *CredentialManager) EnsureFresh(ctx context.Context, maxAge time.Duration) (bool, error) {
	if m.hasToken && m.clock.Now().Sub(m.issuedAt) < maxAge {
		return false, nil
	}

	initData, err := m.source.InitData(ctx, m.account)
	if err != nil {
		return false, fmt.Errorf("obtain web-session blob: %w", err)
	}
	if initData == "" {
		return false, fmt.Errorf("empty web-session blob: %w", domain.ErrInvalidSession)
	}

	token, err := m.backend.Authenticate(ctx, initData)
	if err != nil {
		return false, fmt.Errorf("exchange web-session blob: %w", err)
	}

	m.backend.SetToken(token)
	m.issuedAt = m.clock.Now()
	m.hasToken = true
	m.initData = initData
	m.logger.Info("authenticated")

	if _, err := m.DailyCheckIn(ctx); err != nil {
		// Check-in is a best-effort side effect of refresh.
		m.logger.Warn("daily check-in failed", zap.Error(err))
	}

	return true, nil
}

// InitData exposes the blob consumed by collaborators that sign their
// own requests with its fields.
func (m *CredentialManager) InitData() string {
	return m.initData
}

// DailyCheckIn performs the check-in when the server reports it
// available. Returns whether a check-in was performed.
func (m *CredentialManager) DailyCheckIn(ctx context.Context) (bool, error) {
	available, err := m.backend.CheckInAvailable(ctx)
	if err != nil {
		return false, err
	}
	if !available {
		return false, nil
	}
	if err := m.backend.CheckIn(ctx); err != nil {
		return false, err
	}
	m.logger.Info("daily check-in completed")
	return true, nil
}
