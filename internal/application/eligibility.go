package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bitfarm-bot/bitfarm/internal/config"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

// EligibilityTimer tracks the server-declared window for the timed
// activity and turns it into a jittered local wait.
type EligibilityTimer struct {
	backend ports.Backend
	clock   ports.Clock
	jitter  config.DurationRange
	speed   struct {
		download config.Range
		upload   config.Range
	}
	logger *zap.Logger

	next *time.Time
}

func NewEligibilityTimer(backend ports.Backend, clock ports.Clock, settings config.Settings, logger *zap.Logger) *EligibilityTimer {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	t := &EligibilityTimer{
		backend: backend,
		clock:   clock,
		jitter:  settings.SessionJitter,
		logger:  logger,
	}
	t.speed.download = settings.DownloadSpeed
	t.speed.upload = settings.UploadSpeed
	return t
}

// Check fetches eligibility. When a future window is present it returns
// eligible=false and the wait to apply: (nextAvailable - now) + jitter.
// An eligible result clears any stored window. Fetch failures are
// session-fatal (the adapter wraps ErrInvalidSession).
func (t *EligibilityTimer) Check(ctx context.Context) (bool, time.Duration, error) {
	next, err := t.backend.Speedtest(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("eligibility check: %w", err)
	}

	now := t.clock.Now()
	if next != nil && next.After(now) {
		t.next = next
		wait := next.Sub(now) + jitter(t.jitter.Min, t.jitter.Max)
		t.logger.Info("timed activity not available",
			zap.Duration("wait", wait), zap.Time("next", *next))
		return false, wait, nil
	}

	t.next = nil
	t.logger.Info("timed activity is available")
	return true, 0, nil
}

// Window reports the stored next-available timestamp, if any.
func (t *EligibilityTimer) Window() *time.Time {
	return t.next
}

// Submit posts a randomized-but-bounded pair of performance metrics and
// returns the awarded amount. Only called when eligible.
func (t *EligibilityTimer) Submit(ctx context.Context) (int64, error) {
	download := randomBetween(t.speed.download.Min, t.speed.download.Max)
	upload := randomBetween(t.speed.upload.Min, t.speed.upload.Max)

	amount, err := t.backend.SubmitSpeedtest(ctx, download, upload)
	if err != nil {
		return 0, fmt.Errorf("submit timed activity: %w", err)
	}

	t.logger.Info("timed activity completed",
		zap.Int("download", download), zap.Int("upload", upload), zap.Int64("reward", amount))
	return amount, nil
}
