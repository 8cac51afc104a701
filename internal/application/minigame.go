package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bitfarm-bot/bitfarm/internal/config"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

// MiniGame plays the bounded jump game while tickets remain: each round
// dwells for a simulated play duration, then submits a randomized score
// stamped with the real start and end times.
type MiniGame struct {
	backend  ports.Backend
	clock    ports.Clock
	settings config.MiniGameSettings
	pacing   config.DurationRange
	logger   *zap.Logger

	// dwell is swappable in tests to collapse the play duration.
	dwell func(ctx context.Context, min, max time.Duration) error
}

func NewMiniGame(backend ports.Backend, clock ports.Clock, settings config.MiniGameSettings, pacing config.DurationRange, logger *zap.Logger) *MiniGame {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &MiniGame{
		backend:  backend,
		clock:    clock,
		settings: settings,
		pacing:   pacing,
		logger:   logger,
	}
}

// PlayWhileTickets consumes every available ticket. Submission failures
// stop the run for this window; the next eligibility wait will retry.
func (g *MiniGame) PlayWhileTickets(ctx context.Context) error {
	if !g.settings.Enabled {
		return nil
	}

	tickets, err := g.tickets(ctx)
	if err != nil {
		return err
	}
	if tickets <= 0 {
		return nil
	}
	g.logger.Info("found mini-game tickets", zap.Int("tickets", tickets))

	for tickets > 0 {
		if err := g.playOnce(ctx); err != nil {
			return err
		}
		if err := sleepBetween(ctx, g.pacing.Min, g.pacing.Max); err != nil {
			return err
		}
		tickets, err = g.tickets(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

func (g *MiniGame) playOnce(ctx context.Context) error {
	startAt := g.clock.Now()
	if err := g.dwellOrDefault(ctx); err != nil {
		return err
	}
	endAt := g.clock.Now()

	score := randomBetween(g.settings.Score.Min, g.settings.Score.Max)
	reward, err := g.backend.SubmitMiniGame(ctx, score, startAt, endAt)
	if err != nil {
		g.logger.Error("mini-game submit failed", zap.Error(err))
		return err
	}

	if reward > 0 {
		g.logger.Info("mini-game completed",
			zap.Int("score", score),
			zap.Duration("duration", endAt.Sub(startAt)),
			zap.Int64("reward", reward))
	} else {
		g.logger.Warn("mini-game completed but received no reward")
	}
	return nil
}

func (g *MiniGame) dwellOrDefault(ctx context.Context) error {
	if g.dwell != nil {
		return g.dwell(ctx, g.settings.Duration.Min, g.settings.Duration.Max)
	}
	return sleepBetween(ctx, g.settings.Duration.Min, g.settings.Duration.Max)
}

func (g *MiniGame) tickets(ctx context.Context) (int, error) {
	profile, err := g.backend.Profile(ctx)
	if err != nil {
		return 0, err
	}
	return profile.Tickets, nil
}
