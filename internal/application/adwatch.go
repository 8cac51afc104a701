package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

// watchState is the ad-watch machine's position in the tracking
// sequence.
type watchState int

const (
	watchRequesting watchState = iota
	watchRendered
	watchShown
	watchRewarded
	watchFailed
)

func (s watchState) String() string {
	switch s {
	case watchRequesting:
		return "requesting"
	case watchRendered:
		return "rendered"
	case watchShown:
		return "shown"
	case watchRewarded:
		return "rewarded"
	default:
		return "failed"
	}
}

// Dwell bounds simulate human viewing between tracking pings.
var (
	renderDwell = [2]time.Duration{1 * time.Second, 2 * time.Second}
	showDwell   = [2]time.Duration{5 * time.Second, 7 * time.Second}
	viewDwell   = [2]time.Duration{15 * time.Second, 20 * time.Second}
)

// AdWatcher drives a single rewarded-video viewing cycle:
// Requesting → Rendered → Shown → Rewarded, with timed dwell periods
// between the tracking pings. Any transport error lands in Failed; a
// 401 is called out in the log because it signals a stale credential,
// but recovery belongs to the control loop, not this machine.
type AdWatcher struct {
	ads    ports.AdPlatform
	logger *zap.Logger

	// telegramID is set once the session profile is known.
	telegramID int64

	// dwell is swappable in tests to collapse the viewing delays.
	dwell func(ctx context.Context, min, max time.Duration) error
}

func NewAdWatcher(ads ports.AdPlatform, logger *zap.Logger) *AdWatcher {
	return &AdWatcher{
		ads:    ads,
		logger: logger,
		dwell:  sleepBetween,
	}
}

// SetViewer binds the machine to the session's numeric account
// identifier, used to key descriptor requests.
func (w *AdWatcher) SetViewer(telegramID int64) {
	w.telegramID = telegramID
}

// Watch runs one full viewing cycle. A nil return means the reward ping
// was delivered.
func (w *AdWatcher) Watch(ctx context.Context) error {
	if w.telegramID == 0 {
		return fmt.Errorf("ad watcher has no viewer bound: %w", domain.ErrInvalidSession)
	}

	var view domain.AdView
	state := watchRequesting

	for {
		switch state {
		case watchRequesting:
			fetched, err := w.ads.FetchAd(ctx, w.telegramID)
			if err != nil {
				return w.fail(state, err)
			}
			view = fetched
			w.logger.Info("starting to watch ad",
				zap.String("title", view.Title), zap.String("kind", view.Kind))

			if err := w.ads.Track(ctx, view.RenderURL); err != nil {
				return w.fail(state, err)
			}
			if err := w.dwell(ctx, renderDwell[0], renderDwell[1]); err != nil {
				return err
			}
			state = watchRendered

		case watchRendered:
			if err := w.ads.Track(ctx, view.ShowURL); err != nil {
				return w.fail(state, err)
			}
			if err := w.dwell(ctx, showDwell[0], showDwell[1]); err != nil {
				return err
			}
			if err := w.dwell(ctx, viewDwell[0], viewDwell[1]); err != nil {
				return err
			}
			state = watchShown

		case watchShown:
			if err := w.ads.Track(ctx, view.RewardURL); err != nil {
				return w.fail(state, err)
			}
			state = watchRewarded

		case watchRewarded:
			w.logger.Info("advertisement view completed")
			return nil
		}
	}
}

func (w *AdWatcher) fail(from watchState, err error) error {
	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized {
		w.logger.Warn("unauthorized while watching ad, credential is stale",
			zap.String("state", from.String()))
	} else {
		w.logger.Error("ad watch failed",
			zap.String("state", from.String()), zap.Error(err))
	}
	return fmt.Errorf("ad watch failed in state %s: %w", from, err)
}
