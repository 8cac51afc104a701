package application

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/bitfarm-bot/bitfarm/internal/config"
	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

const (
	proxyRetryDelay   = 300 * time.Second
	preSubmitDelayMin = 40 * time.Second
	preSubmitDelayMax = 60 * time.Second
	backoffMin        = 60 * time.Second
	backoffMax        = 120 * time.Second
	waitExtraMin      = 1 * time.Second
	waitExtraMax      = 30 * time.Second
	interTaskMin      = 2 * time.Second
	interTaskMax      = 5 * time.Second
)

// Session is the top-level perpetual driver for one account. It owns
// the loop state (profile snapshot, clan membership) and composes the
// credential manager, proxy guardian, catalog, executor, ad watcher,
// eligibility timer, voucher processor and mini-game. One Session runs
// on one goroutine; nothing here is safe for concurrent use.
type Session struct {
	account  domain.Account
	settings config.Settings

	backend  ports.Backend
	ads      ports.AdPlatform
	creds    *CredentialManager
	guardian *ProxyGuardian
	catalog  *Catalog
	executor *Executor
	watcher  *AdWatcher
	timer    *EligibilityTimer
	vouchers *VoucherProcessor
	minigame *MiniGame
	logger   *zap.Logger

	profile domain.Profile
	clanID  *int64
}

type SessionDeps struct {
	Backend  ports.Backend
	Ads      ports.AdPlatform
	Creds    *CredentialManager
	Guardian *ProxyGuardian
	Catalog  *Catalog
	Executor *Executor
	Watcher  *AdWatcher
	Timer    *EligibilityTimer
	Vouchers *VoucherProcessor
	MiniGame *MiniGame
	Logger   *zap.Logger
}

func NewSession(account domain.Account, settings config.Settings, deps SessionDeps) *Session {
	return &Session{
		account:  account,
		settings: settings,
		backend:  deps.Backend,
		ads:      deps.Ads,
		creds:    deps.Creds,
		guardian: deps.Guardian,
		catalog:  deps.Catalog,
		executor: deps.Executor,
		watcher:  deps.Watcher,
		timer:    deps.Timer,
		vouchers: deps.Vouchers,
		minigame: deps.MiniGame,
		logger:   deps.Logger,
	}
}

// Run is the perpetual control loop. It returns only on context
// cancellation or a session-fatal error; transient failures are logged
// and absorbed with a randomized backoff.
func (s *Session) Run(ctx context.Context) error {
	if s.settings.StartDelayMax > 0 {
		delay := time.Duration(rand.Int63n(int64(s.settings.StartDelayMax)))
		s.logger.Info("session will start after stagger delay", zap.Duration("delay", delay))
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := s.guardian.VerifyOrReplace(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("proxy verification failed", zap.Error(err))
		}
		if !ok {
			s.logger.Warn("no working proxy, sleeping before retry",
				zap.Duration("delay", proxyRetryDelay))
			if err := sleep(ctx, proxyRetryDelay); err != nil {
				return err
			}
			continue
		}

		if err := s.iterate(ctx); err != nil {
			if errors.Is(err, domain.ErrInvalidSession) {
				s.logger.Error("session is invalid, terminating", zap.Error(err))
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			backoff := jitter(backoffMin, backoffMax)
			s.logger.Error("iteration failed, backing off",
				zap.Error(err), zap.Duration("backoff", backoff))
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}
}

func (s *Session) iterate(ctx context.Context) error {
	refreshed, err := s.creds.EnsureFresh(ctx, s.settings.TokenLifetime)
	if err != nil {
		return err
	}

	if refreshed {
		profile, err := s.backend.Profile(ctx)
		if err != nil {
			return err
		}
		s.profile = profile
		s.clanID = profile.ClanID
		s.watcher.SetViewer(profile.TelegramID)
		s.ads.SetInitData(s.creds.InitData())
		s.logger.Info("logged in", zap.String("username", profile.Username))

		if err := s.ensureClan(ctx); err != nil {
			return err
		}
	}

	performed, err := s.creds.DailyCheckIn(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("daily check-in failed", zap.Error(err))
	}
	if performed {
		if err := sleepBetween(ctx, interTaskMin, interTaskMax); err != nil {
			return err
		}
	}

	if err := s.runTasks(ctx); err != nil {
		return err
	}
	if err := sleepBetween(ctx, interTaskMin, interTaskMax); err != nil {
		return err
	}

	eligible, wait, err := s.timer.Check(ctx)
	if err != nil {
		return err
	}

	if !eligible {
		if err := s.minigame.PlayWhileTickets(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("mini-game run failed", zap.Error(err))
		}

		s.vouchers.Process(ctx)

		s.logger.Info("waiting for next eligibility window", zap.Duration("wait", wait))
		return sleep(ctx, wait+jitter(waitExtraMin, waitExtraMax))
	}

	preSubmit := jitter(preSubmitDelayMin, preSubmitDelayMax)
	s.logger.Info("waiting before submitting results", zap.Duration("delay", preSubmit))
	if err := sleep(ctx, preSubmit); err != nil {
		return err
	}

	_, err = s.timer.Submit(ctx)
	return err
}

// runTasks discovers and executes all actionable tasks sequentially
// with a short randomized inter-task delay to resemble human cadence.
func (s *Session) runTasks(ctx context.Context) error {
	tasks := s.catalog.Discover(ctx)

	for _, task := range tasks {
		policy := s.settings.TaskPolicy(task.Kind)
		if !policy.Enabled {
			continue
		}

		s.logger.Info("processing task",
			zap.String("title", task.Title), zap.String("kind", string(task.Kind)))

		if err := sleepBetween(ctx, interTaskMin, interTaskMax); err != nil {
			return err
		}

		ok, err := s.executor.Execute(ctx, task)
		if err != nil {
			return err
		}
		if !ok {
			s.logger.Warn("task attempt failed", zap.String("title", task.Title))
			continue
		}

		if _, err := s.executor.AwaitCompletion(ctx, task); err != nil {
			return err
		}
	}

	return nil
}

// ensureClan re-establishes clan membership after re-authentication:
// join the configured clan when in none, leave and rejoin when in the
// wrong one, do nothing when already correct. All failures are soft.
func (s *Session) ensureClan(ctx context.Context) error {
	if s.settings.ClanName == "" {
		return nil
	}

	if s.clanID == nil {
		return s.searchAndJoin(ctx)
	}

	info, err := s.backend.ClanInfo(ctx, *s.clanID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error("clan info fetch failed", zap.Error(err))
		return nil
	}

	if info.Name == s.settings.ClanName {
		s.logger.Info("already in correct clan", zap.String("clan", info.Name))
		return nil
	}

	s.logger.Info("in wrong clan, rejoining",
		zap.String("current", info.Name), zap.String("wanted", s.settings.ClanName))

	if err := s.backend.LeaveClan(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error("clan leave failed", zap.Error(err))
		return nil
	}
	s.clanID = nil

	return s.searchAndJoin(ctx)
}

func (s *Session) searchAndJoin(ctx context.Context) error {
	clans, err := s.backend.SearchClans(ctx, s.settings.ClanName, 0, 0)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error("clan search failed", zap.Error(err))
		return nil
	}

	for _, clan := range clans {
		if clan.Name != s.settings.ClanName {
			continue
		}
		if err := s.backend.JoinClan(ctx, clan.ID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("clan join failed", zap.Error(err))
			return nil
		}
		id := clan.ID
		s.clanID = &id
		s.logger.Info("joined clan", zap.String("clan", clan.Name), zap.Int64("id", clan.ID))
		return nil
	}

	s.logger.Warn("clan not found", zap.String("clan", s.settings.ClanName))
	return nil
}
