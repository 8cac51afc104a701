package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

const (
	defaultAdViews   = 10
	interAdViewDelay = 3 * time.Second
)

// Executor completes one task at a time, dispatching on the task kind.
// Completion is advisory until the server confirms it; AwaitCompletion
// polls within the kind's policy budget.
type Executor struct {
	backend  ports.Backend
	joiner   ports.ChannelJoiner
	watcher  *AdWatcher
	policyOf func(domain.TaskKind) domain.TaskPolicy
	logger   *zap.Logger
}

func NewExecutor(backend ports.Backend, joiner ports.ChannelJoiner, watcher *AdWatcher, policyOf func(domain.TaskKind) domain.TaskPolicy, logger *zap.Logger) *Executor {
	return &Executor{
		backend:  backend,
		joiner:   joiner,
		watcher:  watcher,
		policyOf: policyOf,
		logger:   logger,
	}
}

// Execute runs one completion attempt for the task. A true result means
// the task was confirmed complete or submitted for processing; false
// means the attempt failed or the kind is disabled. Only context
// cancellation propagates as an error.
func (e *Executor) Execute(ctx context.Context, task domain.Task) (bool, error) {
	policy := e.policyOf(task.Kind)
	if !policy.Enabled {
		e.logger.Debug("task kind disabled", zap.String("kind", string(task.Kind)))
		return false, nil
	}

	detail, err := e.backend.Task(ctx, task.ID)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		e.logger.Error("task detail fetch failed", zap.Int64("task", task.ID), zap.Error(err))
		return false, nil
	}
	if detail.Completed {
		e.logger.Info("task already completed", zap.String("title", detail.Title))
		return true, nil
	}

	switch detail.Kind {
	case domain.TaskSubscription:
		ok, err := e.joinChannel(ctx, detail, policy)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	case domain.TaskReferrals:
		ok, err := e.referralThresholdMet(ctx, detail)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	case domain.TaskRewardedAd:
		return e.watchAds(ctx, detail)
	}

	return e.processGeneric(ctx, detail)
}

// joinChannel delegates to the external join collaborator, retrying
// within the policy budget. Collaborator errors are absorbed into the
// next attempt.
func (e *Executor) joinChannel(ctx context.Context, task domain.Task, policy domain.TaskPolicy) (bool, error) {
	ok, err := retryWithBudget(ctx, policy.Attempts, policy.Delay, func(ctx context.Context) (bool, error) {
		joined, err := e.joiner.Join(ctx, task)
		if err != nil {
			e.logger.Error("subscription join attempt failed", zap.Error(err))
			return false, err
		}
		return joined, nil
	})
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if !ok {
		e.logger.Warn("subscription task failed after all attempts",
			zap.Int("attempts", policy.Attempts), zap.Error(err))
		return false, nil
	}
	e.logger.Info("subscription task completed", zap.String("title", task.Title))
	return true, nil
}

// referralThresholdMet succeeds iff the current referral count reaches
// the task's embedded requirement. No state change is attempted;
// completion is presumed server-side once eligible.
func (e *Executor) referralThresholdMet(ctx context.Context, task domain.Task) (bool, error) {
	if task.ReferralsRequired <= 0 {
		e.logger.Warn("referral task missing required count", zap.String("title", task.Title))
		return false, nil
	}

	current, err := e.backend.ReferralCount(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		e.logger.Error("referral count fetch failed", zap.Error(err))
		return false, nil
	}

	if current < task.ReferralsRequired {
		e.logger.Info("not enough referrals",
			zap.Int("have", current), zap.Int("need", task.ReferralsRequired))
		return false, nil
	}
	e.logger.Info("referral threshold met",
		zap.Int("have", current), zap.Int("need", task.ReferralsRequired))
	return true, nil
}

// watchAds drives the rewarded-ad watch loop: exactly viewsNeeded
// iterations, checking server-side completion after each view and
// stopping early on success. A single failed view aborts the task.
func (e *Executor) watchAds(ctx context.Context, task domain.Task) (bool, error) {
	views := task.ViewsNeeded
	if views <= 0 {
		views = defaultAdViews
	}
	e.logger.Info("starting rewarded-ad task", zap.Int("views", views))

	for i := 0; i < views; i++ {
		e.logger.Info("watching ad", zap.Int("view", i+1), zap.Int("of", views))

		if err := e.watcher.Watch(ctx); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			e.logger.Error("ad view failed", zap.Error(err))
			return false, nil
		}

		if e.taskCompleted(ctx, task.ID) {
			e.logger.Info("rewarded-ad task completed", zap.String("title", task.Title))
			return true, nil
		}

		if err := sleep(ctx, interAdViewDelay); err != nil {
			return false, err
		}
	}

	if e.taskCompleted(ctx, task.ID) {
		return true, nil
	}
	e.logger.Warn("rewarded-ad task incomplete after all views", zap.String("title", task.Title))
	return false, nil
}

// processGeneric posts the task to the generic process endpoint, then
// re-fetches to confirm. An unconfirmed state after a successful post
// is still reported as submitted: the backend does not distinguish
// accepted-but-pending from done.
func (e *Executor) processGeneric(ctx context.Context, task domain.Task) (bool, error) {
	if err := e.backend.ProcessTask(ctx, task.ID); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		e.logger.Error("task process failed", zap.Int64("task", task.ID), zap.Error(err))
		return false, nil
	}

	confirmed, err := e.backend.Task(ctx, task.ID)
	if err == nil && confirmed.Completed {
		e.logger.Info("task completed",
			zap.String("title", confirmed.Title), zap.Int64("reward", confirmed.Reward))
		return true, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	e.logger.Info("task sent for processing", zap.Int64("task", task.ID))
	return true, nil
}

// AwaitCompletion polls the task's completion flag within the kind's
// policy budget. Exhausting the budget is a warning, not a failure of
// the run.
func (e *Executor) AwaitCompletion(ctx context.Context, task domain.Task) (bool, error) {
	policy := e.policyOf(task.Kind)

	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if err := sleep(ctx, policy.Delay); err != nil {
			return false, err
		}
		if e.taskCompleted(ctx, task.ID) {
			e.logger.Info("task confirmed complete",
				zap.String("title", task.Title), zap.Int64("reward", task.Reward))
			return true, nil
		}
		e.logger.Debug("task completion check",
			zap.String("title", task.Title),
			zap.Int("attempt", attempt+1), zap.Int("of", policy.Attempts))
	}

	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	e.logger.Warn("task completion timeout",
		zap.String("title", task.Title), zap.Int("attempts", policy.Attempts))
	return false, nil
}

func (e *Executor) taskCompleted(ctx context.Context, id int64) bool {
	task, err := e.backend.Task(ctx, id)
	if err != nil {
		e.logger.Debug("task status check failed", zap.Int64("task", id), zap.Error(err))
		return false
	}
	return task.Completed
}
