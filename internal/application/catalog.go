package application

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

// Catalog discovers actionable tasks: everything the server lists,
// minus completed items and referral-threshold tasks the account has
// not earned yet. Server ordering is preserved.
type Catalog struct {
	backend ports.Backend
	logger  *zap.Logger
}

func NewCatalog(backend ports.Backend, logger *zap.Logger) *Catalog {
	return &Catalog{backend: backend, logger: logger}
}

// Discover fails soft: a fetch error is logged and yields an empty
// set rather than propagating.
func (c *Catalog) Discover(ctx context.Context) []domain.Task {
	tasks, err := c.backend.Tasks(ctx)
	if err != nil {
		c.logger.Error("task list fetch failed", zap.Error(err))
		return nil
	}

	var actionable []domain.Task
	referrals := -1 // memoized for the duration of one discovery pass

	for _, task := range tasks {
		if task.Completed {
			continue
		}

		if task.Kind != domain.TaskReferrals {
			actionable = append(actionable, task)
			continue
		}

		required, ok := parseReferralRequirement(task.Title)
		if !ok {
			// Malformed title: silently exclude rather than crash.
			c.logger.Debug("unparseable referral task title", zap.String("title", task.Title))
			continue
		}

		if referrals < 0 {
			referrals, err = c.backend.ReferralCount(ctx)
			if err != nil {
				c.logger.Error("referral count fetch failed", zap.Error(err))
				referrals = 0
			} else {
				c.logger.Info("found referrals", zap.Int("count", referrals))
			}
		}

		if referrals >= required {
			task.ReferralsRequired = required
			actionable = append(actionable, task)
			c.logger.Info("referral task is completable",
				zap.Int("have", referrals), zap.Int("need", required))
		}
	}

	return actionable
}

// parseReferralRequirement extracts the required referral count from a
// task title like "Invite 5 friends": digits of the second
// whitespace-separated token.
func parseReferralRequirement(title string) (int, bool) {
	parts := strings.Fields(title)
	if len(parts) < 2 {
		return 0, false
	}

	var digits strings.Builder
	for _, r := range parts[1] {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}

	required, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return required, true
}
