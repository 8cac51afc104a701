package joiner

import (
	"context"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

// Unsupported declines every subscription-join request. It is the
// default wiring when no host messaging client is available; the
// executor treats the decline as a failed attempt and gives up after
// the kind's attempt budget.
type Unsupported struct{}

var _ ports.ChannelJoiner = Unsupported{}

func (Unsupported) Join(_ context.Context, _ domain.Task) (bool, error) {
	return false, domain.ErrJoinUnsupported
}
