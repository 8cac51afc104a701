package ports

import (
	"context"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
)

// AdPlatform serves rewarded-video descriptors and receives tracking
// pings. Like Backend, one instance is bound to one session's proxy.
type AdPlatform interface {
	FetchAd(ctx context.Context, telegramID int64) (domain.AdView, error)
	Track(ctx context.Context, trackingURL string) error
	Rebind(proxyURL string) error
	// SetInitData refreshes the signed request parameters lifted from the
	// session's web-session blob.
	SetInitData(initData string)
}
