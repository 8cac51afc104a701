package domain

// AdView is one rewarded-video descriptor: the three tracking URLs the
// platform expects to be fired in order, plus banner metadata for
// logging. Ephemeral; discarded after the tracking sequence finishes.
type AdView struct {
	RenderURL string
	ShowURL   string
	RewardURL string
	Title     string
	Kind      string
}

// Trackable reports whether the descriptor carries all three tracking
// URLs. A descriptor missing any of them cannot be watched.
func (a AdView) Trackable() bool {
	return a.RenderURL != "" && a.ShowURL != "" && a.RewardURL != ""
}
