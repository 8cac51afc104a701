package domain

import "time"

// Voucher is a claimed balance-transfer artifact. Ledger entries are
// append-only: once written they are never mutated.
type Voucher struct {
	ID            string    `json:"voucher_id"`
	Link          string    `json:"link"`
	InlineQuery   string    `json:"inline_query"`
	Amount        int64     `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
	TargetSession string    `json:"target_session,omitempty"`
}
