package models

import "time"

// PingLedger is the singleton record of the last successful send time of each
// broadcast mention type, across all giveaways. No history is kept.
type PingLedger struct {
	Everyone *time.Time `json:"everyone"`
	Here     *time.Time `json:"here"`
}

// PingLedgerUpdate is a partial update of the ledger. Nil fields are left
// untouched, so updating one mention type never loses the other's last-use.
type PingLedgerUpdate struct {
	Everyone *time.Time
	Here     *time.Time
}

// Apply merges the partial update into the ledger.
func (l *PingLedger) Apply(u PingLedgerUpdate) {
	if u.Everyone != nil {
		l.Everyone = u.Everyone
	}
	if u.Here != nil {
		l.Here = u.Here
	}
}
