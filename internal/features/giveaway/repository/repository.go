package repository

import (
	"context"
	"errors"

	"mutual-giveaway-backend/internal/features/giveaway/models"
)

var ErrGiveawayNotFound = errors.New("giveaway not found")

// GiveawayRepository persists giveaway requests. It is a dumb store: the
// state machine lives in the service layer, which only ever writes valid
// partial updates.
type GiveawayRepository interface {
	// Create stores a new request and assigns its ID.
	Create(ctx context.Context, giveaway *models.GiveawayRequest) error
	GetByID(ctx context.Context, id int64) (*models.GiveawayRequest, error)
	// ListByStatus returns requests in insertion order.
	ListByStatus(ctx context.Context, status models.GiveawayStatus) ([]*models.GiveawayRequest, error)
	ListAll(ctx context.Context) ([]*models.GiveawayRequest, error)
	// Update applies a partial update and returns the new state. Returns
	// ErrGiveawayNotFound if the id is absent.
	Update(ctx context.Context, id int64, update models.GiveawayUpdate) (*models.GiveawayRequest, error)
}

// PingLedgerRepository persists the singleton ping ledger.
type PingLedgerRepository interface {
	// Get returns the current ledger, creating an empty one on first access.
	Get(ctx context.Context) (*models.PingLedger, error)
	// Update merges the given fields into the ledger and returns the new
	// state. Fields not given must keep their prior value.
	Update(ctx context.Context, update models.PingLedgerUpdate) (*models.PingLedger, error)
}
