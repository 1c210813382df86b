package memory

import (
	"context"
	"sync"

	"mutual-giveaway-backend/internal/features/giveaway/models"
	"mutual-giveaway-backend/internal/features/giveaway/repository"
)

// GiveawayRepository is a map-backed store used by tests and local runs
// without Redis. Insertion order is preserved for listings.
type GiveawayRepository struct {
	mu     sync.RWMutex
	nextID int64
	order  []int64
	items  map[int64]*models.GiveawayRequest
}

func NewGiveawayRepository() *GiveawayRepository {
	return &GiveawayRepository{
		nextID: 1,
		items:  make(map[int64]*models.GiveawayRequest),
	}
}

func (r *GiveawayRepository) Create(_ context.Context, giveaway *models.GiveawayRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	giveaway.ID = r.nextID
	r.nextID++

	stored := *giveaway
	r.items[giveaway.ID] = &stored
	r.order = append(r.order, giveaway.ID)
	return nil
}

func (r *GiveawayRepository) GetByID(_ context.Context, id int64) (*models.GiveawayRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	giveaway, ok := r.items[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	copied := *giveaway
	return &copied, nil
}

func (r *GiveawayRepository) ListByStatus(_ context.Context, status models.GiveawayStatus) ([]*models.GiveawayRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.GiveawayRequest
	for _, id := range r.order {
		if giveaway := r.items[id]; giveaway.Status == status {
			copied := *giveaway
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *GiveawayRepository) ListAll(_ context.Context) ([]*models.GiveawayRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.GiveawayRequest, 0, len(r.order))
	for _, id := range r.order {
		copied := *r.items[id]
		result = append(result, &copied)
	}
	return result, nil
}

func (r *GiveawayRepository) Update(_ context.Context, id int64, update models.GiveawayUpdate) (*models.GiveawayRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	giveaway, ok := r.items[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	giveaway.Apply(update)
	copied := *giveaway
	return &copied, nil
}

// PingLedgerRepository is the in-memory singleton ledger.
type PingLedgerRepository struct {
	mu     sync.Mutex
	ledger models.PingLedger
}

func NewPingLedgerRepository() *PingLedgerRepository {
	return &PingLedgerRepository{}
}

func (r *PingLedgerRepository) Get(_ context.Context) (*models.PingLedger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := r.ledger
	return &copied, nil
}

func (r *PingLedgerRepository) Update(_ context.Context, update models.PingLedgerUpdate) (*models.PingLedger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ledger.Apply(update)
	copied := r.ledger
	return &copied, nil
}
