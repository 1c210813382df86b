package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"mutual-giveaway-backend/internal/features/giveaway/models"
	"mutual-giveaway-backend/internal/features/giveaway/repository"
)

const (
	keyPrefixGiveaway  = "giveaway:"
	keyGiveawayNextID  = "giveaway:next_id"
	keyPrefixStatusSet = "giveaways:status:"
	keyGiveawayIDs     = "giveaways:ids"
	keyPingLedger      = "ping:ledger"
)

type redisRepository struct {
	client *redis.Client
}

func NewGiveawayRepository(client *redis.Client) repository.GiveawayRepository {
	return &redisRepository{client: client}
}

func makeGiveawayKey(id int64) string {
	return keyPrefixGiveaway + strconv.FormatInt(id, 10)
}

func makeStatusKey(status models.GiveawayStatus) string {
	return keyPrefixStatusSet + string(status)
}

func (r *redisRepository) Create(ctx context.Context, giveaway *models.GiveawayRequest) error {
	id, err := r.client.Incr(ctx, keyGiveawayNextID).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate giveaway id: %w", err)
	}
	giveaway.ID = id

	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeGiveawayKey(id), data, 0)
	pipe.RPush(ctx, keyGiveawayIDs, id)
	pipe.SAdd(ctx, makeStatusKey(giveaway.Status), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) GetByID(ctx context.Context, id int64) (*models.GiveawayRequest, error) {
	data, err := r.client.Get(ctx, makeGiveawayKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}

	var giveaway models.GiveawayRequest
	if err := json.Unmarshal(data, &giveaway); err != nil {
		return nil, err
	}
	return &giveaway, nil
}

func (r *redisRepository) ListByStatus(ctx context.Context, status models.GiveawayStatus) ([]*models.GiveawayRequest, error) {
	ids, err := r.client.SMembers(ctx, makeStatusKey(status)).Result()
	if err != nil {
		return nil, err
	}
	return r.fetchAll(ctx, ids)
}

func (r *redisRepository) ListAll(ctx context.Context) ([]*models.GiveawayRequest, error) {
	ids, err := r.client.LRange(ctx, keyGiveawayIDs, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return r.fetchAll(ctx, ids)
}

// fetchAll loads giveaways by id, skipping records deleted between the index
// read and the fetch, and returns them in id (insertion) order.
func (r *redisRepository) fetchAll(ctx context.Context, rawIDs []string) ([]*models.GiveawayRequest, error) {
	ids := make([]int64, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	giveaways := make([]*models.GiveawayRequest, 0, len(ids))
	for _, id := range ids {
		giveaway, err := r.GetByID(ctx, id)
		if err == repository.ErrGiveawayNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		giveaways = append(giveaways, giveaway)
	}
	return giveaways, nil
}

func (r *redisRepository) Update(ctx context.Context, id int64, update models.GiveawayUpdate) (*models.GiveawayRequest, error) {
	giveaway, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := giveaway.Status
	giveaway.Apply(update)

	data, err := json.Marshal(giveaway)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeGiveawayKey(id), data, 0)
	if giveaway.Status != oldStatus {
		pipe.SRem(ctx, makeStatusKey(oldStatus), id)
		pipe.SAdd(ctx, makeStatusKey(giveaway.Status), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return giveaway, nil
}

type ledgerRepository struct {
	client *redis.Client
}

func NewPingLedgerRepository(client *redis.Client) repository.PingLedgerRepository {
	return &ledgerRepository{client: client}
}

func (r *ledgerRepository) Get(ctx context.Context) (*models.PingLedger, error) {
	data, err := r.client.Get(ctx, keyPingLedger).Bytes()
	if err == redis.Nil {
		return &models.PingLedger{}, nil
	}
	if err != nil {
		return nil, err
	}

	var ledger models.PingLedger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, err
	}
	return &ledger, nil
}

// Update is a read-merge-write of the singleton record. Concurrent callers
// are serialized by the scheduler's lock, so a plain merge cannot drop the
// other mention type's last-use.
func (r *ledgerRepository) Update(ctx context.Context, update models.PingLedgerUpdate) (*models.PingLedger, error) {
	ledger, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	ledger.Apply(update)

	data, err := json.Marshal(ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ping ledger: %w", err)
	}
	if err := r.client.Set(ctx, keyPingLedger, data, 0).Err(); err != nil {
		return nil, err
	}
	return ledger, nil
}
