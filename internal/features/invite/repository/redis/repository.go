package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"mutual-giveaway-backend/internal/features/invite/models"
	"mutual-giveaway-backend/internal/features/invite/repository"
)

const (
	keyPrefixInvite = "invite:"
	keyInviteCodes  = "invites:codes"
)

type redisRepository struct {
	client *redis.Client
}

func NewInviteRepository(client *redis.Client) repository.InviteRepository {
	return &redisRepository{client: client}
}

func makeInviteKey(code string) string {
	return keyPrefixInvite + code
}

func (r *redisRepository) GetByCode(ctx context.Context, code string) (*models.Invite, error) {
	data, err := r.client.Get(ctx, makeInviteKey(code)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrInviteNotFound
	}
	if err != nil {
		return nil, err
	}

	var invite models.Invite
	if err := json.Unmarshal(data, &invite); err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *redisRepository) Upsert(ctx context.Context, invite *models.Invite) error {
	data, err := json.Marshal(invite)
	if err != nil {
		return fmt.Errorf("failed to marshal invite: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeInviteKey(invite.InviteCode), data, 0)
	pipe.SAdd(ctx, keyInviteCodes, invite.InviteCode)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) ListUpdatedSince(ctx context.Context, since time.Time) ([]*models.Invite, error) {
	codes, err := r.client.SMembers(ctx, keyInviteCodes).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(codes)

	invites := make([]*models.Invite, 0, len(codes))
	for _, code := range codes {
		invite, err := r.GetByCode(ctx, code)
		if err == repository.ErrInviteNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if invite.LastUpdated.Before(since) {
			continue
		}
		invites = append(invites, invite)
	}
	return invites, nil
}

func (r *redisRepository) Clear(ctx context.Context) error {
	codes, err := r.client.SMembers(ctx, keyInviteCodes).Result()
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	for _, code := range codes {
		pipe.Del(ctx, makeInviteKey(code))
	}
	pipe.Del(ctx, keyInviteCodes)
	_, err = pipe.Exec(ctx)
	return err
}
