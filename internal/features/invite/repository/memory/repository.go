package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"mutual-giveaway-backend/internal/features/invite/models"
	"mutual-giveaway-backend/internal/features/invite/repository"
)

// inviteRepository is a map-backed InviteRepository used in tests.
type inviteRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Invite // keyed by invite code
}

func NewInviteRepository() repository.InviteRepository {
	return &inviteRepository{items: make(map[string]*models.Invite)}
}

func (r *inviteRepository) GetByCode(ctx context.Context, code string) (*models.Invite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invite, ok := r.items[code]
	if !ok {
		return nil, repository.ErrInviteNotFound
	}
	copied := *invite
	return &copied, nil
}

func (r *inviteRepository) Upsert(ctx context.Context, invite *models.Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *invite
	r.items[invite.InviteCode] = &copied
	return nil
}

func (r *inviteRepository) ListUpdatedSince(ctx context.Context, since time.Time) ([]*models.Invite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invites := make([]*models.Invite, 0, len(r.items))
	for _, invite := range r.items {
		if invite.LastUpdated.Before(since) {
			continue
		}
		copied := *invite
		invites = append(invites, &copied)
	}
	sort.Slice(invites, func(i, j int) bool {
		return invites[i].InviteCode < invites[j].InviteCode
	})
	return invites, nil
}

func (r *inviteRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[string]*models.Invite)
	return nil
}
