package repository

import (
	"context"
	"errors"
	"time"

	"mutual-giveaway-backend/internal/features/invite/models"
)

var ErrInviteNotFound = errors.New("invite not found")

// InviteRepository persists tracked invites keyed by their invite code.
type InviteRepository interface {
	// GetByCode returns the tracked invite for a code, or ErrInviteNotFound.
	GetByCode(ctx context.Context, code string) (*models.Invite, error)
	// Upsert stores the invite, replacing any prior record for its code.
	Upsert(ctx context.Context, invite *models.Invite) error
	// ListUpdatedSince returns invites whose last use was recorded at or
	// after the given time.
	ListUpdatedSince(ctx context.Context, since time.Time) ([]*models.Invite, error)
	// Clear drops all tracked invites. Runs after each weekly report.
	Clear(ctx context.Context) error
}
