package service

import (
	"context"

	"mutual-giveaway-backend/internal/features/giveaway/models"
)

// ChannelSender posts giveaway announcements to a channel. Content carries
// the mention line; empty content means no mention prefix.
type ChannelSender interface {
	SendAnnouncement(ctx context.Context, channelID, content string, a models.Announcement) (string, error)
}

// Notifier delivers direct messages to requesters. All calls are
// best-effort: failures are logged by callers and never affect giveaway
// state.
type Notifier interface {
	DM(ctx context.Context, userID, content string) error
}

// RequestAnnouncer posts new-request notices to the management channel.
type RequestAnnouncer interface {
	SendRequestNotice(ctx context.Context, channelID string, g *models.GiveawayRequest) error
}

// GiveawayService is the API surface consumed by the HTTP handlers and the
// bot commands.
type GiveawayService interface {
	CreateRequest(ctx context.Context, input models.GiveawayCreate) (*models.GiveawayRequest, error)
	GetByID(ctx context.Context, id int64) (*models.GiveawayRequest, error)
	ListByStatus(ctx context.Context, status models.GiveawayStatus) ([]*models.GiveawayRequest, error)
	Approve(ctx context.Context, id int64, message string) (*models.GiveawayRequest, error)
	Deny(ctx context.Context, id int64, reason string) (*models.GiveawayRequest, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	PingStatus(ctx context.Context) (*models.PingLedger, error)
	PerformanceStats(ctx context.Context) (*models.PerformanceStats, error)
}
