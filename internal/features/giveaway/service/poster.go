package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mutual-giveaway-backend/internal/common/logger"
	"mutual-giveaway-backend/internal/features/giveaway/models"
	"mutual-giveaway-backend/internal/features/giveaway/repository"
	"mutual-giveaway-backend/internal/platform/discord"
)

// mentionFailedPrefix replaces the mention line on the retry after a
// permission-denied send.
const mentionFailedPrefix = "Giveaway announcement (mention failed):"

// Poster sends the public announcement for a due giveaway and records the
// outcome. It holds no locks of its own; the scheduler calls it inside the
// global critical section.
type Poster struct {
	repo         repository.GiveawayRepository
	ledger       repository.PingLedgerRepository
	sender       ChannelSender
	notifier     Notifier
	channelID    string
	mutualRoleID string
	log          zerolog.Logger
	now          func() time.Time
}

func NewPoster(
	repo repository.GiveawayRepository,
	ledger repository.PingLedgerRepository,
	sender ChannelSender,
	notifier Notifier,
	channelID, mutualRoleID string,
) *Poster {
	return &Poster{
		repo:         repo,
		ledger:       ledger,
		sender:       sender,
		notifier:     notifier,
		channelID:    channelID,
		mutualRoleID: mutualRoleID,
		log:          logger.With("poster"),
		now:          time.Now,
	}
}

// Post refetches the giveaway, aborts silently unless it is still approved,
// sends the announcement and records the outcome. The ledger is written
// only after a confirmed send, and only for the mention actually delivered.
// A hard send failure leaves the record approved so the sweep retries it.
func (p *Poster) Post(ctx context.Context, id int64) error {
	g, err := p.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load giveaway %d: %w", id, err)
	}
	if g.Status != models.GiveawayStatusApproved {
		// Expected when a cancel raced the timer; storage is authoritative.
		p.log.Debug().
			Int64("giveaway_id", id).
			Str("status", string(g.Status)).
			Msg("Skipping post, giveaway no longer approved")
		return nil
	}

	announcement := models.Announcement{
		ServerName:   g.ServerName,
		ServerInvite: g.ServerInvite,
		Prize:        g.Prize,
	}

	mention := p.resolveMention(g.OurPing)
	sentMention := mention
	_, err = p.sender.SendAnnouncement(ctx, p.channelID, mention, announcement)
	if err != nil && mention != "" && errors.Is(err, discord.ErrSendPermissionDenied) {
		p.log.Warn().
			Int64("giveaway_id", id).
			Str("mention", mention).
			Msg("Mention rejected, retrying announcement without it")
		sentMention = ""
		_, err = p.sender.SendAnnouncement(ctx, p.channelID, mentionFailedPrefix, announcement)
	}
	if err != nil {
		return fmt.Errorf("failed to send announcement for giveaway %d: %w", id, err)
	}

	now := p.now()
	switch sentMention {
	case models.PingEveryone:
		if _, err := p.ledger.Update(ctx, models.PingLedgerUpdate{Everyone: &now}); err != nil {
			p.log.Error().Err(err).Int64("giveaway_id", id).Msg("Failed to record @everyone usage")
		}
	case models.PingHere:
		if _, err := p.ledger.Update(ctx, models.PingLedgerUpdate{Here: &now}); err != nil {
			p.log.Error().Err(err).Int64("giveaway_id", id).Msg("Failed to record @here usage")
		}
	}

	status := models.GiveawayStatusPosted
	if _, err := p.repo.Update(ctx, id, models.GiveawayUpdate{
		Status:   &status,
		PostedAt: &now,
	}); err != nil {
		return fmt.Errorf("failed to mark giveaway %d as posted: %w", id, err)
	}

	p.log.Info().
		Int64("giveaway_id", id).
		Str("server_name", g.ServerName).
		Str("mention", sentMention).
		Msg("Giveaway posted")

	go p.notifyPosted(g)
	return nil
}

// resolveMention maps the stored ping choice onto the message content that
// precedes the embed. Custom text goes out verbatim.
func (p *Poster) resolveMention(ourPing string) string {
	switch ourPing {
	case models.PingEveryone, models.PingHere:
		return ourPing
	case models.PingMutualRole:
		if p.mutualRoleID == "" {
			return ""
		}
		return fmt.Sprintf("<@&%s>", p.mutualRoleID)
	case models.PingNone, "":
		return ""
	default:
		return ourPing
	}
}

func (p *Poster) notifyPosted(g *models.GiveawayRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	content := fmt.Sprintf("Your giveaway for **%s** has been posted in the mutual giveaways channel!", g.ServerName)
	if err := p.notifier.DM(ctx, g.RequesterUserID, content); err != nil {
		p.log.Warn().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to notify requester of post")
	}
}
