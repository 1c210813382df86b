package report

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"mutual-giveaway-backend/internal/common/logger"
	giveawaymodels "mutual-giveaway-backend/internal/features/giveaway/models"
	giveawayrepo "mutual-giveaway-backend/internal/features/giveaway/repository"
	inviteservice "mutual-giveaway-backend/internal/features/invite/service"
	"mutual-giveaway-backend/internal/platform/discord"
)

// Reports fire Sundays at this UTC hour.
const reportHourUTC = 2

// Messenger posts report messages to the staff channel.
type Messenger interface {
	SendText(ctx context.Context, channelID, content string) error
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
}

// StaffDirectory lists the guild members counted against the weekly quota.
type StaffDirectory interface {
	ListStaff(ctx context.Context) ([]discord.StaffMember, error)
}

// Worker produces the weekly staff reports: the invite payout summary and
// the request-quota check. After a successful run it clears invite tracking
// so the next week starts from zero.
type Worker struct {
	invites   inviteservice.InviteService
	giveaways giveawayrepo.GiveawayRepository
	messenger Messenger
	staff     StaffDirectory
	channelID string

	weeklyQuota int
	payRate     int // Robux per invite use

	log zerolog.Logger
	now func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(
	invites inviteservice.InviteService,
	giveaways giveawayrepo.GiveawayRepository,
	messenger Messenger,
	staff StaffDirectory,
	channelID string,
	weeklyQuota, payRate int,
) *Worker {
	return &Worker{
		invites:     invites,
		giveaways:   giveaways,
		messenger:   messenger,
		staff:       staff,
		channelID:   channelID,
		weeklyQuota: weeklyQuota,
		payRate:     payRate,
		log:         logger.With("report_worker"),
		now:         time.Now,
	}
}

// Start launches the weekly firing loop. No-op when no report channel is
// configured.
func (w *Worker) Start() {
	if w.channelID == "" {
		w.log.Warn().Msg("No staff report channel configured, reports disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			next := nextRun(w.now())
			w.log.Info().Time("next_run", next).Msg("Staff report scheduled")

			timer := time.NewTimer(next.Sub(w.now()))
			select {
			case <-timer.C:
				if err := w.Run(ctx); err != nil {
					w.log.Error().Err(err).Msg("Staff report run failed")
				}
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}()
}

func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.log.Info().Msg("Report worker stopped")
}

// nextRun returns the next Sunday reportHourUTC boundary strictly after now.
func nextRun(now time.Time) time.Time {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), reportHourUTC, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, -int(now.Weekday()))
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// Run produces both reports and clears invite tracking. Also invoked
// directly by the /runstaffreports command.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Msg("Running staff reports")

	if err := w.sendInviteReport(ctx); err != nil {
		return err
	}
	if err := w.sendQuotaReport(ctx); err != nil {
		return err
	}

	// Tracking is week-scoped; everything reported above is now settled.
	if err := w.invites.ClearAll(ctx); err != nil {
		return err
	}
	return w.messenger.SendText(ctx, w.channelID, "Invite tracking has been reset for the new week.")
}

// sendInviteReport posts per-staff invite totals with pay. The tracked set
// is cleared after every report, so everything tracked belongs to the week
// being reported.
func (w *Worker) sendInviteReport(ctx context.Context) error {
	stats, err := w.invites.StatsSince(ctx, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to aggregate invite stats: %w", err)
	}

	embed := &discordgo.MessageEmbed{
		Color:     discord.ColorBlurple,
		Title:     "📊 Weekly Invite Report",
		Timestamp: w.now().UTC().Format(time.RFC3339),
	}

	if len(stats) == 0 {
		embed.Description = "No invite activity was tracked this week."
		return w.messenger.SendEmbed(ctx, w.channelID, embed)
	}

	var lines []string
	totalUses := 0
	totalPay := 0
	for _, usage := range stats {
		pay := usage.Uses * w.payRate
		totalUses += usage.Uses
		totalPay += pay
		lines = append(lines, fmt.Sprintf("<@%s> — %d invites — %d Robux", usage.StaffUserID, usage.Uses, pay))
	}
	embed.Description = strings.Join(lines, "\n")
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Total: %d invites, %d Robux", totalUses, totalPay),
	}
	return w.messenger.SendEmbed(ctx, w.channelID, embed)
}

// sendQuotaReport checks every staff member's request count for the last
// completed week against the quota.
func (w *Worker) sendQuotaReport(ctx context.Context) error {
	staff, err := w.staff.ListStaff(ctx)
	if err != nil {
		return fmt.Errorf("failed to list staff: %w", err)
	}
	if len(staff) == 0 {
		w.log.Warn().Msg("No staff members found, skipping quota report")
		return nil
	}

	start, end := quotaWindow(w.now())
	counts, err := w.requestCounts(ctx, start, end)
	if err != nil {
		return err
	}

	var below []string
	for _, member := range staff {
		if counts[member.UserID] < w.weeklyQuota {
			below = append(below, fmt.Sprintf("<@%s> — %d/%d giveaways requested",
				member.UserID, counts[member.UserID], w.weeklyQuota))
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:     "📋 Weekly Quota Check",
		Timestamp: w.now().UTC().Format(time.RFC3339),
	}
	if len(below) == 0 {
		embed.Color = discord.ColorGreen
		embed.Description = "All staff members met the weekly giveaway quota. 🎉"
	} else {
		embed.Color = discord.ColorRed
		embed.Description = "The following staff members are below quota:\n" + strings.Join(below, "\n")
	}
	return w.messenger.SendEmbed(ctx, w.channelID, embed)
}

// quotaWindow is the last completed week [Sunday 00:00, next Sunday 00:00)
// before now. Manual mid-week runs report the same window the scheduled
// Sunday run would have.
func quotaWindow(now time.Time) (time.Time, time.Time) {
	end := inviteservice.StartOfWeek(now)
	return end.AddDate(0, 0, -7), end
}

func (w *Worker) requestCounts(ctx context.Context, start, end time.Time) (map[string]int, error) {
	all, err := w.giveaways.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaways: %w", err)
	}

	counts := make(map[string]int)
	for _, g := range all {
		if g.Status == giveawaymodels.GiveawayStatusDenied {
			continue
		}
		if g.RequestedAt.Before(start) || !g.RequestedAt.Before(end) {
			continue
		}
		counts[g.RequesterUserID]++
	}
	return counts, nil
}
