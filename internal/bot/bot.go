package bot

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
	giveawayservice "mutual-giveaway-backend/internal/features/giveaway/service"
	inviteservice "mutual-giveaway-backend/internal/features/invite/service"
	"mutual-giveaway-backend/internal/platform/discord"
)

// ReportRunner triggers the weekly staff reports on demand.
type ReportRunner interface {
	Run(ctx context.Context) error
}

// inviteSnapshot is the last seen state of one guild invite, used to
// attribute member joins to the staff member whose invite was consumed.
type inviteSnapshot struct {
	uses        int
	inviterID   string
	inviterName string
}

// Bot owns the gateway-facing behavior: slash commands and invite-use
// tracking.
type Bot struct {
	client    *discord.Client
	giveaways giveawayservice.GiveawayService
	invites   inviteservice.InviteService
	reports   ReportRunner
	guildID   string
	log       zerolog.Logger

	mu         sync.Mutex
	inviteUses map[string]inviteSnapshot
}

func New(
	client *discord.Client,
	giveaways giveawayservice.GiveawayService,
	invites inviteservice.InviteService,
	reports ReportRunner,
	guildID string,
) *Bot {
	return &Bot{
		client:     client,
		giveaways:  giveaways,
		invites:    invites,
		reports:    reports,
		guildID:    guildID,
		log:        logger.With("bot"),
		inviteUses: make(map[string]inviteSnapshot),
	}
}

// Setup registers the gateway event handlers. Call before opening the
// session.
func (b *Bot) Setup() {
	session := b.client.Session()
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInviteCreate)
	session.AddHandler(b.onInviteDelete)
	session.AddHandler(b.onGuildMemberAdd)
	session.AddHandler(b.onInteraction)
}

// RegisterCommands overwrites the guild's slash commands with ours. Call
// after the session is open.
func (b *Bot) RegisterCommands() error {
	session := b.client.Session()
	appID := session.State.User.ID
	if _, err := session.ApplicationCommandBulkOverwrite(appID, b.guildID, commandDefinitions()); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	b.log.Info().Msg("Slash commands registered")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, _ *discordgo.Ready) {
	b.log.Info().Str("username", s.State.User.Username).Msg("Bot connected")
	b.seedInviteCache(s)
}

// seedInviteCache snapshots every guild invite's use count so later joins
// can be diffed against it.
func (b *Bot) seedInviteCache(s *discordgo.Session) {
	invites, err := s.GuildInvites(b.guildID)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to seed invite cache")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.inviteUses = make(map[string]inviteSnapshot, len(invites))
	for _, invite := range invites {
		b.inviteUses[invite.Code] = snapshotOf(invite)
	}
	b.log.Info().Int("invites", len(invites)).Msg("Invite cache seeded")
}

func snapshotOf(invite *discordgo.Invite) inviteSnapshot {
	snap := inviteSnapshot{uses: invite.Uses}
	if invite.Inviter != nil {
		snap.inviterID = invite.Inviter.ID
		snap.inviterName = invite.Inviter.Username
	}
	return snap
}

func (b *Bot) onInviteCreate(_ *discordgo.Session, e *discordgo.InviteCreate) {
	if e.GuildID != b.guildID {
		return
	}
	snap := inviteSnapshot{uses: e.Uses}
	if e.Inviter != nil {
		snap.inviterID = e.Inviter.ID
		snap.inviterName = e.Inviter.Username
	}
	b.mu.Lock()
	b.inviteUses[e.Code] = snap
	b.mu.Unlock()
}

func (b *Bot) onInviteDelete(_ *discordgo.Session, e *discordgo.InviteDelete) {
	if e.GuildID != b.guildID {
		return
	}
	b.mu.Lock()
	delete(b.inviteUses, e.Code)
	b.mu.Unlock()
}

// onGuildMemberAdd re-reads the guild invites and attributes the join to
// whichever code's use count moved since the last snapshot.
func (b *Bot) onGuildMemberAdd(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
	if e.GuildID != b.guildID {
		return
	}

	invites, err := s.GuildInvites(b.guildID)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to list invites after member join")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, invite := range invites {
		prev, known := b.inviteUses[invite.Code]
		snap := snapshotOf(invite)
		b.inviteUses[invite.Code] = snap

		if known && snap.uses <= prev.uses {
			continue
		}
		if !known && snap.uses == 0 {
			continue
		}
		if snap.inviterID == "" {
			continue
		}
		if _, err := b.invites.RecordUse(ctx, invite.Code, snap.inviterID, snap.inviterName, snap.uses); err != nil {
			b.log.Error().Err(err).Str("invite_code", invite.Code).Msg("Failed to record invite use")
		}
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "requestgw":
		b.handleRequestGiveaway(s, i)
	case "checkinvites":
		b.handleCheckInvites(s, i)
	case "runstaffreports":
		b.handleRunStaffReports(s, i)
	}
}

func (b *Bot) handleRequestGiveaway(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireStaff(s, i) {
		return
	}

	options := optionMap(i)
	input := giveawaymodels.GiveawayCreate{
		RequesterUserID:   i.Member.User.ID,
		RequesterUsername: i.Member.User.Username,
		ServerName:        stringOption(options, "server_name"),
		ServerInvite:      stringOption(options, "server_invite"),
		MemberCount:       intOption(options, "member_count"),
		OurPing:           stringOption(options, "our_ping"),
		TheirPing:         stringOption(options, "their_ping"),
		Prize:             stringOption(options, "prize"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g, err := b.giveaways.CreateRequest(ctx, input)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to create giveaway request")
		b.respondEphemeral(s, i, "Something went wrong creating your request. Please try again.")
		return
	}
	b.respondEphemeral(s, i, fmt.Sprintf(
		"Your mutual giveaway request for **%s** has been submitted (request #%d). You will be notified once management reviews it.",
		g.ServerName, g.ID))
}

func (b *Bot) handleCheckInvites(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireStaff(s, i) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summary, err := b.invites.UserWeeklySummary(ctx, i.Member.User.ID)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to build invite summary")
		b.respondEphemeral(s, i, "Something went wrong fetching your invites. Please try again.")
		return
	}

	description := "No invite activity tracked for you this week."
	if summary.TotalUses > 0 {
		description = fmt.Sprintf("**%d** joins this week across %d invite(s):\n`%s`",
			summary.TotalUses, len(summary.InviteCodes), strings.Join(summary.InviteCodes, "`, `"))
	}
	embed := &discordgo.MessageEmbed{
		Color:       discord.ColorBlurple,
		Title:       "Your Invites This Week",
		Description: description,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Week started %s", summary.WeekStart.Format("Mon, 02 Jan 2006")),
		},
	}
	b.respondEphemeralEmbed(s, i, embed)
}

func (b *Bot) handleRunStaffReports(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireStaff(s, i) {
		return
	}

	b.respondEphemeral(s, i, "Running staff reports...")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := b.reports.Run(ctx); err != nil {
		b.log.Error().Err(err).Msg("Manual staff report run failed")
	}
}

func (b *Bot) requireStaff(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Member == nil || i.Member.User == nil {
		b.respondEphemeral(s, i, "This command can only be used inside the server.")
		return false
	}
	if !b.client.IsStaff(i.Member) {
		b.respondEphemeral(s, i, "You do not have permission to use this command.")
		return false
	}
	return true
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to respond to interaction")
	}
}

func (b *Bot) respondEphemeralEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to respond to interaction")
	}
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, option := range options {
		m[option.Name] = option
	}
	return m
}

func stringOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if option, ok := m[name]; ok {
		return option.StringValue()
	}
	return ""
}

func intOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) int {
	if option, ok := m[name]; ok {
		return int(option.IntValue())
	}
	return 0
}
