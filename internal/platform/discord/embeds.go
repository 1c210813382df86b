package discord

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"mutual-giveaway-backend/internal/features/giveaway/models"
)

// Discord brand colors used across all embeds.
const (
	ColorBlurple = 0x5865F2
	ColorRed     = 0xED4245
	ColorGreen   = 0x57F287
)

// RequestEmbed is the management-channel notice for a new giveaway request.
func RequestEmbed(g *models.GiveawayRequest) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       ColorBlurple,
		Title:       "New Mutual Giveaway Request",
		Description: fmt.Sprintf("A new mutual giveaway has been requested by <@%s>", g.RequesterUserID),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Server Name", Value: g.ServerName, Inline: true},
			{Name: "Member Count", Value: strconv.Itoa(g.MemberCount), Inline: true},
			{Name: "Server Invite", Value: g.ServerInvite},
			{Name: "Our Ping", Value: g.OurPing, Inline: true},
			{Name: "Their Ping", Value: g.TheirPing, Inline: true},
			{Name: "Their Prize", Value: g.Prize},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Use the web dashboard to approve or deny this request"},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// AnnouncementEmbed is the public giveaway post.
func AnnouncementEmbed(a models.Announcement) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       ColorBlurple,
		Title:       "🎉 Mutual Giveaway",
		Description: fmt.Sprintf("Join **%s** for a chance to win: **%s**", a.ServerName, a.Prize),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "How to Enter", Value: fmt.Sprintf("1. Join their server: %s\n2. Follow their giveaway instructions", a.ServerInvite)},
			{Name: "Server Invite", Value: a.ServerInvite},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Good luck!"},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// DiscordTimestamp renders t as Discord's inline timestamp markup, full
// format plus relative ("in 3 hours").
func DiscordTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:F> (<t:%d:R>)", t.Unix(), t.Unix())
}
