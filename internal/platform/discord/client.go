package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"mutual-giveaway-backend/internal/common/logger"
	"mutual-giveaway-backend/internal/features/giveaway/models"
)

// StaffMember identifies a guild member holding a staff role.
type StaffMember struct {
	UserID   string
	Username string
}

// Client wraps a discordgo session with the operations the backend needs:
// channel sends, direct messages and staff lookups.
type Client struct {
	session      *discordgo.Session
	guildID      string
	staffRoleIDs []string
	log          zerolog.Logger
}

func New(token, guildID string, staffRoleIDs []string) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildInvites |
		discordgo.IntentsDirectMessages

	return &Client{
		session:      session,
		guildID:      guildID,
		staffRoleIDs: staffRoleIDs,
		log:          logger.With("discord"),
	}, nil
}

// Session exposes the underlying session for event handler registration.
func (c *Client) Session() *discordgo.Session {
	return c.session
}

func (c *Client) Open() error {
	return c.session.Open()
}

func (c *Client) Close() error {
	return c.session.Close()
}

// SendAnnouncement posts the giveaway embed with the given message content
// (the mention line; empty means no content) and returns the message id.
// Permission failures come back wrapped in ErrSendPermissionDenied.
func (c *Client) SendAnnouncement(ctx context.Context, channelID, content string, a models.Announcement) (string, error) {
	send := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{AnnouncementEmbed(a)},
	}
	if content != "" {
		send.Content = content
	}
	msg, err := c.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return "", classifySendError(err)
	}
	return msg.ID, nil
}

// SendRequestNotice posts the request embed to the management channel.
func (c *Client) SendRequestNotice(ctx context.Context, channelID string, g *models.GiveawayRequest) error {
	_, err := c.session.ChannelMessageSendEmbed(channelID, RequestEmbed(g), discordgo.WithContext(ctx))
	return classifySendError(err)
}

// SendText posts a plain text message to a channel.
func (c *Client) SendText(ctx context.Context, channelID, content string) error {
	_, err := c.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return classifySendError(err)
}

// SendEmbed posts an embed to a channel.
func (c *Client) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	_, err := c.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	return classifySendError(err)
}

// DM opens (or reuses) the DM channel with a user and sends the content.
func (c *Client) DM(ctx context.Context, userID, content string) error {
	channel, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel with %s: %w", userID, err)
	}
	if _, err := c.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM to %s: %w", userID, err)
	}
	return nil
}

// ListStaff pages through the guild members and returns those holding any
// of the configured staff roles.
func (c *Client) ListStaff(ctx context.Context) ([]StaffMember, error) {
	if len(c.staffRoleIDs) == 0 {
		return nil, nil
	}

	var staff []StaffMember
	after := ""
	for {
		members, err := c.session.GuildMembers(c.guildID, after, 1000, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list guild members: %w", err)
		}
		if len(members) == 0 {
			break
		}
		for _, member := range members {
			if member.User == nil {
				continue
			}
			if c.hasStaffRole(member.Roles) {
				staff = append(staff, StaffMember{
					UserID:   member.User.ID,
					Username: member.User.Username,
				})
			}
			after = member.User.ID
		}
		if len(members) < 1000 {
			break
		}
	}
	return staff, nil
}

func (c *Client) hasStaffRole(roles []string) bool {
	for _, role := range roles {
		for _, staffRole := range c.staffRoleIDs {
			if role == staffRole {
				return true
			}
		}
	}
	return false
}

// IsStaff reports whether the given member carries a staff role.
func (c *Client) IsStaff(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	return c.hasStaffRole(member.Roles)
}
