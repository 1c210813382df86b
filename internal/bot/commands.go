package bot

import "github.com/bwmarrin/discordgo"

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "requestgw",
			Description: "Request a mutual giveaway",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "server_name",
					Description: "Name of the partner server",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "server_invite",
					Description: "Permanent invite link to the partner server",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "member_count",
					Description: "Member count of the partner server",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "our_ping",
					Description: "Ping we will use for the announcement",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "@everyone", Value: "@everyone"},
						{Name: "@here", Value: "@here"},
						{Name: "@Mutual Giveaways", Value: "@Mutual Giveaways"},
						{Name: "No Ping", Value: "No Ping"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "their_ping",
					Description: "Ping the partner server will use",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "prize",
					Description: "Prize the partner server is giving away",
					Required:    true,
				},
			},
		},
		{
			Name:        "checkinvites",
			Description: "Check your tracked invites for this week",
		},
		{
			Name:        "runstaffreports",
			Description: "Run the weekly staff reports now",
		},
	}
}
