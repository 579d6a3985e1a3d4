package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/veldhuis/gatekeeper/pkg/entities"
	"github.com/veldhuis/gatekeeper/pkg/logging"
)

const (
	// CitizenButtonID is the custom ID of the citizen registration button.
	CitizenButtonID = "welcome_citizen"

	// ForeignerButtonID is the custom ID of the foreigner registration button.
	ForeignerButtonID = "welcome_foreigner"

	// EmbassyButtonID is the custom ID of the embassy request button.
	EmbassyButtonID = "welcome_embassy"
)

// welcomeComponents returns the button row attached to every welcome message.
func welcomeComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Citizen",
					Style:    discordgo.SuccessButton,
					CustomID: CitizenButtonID,
					Emoji:    &discordgo.ComponentEmoji{Name: "🇧🇪"},
				},
				discordgo.Button{
					Label:    "Foreigner",
					Style:    discordgo.PrimaryButton,
					CustomID: ForeignerButtonID,
					Emoji:    &discordgo.ComponentEmoji{Name: "🌍"},
				},
				discordgo.Button{
					Label:    "Emergency Embassy Request",
					Style:    discordgo.DangerButton,
					CustomID: EmbassyButtonID,
					Emoji:    &discordgo.ComponentEmoji{Name: "🚨"},
				},
			},
		},
	}
}

// welcomeEmbed builds the embed shown to a newly joined member.
func welcomeEmbed(settings *entities.Settings, user *discordgo.User, memberCount int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🇧🇪 Welcome to Belgium!",
		Description: settings.WelcomeMessage,
		Color:       colorGold,
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: user.AvatarURL(""),
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Member #%d", memberCount),
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func memberJoinedHandler(a IApp) func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	return func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		a.Log().Info(fmt.Sprintf("Member %s joined guild %s", m.User.Username, m.GuildID))

		if err := sendWelcome(a, m.GuildID, m.User); err != nil {
			a.Log().Error("Error sending welcome message",
				slog.String(logging.KeyError, err.Error()))
		}
	}
}

// sendWelcome posts the welcome message for the user in the configured
// welcome channel. It is a no-op when no welcome channel is configured.
func sendWelcome(a IApp, guildID string, user *discordgo.User) error {
	settings, err := a.SettingsDal().Load(context.Background())
	if err != nil {
		return fmt.Errorf("error loading settings: %w", err)
	}

	if settings.WelcomeChannelID == "" {
		a.Log().Debug("No welcome channel configured, skipping welcome message")
		return nil
	}

	if _, err := a.Session().ChannelMessageSendComplex(settings.WelcomeChannelID, &discordgo.MessageSend{
		Content:    user.Mention(),
		Embed:      welcomeEmbed(settings, user, guildMemberCount(a, guildID)),
		Components: welcomeComponents(),
	}); err != nil {
		return fmt.Errorf("error sending welcome message: %w", err)
	}
	return nil
}

// guildMemberCount returns the member count from state, falling back to the
// REST API. Returns 0 when the count cannot be determined.
func guildMemberCount(a IApp, guildID string) int {
	if g, err := a.Session().State.Guild(guildID); err == nil && g.MemberCount > 0 {
		return g.MemberCount
	}

	g, err := a.Session().GuildWithCounts(guildID)
	if err != nil {
		a.Log().Error("Error getting guild member count",
			slog.String(logging.KeyError, err.Error()))
		return 0
	}
	return g.ApproximateMemberCount
}
