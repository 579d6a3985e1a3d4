package main

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"github.com/veldhuis/gatekeeper/pkg/entities"
)

func TestWelcomeComponents(t *testing.T) {
	components := welcomeComponents()
	require.Len(t, components, 1)

	row, ok := components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 3)

	tests := []struct {
		idx      int
		customID string
		label    string
		style    discordgo.ButtonStyle
	}{
		{0, CitizenButtonID, "Citizen", discordgo.SuccessButton},
		{1, ForeignerButtonID, "Foreigner", discordgo.PrimaryButton},
		{2, EmbassyButtonID, "Emergency Embassy Request", discordgo.DangerButton},
	}

	for _, tt := range tests {
		t.Run(tt.customID, func(t *testing.T) {
			button, ok := row.Components[tt.idx].(discordgo.Button)
			require.True(t, ok)
			require.Equal(t, tt.customID, button.CustomID)
			require.Equal(t, tt.label, button.Label)
			require.Equal(t, tt.style, button.Style)
			require.NotNil(t, button.Emoji)
		})
	}
}

func TestWelcomeEmbed(t *testing.T) {
	settings := entities.DefaultSettings()
	user := &discordgo.User{ID: "123", Username: "alice"}

	embed := welcomeEmbed(settings, user, 57)
	require.Equal(t, "🇧🇪 Welcome to Belgium!", embed.Title)
	require.Equal(t, settings.WelcomeMessage, embed.Description)
	require.Equal(t, colorGold, embed.Color)
	require.Equal(t, "Member #57", embed.Footer.Text)
	require.NotEmpty(t, embed.Timestamp)
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"citizen", "Citizen"},
		{"border_control", "Border Control"},
		{"minister_foreign_affairs", "Minister Foreign Affairs"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, titleCase(tt.in))
		})
	}
}
