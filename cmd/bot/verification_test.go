package main

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"github.com/veldhuis/gatekeeper/pkg/entities"
	"golang.org/x/time/rate"
)

func TestRequestTypeByButton(t *testing.T) {
	require.Equal(t, entities.RequestCitizen, requestTypeByButton[CitizenButtonID])
	require.Equal(t, entities.RequestForeigner, requestTypeByButton[ForeignerButtonID])
	require.Equal(t, entities.RequestEmbassy, requestTypeByButton[EmbassyButtonID])
	require.Len(t, requestTypeByButton, 3)
}

func TestTicketOverwrites(t *testing.T) {
	notifyRoles := []*discordgo.Role{
		{ID: "500", Name: "Border Control"},
		{ID: "600", Name: "President"},
	}

	overwrites := ticketOverwrites("guild", "user", "bot", notifyRoles)
	require.Len(t, overwrites, 5)

	byID := make(map[string]*discordgo.PermissionOverwrite, len(overwrites))
	for _, ow := range overwrites {
		byID[ow.ID] = ow
	}

	everyone := byID["guild"]
	require.NotNil(t, everyone)
	require.Equal(t, discordgo.PermissionOverwriteTypeRole, everyone.Type)
	require.EqualValues(t, discordgo.PermissionViewChannel, everyone.Deny)
	require.Zero(t, everyone.Allow)

	requester := byID["user"]
	require.NotNil(t, requester)
	require.Equal(t, discordgo.PermissionOverwriteTypeMember, requester.Type)
	require.NotZero(t, requester.Allow&discordgo.PermissionViewChannel)
	require.NotZero(t, requester.Allow&discordgo.PermissionSendMessages)
	require.NotZero(t, requester.Allow&discordgo.PermissionReadMessageHistory)
	require.Zero(t, requester.Allow&discordgo.PermissionManageChannels)

	bot := byID["bot"]
	require.NotNil(t, bot)
	require.NotZero(t, bot.Allow&discordgo.PermissionManageChannels)
	require.NotZero(t, bot.Allow&discordgo.PermissionManageMessages)
	require.NotZero(t, bot.Allow&discordgo.PermissionEmbedLinks)

	for _, role := range notifyRoles {
		ow := byID[role.ID]
		require.NotNil(t, ow)
		require.Equal(t, discordgo.PermissionOverwriteTypeRole, ow.Type)
		require.NotZero(t, ow.Allow&discordgo.PermissionViewChannel)
		require.Zero(t, ow.Allow&discordgo.PermissionManageChannels)
	}
}

func TestUserLimiter(t *testing.T) {
	// Two immediate attempts pass, the third is throttled, and other users
	// are unaffected.
	l := newUserLimiter(rate.Every(time.Hour), 2)

	require.True(t, l.Allow("alice"))
	require.True(t, l.Allow("alice"))
	require.False(t, l.Allow("alice"))

	require.True(t, l.Allow("bob"))
}

func TestUserLimiterSweep(t *testing.T) {
	l := newUserLimiter(rate.Every(time.Hour), 1)

	require.True(t, l.Allow("alice"))
	require.True(t, l.Allow("bob"))
	require.Len(t, l.limiters, 2)

	// Age alice past the TTL; bob stays fresh.
	l.limiters["alice"].seen = time.Now().Add(-2 * limiterIdleTTL)

	l.mut.Lock()
	l.sweep(time.Now())
	l.mut.Unlock()

	require.Len(t, l.limiters, 1)
	require.NotContains(t, l.limiters, "alice")

	// A swept user starts over with a fresh burst.
	require.True(t, l.Allow("alice"))
}

func TestRoleMentions(t *testing.T) {
	require.Empty(t, roleMentions(nil))
	require.Equal(t, "<@&1> <@&2>", roleMentions([]*discordgo.Role{{ID: "1"}, {ID: "2"}}))
}

func TestTicketEmbed(t *testing.T) {
	requester := &discordgo.User{ID: "123", Username: "alice"}
	ticket := &entities.Ticket{
		ID:            42,
		Type:          entities.RequestEmbassy,
		RequesterID:   requester.ID,
		RequesterName: requester.Username,
	}
	info := entities.RequestTypes[entities.RequestEmbassy]

	embed := ticketEmbed(ticket, info, requester)
	require.Equal(t, "📋 Emergency Embassy Request", embed.Title)
	require.Equal(t, info.Color, embed.Color)
	require.Contains(t, embed.Description, "<@123>")
	require.Contains(t, embed.Description, "#42")
	require.Equal(t, "User ID: 123", embed.Footer.Text)

	require.Len(t, embed.Fields, 1)
	require.Contains(t, embed.Fields[0].Value, "/approve")
	require.Contains(t, embed.Fields[0].Value, "/deny")
}
