package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"github.com/veldhuis/gatekeeper/pkg/dataaccess"
	"github.com/veldhuis/gatekeeper/pkg/entities"
	"github.com/veldhuis/gatekeeper/pkg/logging"
	"github.com/veldhuis/gatekeeper/pkg/messages"
)

type fakeApp struct {
	l        *slog.Logger
	s        *discordgo.Session
	settings dataaccess.SettingsDal
}

func (a *fakeApp) Log() *slog.Logger                   { return a.l }
func (a *fakeApp) Session() *discordgo.Session         { return a.s }
func (a *fakeApp) SettingsDal() dataaccess.SettingsDal { return a.settings }

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// newFakeApp builds an app whose session answers every REST call with the
// given channel, backed by a settings file in a temp dir.
func newFakeApp(t *testing.T, channel *discordgo.Channel) *fakeApp {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	s, err := discordgo.New("Bot test-token")
	require.NoError(t, err, "Failed to create session")

	body, err := json.Marshal(channel)
	require.NoError(t, err, "Failed to marshal channel")

	s.Client = &http.Client{Transport: roundTripFunc(func(_ *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(body)),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
		}, nil
	})}

	return &fakeApp{
		l:        l,
		s:        s,
		settings: dataaccess.NewSettingsDal(l, filepath.Join(t.TempDir(), "config.json")),
	}
}

func TestCanModerate(t *testing.T) {
	settings := entities.DefaultSettings()
	settings.Roles[entities.RoleBorderControl] = "100"
	settings.Roles[entities.RolePresident] = "200"
	settings.Roles[entities.RoleBelgian] = "300"

	tests := []struct {
		name   string
		member *discordgo.Member
		want   bool
	}{
		{
			name:   "NilMember",
			member: nil,
			want:   false,
		},
		{
			name: "Administrator",
			member: &discordgo.Member{
				Permissions: discordgo.PermissionAdministrator,
			},
			want: true,
		},
		{
			name: "ModeratorRole",
			member: &discordgo.Member{
				Roles: []string{"999", "100"},
			},
			want: true,
		},
		{
			name: "PresidentRole",
			member: &discordgo.Member{
				Roles: []string{"200"},
			},
			want: true,
		},
		{
			name: "NonModeratorRole",
			member: &discordgo.Member{
				Roles: []string{"300"},
			},
			want: false,
		},
		{
			name: "NoRoles",
			member: &discordgo.Member{
				Roles: []string{},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, canModerate(tt.member, settings))
		})
	}
}

func TestDecideRequestResolvesTicketFirst(t *testing.T) {
	roleless := &discordgo.Member{
		User:  &discordgo.User{ID: "1", Username: "visitor"},
		Roles: []string{},
	}

	t.Run("NonTicketChannel", func(t *testing.T) {
		// A non-moderator in a plain channel gets the not-a-ticket rejection,
		// not the permission one.
		a := newFakeApp(t, &discordgo.Channel{ID: "555", Name: "general"})
		i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			GuildID:   "guild",
			ChannelID: "555",
			Member:    roleless,
		}}

		err := decideRequest(a, i, false)
		require.ErrorIs(t, err, entities.ErrNotATicket)

		var unauth *UnauthorizedError
		require.False(t, errors.As(err, &unauth))
	})

	t.Run("TicketChannelUnauthorized", func(t *testing.T) {
		ticket := &entities.Ticket{
			ID:            1,
			Type:          entities.RequestCitizen,
			RequesterID:   "123",
			RequesterName: "alice",
		}
		a := newFakeApp(t, &discordgo.Channel{
			ID:    "555",
			Name:  ticket.ChannelName(),
			Topic: ticket.Topic(),
		})
		i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			GuildID:   "guild",
			ChannelID: "555",
			Member:    roleless,
		}}

		var unauth *UnauthorizedError
		require.ErrorAs(t, decideRequest(a, i, false), &unauth)
	})
}

func TestDecisionEmbed(t *testing.T) {
	ticket := &entities.Ticket{
		ID:            7,
		Type:          entities.RequestCitizen,
		RequesterID:   "123",
		RequesterName: "alice",
	}

	t.Run("ApprovedWithRole", func(t *testing.T) {
		role := &discordgo.Role{ID: "555", Name: "Belgian"}

		embed := decisionEmbed(ticket, true, role)
		require.Equal(t, "✅ Request Approved!", embed.Title)
		require.Equal(t, colorGreen, embed.Color)
		require.Len(t, embed.Fields, 1)
		require.Equal(t, "Role Granted", embed.Fields[0].Name)
		require.Equal(t, role.Mention(), embed.Fields[0].Value)
		require.Equal(t, "This channel will be deleted in 30 seconds.", embed.Footer.Text)
	})

	t.Run("ApprovedWithoutRole", func(t *testing.T) {
		embed := decisionEmbed(ticket, true, nil)
		require.Empty(t, embed.Fields)
	})

	t.Run("Denied", func(t *testing.T) {
		embed := decisionEmbed(ticket, false, nil)
		require.Equal(t, "❌ Request Denied", embed.Title)
		require.Equal(t, colorRed, embed.Color)
		require.Empty(t, embed.Fields)
		require.NotContains(t, embed.Description, "reason")
	})
}

func TestLogEmbed(t *testing.T) {
	actor := &discordgo.User{ID: "900", Username: "mod"}
	ticket := &entities.Ticket{
		ID:          3,
		Type:        entities.RequestForeigner,
		RequesterID: "123",
	}

	t.Run("DeniedMemberPresent", func(t *testing.T) {
		member := &discordgo.Member{
			User: &discordgo.User{ID: "123", Username: "alice"},
		}

		embed := logEmbed(actor, member, ticket, false, "suspicious account", nil)
		require.Equal(t, "❌ Verification Denied", embed.Title)
		require.Equal(t, colorRed, embed.Color)
		require.Equal(t, "Denied by mod", embed.Footer.Text)

		require.Len(t, embed.Fields, 3)
		require.Equal(t, "<@123> (alice)", embed.Fields[0].Value)
		require.Equal(t, "Foreigner", embed.Fields[1].Value)
		require.Equal(t, "suspicious account", embed.Fields[2].Value)
	})

	t.Run("ApprovedMemberGone", func(t *testing.T) {
		embed := logEmbed(actor, nil, ticket, true, messages.DefaultReason, &discordgo.Role{ID: "5", Name: "Foreigner"})
		require.Equal(t, "✅ Verification Approved", embed.Title)
		require.Equal(t, "Unknown (ID: 123)", embed.Fields[0].Value)
		require.Equal(t, messages.DefaultReason, embed.Fields[2].Value)
		require.Nil(t, embed.Thumbnail)

		require.Len(t, embed.Fields, 4)
		require.Equal(t, "Role Granted", embed.Fields[3].Name)
		require.Equal(t, "Foreigner", embed.Fields[3].Value)
	})
}

func TestModeratorSummaryEmbed(t *testing.T) {
	ticket := &entities.Ticket{ID: 12, Type: entities.RequestEmbassy}

	t.Run("Approved", func(t *testing.T) {
		embed := moderatorSummaryEmbed(ticket, true, nil)
		require.Equal(t, "📝 Approval Logged", embed.Title)
		require.Equal(t, colorGreen, embed.Color)
		require.Empty(t, embed.Fields)
	})

	t.Run("DeniedWithLogFailure", func(t *testing.T) {
		embed := moderatorSummaryEmbed(ticket, false, errors.New("send failed"))
		require.Equal(t, "📝 Denial Logged", embed.Title)
		require.Len(t, embed.Fields, 1)
		require.Equal(t, "⚠️ Warning", embed.Fields[0].Name)
		require.Equal(t, "Could not post to log channel", embed.Fields[0].Value)
	})
}

func TestUserMessageFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
		ok   bool
	}{
		{
			name: "Nil",
			err:  nil,
			ok:   false,
		},
		{
			name: "Unauthorized",
			err:  &UnauthorizedError{},
			want: messages.ErrNoModPermission,
			ok:   true,
		},
		{
			name: "MemberNotFound",
			err:  &MemberNotFoundError{UserID: "123"},
			want: messages.ErrMemberLeft,
			ok:   true,
		},
		{
			name: "WrappedNotATicket",
			err:  errors.Join(errors.New("context"), entities.ErrNotATicket),
			want: messages.ErrNotVerificationChannel,
			ok:   true,
		},
		{
			name: "UnresolvableRequester",
			err:  entities.ErrUnresolvableRequester,
			want: messages.ErrUnresolvableRequester,
			ok:   true,
		},
		{
			name: "RoleGrant",
			err: &RoleGrantError{
				RoleName: "Belgian",
				Guidance: "hierarchy",
				Err:      errors.New("403"),
			},
			want: "hierarchy",
			ok:   true,
		},
		{
			name: "Unknown",
			err:  errors.New("boom"),
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := userMessageFor(tt.err)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}
