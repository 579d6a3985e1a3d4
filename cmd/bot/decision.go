package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/veldhuis/gatekeeper/pkg/entities"
	"github.com/veldhuis/gatekeeper/pkg/logging"
	"github.com/veldhuis/gatekeeper/pkg/messages"
)

// deletionDelay is how long a decided ticket channel stays readable before it
// is removed.
const deletionDelay = 30 * time.Second

var approveCmd = &discordgo.ApplicationCommand{
	Name:        "approve",
	Description: "Approve the verification request in this channel",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the approval",
		},
	},
}

var denyCmd = &discordgo.ApplicationCommand{
	Name:        "deny",
	Description: "Deny the verification request in this channel",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the denial",
		},
	},
}

func approveController(_ IApp, _ *discordgo.InteractionCreate) (commandProcessor, error) {
	return approveRequest, nil
}

func denyController(_ IApp, _ *discordgo.InteractionCreate) (commandProcessor, error) {
	return denyRequest, nil
}

func approveRequest(a IApp, i *discordgo.InteractionCreate) error {
	return decideRequest(a, i, true)
}

func denyRequest(a IApp, i *discordgo.InteractionCreate) error {
	return decideRequest(a, i, false)
}

// decideRequest carries a moderation decision through: authorisation, role
// grant on approval, requester notification, log channel entry, moderator
// summary, and delayed channel deletion.
func decideRequest(a IApp, i *discordgo.InteractionCreate, approved bool) error {
	ctx := context.Background()

	settings, err := a.SettingsDal().Load(ctx)
	if err != nil {
		return fmt.Errorf("error loading settings: %w", err)
	}

	// Resolve the ticket before anything else, so a non-ticket channel is
	// rejected as such even when the caller also lacks moderator rights.
	channel, err := a.Session().Channel(i.ChannelID)
	if err != nil {
		return fmt.Errorf("error getting channel: %w", err)
	}

	ticket, err := entities.ParseTicketChannel(channel.Name, channel.Topic)
	if err != nil {
		return fmt.Errorf("error parsing ticket channel %s: %w", channel.Name, err)
	}

	if !canModerate(i.Member, settings) {
		return &UnauthorizedError{}
	}

	reason := optionString(i, "reason", messages.DefaultReason)

	// The requester may have left since opening the ticket.
	member, err := a.Session().GuildMember(i.GuildID, ticket.RequesterID)
	if err != nil {
		member = nil
	}

	if member == nil && approved {
		return &MemberNotFoundError{UserID: ticket.RequesterID}
	}

	info := entities.RequestTypes[ticket.Type]

	// Grant the role before any notification goes out, so a failed grant
	// never produces a false approval message.
	var granted *discordgo.Role
	if approved && info.GrantRoleKey != "" {
		granted, err = grantRole(a, i.GuildID, ticket.RequesterID, settings.Roles[info.GrantRoleKey], info.GrantRoleKey)
		if err != nil {
			return err
		}
	}

	if err := notifyRequester(a, i.ChannelID, member, ticket, approved, granted); err != nil {
		return fmt.Errorf("error notifying requester: %w", err)
	}

	logErr := postDecisionLog(a, settings, i.Member.User, member, ticket, approved, reason, granted)
	if logErr != nil {
		a.Log().Warn("Error posting decision to log channel",
			slog.String(logging.KeyError, logErr.Error()))
	}

	outcome := "denied"
	if approved {
		outcome = "approved"
	}
	DecisionsTotal.WithLabelValues(string(ticket.Type), outcome).Inc()

	if err := respondEphemeralEmbed(a, i, moderatorSummaryEmbed(ticket, approved, logErr)); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}

	scheduleTicketDeletion(a, i.ChannelID, outcome)
	return nil
}

// grantRole assigns the configured role for the request type to the
// requester.
func grantRole(a IApp, guildID, userID, roleID, roleKey string) (*discordgo.Role, error) {
	role, err := resolveRole(a, guildID, roleID)
	if err != nil {
		return nil, &RoleGrantError{
			RoleName: titleCase(roleKey),
			Guidance: fmt.Sprintf("The %s role is not configured or no longer exists. Use `/setup-roles` to bind it.", titleCase(roleKey)),
			Err:      err,
		}
	}

	if err := a.Session().GuildMemberRoleAdd(guildID, userID, role.ID); err != nil {
		guidance := messages.ErrUserErrorProcessing
		if isPermissionError(err) {
			guidance = fmt.Sprintf(messages.RoleHierarchyFix, role.Name)
		}
		return nil, &RoleGrantError{
			RoleName: role.Name,
			Guidance: guidance,
			Err:      err,
		}
	}
	return role, nil
}

// notifyRequester posts the decision in the ticket channel. The reason is
// deliberately left out; it goes to the log channel only.
func notifyRequester(a IApp, channelID string, member *discordgo.Member, ticket *entities.Ticket, approved bool, granted *discordgo.Role) error {
	msg := &discordgo.MessageSend{
		Embed: decisionEmbed(ticket, approved, granted),
	}
	if member != nil {
		msg.Content = member.User.Mention()
	}

	if _, err := a.Session().ChannelMessageSendComplex(channelID, msg); err != nil {
		return err
	}
	return nil
}

// decisionEmbed is the embed shown to the requester in the ticket channel.
func decisionEmbed(ticket *entities.Ticket, approved bool, granted *discordgo.Role) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Footer: &discordgo.MessageEmbedFooter{
			Text: "This channel will be deleted in 30 seconds.",
		},
	}

	if approved {
		embed.Title = "✅ Request Approved!"
		embed.Description = "Welcome! Your verification request has been approved."
		embed.Color = colorGreen
		if granted != nil {
			embed.Fields = []*discordgo.MessageEmbedField{
				{
					Name:  "Role Granted",
					Value: granted.Mention(),
				},
			}
		}
	} else {
		embed.Title = "❌ Request Denied"
		embed.Description = "Your verification request has been denied. You may contact the moderators for more information."
		embed.Color = colorRed
	}
	return embed
}

// postDecisionLog writes the decision to the configured log channel. A nil
// error is returned when no log channel is configured.
func postDecisionLog(a IApp, settings *entities.Settings, actor *discordgo.User, member *discordgo.Member, ticket *entities.Ticket, approved bool, reason string, granted *discordgo.Role) error {
	if settings.LogChannelID == "" {
		return nil
	}

	if _, err := a.Session().ChannelMessageSendEmbed(settings.LogChannelID, logEmbed(actor, member, ticket, approved, reason, granted)); err != nil {
		return err
	}
	return nil
}

// logEmbed is the audit record posted to the log channel. Unlike the
// requester notification it carries the reason.
func logEmbed(actor *discordgo.User, member *discordgo.Member, ticket *entities.Ticket, approved bool, reason string, granted *discordgo.Role) *discordgo.MessageEmbed {
	title := "❌ Verification Denied"
	color := colorRed
	actionWord := "Denied"
	if approved {
		title = "✅ Verification Approved"
		color = colorGreen
		actionWord = "Approved"
	}

	userValue := fmt.Sprintf("Unknown (ID: %s)", ticket.RequesterID)
	var thumbnail *discordgo.MessageEmbedThumbnail
	if member != nil {
		userValue = fmt.Sprintf("%s (%s)", member.User.Mention(), member.User.Username)
		thumbnail = &discordgo.MessageEmbedThumbnail{URL: member.User.AvatarURL("")}
	}

	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "User",
				Value:  userValue,
				Inline: true,
			},
			{
				Name:   "Type",
				Value:  titleCase(string(ticket.Type)),
				Inline: true,
			},
			{
				Name:  "Reason",
				Value: reason,
			},
		},
		Thumbnail: thumbnail,
		Footer: &discordgo.MessageEmbedFooter{
			Text:    fmt.Sprintf("%s by %s", actionWord, actor.Username),
			IconURL: actor.AvatarURL(""),
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if granted != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Role Granted",
			Value:  granted.Name,
			Inline: true,
		})
	}
	return embed
}

// moderatorSummaryEmbed is the ephemeral confirmation shown to the deciding
// moderator.
func moderatorSummaryEmbed(ticket *entities.Ticket, approved bool, logErr error) *discordgo.MessageEmbed {
	title := "📝 Denial Logged"
	color := colorOrange
	if approved {
		title = "📝 Approval Logged"
		color = colorGreen
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("Decision recorded for ticket #%d.", ticket.ID),
		Color:       color,
	}

	if logErr != nil {
		embed.Fields = []*discordgo.MessageEmbedField{
			{
				Name:  "⚠️ Warning",
				Value: "Could not post to log channel",
			},
		}
	}
	return embed
}

// scheduleTicketDeletion removes the decided channel after the deletion
// delay. Failures are logged and swallowed; the decision already stands.
func scheduleTicketDeletion(a IApp, channelID, outcome string) {
	time.AfterFunc(deletionDelay, func() {
		if _, err := a.Session().ChannelDelete(channelID,
			discordgo.WithAuditLogReason("Verification request "+outcome)); err != nil {
			a.Log().Warn("Error deleting ticket channel",
				slog.String("channel", channelID),
				slog.String(logging.KeyError, err.Error()))
		}
	})
}
