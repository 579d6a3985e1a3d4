package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/veldhuis/gatekeeper/pkg/entities"
	"github.com/veldhuis/gatekeeper/pkg/messages"
	"golang.org/x/time/rate"
)

const (
	// limiterSweepInterval is how often idle limiter entries are swept.
	limiterSweepInterval = 10 * time.Minute

	// limiterIdleTTL is how long an unused limiter entry survives a sweep.
	limiterIdleTTL = time.Hour
)

// userLimiter rate limits an action per user. Idle entries are swept so the
// map does not grow with every user ever seen.
type userLimiter struct {
	mut       sync.Mutex
	limiters  map[string]*userLimiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

type userLimiterEntry struct {
	l    *rate.Limiter
	seen time.Time
}

func newUserLimiter(limit rate.Limit, burst int) *userLimiter {
	return &userLimiter{
		limiters: make(map[string]*userLimiterEntry),
		limit:    limit,
		burst:    burst,
	}
}

// Allow reports whether the user may perform the action now.
func (u *userLimiter) Allow(userID string) bool {
	u.mut.Lock()
	defer u.mut.Unlock()

	now := time.Now()
	if now.Sub(u.lastSweep) > limiterSweepInterval {
		u.sweep(now)
	}

	e, ok := u.limiters[userID]
	if !ok {
		e = &userLimiterEntry{l: rate.NewLimiter(u.limit, u.burst)}
		u.limiters[userID] = e
	}
	e.seen = now
	return e.l.Allow()
}

// sweep drops entries idle past the TTL. Callers hold the mutex.
func (u *userLimiter) sweep(now time.Time) {
	u.lastSweep = now
	for id, e := range u.limiters {
		if now.Sub(e.seen) > limiterIdleTTL {
			delete(u.limiters, id)
		}
	}
}

// verifyLimiter throttles ticket creation per user. Buttons are cheap to spam
// and each press creates a channel.
var verifyLimiter = newUserLimiter(rate.Every(30*time.Second), 2)

// requestTypeByButton maps welcome button IDs to request types.
var requestTypeByButton = map[string]entities.RequestType{
	CitizenButtonID:   entities.RequestCitizen,
	ForeignerButtonID: entities.RequestForeigner,
	EmbassyButtonID:   entities.RequestEmbassy,
}

// buttonControllers returns a processor per welcome button, each opening a
// ticket of the matching request type.
func buttonControllers() map[string]commandProcessor {
	controllers := make(map[string]commandProcessor, len(requestTypeByButton))
	for id, requestType := range requestTypeByButton {
		requestType := requestType
		controllers[id] = func(a IApp, i *discordgo.InteractionCreate) error {
			return createVerificationChannel(a, i, requestType)
		}
	}
	return controllers
}

// createVerificationChannel opens a private ticket channel for the requester
// and notifies the responsible roles.
func createVerificationChannel(a IApp, i *discordgo.InteractionCreate, requestType entities.RequestType) error {
	ctx := context.Background()
	requester := i.Member.User

	if !verifyLimiter.Allow(requester.ID) {
		return respondEphemeral(a, i, messages.ErrTooManyRequests)
	}

	settings, err := a.SettingsDal().Load(ctx)
	if err != nil {
		return fmt.Errorf("error loading settings: %w", err)
	}

	ticketID, err := a.SettingsDal().NextTicketID(ctx)
	if err != nil {
		return fmt.Errorf("error getting next ticket ID: %w", err)
	}

	ticket := &entities.Ticket{
		ID:            ticketID,
		Type:          requestType,
		RequesterID:   requester.ID,
		RequesterName: requester.Username,
	}

	info := entities.RequestTypes[requestType]

	// Resolve the roles to notify. Unset or deleted bindings are skipped
	// rather than failing the request.
	notifyRoles := make([]*discordgo.Role, 0, len(info.NotifyRoleKeys))
	for _, key := range info.NotifyRoleKeys {
		role, err := resolveRole(a, i.GuildID, settings.Roles[key])
		if err != nil {
			a.Log().Warn(fmt.Sprintf("Skipping notify role %s: %s", key, err.Error()))
			continue
		}
		notifyRoles = append(notifyRoles, role)
	}

	if err := checkCategoryAccess(a, settings); err != nil {
		return err
	}

	channel, err := a.Session().GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 ticket.ChannelName(),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                ticket.Topic(),
		ParentID:             settings.VerificationCategoryID,
		PermissionOverwrites: ticketOverwrites(i.GuildID, requester.ID, a.Session().State.User.ID, notifyRoles),
	})
	if err != nil {
		if isPermissionError(err) {
			return &InsufficientPermissionError{
				Guidance: channelCreateGuidance(a, settings),
				Err:      err,
			}
		}
		return fmt.Errorf("error creating verification channel: %w", err)
	}

	TicketsCreated.WithLabelValues(string(requestType)).Inc()
	a.Log().Info(fmt.Sprintf("Created verification channel %s for %s", channel.Name, requester.Username))

	if _, err := a.Session().ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Content: roleMentions(notifyRoles),
		Embed:   ticketEmbed(ticket, info, requester),
	}); err != nil {
		return fmt.Errorf("error sending ticket message: %w", err)
	}

	return respondEphemeral(a, i,
		fmt.Sprintf("Your verification request has been created: <#%s>", channel.ID))
}

// checkCategoryAccess verifies the bot can create channels inside the
// configured verification category before attempting the create call, so the
// user gets targeted guidance instead of a generic failure.
func checkCategoryAccess(a IApp, settings *entities.Settings) error {
	if settings.VerificationCategoryID == "" {
		return nil
	}

	perms, err := a.Session().UserChannelPermissions(a.Session().State.User.ID, settings.VerificationCategoryID)
	if err != nil {
		// The category may have been deleted; the create call below will
		// fall back to the guild root.
		a.Log().Warn("Error checking category permissions: " + err.Error())
		return nil
	}

	if perms&discordgo.PermissionManageChannels == 0 {
		return &InsufficientPermissionError{
			Guidance: fmt.Sprintf(messages.CategoryPermissionFix, categoryName(a, settings.VerificationCategoryID)),
		}
	}
	return nil
}

func channelCreateGuidance(a IApp, settings *entities.Settings) string {
	guidance := messages.ChannelCreateFix
	if settings.VerificationCategoryID != "" {
		guidance += fmt.Sprintf(messages.ChannelCreateCategoryHint, categoryName(a, settings.VerificationCategoryID))
	}
	return guidance
}

func categoryName(a IApp, categoryID string) string {
	if ch, err := a.Session().Channel(categoryID); err == nil {
		return ch.Name
	}
	return "verification"
}

// ticketOverwrites builds the permission overwrites for a ticket channel:
// hidden from everyone, visible to the requester, the bot, and the notified
// roles.
func ticketOverwrites(guildID, requesterID, botID string, notifyRoles []*discordgo.Role) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			// The @everyone role shares the guild ID.
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    requesterID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory,
		},
		{
			ID:   botID,
			Type: discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
				discordgo.PermissionManageChannels | discordgo.PermissionManageMessages | discordgo.PermissionEmbedLinks,
		},
	}

	for _, role := range notifyRoles {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    role.ID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory,
		})
	}
	return overwrites
}

func roleMentions(roles []*discordgo.Role) string {
	mentions := make([]string, 0, len(roles))
	for _, role := range roles {
		mentions = append(mentions, role.Mention())
	}
	return strings.Join(mentions, " ")
}

// ticketEmbed builds the opening message of a ticket channel.
func ticketEmbed(ticket *entities.Ticket, info entities.RequestTypeInfo, requester *discordgo.User) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "📋 " + info.Title,
		Description: fmt.Sprintf("**User:** %s\n**Request Type:** %s\n**Ticket ID:** #%d",
			requester.Mention(), titleCase(string(ticket.Type)), ticket.ID),
		Color: info.Color,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Instructions for Moderators",
				Value: "Use `/approve [reason]` to approve this request or `/deny [reason]` to deny it.",
			},
		},
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: requester.AvatarURL(""),
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "User ID: " + requester.ID,
		},
	}
}
