package main

import (
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/veldhuis/gatekeeper/pkg/entities"
)

// Embed colors.
const (
	colorGreen   = 0x2ecc71
	colorBlue    = 0x3498db
	colorRed     = 0xe74c3c
	colorGold    = 0xf1c40f
	colorOrange  = 0xe67e22
	colorBlurple = 0x5865f2
)

func respondEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondEphemeralEmbed(a IApp, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondEphemeralComplex(a IApp, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) error {
	data.Flags |= discordgo.MessageFlagsEphemeral
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// hasAnyRole reports whether the member holds any of the given role IDs.
func hasAnyRole(member *discordgo.Member, roleIDs []string) bool {
	for _, held := range member.Roles {
		for _, want := range roleIDs {
			if held == want {
				return true
			}
		}
	}
	return false
}

// isAdministrator reports whether the member has the administrator permission.
func isAdministrator(member *discordgo.Member) bool {
	return member != nil && member.Permissions&discordgo.PermissionAdministrator != 0
}

// canModerate reports whether the member may approve or deny verification
// requests. Any configured moderator role qualifies, as does administrator.
func canModerate(member *discordgo.Member, settings *entities.Settings) bool {
	if member == nil {
		return false
	}
	if isAdministrator(member) {
		return true
	}
	return hasAnyRole(member, settings.ModeratorRoleIDs())
}

// resolveRole looks a role up in state, falling back to the REST API when the
// state is cold.
func resolveRole(a IApp, guildID, roleID string) (*discordgo.Role, error) {
	if roleID == "" {
		return nil, errors.New("role not configured")
	}

	if role, err := a.Session().State.Role(guildID, roleID); err == nil {
		return role, nil
	}

	roles, err := a.Session().GuildRoles(guildID)
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		if role.ID == roleID {
			return role, nil
		}
	}
	return nil, errors.New("role " + roleID + " not found in guild")
}

// optionString returns the value of the named string option, or the fallback
// when the option was not supplied.
func optionString(i *discordgo.InteractionCreate, name, fallback string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return fallback
}

// isPermissionError reports whether the error is a Discord missing
// permissions or missing access response.
func isPermissionError(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return false
	}
	return restErr.Message.Code == discordgo.ErrCodeMissingPermissions ||
		restErr.Message.Code == discordgo.ErrCodeMissingAccess
}

// titleCase upper-cases the first letter of each word. Used for showing
// request types and role keys to humans.
func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for idx, w := range words {
		words[idx] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
