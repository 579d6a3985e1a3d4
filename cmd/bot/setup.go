package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/veldhuis/gatekeeper/pkg/entities"
	"github.com/veldhuis/gatekeeper/pkg/messages"
)

// adminPermission restricts a command to members with the administrator
// permission.
var adminPermission int64 = discordgo.PermissionAdministrator

// roleOptions maps the option names of setup-roles to the role keys they
// configure.
var roleOptions = []struct {
	Option string
	Key    string
}{
	{"belgian", entities.RoleBelgian},
	{"foreigner", entities.RoleForeigner},
	{"border_control", entities.RoleBorderControl},
	{"minister", entities.RoleMinisterForeignAffairs},
	{"president", entities.RolePresident},
	{"vice_president", entities.RoleVicePresident},
	{"government", entities.RoleGovernment},
}

var setupRolesCmd = &discordgo.ApplicationCommand{
	Name:                     "setup-roles",
	Description:              "Configure the roles used for verification",
	DefaultMemberPermissions: &adminPermission,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "belgian",
			Description: "Role granted to approved citizens",
		},
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "foreigner",
			Description: "Role granted to approved foreigners",
		},
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "border_control",
			Description: "Role notified of citizen and foreigner requests",
		},
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "minister",
			Description: "Minister of Foreign Affairs role, notified of embassy requests",
		},
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "president",
			Description: "President role, notified of embassy requests",
		},
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "vice_president",
			Description: "Vice President role, notified of embassy requests",
		},
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "government",
			Description: "Government role",
		},
	},
}

var setupChannelCmd = &discordgo.ApplicationCommand{
	Name:                     "setup-channel",
	Description:              "Configure the channels used for verification",
	DefaultMemberPermissions: &adminPermission,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionChannel,
			Name:        "welcome_channel",
			Description: "Channel where welcome messages are posted",
			ChannelTypes: []discordgo.ChannelType{
				discordgo.ChannelTypeGuildText,
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionChannel,
			Name:        "verification_category",
			Description: "Category where verification channels are created",
			ChannelTypes: []discordgo.ChannelType{
				discordgo.ChannelTypeGuildCategory,
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionChannel,
			Name:        "log_channel",
			Description: "Channel where decisions are logged",
			ChannelTypes: []discordgo.ChannelType{
				discordgo.ChannelTypeGuildText,
			},
		},
	},
}

var setupMessageCmd = &discordgo.ApplicationCommand{
	Name:                     "setup-message",
	Description:              "Set the welcome message shown to new members",
	DefaultMemberPermissions: &adminPermission,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "message",
			Description: "The welcome message text",
			Required:    true,
		},
	},
}

var testWelcomeCmd = &discordgo.ApplicationCommand{
	Name:                     "test-welcome",
	Description:              "Preview the welcome message",
	DefaultMemberPermissions: &adminPermission,
}

var viewConfigCmd = &discordgo.ApplicationCommand{
	Name:                     "view-config",
	Description:              "Show the current verification configuration",
	DefaultMemberPermissions: &adminPermission,
}

// requireAdministrator replies to non-administrators and reports whether the
// interaction may proceed.
func requireAdministrator(a IApp, i *discordgo.InteractionCreate) (bool, error) {
	if isAdministrator(i.Member) {
		return true, nil
	}
	if err := respondEphemeral(a, i, messages.ErrAdministratorOnly); err != nil {
		return false, fmt.Errorf("error responding to interaction: %w", err)
	}
	return false, nil
}

func setupRolesController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	if ok, err := requireAdministrator(a, i); !ok {
		return nil, err
	}
	return setupRoles, nil
}

func setupRoles(a IApp, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	settings, err := a.SettingsDal().Load(ctx)
	if err != nil {
		return fmt.Errorf("error loading settings: %w", err)
	}

	supplied := make(map[string]*discordgo.Role, len(i.ApplicationCommandData().Options))
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Type != discordgo.ApplicationCommandOptionRole {
			continue
		}
		supplied[opt.Name] = opt.RoleValue(a.Session(), i.GuildID)
	}

	var updated []string
	for _, binding := range roleOptions {
		role, ok := supplied[binding.Option]
		if !ok || role == nil {
			continue
		}
		settings.Roles[binding.Key] = role.ID
		updated = append(updated, fmt.Sprintf("%s: %s", titleCase(binding.Key), role.Mention()))
	}

	if len(updated) == 0 {
		return respondEphemeralEmbed(a, i, &discordgo.MessageEmbed{
			Title:       "ℹ️ No Changes",
			Description: "No roles were supplied, so nothing was updated.",
			Color:       colorOrange,
		})
	}

	if err := a.SettingsDal().Save(ctx, settings); err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}

	return respondEphemeralEmbed(a, i, &discordgo.MessageEmbed{
		Title:       "✅ Roles Updated",
		Description: strings.Join(updated, "\n"),
		Color:       colorGreen,
	})
}

func setupChannelController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	if ok, err := requireAdministrator(a, i); !ok {
		return nil, err
	}
	return setupChannel, nil
}

func setupChannel(a IApp, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	settings, err := a.SettingsDal().Load(ctx)
	if err != nil {
		return fmt.Errorf("error loading settings: %w", err)
	}

	var updated []string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Type != discordgo.ApplicationCommandOptionChannel {
			continue
		}
		ch := opt.ChannelValue(a.Session())
		if ch == nil {
			continue
		}

		switch opt.Name {
		case "welcome_channel":
			settings.WelcomeChannelID = ch.ID
			updated = append(updated, fmt.Sprintf("Welcome Channel: <#%s>", ch.ID))
		case "verification_category":
			settings.VerificationCategoryID = ch.ID
			updated = append(updated, fmt.Sprintf("Verification Category: %s", ch.Name))
		case "log_channel":
			settings.LogChannelID = ch.ID
			updated = append(updated, fmt.Sprintf("Log Channel: <#%s>", ch.ID))
		}
	}

	if len(updated) == 0 {
		return respondEphemeralEmbed(a, i, &discordgo.MessageEmbed{
			Title:       "ℹ️ No Changes",
			Description: "No channels were supplied, so nothing was updated.",
			Color:       colorOrange,
		})
	}

	if err := a.SettingsDal().Save(ctx, settings); err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}

	return respondEphemeralEmbed(a, i, &discordgo.MessageEmbed{
		Title:       "✅ Channels Updated",
		Description: strings.Join(updated, "\n"),
		Color:       colorGreen,
	})
}

func setupMessageController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	if ok, err := requireAdministrator(a, i); !ok {
		return nil, err
	}
	return setupMessage, nil
}

func setupMessage(a IApp, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	settings, err := a.SettingsDal().Load(ctx)
	if err != nil {
		return fmt.Errorf("error loading settings: %w", err)
	}

	settings.WelcomeMessage = optionString(i, "message", entities.DefaultWelcomeMessage)

	if err := a.SettingsDal().Save(ctx, settings); err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}

	return respondEphemeralEmbed(a, i, &discordgo.MessageEmbed{
		Title:       "✅ Welcome Message Updated",
		Description: settings.WelcomeMessage,
		Color:       colorGreen,
	})
}

func testWelcomeController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	if ok, err := requireAdministrator(a, i); !ok {
		return nil, err
	}
	return testWelcome, nil
}

func testWelcome(a IApp, i *discordgo.InteractionCreate) error {
	settings, err := a.SettingsDal().Load(context.Background())
	if err != nil {
		return fmt.Errorf("error loading settings: %w", err)
	}

	embed := welcomeEmbed(settings, i.Member.User, guildMemberCount(a, i.GuildID))
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "This is a test message"}

	return respondEphemeralComplex(a, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: welcomeComponents(),
	})
}

func viewConfigController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	if ok, err := requireAdministrator(a, i); !ok {
		return nil, err
	}
	return viewConfig, nil
}

func viewConfig(a IApp, i *discordgo.InteractionCreate) error {
	settings, err := a.SettingsDal().Load(context.Background())
	if err != nil {
		return fmt.Errorf("error loading settings: %w", err)
	}

	var roles []string
	for _, key := range entities.RoleKeys {
		display := titleCase(key)
		roleID := settings.Roles[key]
		switch {
		case roleID == "":
			roles = append(roles, fmt.Sprintf("%s: Not set", display))
		default:
			if _, err := resolveRole(a, i.GuildID, roleID); err != nil {
				roles = append(roles, fmt.Sprintf("%s: Not found", display))
				continue
			}
			roles = append(roles, fmt.Sprintf("%s: <@&%s>", display, roleID))
		}
	}

	channelOrNotSet := func(id string) string {
		if id == "" {
			return "Not set"
		}
		return fmt.Sprintf("<#%s>", id)
	}

	return respondEphemeralEmbed(a, i, &discordgo.MessageEmbed{
		Title: "⚙️ Current Configuration",
		Color: colorBlurple,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Roles",
				Value: strings.Join(roles, "\n"),
			},
			{
				Name: "Channels",
				Value: fmt.Sprintf("Welcome Channel: %s\nVerification Category: %s\nLog Channel: %s",
					channelOrNotSet(settings.WelcomeChannelID),
					channelOrNotSet(settings.VerificationCategoryID),
					channelOrNotSet(settings.LogChannelID)),
			},
			{
				Name:  "Ticket Counter",
				Value: fmt.Sprintf("#%d", settings.TicketCounter),
			},
		},
	})
}
