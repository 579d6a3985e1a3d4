package entities

// Role binding keys used in the settings file.
const (
	RoleBelgian                = "belgian"
	RoleForeigner              = "foreigner"
	RoleBorderControl          = "border_control"
	RoleMinisterForeignAffairs = "minister_foreign_affairs"
	RolePresident              = "president"
	RoleVicePresident          = "vice_president"
	RoleGovernment             = "government"
)

// RoleKeys lists every role binding in the order it is presented to admins.
var RoleKeys = []string{
	RoleBelgian,
	RoleForeigner,
	RoleBorderControl,
	RoleMinisterForeignAffairs,
	RolePresident,
	RoleVicePresident,
	RoleGovernment,
}

// ModeratorRoleKeys are the bindings whose holders may approve or deny requests.
var ModeratorRoleKeys = []string{
	RoleBorderControl,
	RoleMinisterForeignAffairs,
	RolePresident,
	RoleVicePresident,
}

// DefaultWelcomeMessage is shown to new members until an admin overrides it.
const DefaultWelcomeMessage = "# Welcome to the Official Belgium War Era Server!\n\n" +
	"Greetings, traveler! You have arrived at the gates of Belgium.\n\n" +
	"Please select your status below to proceed with verification:"

// Settings is the bot configuration persisted to the settings file. The file is
// human-editable; every handler re-reads it before use so admin edits take effect
// without a restart.
type Settings struct {
	// WelcomeChannelID is the channel welcome messages are sent to. Empty means
	// the welcome flow is disabled.
	WelcomeChannelID string `json:"welcome_channel_id"`

	// VerificationCategoryID is the category ticket channels are created under.
	// Empty means tickets are created at the guild root.
	VerificationCategoryID string `json:"verification_category_id"`

	// LogChannelID is the channel decisions are logged to. Empty disables logging.
	LogChannelID string `json:"log_channel_id"`

	// Roles maps role binding keys to role IDs. An empty ID means unset.
	Roles map[string]string `json:"roles"`

	// WelcomeMessage is the body of the welcome embed.
	WelcomeMessage string `json:"welcome_message"`

	// TicketCounter is the last issued ticket number. It only ever increases.
	TicketCounter int `json:"ticket_counter"`
}

// DefaultSettings returns the settings used when no file exists yet.
func DefaultSettings() *Settings {
	s := &Settings{
		WelcomeMessage: DefaultWelcomeMessage,
	}
	s.MergeDefaults()
	return s
}

// MergeDefaults fills in any keys missing from a loaded settings object. This
// keeps settings files written by older versions working.
func (s *Settings) MergeDefaults() {
	if s.Roles == nil {
		s.Roles = make(map[string]string, len(RoleKeys))
	}
	for _, key := range RoleKeys {
		if _, ok := s.Roles[key]; !ok {
			s.Roles[key] = ""
		}
	}
	if s.WelcomeMessage == "" {
		s.WelcomeMessage = DefaultWelcomeMessage
	}
}

// ModeratorRoleIDs returns the configured moderator role IDs, skipping bindings
// that are unset.
func (s *Settings) ModeratorRoleIDs() []string {
	ids := make([]string, 0, len(ModeratorRoleKeys))
	for _, key := range ModeratorRoleKeys {
		if id := s.Roles[key]; id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
