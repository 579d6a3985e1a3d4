package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// RequestType is the kind of verification a member has asked for.
type RequestType string

const (
	RequestCitizen   RequestType = "citizen"
	RequestForeigner RequestType = "foreigner"
	RequestEmbassy   RequestType = "embassy"
)

// RequestTypeInfo describes how a request type is routed and presented.
type RequestTypeInfo struct {
	// Title is the heading on the ticket embed.
	Title string

	// Color is the embed colour.
	Color int

	// NotifyRoleKeys are the role bindings pinged when a ticket opens.
	NotifyRoleKeys []string

	// GrantRoleKey is the binding granted on approval. Empty when approval
	// grants no role.
	GrantRoleKey string
}

// RequestTypes is the routing table for the three request types. Creation and
// decision handling both branch off this table.
var RequestTypes = map[RequestType]RequestTypeInfo{
	RequestCitizen: {
		Title:          "Citizenship Verification Request",
		Color:          0x2ecc71,
		NotifyRoleKeys: []string{RoleBorderControl},
		GrantRoleKey:   RoleBelgian,
	},
	RequestForeigner: {
		Title:          "Foreigner Verification Request",
		Color:          0x3498db,
		NotifyRoleKeys: []string{RoleBorderControl},
		GrantRoleKey:   RoleForeigner,
	},
	RequestEmbassy: {
		Title:          "Emergency Embassy Request",
		Color:          0xe74c3c,
		NotifyRoleKeys: []string{RoleMinisterForeignAffairs, RolePresident, RoleVicePresident},
	},
}

// maxChannelNameLen is the channel name limit imposed by Discord.
const maxChannelNameLen = 100

// Ticket is one verification request. It has no record of its own: the ticket
// channel's name and topic are the only place this data lives, so the encoding
// below is the wire contract between channel creation and decision handling.
// Deleting the channel deletes the ticket.
type Ticket struct {
	// ID is the ticket number taken from the settings counter at creation.
	ID int

	// Type is the request type.
	Type RequestType

	// RequesterID is the Discord user ID of the member who opened the ticket.
	RequesterID string

	// RequesterName is the username of the member who opened the ticket.
	RequesterName string
}

// ChannelName returns the ticket channel name: {type}-{id}-{username},
// lowercased, spaces replaced with hyphens, truncated to the Discord limit.
func (t *Ticket) ChannelName() string {
	name := fmt.Sprintf("%s-%d-%s", t.Type, t.ID, t.RequesterName)
	name = strings.ReplaceAll(strings.ToLower(name), " ", "-")
	// Truncate on runes so a multibyte username cannot leave an invalid
	// UTF-8 sequence at the cut.
	if runes := []rune(name); len(runes) > maxChannelNameLen {
		name = string(runes[:maxChannelNameLen])
	}
	return name
}

// Topic returns the channel topic carrying the ticket metadata.
func (t *Ticket) Topic() string {
	return fmt.Sprintf("Verification request by %s | Type: %s | ID: %d | User ID: %s",
		t.RequesterName, t.Type, t.ID, t.RequesterID)
}

// ParseTicketChannel reconstructs a ticket from a channel's name and topic. It
// returns ErrNotATicket when the name does not carry a known request type
// prefix, and ErrUnresolvableRequester when the channel is a ticket but its
// topic no longer identifies the requester.
func ParseTicketChannel(name, topic string) (*Ticket, error) {
	requestType, ok := requestTypeFromName(name)
	if !ok {
		return nil, ErrNotATicket
	}

	t := &Ticket{
		Type: requestType,
	}

	// The ticket number sits between the type prefix and the username. Best
	// effort only; the requester ID below is what decisions act on.
	if parts := strings.SplitN(name, "-", 3); len(parts) >= 2 {
		if id, err := strconv.Atoi(parts[1]); err == nil {
			t.ID = id
		}
	}

	requesterID, err := requesterIDFromTopic(topic)
	if err != nil {
		return nil, err
	}
	t.RequesterID = requesterID

	return t, nil
}

func requestTypeFromName(name string) (RequestType, bool) {
	for requestType := range RequestTypes {
		if strings.HasPrefix(name, string(requestType)+"-") {
			return requestType, true
		}
	}
	return "", false
}

func requesterIDFromTopic(topic string) (string, error) {
	for _, part := range strings.Split(topic, "|") {
		if !strings.Contains(part, "User ID:") {
			continue
		}

		segments := strings.Split(part, ":")
		raw := strings.TrimSpace(segments[len(segments)-1])

		// User IDs are Discord snowflakes; anything non-numeric is damage.
		if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
			return "", ErrUnresolvableRequester
		}
		return raw, nil
	}
	return "", ErrUnresolvableRequester
}
