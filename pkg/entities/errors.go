package entities

import "errors"

var (
	// ErrSettingsCorrupt is returned when the settings file is not well-formed JSON.
	ErrSettingsCorrupt = errors.New("settings file is corrupt")

	// ErrNotATicket is returned when a channel is not a verification ticket.
	ErrNotATicket = errors.New("channel is not a verification ticket")

	// ErrUnresolvableRequester is returned when a ticket channel's metadata no
	// longer identifies the requester.
	ErrUnresolvableRequester = errors.New("ticket requester could not be resolved")
)
