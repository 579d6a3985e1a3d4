package main

import (
	"fmt"

	"github.com/veldhuis/gatekeeper/pkg/messages"
)

// UserError is an error that carries a message suitable for showing to the
// interacting user. Dispatch replies with the user message; the wrapped
// detail goes to the log only.
type UserError interface {
	error

	// UserMessage returns the message shown to the interacting user.
	UserMessage() string
}

// InsufficientPermissionError is returned when the bot is missing the
// permissions it needs for an operation.
type InsufficientPermissionError struct {
	// Guidance is the remediation shown to the user.
	Guidance string

	// Err is the underlying error, if any.
	Err error
}

func (e *InsufficientPermissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("insufficient permissions: %s", e.Err)
	}
	return "insufficient permissions"
}

func (e *InsufficientPermissionError) UserMessage() string {
	return e.Guidance
}

func (e *InsufficientPermissionError) Unwrap() error {
	return e.Err
}

// UnauthorizedError is returned when the interacting user is not allowed to
// moderate verification requests.
type UnauthorizedError struct{}

func (e *UnauthorizedError) Error() string {
	return "user is not a moderator"
}

func (e *UnauthorizedError) UserMessage() string {
	return messages.ErrNoModPermission
}

// MemberNotFoundError is returned when the requester of a verification
// channel is no longer a member of the guild.
type MemberNotFoundError struct {
	// UserID is the ID of the missing member.
	UserID string
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("member %s not found in guild", e.UserID)
}

func (e *MemberNotFoundError) UserMessage() string {
	return messages.ErrMemberLeft
}

// RoleGrantError is returned when a role could not be granted to an approved
// requester. The approval is aborted so that no misleading confirmation is
// sent.
type RoleGrantError struct {
	// RoleName is the display name of the role that could not be granted.
	RoleName string

	// Guidance is the remediation shown to the moderator.
	Guidance string

	// Err is the underlying error.
	Err error
}

func (e *RoleGrantError) Error() string {
	return fmt.Sprintf("error granting role %s: %s", e.RoleName, e.Err)
}

func (e *RoleGrantError) UserMessage() string {
	return e.Guidance
}

func (e *RoleGrantError) Unwrap() error {
	return e.Err
}
