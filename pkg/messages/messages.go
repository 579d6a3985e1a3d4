// Package messages holds the user-facing strings sent in interaction replies.
package messages

const (
	// ErrUserErrorProcessing is the generic reply when a command fails unexpectedly.
	ErrUserErrorProcessing = "Something went wrong while processing your request. Please try again later."

	// ErrNotVerificationChannel is sent when approve/deny is used outside a ticket.
	ErrNotVerificationChannel = "This command can only be used in verification channels."

	// ErrUnresolvableRequester is sent when a ticket's topic no longer identifies the requester.
	ErrUnresolvableRequester = "Could not find the user for this request. Please check manually."

	// ErrNoModPermission is sent when a non-moderator tries to decide a request.
	ErrNoModPermission = "You don't have permission to use this command."

	// ErrMemberLeft is sent when the approval target is no longer in the guild.
	ErrMemberLeft = "The user is no longer in the server."

	// ErrAdministratorOnly is sent when a non-administrator uses a setup command.
	ErrAdministratorOnly = "You must be an administrator to use this command."

	// ErrTooManyRequests is sent when a user opens verification tickets too quickly.
	ErrTooManyRequests = "You are opening verification requests too quickly. Please wait a moment and try again."

	// DefaultReason is recorded when a moderator decides without giving a reason.
	DefaultReason = "No reason provided"
)

const (
	// CategoryPermissionFix explains how to let the bot create channels inside the
	// configured verification category. Takes the category name.
	CategoryPermissionFix = "I don't have permission to create channels in the **%s** category.\n\n" +
		"**Fix:** Go to the category settings > Permissions > Add the bot role with 'Manage Channels' enabled."

	// ChannelCreateFix explains how to let the bot create channels at all.
	ChannelCreateFix = "I don't have permission to create channels.\n\n" +
		"**Possible fixes:**\n" +
		"• Ensure the bot has 'Manage Channels' permission server-wide\n"

	// ChannelCreateCategoryHint is appended to ChannelCreateFix when a verification
	// category is configured. Takes the category name.
	ChannelCreateCategoryHint = "• Add the bot to the **%s** category with 'Manage Channels' permission\n"

	// RoleHierarchyFix explains the usual cause of a rejected role grant. Takes the
	// role name.
	RoleHierarchyFix = "I don't have permission to assign the %s role. " +
		"Make sure my bot role is **higher** than this role in Server Settings > Roles."
)
