/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Conversation and Room Business Logic Errors
const (
	// ErrConversationNotFound indicates that the requested conversation does not exist.
	ErrConversationNotFound = 2101

	// ErrRoomNotFound indicates that the requested chat room does not exist.
	ErrRoomNotFound = 2102

	// ErrRoomNameExists indicates that a room with the requested name already exists.
	ErrRoomNameExists = 2103

	// ErrAlreadyMember indicates that the user is already a participant of the room.
	ErrAlreadyMember = 2104

	// ErrNotMember indicates that the user is not a participant of the room.
	ErrNotMember = 2105

	// ErrNotParticipant indicates that the authenticated user is not a participant
	// of the target conversation or room.
	ErrNotParticipant = 2106

	// ErrEmptyContent indicates that a message was sent with empty content.
	ErrEmptyContent = 2201

	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2202

	// ErrSelfConversation indicates an attempt to open a conversation with oneself.
	ErrSelfConversation = 2203
)

// 3xxx: Identity and Session Errors
const (
	// ErrUnauthorized indicates a missing, invalid, or expired credential.
	ErrUnauthorized = 3001

	// ErrUserNotFound indicates that the token subject no longer resolves to an existing user.
	ErrUserNotFound = 3002

	// ErrSessionReplaced indicates that the connection was closed because the user
	// opened a newer connection.
	ErrSessionReplaced = 3003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrPersistence indicates that a storage operation failed or timed out.
	ErrPersistence = 5001
)
