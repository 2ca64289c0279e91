/*
Package user contains the core data structure describing a chat participant's identity.

Identity is owned by the authentication subsystem; this service only consumes it.
The resolved identity is attached to a connection at handshake time and is immutable
for the lifetime of that connection.
*/
package user

// User represents the resolved identity of a chat participant.
// Fields use JSON tags for serialization in WebSocket messages.
type User struct {

	// ID is the unique identifier of the user (UUID issued by the identity system).
	ID string `json:"id"`

	// DisplayName is the name shown to other participants.
	DisplayName string `json:"displayName"`

	// Email is the user's account email.
	Email string `json:"email,omitempty"`

	// Role is the user's role in the admin system (e.g., "admin", "client").
	Role string `json:"role,omitempty"`
}
