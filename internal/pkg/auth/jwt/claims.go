package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims consumed by the chat core.
// The token is issued by the authentication subsystem; this service only parses and
// validates it to resolve a user identity.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the unique identifier of the token subject (the user's UUID).
	ID string `json:"id"`

	// DisplayName is the user's display name at token issue time.
	DisplayName string `json:"displayName"`

	// Email is the user's account email.
	Email string `json:"email"`

	// Role is the user's role in the admin system.
	Role string `json:"role"`
}
