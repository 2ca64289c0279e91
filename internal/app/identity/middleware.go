package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/user"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/resp"
)

// contextKey prevents key collisions with other packages storing request values.
type contextKey string

// contextUserKey is the key used to store the resolved user identity in the request Context.
const contextUserKey contextKey = "identity_user"

// RequireIdentity returns a middleware that resolves the Authorization bearer token
// and injects the identity into the request context. Requests without a valid
// identity are rejected with 401; there is no anonymous access to chat resources.
func (v *Verifier) RequireIdentity() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)

			u, customErr := v.Verify(r.Context(), token)
			if customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// WithUser returns a context carrying the resolved identity, as RequireIdentity
// would have injected it.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, contextUserKey, u)
}

// bearerToken extracts the token from the Authorization header, falling back to
// the "token" query parameter (used by WebSocket handshakes, where custom
// headers are not always available to browser clients).
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	return r.URL.Query().Get("token")
}

// FromContext extracts the authenticated user injected by RequireIdentity.
// The boolean is false when the middleware did not run for this request.
func FromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(contextUserKey).(user.User)
	return u, ok
}

// TokenFromRequest exposes bearer token extraction for the WebSocket handshake path.
func TokenFromRequest(r *http.Request) string {
	return bearerToken(r)
}
