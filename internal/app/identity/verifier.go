/*
Package identity implements the identity verification consumed by the chat core.

Credentials are issued by the authentication subsystem; this package only resolves
a bearer token to an existing user. The WebSocket gateway and the REST API share
one Verifier so both paths apply the same rule: a token is accepted iff its
signature validates and its subject still exists.
*/
package identity

import (
	"context"
	"errors"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/store"
	"github.com/zechsoft/global-backfinal-sub000/internal/app/user"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/auth/jwt"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/errs"
)

// Verifier resolves bearer tokens to user identities.
type Verifier struct {
	secret string
	store  *store.Store
}

// NewVerifier constructs a Verifier using the shared JWT secret and the user store.
func NewVerifier(secret string, st *store.Store) *Verifier {
	return &Verifier{secret: secret, store: st}
}

// Verify parses and validates the token and confirms the subject still exists.
// It returns the resolved identity or a CustomError describing the failure.
func (v *Verifier) Verify(ctx context.Context, token string) (user.User, *errs.CustomError) {
	if token == "" {
		return user.User{}, errs.NewError(errs.ErrUnauthorized)
	}

	payload, err := jwt.ParseToken(token, v.secret)
	if err != nil {
		return user.User{}, errs.NewError(errs.ErrUnauthorized)
	}

	u, err := v.store.GetUserByID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			return user.User{}, errs.NewError(errs.ErrUserNotFound)
		}
		return user.User{}, errs.NewError(errs.ErrUnknown, err)
	}

	return u, nil
}
