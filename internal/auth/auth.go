package auth

import (
	"context"
	"errors"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed payload of an identity token. Only the registered
// claims are used: sub, iat and exp.
type Claims struct {
	jwt.RegisteredClaims
}

// Identity is what the gate attaches to an admitted request.
type Identity struct {
	Subject string
}

// AuthResponseV1 is returned by register and login.
type AuthResponseV1 struct {
	Token string `json:"token"`
}

// AccountView is the public shape of the current account.
type AccountView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verification failures. The gate collapses all of them into one
// Unauthorized response; they stay distinct for logs, metrics and tests.
var (
	ErrMissingSecret    = errors.New("token signing secret is not configured")
	ErrMalformed        = errors.New("token is malformed")
	ErrExpired          = errors.New("token has expired")
	ErrInvalidSignature = errors.New("token signature is invalid")
)

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return internal.ContextWithSubject(ctx, id.Subject)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	subject := internal.SubjectFromContext(ctx)
	return Identity{Subject: subject}, subject != ""
}
