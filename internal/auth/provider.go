// Package auth supplies the bearer token for API calls and gates admin commands on the
// signed-in identity.
package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/archive-console/internal/config"
	"github.com/debemdeboas/archive-console/internal/model"
)

var authLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

var (
	ErrTokenMissing = errors.New(config.ErrTokenMissing)
	ErrNotAdmin     = errors.New(config.ErrNotAdmin)
)

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	UserID   model.UserID
	Username string
	Email    string
}

type AuthProvider interface {
	// Authorize checks token and returns ctx carrying the user ID.
	Authorize(ctx context.Context, token string) (context.Context, error)

	WhoAmI(ctx context.Context, token string) (Identity, error)
}

// OpenProvider accepts any token without verifying it. The API still rejects bad tokens.
type OpenProvider struct{}

func (OpenProvider) Authorize(ctx context.Context, token string) (context.Context, error) {
	if token == "" {
		return ctx, ErrTokenMissing
	}
	return ctx, nil
}

func (OpenProvider) WhoAmI(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrTokenMissing
	}
	return Identity{}, nil
}

// NewProvider returns the Clerk gate when enforce is set and a secret key is available,
// and the open provider otherwise.
func NewProvider(cfg config.AuthConfig, clerkSecretKey string) AuthProvider {
	if !cfg.EnforceGate {
		return OpenProvider{}
	}
	if clerkSecretKey == "" {
		authLogger.Warn().Msg("Admin gate enabled without " + config.EnvClerkSecretKey + ", tokens are not verified")
		return OpenProvider{}
	}
	return NewClerkAuthProvider(clerkSecretKey, model.UserID(cfg.AdminUserID))
}
