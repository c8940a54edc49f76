package auth

import (
	"context"
	"fmt"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	clerkuser "github.com/clerk/clerk-sdk-go/v2/user"

	"github.com/debemdeboas/archive-console/internal/model"
)

type ClerkAuthProvider struct {
	adminID model.UserID

	verify func(ctx context.Context, token string) (*clerk.SessionClaims, error)
	lookup func(ctx context.Context, id string) (*clerk.User, error)
}

func NewClerkAuthProvider(clerkKey string, adminID model.UserID) *ClerkAuthProvider {
	clerk.SetKey(clerkKey)

	return &ClerkAuthProvider{
		adminID: adminID,
		verify: func(ctx context.Context, token string) (*clerk.SessionClaims, error) {
			return jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
		},
		lookup: clerkuser.Get,
	}
}

func (c *ClerkAuthProvider) subject(ctx context.Context, token string) (model.UserID, error) {
	if token == "" {
		return "", ErrTokenMissing
	}

	claims, err := c.verify(ctx, token)
	if err != nil {
		return "", fmt.Errorf("verify session token: %w", err)
	}
	return model.UserID(claims.Subject), nil
}

// Authorize lets through the configured admin only. Without a configured admin every
// verified user is accepted.
func (c *ClerkAuthProvider) Authorize(ctx context.Context, token string) (context.Context, error) {
	userID, err := c.subject(ctx, token)
	if err != nil {
		return ctx, err
	}

	if c.adminID != "" && userID != c.adminID {
		authLogger.Warn().Str("user_id", string(userID)).Msg("Unauthorized access attempt")
		return ctx, ErrNotAdmin
	}

	return ContextWithUserID(ctx, userID), nil
}

func (c *ClerkAuthProvider) WhoAmI(ctx context.Context, token string) (Identity, error) {
	userID, err := c.subject(ctx, token)
	if err != nil {
		return Identity{}, err
	}

	usr, err := c.lookup(ctx, string(userID))
	if err != nil {
		return Identity{UserID: userID}, fmt.Errorf("get user %s: %w", userID, err)
	}

	id := Identity{UserID: model.UserID(usr.ID)}
	if usr.Username != nil {
		id.Username = *usr.Username
	}
	for _, addr := range usr.EmailAddresses {
		if addr == nil {
			continue
		}
		if usr.PrimaryEmailAddressID != nil && addr.ID == *usr.PrimaryEmailAddressID {
			id.Email = addr.EmailAddress
			break
		}
		if id.Email == "" {
			id.Email = addr.EmailAddress
		}
	}
	return id, nil
}
