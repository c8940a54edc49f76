package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/clerk/clerk-sdk-go/v2"

	"github.com/debemdeboas/archive-console/internal/config"
	"github.com/debemdeboas/archive-console/internal/model"
)

const errUnexpected = "Unexpected error: %v"

func strPtr(s string) *string { return &s }

func newTestClerkProvider(adminID model.UserID, subject string, verifyErr error) *ClerkAuthProvider {
	return &ClerkAuthProvider{
		adminID: adminID,
		verify: func(ctx context.Context, token string) (*clerk.SessionClaims, error) {
			if verifyErr != nil {
				return nil, verifyErr
			}
			claims := &clerk.SessionClaims{}
			claims.Subject = subject
			return claims, nil
		},
		lookup: func(ctx context.Context, id string) (*clerk.User, error) {
			return &clerk.User{
				ID:                    id,
				Username:              strPtr("debem"),
				PrimaryEmailAddressID: strPtr("em_2"),
				EmailAddresses: []*clerk.EmailAddress{
					{ID: "em_1", EmailAddress: "old@example.com"},
					{ID: "em_2", EmailAddress: "primary@example.com"},
				},
			}, nil
		},
	}
}

func TestClerkAuthorize(t *testing.T) {
	testCases := []struct {
		name      string
		adminID   model.UserID
		subject   string
		token     string
		verifyErr error
		wantErr   error
	}{
		{name: "admin passes", adminID: "user_admin", subject: "user_admin", token: "jwt"},
		{name: "any verified user without configured admin", subject: "user_other", token: "jwt"},
		{name: "non-admin rejected", adminID: "user_admin", subject: "user_other", token: "jwt", wantErr: ErrNotAdmin},
		{name: "missing token", adminID: "user_admin", wantErr: ErrTokenMissing},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestClerkProvider(tc.adminID, tc.subject, tc.verifyErr)

			ctx, err := p.Authorize(context.Background(), tc.token)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Expected %v, got %v", tc.wantErr, err)
				}
				if _, ok := UserIDFromContext(ctx); ok {
					t.Error("Expected no user ID in context on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf(errUnexpected, err)
			}

			userID, ok := UserIDFromContext(ctx)
			if !ok || userID != model.UserID(tc.subject) {
				t.Errorf("Expected user ID '%s', got '%s'", tc.subject, userID)
			}
		})
	}
}

func TestClerkAuthorizeVerifyFailure(t *testing.T) {
	p := newTestClerkProvider("user_admin", "", errors.New("token expired"))

	_, err := p.Authorize(context.Background(), "jwt")
	if err == nil || errors.Is(err, ErrNotAdmin) {
		t.Fatalf("Expected verification error, got %v", err)
	}
}

func TestClerkWhoAmI(t *testing.T) {
	p := newTestClerkProvider("", "user_42", nil)

	id, err := p.WhoAmI(context.Background(), "jwt")
	if err != nil {
		t.Fatalf(errUnexpected, err)
	}
	if id.UserID != "user_42" || id.Username != "debem" || id.Email != "primary@example.com" {
		t.Errorf("Unexpected identity %+v", id)
	}
}

func TestOpenProvider(t *testing.T) {
	p := OpenProvider{}
	if _, err := p.Authorize(context.Background(), ""); !errors.Is(err, ErrTokenMissing) {
		t.Errorf("Expected ErrTokenMissing, got %v", err)
	}
	if _, err := p.Authorize(context.Background(), "anything"); err != nil {
		t.Errorf(errUnexpected, err)
	}
}

func TestNewProvider(t *testing.T) {
	if _, ok := NewProvider(config.AuthConfig{EnforceGate: false}, "sk_test").(OpenProvider); !ok {
		t.Error("Expected open provider when the gate is off")
	}
	if _, ok := NewProvider(config.AuthConfig{EnforceGate: true}, "").(OpenProvider); !ok {
		t.Error("Expected open provider without a secret key")
	}
	if _, ok := NewProvider(config.AuthConfig{EnforceGate: true, AdminUserID: "u"}, "sk_test").(*ClerkAuthProvider); !ok {
		t.Error("Expected Clerk provider when the gate is on")
	}
}

func TestTokenSources(t *testing.T) {
	t.Run("static token is trimmed", func(t *testing.T) {
		tok, _ := StaticTokenSource("  abc \n").Token(context.Background())
		if tok != "abc" {
			t.Errorf("Expected 'abc', got %q", tok)
		}
	})

	t.Run("env token", func(t *testing.T) {
		src := EnvTokenSource{Name: "TOK", Lookup: func(name string) (string, bool) {
			if name == "TOK" {
				return "from-env", true
			}
			return "", false
		}}
		tok, err := src.Token(context.Background())
		if err != nil || tok != "from-env" {
			t.Errorf("Expected 'from-env', got %q (%v)", tok, err)
		}
	})

	t.Run("unset env yields empty token", func(t *testing.T) {
		src := EnvTokenSource{Name: "TOK", Lookup: func(string) (string, bool) { return "", false }}
		tok, err := src.Token(context.Background())
		if err != nil || tok != "" {
			t.Errorf("Expected empty token, got %q (%v)", tok, err)
		}
	})

	t.Run("env source reads the process environment", func(t *testing.T) {
		t.Setenv(config.EnvToken, "process-token")
		tok, _ := NewEnvTokenSource().Token(context.Background())
		if tok != "process-token" {
			t.Errorf("Expected 'process-token', got %q", tok)
		}
	})
}

func TestUserIDContext(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "u1")
	if id, ok := UserIDFromContext(ctx); !ok || id != "u1" {
		t.Errorf("Expected 'u1', got %q", id)
	}
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Error("Expected no user ID in empty context")
	}
}
