package auth

import (
	"context"
	"os"
	"strings"

	"github.com/debemdeboas/archive-console/internal/config"
)

// StaticTokenSource always hands out the same token.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// EnvTokenSource reads the token from the environment on every call, so a rotated token is
// picked up without restarting.
type EnvTokenSource struct {
	Name   string
	Lookup func(string) (string, bool)
}

func NewEnvTokenSource() EnvTokenSource {
	return EnvTokenSource{Name: config.EnvToken, Lookup: os.LookupEnv}
}

// Token returns an empty token when the variable is unset. The request still goes out and
// the API answers 401.
func (e EnvTokenSource) Token(context.Context) (string, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	name := e.Name
	if name == "" {
		name = config.EnvToken
	}

	v, ok := lookup(name)
	if !ok {
		authLogger.Debug().Str("env", name).Msg("No API token in environment")
		return "", nil
	}
	return strings.TrimSpace(v), nil
}
