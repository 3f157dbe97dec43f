package chat

import (
	"context"
	"regexp"
	"strings"

	"github.com/techtribe/studio-api/internal/apperr"
)

// SessionResolver turns the client-presented session token into the key the
// store is addressed by.
type SessionResolver interface {
	Resolve(ctx context.Context, raw string) (string, error)
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ClientSessionResolver trusts the id the widget generated for itself
// ("chat_<random>") as long as it is well formed.
type ClientSessionResolver struct{}

func (ClientSessionResolver) Resolve(_ context.Context, raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if !sessionIDPattern.MatchString(id) {
		return "", apperr.Validation("Sessiya identifikatoru yanlışdır")
	}
	return id, nil
}
