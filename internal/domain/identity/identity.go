package identity

import (
	"context"
	"errors"
)

var ErrInvalidCredential = errors.New("identity: invalid credential")

// Identity is what a verified bearer credential resolves to.
type Identity struct {
	UID   string
	Email string
}

// Verifier validates a bearer credential against an identity provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
