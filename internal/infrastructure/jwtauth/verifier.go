package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/domain/identity"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token body: the subject is the uid.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier accepts HS256 tokens signed with a shared secret. It serves local
// development and tests where no Firebase project exists.
type Verifier struct {
	secret []byte
}

var _ identity.Verifier = (*Verifier)(nil)

func New(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwtauth: secret is empty")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

func (v *Verifier) Verify(_ context.Context, token string) (identity.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", identity.ErrInvalidCredential, err)
	}
	if !parsed.Valid {
		return identity.Identity{}, identity.ErrInvalidCredential
	}
	email := strings.TrimSpace(claims.Email)
	if email == "" {
		return identity.Identity{}, fmt.Errorf("%w: token carries no email", identity.ErrInvalidCredential)
	}
	return identity.Identity{UID: claims.Subject, Email: email}, nil
}

// Issue signs a token for email valid for ttl.
func (v *Verifier) Issue(email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
