package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/domain/identity"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifyRoundTrip(t *testing.T) {
	v, err := New("s3cret")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tok, err := v.Issue("ann@example.com", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Email != "ann@example.com" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestVerifyRejects(t *testing.T) {
	v, _ := New("s3cret")
	other, _ := New("other")

	expired, _ := v.Issue("ann@example.com", -time.Minute)
	foreign, _ := other.Issue("ann@example.com", time.Minute)
	noEmail, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("s3cret"))
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS384, Claims{Email: "ann@example.com"}).SignedString([]byte("s3cret"))

	tests := map[string]string{
		"garbage":       "not-a-token",
		"expired":       expired,
		"wrong secret":  foreign,
		"missing email": noEmail,
		"wrong alg":     wrongAlg,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(context.Background(), tok); !errors.Is(err, identity.ErrInvalidCredential) {
				t.Fatalf("expected invalid credential, got %v", err)
			}
		})
	}
}
