package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	"github.com/Zhima-Mochi/bookmarket/internal/domain/sellerrequest"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/memory"
)

func TestLoginCreatesThenRefreshes(t *testing.T) {
	accounts := memory.NewAccountRepository()
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	now := t0
	s := NewService(accounts, memory.NewSellerRequestRepository(), func() time.Time { return now }, nil)
	ctx := context.Background()

	a, err := s.Login(ctx, LoginInput{Email: " Ann@Example.com ", Name: "Ann"})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if a.Email != "ann@example.com" || a.Role != domain.RoleCustomer || !a.CreatedAt.Equal(t0) {
		t.Fatalf("unexpected account: %+v", a)
	}

	if err := accounts.SetRole(ctx, "ann@example.com", domain.RoleLibrarian); err != nil {
		t.Fatalf("set role: %v", err)
	}
	now = t0.Add(time.Hour)
	a, err = s.Login(ctx, LoginInput{Email: "ann@example.com", Name: "Someone Else"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if a.Role != domain.RoleLibrarian || !a.CreatedAt.Equal(t0) || !a.LastLoginAt.Equal(now) || a.Name != "Ann" {
		t.Fatalf("returning login changed more than last login: %+v", a)
	}

	if _, err := s.Login(ctx, LoginInput{}); !errors.Is(err, application.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestSellerRequestFlow(t *testing.T) {
	accounts := memory.NewAccountRepository()
	requests := memory.NewSellerRequestRepository()
	s := NewService(accounts, requests, nil, nil)
	ctx := context.Background()

	if _, err := s.Login(ctx, LoginInput{Email: "bob@example.com"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := s.RequestSeller(ctx, "bob@example.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := s.RequestSeller(ctx, "BOB@example.com"); !errors.Is(err, sellerrequest.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	if err := s.UpdateRole(ctx, "bob@example.com", "librarian"); err != nil {
		t.Fatalf("update role: %v", err)
	}
	role, err := s.ResolveRole(ctx, "bob@example.com")
	if err != nil || role != domain.RoleLibrarian {
		t.Fatalf("role = %q, err = %v", role, err)
	}
	reqs, err := s.SellerRequests(ctx)
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}
	if len(reqs) != 0 {
		t.Fatalf("request not closed: %+v", reqs)
	}

	if err := s.UpdateRole(ctx, "bob@example.com", "owner"); !errors.Is(err, application.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if err := s.UpdateRole(ctx, "nobody@example.com", "admin"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if err := s.RejectSeller(ctx, "bob@example.com"); !errors.Is(err, sellerrequest.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestUsersExcludesCaller(t *testing.T) {
	s := NewService(memory.NewAccountRepository(), memory.NewSellerRequestRepository(), nil, nil)
	ctx := context.Background()
	for _, e := range []string{"admin@example.com", "a@example.com", "b@example.com"} {
		if _, err := s.Login(ctx, LoginInput{Email: e}); err != nil {
			t.Fatalf("login %s: %v", e, err)
		}
	}
	users, err := s.Users(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
	for _, u := range users {
		if u.Email == "admin@example.com" {
			t.Fatal("caller listed")
		}
	}
}
