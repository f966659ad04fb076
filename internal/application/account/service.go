package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	"github.com/Zhima-Mochi/bookmarket/internal/domain/sellerrequest"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const accountService = "account-service"

// RoleResolver answers which role an authenticated email holds.
type RoleResolver interface {
	ResolveRole(ctx context.Context, email string) (domain.Role, error)
}

type Service struct {
	accounts domain.Repository
	requests sellerrequest.Repository
	now      func() time.Time
	in       application.Instrument
}

var _ RoleResolver = (*Service)(nil)

func NewService(accounts domain.Repository, requests sellerrequest.Repository, now func() time.Time, tel observability.Observability) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		accounts: accounts,
		requests: requests,
		now:      now,
		in:       application.NewInstrument(tel, accountService),
	}
}

type LoginInput struct {
	Email string
	Name  string
	Image string
}

// Login records a sign-in. The first one creates a customer account; later
// ones only refresh the last login time.
func (s *Service) Login(ctx context.Context, in LoginInput) (_ *domain.Account, err error) {
	ctx, run := s.in.Begin(ctx, "account.login", "Login")
	defer func() { run.End(ctx, err) }()

	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		run.Fail("EMAIL_REQUIRED")
		return nil, application.NewValidation("email is required")
	}
	now := s.now()

	existing, err := s.accounts.Get(ctx, email)
	switch {
	case err == nil:
		run.Status = "RETURNING"
		if err := s.accounts.TouchLogin(ctx, email, now); err != nil {
			run.Fail("REPO_TOUCH_FAILED")
			return nil, application.WrapRepositoryError(err, domain.ErrNotFound)
		}
		existing.LastLoginAt = now
		return existing, nil
	case errors.Is(err, domain.ErrNotFound):
	default:
		run.Fail("REPO_GET_FAILED")
		return nil, application.WrapRepositoryError(err)
	}

	a := &domain.Account{
		Email:       email,
		Name:        in.Name,
		Image:       in.Image,
		Role:        domain.RoleCustomer,
		CreatedAt:   now,
		LastLoginAt: now,
	}
	if err := s.accounts.Insert(ctx, a); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// lost a race with a concurrent first login
			run.Status = "RETURNING"
			if err := s.accounts.TouchLogin(ctx, email, now); err != nil {
				run.Fail("REPO_TOUCH_FAILED")
				return nil, application.WrapRepositoryError(err)
			}
			return s.accounts.Get(ctx, email)
		}
		run.Fail("REPO_INSERT_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	run.Status = "CREATED"
	return a, nil
}

func (s *Service) ResolveRole(ctx context.Context, email string) (domain.Role, error) {
	a, err := s.accounts.Get(ctx, email)
	if err != nil {
		return "", application.WrapRepositoryError(err, domain.ErrNotFound)
	}
	return a.Role, nil
}

// Profile returns the caller's own account.
func (s *Service) Profile(ctx context.Context, email string) (*domain.Account, error) {
	a, err := s.accounts.Get(ctx, email)
	if err != nil {
		return nil, application.WrapRepositoryError(err, domain.ErrNotFound)
	}
	return a, nil
}

// RequestSeller files the caller's application to become a librarian.
func (s *Service) RequestSeller(ctx context.Context, email string) (err error) {
	ctx, run := s.in.Begin(ctx, "account.request_seller", "RequestSeller")
	defer func() { run.End(ctx, err) }()

	email = domain.NormalizeEmail(email)
	if email == "" {
		run.Fail("EMAIL_REQUIRED")
		return application.ErrUnauthorized
	}
	if err := s.requests.Insert(ctx, &sellerrequest.Request{Email: email, CreatedAt: s.now()}); err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return application.WrapRepositoryError(err, sellerrequest.ErrConflict)
	}
	return nil
}

func (s *Service) SellerRequests(ctx context.Context) ([]*sellerrequest.Request, error) {
	reqs, err := s.requests.List(ctx)
	if err != nil {
		return nil, application.WrapRepositoryError(err)
	}
	return reqs, nil
}

// RejectSeller drops a pending seller request without changing the role.
func (s *Service) RejectSeller(ctx context.Context, email string) (err error) {
	ctx, run := s.in.Begin(ctx, "account.reject_seller", "RejectSeller")
	defer func() { run.End(ctx, err) }()

	if err := s.requests.Delete(ctx, email); err != nil {
		run.Fail("REPO_DELETE_FAILED")
		return application.WrapRepositoryError(err, sellerrequest.ErrNotFound)
	}
	return nil
}

// Users lists every account except the caller's.
func (s *Service) Users(ctx context.Context, caller string) ([]*domain.Account, error) {
	users, err := s.accounts.List(ctx, caller)
	if err != nil {
		return nil, application.WrapRepositoryError(err)
	}
	return users, nil
}

// UpdateRole sets an account's role and closes any seller request it had.
func (s *Service) UpdateRole(ctx context.Context, email, role string) (err error) {
	ctx, run := s.in.Begin(ctx, "account.update_role", "UpdateRole", attribute.String("account.role", role))
	defer func() { run.End(ctx, err) }()

	if strings.TrimSpace(email) == "" {
		run.Fail("EMAIL_REQUIRED")
		return application.NewValidation("email is required")
	}
	r, perr := domain.ParseRole(role)
	if perr != nil {
		run.Fail("ROLE_INVALID")
		return application.NewValidation(perr.Error())
	}
	if err := s.accounts.SetRole(ctx, email, r); err != nil {
		run.Fail("REPO_SET_ROLE_FAILED")
		return application.WrapRepositoryError(err, domain.ErrNotFound)
	}
	if err := s.requests.Delete(ctx, email); err != nil && !errors.Is(err, sellerrequest.ErrNotFound) {
		run.Fail("REPO_DELETE_REQUEST_FAILED")
		return application.WrapRepositoryError(err)
	}
	return nil
}
