package firebase

import (
	"context"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/bookmarket/internal/domain/identity"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Verifier checks Firebase ID tokens with the Admin SDK.
type Verifier struct {
	client *auth.Client
}

var _ identity.Verifier = (*Verifier)(nil)

// New initialises the Firebase app for projectID. credentialsFile may be
// empty to use application default credentials.
func New(ctx context.Context, projectID, credentialsFile string) (*Verifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app (project=%s): %w", projectID, err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: init auth: %w", err)
	}
	return &Verifier{client: client}, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (identity.Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", identity.ErrInvalidCredential, err)
	}
	email, _ := tok.Claims["email"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		return identity.Identity{}, fmt.Errorf("%w: token carries no email", identity.ErrInvalidCredential)
	}
	return identity.Identity{UID: tok.UID, Email: email}, nil
}
