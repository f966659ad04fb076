package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// Resolve returns value when it is set and otherwise reads the latest
// version of secretName from Google Secret Manager.
func Resolve(ctx context.Context, value, projectID, secretName string, opts ...option.ClientOption) (string, error) {
	if v := strings.TrimSpace(value); v != "" {
		return v, nil
	}
	if strings.TrimSpace(secretName) == "" {
		return "", errors.New("secrets: neither a value nor a secret name is configured")
	}
	return Access(ctx, VersionName(projectID, secretName, ""), opts...)
}

// VersionName builds a secret version resource name. Names that already
// start with "projects/" are returned unchanged.
func VersionName(projectID, secret, version string) string {
	if strings.HasPrefix(secret, "projects/") {
		return secret
	}
	if version == "" {
		version = "latest"
	}
	return "projects/" + projectID + "/secrets/" + secret + "/versions/" + version
}

func Access(ctx context.Context, name string, opts ...option.ClientOption) (string, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("secrets: new client: %w", err)
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("secrets: access %s: %w", name, err)
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("secrets: empty payload for %s", name)
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}
