package secrets

import (
	"context"
	"testing"
)

func TestVersionName(t *testing.T) {
	tests := []struct {
		project, secret, version, want string
	}{
		{"p1", "stripe-key", "", "projects/p1/secrets/stripe-key/versions/latest"},
		{"p1", "stripe-key", "3", "projects/p1/secrets/stripe-key/versions/3"},
		{"p1", "projects/p2/secrets/x/versions/1", "", "projects/p2/secrets/x/versions/1"},
	}
	for _, tt := range tests {
		if got := VersionName(tt.project, tt.secret, tt.version); got != tt.want {
			t.Errorf("VersionName(%q,%q,%q) = %q, want %q", tt.project, tt.secret, tt.version, got, tt.want)
		}
	}
}

func TestResolvePrefersValue(t *testing.T) {
	got, err := Resolve(context.Background(), " sk_test ", "", "")
	if err != nil || got != "sk_test" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := Resolve(context.Background(), "", "p", ""); err == nil {
		t.Fatal("expected error with nothing configured")
	}
}
