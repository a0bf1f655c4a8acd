package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "TESTKITE_API_KEY=key123\nTESTKITE_API_SECRET=secret\nTESTKITE_ACCESS_TOKEN=tok\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("TESTKITE_API_KEY")
		os.Unsetenv("TESTKITE_API_SECRET")
		os.Unsetenv("TESTKITE_ACCESS_TOKEN")
	})

	creds, err := Load(path, "testkite")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if creds.APIKey != "key123" || creds.APISecret != "secret" || creds.AccessToken != "tok" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
	if err := creds.Require("api_key", "access_token"); err != nil {
		t.Errorf("unexpected Require error: %v", err)
	}
}

func TestLoadEnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TESTALP_API_KEY=fromfile\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TESTALP_API_KEY", "fromenv")

	creds, err := Load(path, "TESTALP_")
	if err != nil {
		t.Fatal(err)
	}
	if creds.APIKey != "fromenv" {
		t.Errorf("expected environment to win, got %q", creds.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	creds, err := Load(filepath.Join(t.TempDir(), "nope.env"), "TESTNONE")
	if err != nil {
		t.Fatalf("missing env file should be tolerated: %v", err)
	}
	err = creds.Require("api_key")
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}
