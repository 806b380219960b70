package rugsync_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rugbase/rugsync"
)

// testKeyPEM generates a throwaway RSA key in PEM form. Small key size keeps
// the tests fast; nothing here leaves the process.
func testKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	return string(pem.EncodeToMemory(block))
}

func testAccountJSON(t *testing.T, email string) string {
	t.Helper()
	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "rugbase-sheets",
		"private_key_id": "key-1",
		"private_key":    testKeyPEM(t),
		"client_email":   email,
		"client_id":      "1234567890",
		"token_uri":      "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestCredentialSource_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(testAccountJSON(t, "svc@example.iam.gserviceaccount.com")), 0600); err != nil {
		t.Fatal(err)
	}

	sa, err := rugsync.NewCredentialSource(path).Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if sa.ClientEmail != "svc@example.iam.gserviceaccount.com" {
		t.Errorf("ClientEmail = %q", sa.ClientEmail)
	}
}

func TestCredentialSource_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(testAccountJSON(t, "file@example.iam.gserviceaccount.com")), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(rugsync.CredentialsEnvVar, testAccountJSON(t, "env@example.iam.gserviceaccount.com"))

	sa, err := rugsync.NewCredentialSource(path).Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if sa.ClientEmail != "env@example.iam.gserviceaccount.com" {
		t.Errorf("ClientEmail = %q, want the environment credential", sa.ClientEmail)
	}
}

func TestCredentialSource_InvalidEnvironmentJSON(t *testing.T) {
	t.Setenv(rugsync.CredentialsEnvVar, "{broken")

	_, err := rugsync.NewCredentialSource(filepath.Join(t.TempDir(), "credentials.json")).Load()
	var cfgErr *rugsync.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Load() error = %v, want *ConfigError", err)
	}
	if cfgErr.Field != rugsync.CredentialsEnvVar {
		t.Errorf("ConfigError field = %q, want %q", cfgErr.Field, rugsync.CredentialsEnvVar)
	}
}

func TestCredentialSource_MissingFileWritesSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rugbase", "credentials.json")

	_, err := rugsync.NewCredentialSource(path).Load()
	var cfgErr *rugsync.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Load() error = %v, want *ConfigError", err)
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("sample credential file not written: %v", readErr)
	}
	if !strings.Contains(string(data), "service_account") {
		t.Errorf("sample file missing service_account marker: %s", data)
	}
}

func TestCredentialSource_NeverOverwritesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("half-finished edit"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := rugsync.NewCredentialSource(path).Load()
	if err == nil {
		t.Fatal("Load() succeeded on an unparseable credential file")
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(data) != "half-finished edit" {
		t.Errorf("credential file was overwritten: %q", data)
	}
}

func TestCredentialSource_CachesAfterFirstLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(testAccountJSON(t, "svc@example.iam.gserviceaccount.com")), 0600); err != nil {
		t.Fatal(err)
	}

	source := rugsync.NewCredentialSource(path)
	if _, err := source.Load(); err != nil {
		t.Fatalf("first Load() returned error: %v", err)
	}

	// deleting the backing file must not invalidate the cache
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	sa, err := source.Load()
	if err != nil {
		t.Fatalf("cached Load() returned error: %v", err)
	}
	if sa.ClientEmail != "svc@example.iam.gserviceaccount.com" {
		t.Errorf("cached ClientEmail = %q", sa.ClientEmail)
	}
}

func TestCredentialSource_MissingRequiredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account","client_email":"a@b.c"}`), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := rugsync.NewCredentialSource(path).Load()
	var cfgErr *rugsync.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Load() error = %v, want *ConfigError for missing private_key", err)
	}
}
