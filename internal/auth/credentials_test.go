package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

const secretsTOML = `
use_plaintext = false

[admins]
KHuston = "$2a$04$adminhash"

[users]
buyer1 = "$2a$04$userhash"
`

func TestSecretsStoreLookup(t *testing.T) {
	store, err := ParseSecrets([]byte(secretsTOML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cred, ok, err := store.Lookup(RoleAdmin, "KHuston")
	if err != nil || !ok {
		t.Fatalf("expected admin credential, got ok=%v err=%v", ok, err)
	}
	if cred.Secret != "$2a$04$adminhash" || cred.Plaintext {
		t.Errorf("unexpected credential %+v", cred)
	}

	if _, ok, err := store.Lookup(RoleAdmin, "buyer1"); ok || err != nil {
		t.Errorf("expected users to stay out of the admin map, got ok=%v err=%v", ok, err)
	}
	if _, err := store.TrialKey(); !errors.Is(err, domain.ErrRoleUnavailable) {
		t.Errorf("expected trial unavailable without key_hash, got %v", err)
	}
}

func TestLoadSecretsFile(t *testing.T) {
	dir := t.TempDir()

	store, err := LoadSecretsFile(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("expected missing file to yield an empty store, got %v", err)
	}
	if _, _, err := store.Lookup(RoleUser, "x"); !errors.Is(err, domain.ErrRoleUnavailable) {
		t.Errorf("expected empty store to be unavailable, got %v", err)
	}

	path := filepath.Join(dir, "secrets.toml")
	if err := os.WriteFile(path, []byte("[admins\nbroken"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSecretsFile(path); err == nil {
		t.Errorf("expected malformed TOML to fail")
	}
}

func TestEnvStore(t *testing.T) {
	t.Setenv("AUTH_USE_PLAINTEXT", "")
	t.Setenv("ADMIN_USERNAME", "root")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$04$envhash")
	t.Setenv("USER_USERNAME", "")
	t.Setenv("USER_PASSWORD_HASH", "")
	t.Setenv("TRIAL_KEY_HASH", "$2a$04$trialhash")

	store := NewEnvStore()

	cred, ok, err := store.Lookup(RoleAdmin, "root")
	if err != nil || !ok || cred.Secret != "$2a$04$envhash" {
		t.Fatalf("expected env admin, got %+v ok=%v err=%v", cred, ok, err)
	}
	if _, _, err := store.Lookup(RoleUser, "someone"); !errors.Is(err, domain.ErrRoleUnavailable) {
		t.Errorf("expected user role unavailable, got %v", err)
	}
	if cred, err := store.TrialKey(); err != nil || cred.Secret != "$2a$04$trialhash" {
		t.Errorf("expected trial key from env, got %+v %v", cred, err)
	}

	t.Setenv("AUTH_USE_PLAINTEXT", "true")
	t.Setenv("ADMIN_PASSWORD", "plain")
	cred, ok, err = store.Lookup(RoleAdmin, "root")
	if err != nil || !ok || cred.Secret != "plain" || !cred.Plaintext {
		t.Errorf("expected plaintext admin, got %+v ok=%v err=%v", cred, ok, err)
	}
}

func TestLayeredFallsBackPerRole(t *testing.T) {
	t.Setenv("AUTH_USE_PLAINTEXT", "")
	t.Setenv("ADMIN_USERNAME", "envadmin")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$04$envhash")
	t.Setenv("USER_USERNAME", "envuser")
	t.Setenv("USER_PASSWORD_HASH", "$2a$04$envuser")
	t.Setenv("TRIAL_KEY_HASH", "")

	secrets, err := ParseSecrets([]byte(`
[users]
buyer1 = "$2a$04$userhash"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	store := Layered{secrets, NewEnvStore()}

	// users come from the secrets file, so the env user is not consulted
	if _, ok, err := store.Lookup(RoleUser, "envuser"); ok || err != nil {
		t.Errorf("expected env user to be shadowed, got ok=%v err=%v", ok, err)
	}
	if _, ok, _ := store.Lookup(RoleUser, "buyer1"); !ok {
		t.Errorf("expected secrets user")
	}
	// admins are absent from the file, so env answers
	if _, ok, _ := store.Lookup(RoleAdmin, "envadmin"); !ok {
		t.Errorf("expected env admin fallback")
	}

	got := Availability(store)
	want := map[Role]bool{RoleAdmin: true, RoleUser: true, RoleTrial: false}
	for role, available := range want {
		if got[role] != available {
			t.Errorf("%s: expected available=%v, got %v", role, available, got[role])
		}
	}
}
