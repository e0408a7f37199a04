package auth

import (
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

// Role is the access level of an authenticated account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleTrial Role = "trial"
)

// CanExport reports whether the role may download exports.
func (r Role) CanExport() bool {
	return r == RoleAdmin || r == RoleUser
}

// Credential is a stored secret: a bcrypt hash, or the plaintext password
// when the source runs in legacy plaintext mode.
type Credential struct {
	Secret    string
	Plaintext bool
}

// CredentialStore looks up stored credentials. Lookup returns ok=false for
// a username the role does not know, and ErrRoleUnavailable when the store
// has no credentials configured for the role at all.
type CredentialStore interface {
	Lookup(role Role, username string) (cred Credential, ok bool, err error)
	TrialKey() (Credential, error)
}

// SecretsFile is the TOML layout of the secrets store:
//
//	use_plaintext = false
//	[admins]
//	alice = "$2a$10$..."
//	[users]
//	bob = "$2a$10$..."
//	[trial]
//	key_hash = "$2a$10$..."
type SecretsFile struct {
	UsePlaintext bool              `toml:"use_plaintext"`
	Admins       map[string]string `toml:"admins"`
	Users        map[string]string `toml:"users"`
	Trial        struct {
		KeyHash string `toml:"key_hash"`
	} `toml:"trial"`
}

// SecretsStore serves credentials from a parsed secrets file.
type SecretsStore struct {
	file SecretsFile
}

// LoadSecretsFile reads a TOML secrets file. A missing file yields an
// empty store, so every role falls through to the next source.
func LoadSecretsFile(path string) (*SecretsStore, error) {
	if path == "" {
		return &SecretsStore{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &SecretsStore{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read secrets file %s", path)
	}
	return ParseSecrets(data)
}

// ParseSecrets decodes TOML secrets.
func ParseSecrets(data []byte) (*SecretsStore, error) {
	var file SecretsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "decode secrets")
	}
	return &SecretsStore{file: file}, nil
}

func (s *SecretsStore) Lookup(role Role, username string) (Credential, bool, error) {
	var accounts map[string]string
	switch role {
	case RoleAdmin:
		accounts = s.file.Admins
	case RoleUser:
		accounts = s.file.Users
	default:
		return Credential{}, false, domain.ErrRoleUnavailable
	}
	if len(accounts) == 0 {
		return Credential{}, false, domain.ErrRoleUnavailable
	}

	secret, ok := accounts[username]
	if !ok || secret == "" {
		return Credential{}, false, nil
	}
	return Credential{Secret: secret, Plaintext: s.file.UsePlaintext}, true, nil
}

func (s *SecretsStore) TrialKey() (Credential, error) {
	if s.file.Trial.KeyHash == "" {
		return Credential{}, domain.ErrRoleUnavailable
	}
	return Credential{Secret: s.file.Trial.KeyHash, Plaintext: s.file.UsePlaintext}, nil
}

// EnvStore serves a single admin, a single user and the trial key from
// environment variables:
//
//	ADMIN_USERNAME, ADMIN_PASSWORD_HASH (ADMIN_PASSWORD in plaintext mode)
//	USER_USERNAME,  USER_PASSWORD_HASH  (USER_PASSWORD in plaintext mode)
//	TRIAL_KEY_HASH                      (TRIAL_KEY in plaintext mode)
//	AUTH_USE_PLAINTEXT
type EnvStore struct {
	v *viper.Viper
}

func NewEnvStore() *EnvStore {
	v := viper.New()
	v.AutomaticEnv()
	return &EnvStore{v: v}
}

func (s *EnvStore) plaintext() bool {
	return s.v.GetBool("AUTH_USE_PLAINTEXT")
}

// secret reads the hash variable, or the plaintext one in legacy mode.
func (s *EnvStore) secret(prefix string) string {
	if s.plaintext() {
		return s.v.GetString(prefix)
	}
	return s.v.GetString(prefix + "_HASH")
}

func (s *EnvStore) Lookup(role Role, username string) (Credential, bool, error) {
	var prefix string
	switch role {
	case RoleAdmin:
		prefix = "ADMIN"
	case RoleUser:
		prefix = "USER"
	default:
		return Credential{}, false, domain.ErrRoleUnavailable
	}

	name := strings.TrimSpace(s.v.GetString(prefix + "_USERNAME"))
	secret := s.secret(prefix + "_PASSWORD")
	if name == "" || secret == "" {
		return Credential{}, false, domain.ErrRoleUnavailable
	}
	if name != username {
		return Credential{}, false, nil
	}
	return Credential{Secret: secret, Plaintext: s.plaintext()}, true, nil
}

func (s *EnvStore) TrialKey() (Credential, error) {
	secret := s.secret("TRIAL_KEY")
	if secret == "" {
		return Credential{}, domain.ErrRoleUnavailable
	}
	return Credential{Secret: secret, Plaintext: s.plaintext()}, nil
}

// Layered consults stores in order, per role: the first store that has
// the role configured answers for it.
type Layered []CredentialStore

func (l Layered) Lookup(role Role, username string) (Credential, bool, error) {
	for _, store := range l {
		cred, ok, err := store.Lookup(role, username)
		if errors.Is(err, domain.ErrRoleUnavailable) {
			continue
		}
		return cred, ok, err
	}
	return Credential{}, false, domain.ErrRoleUnavailable
}

func (l Layered) TrialKey() (Credential, error) {
	for _, store := range l {
		cred, err := store.TrialKey()
		if errors.Is(err, domain.ErrRoleUnavailable) {
			continue
		}
		return cred, err
	}
	return Credential{}, domain.ErrRoleUnavailable
}

// Availability reports, per role, whether any source can authenticate it.
func Availability(store CredentialStore) map[Role]bool {
	available := map[Role]bool{}
	for _, role := range []Role{RoleAdmin, RoleUser} {
		_, _, err := store.Lookup(role, "")
		available[role] = !errors.Is(err, domain.ErrRoleUnavailable)
	}
	_, err := store.TrialKey()
	available[RoleTrial] = !errors.Is(err, domain.ErrRoleUnavailable)
	return available
}
