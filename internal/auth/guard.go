package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

const (
	DefaultMaxFailures = 5
	DefaultLockout     = 10 * time.Minute

	trialCounterKey = "trial"
	lockStripes     = 64
)

// Account is an authenticated identity.
type Account struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Guard verifies credentials and enforces the failed-attempt lockout.
//
// Each counter key moves between two states. Unlocked: a failure
// increments the counter, and reaching maxFailures locks the key for the
// lockout duration; a success resets it. Locked: attempts are rejected
// without verifying the secret and without extending the lock; once the
// lock has expired the counter starts again from zero and the attempt is
// verified normally.
type Guard struct {
	store       CredentialStore
	attempts    AttemptStore
	maxFailures int
	lockout     time.Duration
	now         func() time.Time
	bcryptCost  int

	stripes   [lockStripes]sync.Mutex
	dummyOnce sync.Once
	dummyHash []byte
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

func WithMaxFailures(n int) GuardOption {
	return func(g *Guard) {
		if n > 0 {
			g.maxFailures = n
		}
	}
}

func WithLockout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.lockout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		g.now = now
	}
}

// WithDummyCost sets the bcrypt cost of the hash compared for unknown
// usernames. It should match the cost of the stored hashes.
func WithDummyCost(cost int) GuardOption {
	return func(g *Guard) {
		g.bcryptCost = cost
	}
}

func NewGuard(store CredentialStore, attempts AttemptStore, opts ...GuardOption) *Guard {
	g := &Guard{
		store:       store,
		attempts:    attempts,
		maxFailures: DefaultMaxFailures,
		lockout:     DefaultLockout,
		now:         time.Now,
		bcryptCost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login authenticates an admin or user account.
func (g *Guard) Login(ctx context.Context, username, password string) (Account, error) {
	username = strings.TrimSpace(username)

	var (
		cred        Credential
		role        Role
		found       bool
		unavailable int
	)
	for _, r := range []Role{RoleAdmin, RoleUser} {
		c, ok, err := g.store.Lookup(r, username)
		if errors.Is(err, domain.ErrRoleUnavailable) {
			unavailable++
			continue
		}
		if err != nil {
			return Account{}, err
		}
		if ok {
			cred, role, found = c, r, true
			break
		}
	}

	key := "unknown:" + strings.ToLower(username)
	if found {
		key = "account:" + strings.ToLower(username)
	}

	return g.attempt(ctx, key, func() (Account, error) {
		if !found {
			g.burnDummy(password)
			if unavailable == 2 {
				return Account{}, domain.ErrRoleUnavailable
			}
			return Account{}, domain.ErrInvalidCredential
		}
		if !verify(cred, password) {
			return Account{}, domain.ErrInvalidCredential
		}
		return Account{Username: username, Role: role}, nil
	})
}

// LoginTrial authenticates with the shared trial key.
func (g *Guard) LoginTrial(ctx context.Context, key string) (Account, error) {
	return g.attempt(ctx, trialCounterKey, func() (Account, error) {
		cred, err := g.store.TrialKey()
		if err != nil {
			g.burnDummy(key)
			return Account{}, err
		}
		if !verify(cred, key) {
			return Account{}, domain.ErrInvalidCredential
		}
		return Account{Username: string(RoleTrial), Role: RoleTrial}, nil
	})
}

// State returns the current counter for a key.
func (g *Guard) State(ctx context.Context, key string) (AttemptState, error) {
	return g.attempts.Get(ctx, key)
}

// attempt runs check under the lockout state machine for key.
func (g *Guard) attempt(ctx context.Context, key string, check func() (Account, error)) (Account, error) {
	mu := g.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	logger := log.With().Str("component", "auth").Str("key", key).Logger()

	state, err := g.attempts.Get(ctx, key)
	if err != nil {
		return Account{}, err
	}

	now := g.now()
	if state.Locked(now) {
		logger.Warn().Time("locked_until", state.LockedUntil).Msg("login rejected: locked")
		return Account{}, &domain.LockedError{Until: state.LockedUntil}
	}
	if !state.LockedUntil.IsZero() {
		// lock expired
		state = AttemptState{}
	}

	account, checkErr := check()
	if checkErr == nil {
		if err := g.attempts.Reset(ctx, key); err != nil {
			return Account{}, err
		}
		logger.Info().Str("role", string(account.Role)).Msg("login succeeded")
		return account, nil
	}

	if !errors.Is(checkErr, domain.ErrInvalidCredential) && !errors.Is(checkErr, domain.ErrRoleUnavailable) {
		return Account{}, checkErr
	}

	state.Failures++
	if state.Failures >= g.maxFailures {
		state.LockedUntil = now.Add(g.lockout)
	}
	if err := g.attempts.Put(ctx, key, state); err != nil {
		return Account{}, err
	}

	event := logger.Warn().Err(checkErr).Int("failures", state.Failures)
	if !state.LockedUntil.IsZero() {
		event = event.Time("locked_until", state.LockedUntil)
	}
	event.Msg("login failed")

	return Account{}, checkErr
}

func (g *Guard) stripe(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &g.stripes[h.Sum32()%lockStripes]
}

// burnDummy spends one bcrypt comparison so unknown usernames cost the
// same as wrong passwords.
func (g *Guard) burnDummy(secret string) {
	g.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("buyer-dashboard-dummy"), g.bcryptCost)
		if err == nil {
			g.dummyHash = hash
		}
	})
	if g.dummyHash != nil {
		_ = bcrypt.CompareHashAndPassword(g.dummyHash, []byte(secret))
	}
}

func verify(cred Credential, secret string) bool {
	if cred.Plaintext {
		a := sha256.Sum256([]byte(cred.Secret))
		b := sha256.Sum256([]byte(secret))
		return subtle.ConstantTimeCompare(a[:], b[:]) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(cred.Secret), []byte(secret)) == nil
}

// HashPassword returns a bcrypt hash suitable for the secrets file.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
