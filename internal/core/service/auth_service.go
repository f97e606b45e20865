package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bgi/launchpad-auth/internal/core/domain"
	"github.com/bgi/launchpad-auth/internal/core/ports"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultLockWait   = 2 * time.Second
	lockPollInterval  = 50 * time.Millisecond

	// timingPassword is hashed at construction and compared against on logins
	// that have no usable identity, so every failed login pays one bcrypt
	// comparison.
	timingPassword = "launchpad/timing-equaliser"
	// fallbackTimingHash is a cost-10 bcrypt digest used when hashing
	// timingPassword fails.
	fallbackTimingHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// Options tunes an AuthService. Zero values fall back to defaults.
type Options struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Lock serialises registrations per email. Nil means the store's unique
	// index is the only guard.
	Lock ports.RegistrationLock
	// LockWait bounds how long Register waits on a held lock before leaving
	// the decision to the unique index.
	LockWait time.Duration
	Clock    func() time.Time
}

type authService struct {
	store      ports.CredentialStore
	hasher     ports.PasswordHasher
	tokens     ports.TokenCodec
	lock       ports.RegistrationLock
	lockWait   time.Duration
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
	dummyHash  string
}

// NewAuthService returns an AuthService implementation.
func NewAuthService(
	store ports.CredentialStore,
	hasher ports.PasswordHasher,
	tokens ports.TokenCodec,
	opts Options,
	log zerolog.Logger,
) ports.AuthService {
	s := &authService{
		store:      store,
		hasher:     hasher,
		tokens:     tokens,
		lock:       opts.Lock,
		lockWait:   opts.LockWait,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        opts.Clock,
		log:        log,
	}
	if s.accessTTL <= 0 {
		s.accessTTL = defaultAccessTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = defaultRefreshTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.lockWait <= 0 {
		s.lockWait = defaultLockWait
	}
	if s.lock == nil {
		s.lock = noopLock{}
	}

	digest, err := hasher.Hash(timingPassword)
	if err != nil {
		log.Error().Err(err).Msg("timing hash unavailable, using fallback digest")
		digest = fallbackTimingHash
	}
	s.dummyHash = digest
	return s
}

// Register creates an active identity and issues its first token pair.
func (s *authService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if err := validateRegistration(name, email, in.Password, in.Role); err != nil {
		return nil, err
	}

	// 1. Mutual exclusion on the email across instances.
	release, err := s.acquire(ctx, email)
	if err != nil {
		return nil, err
	}
	defer release()

	// 2. Uniqueness check.
	exists, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if exists {
		return nil, domain.ErrConflict
	}

	// 3. Hash; the plaintext goes no further than this call.
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created, err := s.store.Save(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		DepartmentID: in.DepartmentID,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	result, err := s.issuePair(created)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	return result, nil
}

// Login verifies credentials and issues a fresh token pair. Unknown email,
// inactive identity and wrong password all yield ErrInvalidCredentials after
// exactly one hash comparison.
func (s *authService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)

	var user *domain.User
	if email != "" {
		found, err := s.store.FindByEmail(ctx, email)
		switch {
		case err == nil:
			user = found
		case errors.Is(err, domain.ErrUserNotFound):
		default:
			return nil, fmt.Errorf("login: %w", err)
		}
	}

	digest := s.dummyHash
	if user != nil {
		digest = user.PasswordHash
	}
	matched := s.hasher.Matches(password, digest)

	reason := ""
	switch {
	case user == nil:
		reason = "not_found"
	case !user.Active:
		reason = "inactive"
	case password == "" || !matched:
		reason = "bad_password"
	}
	if reason != "" {
		s.log.Info().Str("reason", reason).Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	return s.issuePair(user)
}

// Refresh exchanges a refresh-class token for a new access token. The
// presented refresh token is handed back unchanged.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthResult, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		s.log.Info().Str("reason", domain.TokenFailureKind(err)).Msg("refresh rejected")
		return nil, err
	}
	if claims.Class != domain.TokenRefresh {
		s.log.Warn().Str("reason", "wrong_class").Str("class", string(claims.Class)).Msg("refresh rejected")
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, domain.ErrTokenWrongClass)
	}

	user, err := s.store.FindByEmail(ctx, claims.Subject)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		s.log.Info().Str("reason", "unknown_subject").Msg("refresh rejected")
		return nil, domain.ErrInvalidToken
	case err != nil:
		return nil, fmt.Errorf("refresh: %w", err)
	case !user.Active:
		s.log.Info().Str("reason", "inactive").Str("user_id", user.ID).Msg("refresh rejected")
		return nil, domain.ErrInvalidToken
	}

	access, err := s.tokens.Issue(user.Email, user.Role, domain.TokenAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	s.log.Debug().Str("user_id", user.ID).Msg("access token refreshed")
	return &ports.AuthResult{
		AccessToken:  access,
		RefreshToken: refreshToken,
		User:         PublicUser(user),
	}, nil
}

// Profile returns the public projection of an active identity.
func (s *authService) Profile(ctx context.Context, email string) (*ports.PublicUser, error) {
	user, err := s.store.FindByEmail(ctx, domain.NormalizeEmail(email))
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil, domain.ErrUnauthenticated
	case err != nil:
		return nil, fmt.Errorf("profile: %w", err)
	case !user.Active:
		return nil, domain.ErrUnauthenticated
	}
	pub := PublicUser(user)
	return &pub, nil
}

func (s *authService) issuePair(user *domain.User) (*ports.AuthResult, error) {
	access, err := s.tokens.Issue(user.Email, user.Role, domain.TokenAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.Issue(user.Email, user.Role, domain.TokenRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &ports.AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         PublicUser(user),
	}, nil
}

// acquire waits up to lockWait for the registration lock on email. A lock it
// cannot get, whether held past the wait or unreachable, degrades to a no-op
// release and the store's unique index decides.
func (s *authService) acquire(ctx context.Context, email string) (func(), error) {
	deadline := time.NewTimer(s.lockWait)
	defer deadline.Stop()
	for {
		release, err := s.lock.Acquire(ctx, email)
		switch {
		case err == nil:
			return release, nil
		case !errors.Is(err, domain.ErrLockHeld):
			s.log.Warn().Err(err).Msg("registration lock unavailable, relying on unique index")
			return func() {}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			s.log.Warn().Dur("waited", s.lockWait).Msg("registration lock still held, relying on unique index")
			return func() {}, nil
		case <-time.After(lockPollInterval):
		}
	}
}

// PublicUser projects u without its password hash.
func PublicUser(u *domain.User) ports.PublicUser {
	return ports.PublicUser{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		RoleDisplayName: u.Role.DisplayName(),
		DepartmentID:    u.DepartmentID,
		Active:          u.Active,
		CreatedAt:       u.CreatedAt,
	}
}

func validateRegistration(name, email, password string, role domain.Role) error {
	fields := make(map[string]string)
	if name == "" {
		fields["name"] = "name is required"
	}
	if email == "" {
		fields["email"] = "email is required"
	}
	if password == "" {
		fields["password"] = "password is required"
	}
	if !role.Valid() {
		fields["role"] = "role must be one of: STUDENT FACULTY HOD ADMIN"
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

type noopLock struct{}

func (noopLock) Acquire(context.Context, string) (func(), error) { return func() {}, nil }
