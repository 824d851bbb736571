package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ITensEI/HCGateway/internal/core/crypto"
	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

const defaultTokenTTL = 12 * time.Hour

type sessionService struct {
	users   ports.UserRepository
	hasher  ports.PasswordHasher
	limiter ports.LoginLimiter
	ttl     time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewSessionService returns a SessionService implementation. limiter may be
// nil, in which case logins are never throttled.
func NewSessionService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	limiter ports.LoginLimiter,
	ttl time.Duration,
	log zerolog.Logger,
) ports.SessionService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &sessionService{
		users:   users,
		hasher:  hasher,
		limiter: limiter,
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log,
	}
}

// Login registers unknown usernames and authenticates known ones. An existing
// unexpired session is returned as-is rather than rotated.
func (s *sessionService) Login(ctx context.Context, in ports.LoginInput) (*ports.SessionResult, error) {
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidRequest)
	}

	// 1. Throttle brute-force attempts; a broken limiter never blocks logins.
	if s.limiter != nil {
		blocked, err := s.limiter.Blocked(ctx, in.Username)
		if err != nil {
			s.log.Warn().Err(err).Str("username", in.Username).Msg("login limiter check failed, continuing")
		} else if blocked {
			return nil, domain.ErrTooManyAttempts
		}
	}

	// 2. First login registers the user.
	user, err := s.users.FindByUsername(ctx, in.Username)
	if errors.Is(err, domain.ErrUserNotFound) {
		res, regErr := s.register(ctx, in)
		if !errors.Is(regErr, domain.ErrUserExists) {
			return res, regErr
		}
		// A concurrent first login won the race; authenticate against it.
		user, err = s.users.FindByUsername(ctx, in.Username)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: login: %w", domain.ErrDependencyUnavailable, err)
	}

	// 3. Verify the password against the stored hash.
	ok, err := s.hasher.Verify(user.PasswordHash, in.Password)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("stored password hash is unreadable")
	}
	if !ok {
		s.recordFailure(ctx, in.Username)
		return nil, domain.ErrInvalidCredentials
	}
	s.resetFailures(ctx, in.Username)

	// 4. Remember the device for push messages.
	if in.DeviceToken != "" && in.DeviceToken != user.DeviceToken {
		if err := s.users.SetDeviceToken(ctx, user.ID, in.DeviceToken); err != nil {
			return nil, fmt.Errorf("%w: update device token: %w", domain.ErrDependencyUnavailable, err)
		}
	}

	// 5. Reuse a live session, otherwise issue a fresh triple.
	if !user.Session.Expired(s.now()) {
		return &ports.SessionResult{
			Token:   user.Session.Token,
			Refresh: user.Session.Refresh,
			Expiry:  user.Session.Expiry,
		}, nil
	}

	session, err := s.newSession("")
	if err != nil {
		return nil, err
	}
	if err := s.users.SetSession(ctx, user.ID, session); err != nil {
		return nil, fmt.Errorf("%w: store session: %w", domain.ErrDependencyUnavailable, err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("session issued")

	return &ports.SessionResult{Token: session.Token, Refresh: session.Refresh, Expiry: session.Expiry}, nil
}

func (s *sessionService) register(ctx context.Context, in ports.LoginInput) (*ports.SessionResult, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	session, err := s.newSession("")
	if err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		PasswordHash: hash,
		Session:      session,
		DeviceToken:  in.DeviceToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, domain.ErrUserExists) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create user: %w", domain.ErrDependencyUnavailable, err)
	}
	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")

	return &ports.SessionResult{
		Token:   session.Token,
		Refresh: session.Refresh,
		Expiry:  session.Expiry,
		Created: true,
	}, nil
}

// Refresh issues a new access token for the session owning refresh. The
// refresh token itself is kept.
func (s *sessionService) Refresh(ctx context.Context, refresh string) (*ports.SessionResult, error) {
	if refresh == "" {
		return nil, fmt.Errorf("%w: refresh token is required", domain.ErrInvalidRequest)
	}

	user, err := s.users.FindByRefresh(ctx, refresh)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: refresh: %w", domain.ErrDependencyUnavailable, err)
	}

	session, err := s.newSession(refresh)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetSession(ctx, user.ID, session); err != nil {
		return nil, fmt.Errorf("%w: store session: %w", domain.ErrDependencyUnavailable, err)
	}

	return &ports.SessionResult{Token: session.Token, Refresh: session.Refresh, Expiry: session.Expiry}, nil
}

// Revoke clears the whole token triple of the session owning token.
func (s *sessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrMissingToken
	}

	user, err := s.users.FindByToken(ctx, token)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("%w: revoke: %w", domain.ErrDependencyUnavailable, err)
	}

	if err := s.users.ClearSession(ctx, user.ID); err != nil {
		return fmt.Errorf("%w: clear session: %w", domain.ErrDependencyUnavailable, err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("session revoked")
	return nil
}

func (s *sessionService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrMissingToken
	}

	user, err := s.users.FindByToken(ctx, token)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("%w: authenticate: %w", domain.ErrDependencyUnavailable, err)
	}

	if user.Session.Expired(s.now()) {
		return "", domain.ErrTokenExpired
	}
	return user.ID, nil
}

// newSession creates a token triple expiring one TTL from now. An empty
// refresh gets a freshly generated one.
func (s *sessionService) newSession(refresh string) (*domain.Session, error) {
	token, err := crypto.NewToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	if refresh == "" {
		if refresh, err = crypto.NewToken(); err != nil {
			return nil, fmt.Errorf("generate refresh token: %w", err)
		}
	}
	return &domain.Session{Token: token, Refresh: refresh, Expiry: s.now().Add(s.ttl)}, nil
}

func (s *sessionService) recordFailure(ctx context.Context, username string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Fail(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("failed to record login failure")
	}
}

func (s *sessionService) resetFailures(ctx context.Context, username string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("failed to reset login failures")
	}
}
