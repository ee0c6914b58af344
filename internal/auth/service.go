package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/postboard/postboard/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRegistrationFailed = errors.New("registration failed")
	ErrInvalidToken       = errors.New("invalid token")
)

type Service struct {
	credentials *Credentials
	sessions    session.Store
	ttl         time.Duration
	nowFunc     func() time.Time

	// compared against when the username is unknown so both login
	// failures cost one hash verification
	dummyHash string
}

type ServiceConfig struct {
	SessionTTL time.Duration
}

func NewService(credentials *Credentials, sessions session.Store, cfg ServiceConfig) (*Service, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credentials are required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be > 0")
	}

	dummy, err := credentials.hasher.Hash("postboard-unknown-account")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &Service{
		credentials: credentials,
		sessions:    sessions,
		ttl:         cfg.SessionTTL,
		nowFunc:     time.Now,
		dummyHash:   dummy,
	}, nil
}

// Login checks the password and opens a session. Unknown usernames and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (session.Session, error) {
	a, err := s.credentials.FindAccountByUsername(ctx, username)
	if err != nil {
		s.credentials.hasher.Verify(s.dummyHash, password)
		if errors.Is(err, ErrAccountNotFound) {
			return session.Session{}, ErrInvalidCredentials
		}
		return session.Session{}, fmt.Errorf("find account: %w", err)
	}

	if !s.credentials.verify(a, password) {
		return session.Session{}, ErrInvalidCredentials
	}
	return s.open(ctx, a.Identity())
}

// Register creates the account and opens a session for it. Every failure
// wraps ErrRegistrationFailed.
func (s *Service) Register(ctx context.Context, username, email, password string) (session.Session, error) {
	a, err := s.credentials.CreateAccount(ctx, username, email, password)
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}
	sess, err := s.open(ctx, a.Identity())
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}
	return sess, nil
}

func (s *Service) ValidateToken(ctx context.Context, token string) (session.Session, error) {
	if token == "" {
		return session.Session{}, ErrInvalidToken
	}
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return session.Session{}, ErrInvalidToken
		}
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// Logout drops the session if there is one.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) open(ctx context.Context, id Identity) (session.Session, error) {
	token, err := session.NewToken()
	if err != nil {
		return session.Session{}, err
	}

	now := s.nowFunc()
	sess := session.Session{
		Token:     token,
		AccountID: id.AccountID,
		Username:  id.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}
