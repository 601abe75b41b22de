package staff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediclass/mediclass/internal/platform/apperr"
	"github.com/mediclass/mediclass/internal/platform/auth"
)

type Service struct {
	repo   Repository
	issuer *auth.Issuer
	logger zerolog.Logger
}

func NewService(repo Repository, issuer *auth.Issuer, logger zerolog.Logger) *Service {
	return &Service{repo: repo, issuer: issuer, logger: logger}
}

// Create stores a new staff member with a bcrypt password hash, replacing
// any member with the same login.
func (s *Service) Create(ctx context.Context, n NewMember) (*Member, error) {
	role, err := n.validate()
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(n.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	m := &Member{
		Login:        n.Login,
		Name:         n.Name,
		Registration: n.Registration,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Put(ctx, m); err != nil {
		return nil, fmt.Errorf("store staff member: %w", err)
	}
	return m, nil
}

// Authenticate reports whether secret is the password of login. Unknown
// logins and storage errors both yield false.
func (s *Service) Authenticate(ctx context.Context, login, secret string) bool {
	m, err := s.repo.Get(ctx, login)
	if err != nil {
		if !apperr.IsNotFound(err) {
			s.logger.Error().Err(err).Str("login", login).Msg("load staff member")
		}
		return false
	}
	return auth.CheckPasswordHash(secret, m.PasswordHash)
}

// LoginResult is a signed session for an authenticated staff member.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Session   auth.Session `json:"session"`
}

// ErrInvalidCredentials is returned by Login for any failed password check.
var ErrInvalidCredentials = errors.New("invalid login or password")

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, login, secret string) (*LoginResult, error) {
	if !s.Authenticate(ctx, login, secret) {
		s.logger.Warn().Str("login", login).Msg("failed login")
		return nil, ErrInvalidCredentials
	}
	m, err := s.repo.Get(ctx, login)
	if err != nil {
		return nil, err
	}
	sess := m.Session()
	token, exp, err := s.issuer.Issue(sess)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("login", login).Str("role", string(sess.Role)).Msg("staff signed in")
	return &LoginResult{Token: token, ExpiresAt: exp, Session: sess}, nil
}

func (s *Service) List(ctx context.Context) ([]*Member, error) {
	return s.repo.List(ctx)
}
