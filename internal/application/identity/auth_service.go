package identity

import (
	"context"
	"strings"
	"time"

	"github.com/orderdesk/backend/internal/domain/identity"
	"go.uber.org/zap"
)

// LoginRequest is the body of a login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
	Owners      []string  `json:"owners"`
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateAccessToken(username string, owners []string) (string, time.Time, error)
}

// TokenRevoker invalidates issued tokens before they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService handles authentication operations
type AuthService struct {
	users   map[string]*identity.User
	tokens  TokenIssuer
	revoker TokenRevoker
	logger  *zap.Logger
	now     func() time.Time
}

// AuthServiceOption configures an AuthService.
type AuthServiceOption func(*AuthService)

// WithTokenRevoker enables logout.
func WithTokenRevoker(r TokenRevoker) AuthServiceOption {
	return func(s *AuthService) {
		s.revoker = r
	}
}

// NewAuthService creates a new authentication service. Usernames match
// case-insensitively.
func NewAuthService(users []*identity.User, tokens TokenIssuer, logger *zap.Logger, opts ...AuthServiceOption) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]*identity.User, len(users))
	for _, u := range users {
		byName[strings.ToLower(u.Username)] = u
	}
	s := &AuthService{users: byName, tokens: tokens, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates a user and returns an access token
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	s.logger.Info("Login attempt", zap.String("username", req.Username))

	user, ok := s.users[strings.ToLower(strings.TrimSpace(req.Username))]
	if !ok || !user.VerifyPassword(req.Password) {
		s.logger.Warn("Login failed", zap.String("username", req.Username))
		return nil, identity.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(user.Username, user.Owners)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Username:    user.Username,
		Owners:      user.Owners,
	}, nil
}

// Logout revokes the token identified by jti until it would have expired.
// Without a revoker, or for an already expired token, it is a no-op.
func (s *AuthService) Logout(ctx context.Context, username, jti string, expiresAt time.Time) error {
	if s.revoker == nil || jti == "" {
		return nil
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, jti, ttl); err != nil {
		s.logger.Error("Failed to revoke token", zap.String("username", username), zap.Error(err))
		return err
	}
	s.logger.Info("Logged out", zap.String("username", username))
	return nil
}
