package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/iamasit07/tic-tac-toe/backend/pkg/auth"
	"github.com/iamasit07/tic-tac-toe/backend/pkg/uid"
	"github.com/rs/zerolog/log"
)

const blockedSessionKeyPrefix = "blocked_session:"

const (
	MIN_USERNAME_LENGTH = 3
	MAX_USERNAME_LENGTH = 30
)

type UserRepository interface {
	CreateUser(username, passwordHash string) (int64, error)
	CreateGoogleUser(username, googleID string) (int64, error)
	GetUserByUsername(username string) (*domain.User, error)
	GetUserByID(userID int64) (*domain.User, error)
	GetUserByGoogleID(googleID string) (*domain.User, error)
}

// GoogleProfile is the part of a Google account used to sign in.
type GoogleProfile struct {
	ID    string
	Email string
	Name  string
}

// MAX_USERNAME_ATTEMPTS bounds the numbered suffixes tried when a Google
// user's derived username is taken.
const MAX_USERNAME_ATTEMPTS = 20

type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Service handles registration, login and token validation. Tokens are
// stateless JWTs; logout adds the token's session ID to a blocklist in the
// cache, so without a cache logout only clears the client cookie.
type Service struct {
	users  UserRepository
	tokens *auth.TokenManager
	cache  CacheRepository // Optional, can be nil
}

func NewService(users UserRepository, tokens *auth.TokenManager, cache CacheRepository) *Service {
	return &Service{users: users, tokens: tokens, cache: cache}
}

func (s *Service) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// Register creates the account and returns it with a fresh access token.
func (s *Service) Register(username, password string) (*domain.User, string, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, "", err
	}
	if err := auth.ValidatePasswordStrength(password); err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrWeakPassword, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.users.CreateUser(username, hash)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{ID: userID, Username: username, CreatedAt: time.Now()}
	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	log.Info().Int64("user_id", userID).Msgf("[AUTH] Registered user %s", username)
	return user, token, nil
}

func (s *Service) Login(username, password string) (*domain.User, string, error) {
	user, err := s.users.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, "", err
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// LoginWithGoogle signs in the user linked to the Google account. The first
// sign-in creates a password-less account named after the email address.
func (s *Service) LoginWithGoogle(profile GoogleProfile) (*domain.User, string, error) {
	if profile.ID == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	user, err := s.users.GetUserByGoogleID(profile.ID)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		user, err = s.createGoogleUser(profile)
		if err != nil {
			return nil, "", err
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *Service) createGoogleUser(profile GoogleProfile) (*domain.User, error) {
	base := googleUsername(profile)
	for i := 1; i <= MAX_USERNAME_ATTEMPTS; i++ {
		username := base
		if i > 1 {
			username = fmt.Sprintf("%s%d", base, i)
		}

		userID, err := s.users.CreateGoogleUser(username, profile.ID)
		if errors.Is(err, domain.ErrUsernameTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		log.Info().Int64("user_id", userID).Msgf("[AUTH] Registered Google user %s", username)
		return &domain.User{ID: userID, Username: username, GoogleID: profile.ID, CreatedAt: time.Now()}, nil
	}
	return nil, domain.ErrUsernameTaken
}

// googleUsername derives a valid username from the email's local part,
// falling back to the display name.
func googleUsername(profile GoogleProfile) string {
	source, _, _ := strings.Cut(profile.Email, "@")
	if source == "" {
		source = profile.Name
	}

	var b strings.Builder
	for _, r := range source {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	name := b.String()

	// leave room for a numeric suffix
	if limit := MAX_USERNAME_LENGTH - 2; len(name) > limit {
		name = name[:limit]
	}
	if len(name) < MIN_USERNAME_LENGTH || domain.IsBotName(name) {
		name = "player_" + name
	}
	return name
}

// ValidateToken checks the signature, expiry and the session blocklist.
func (s *Service) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if s.isSessionBlocked(ctx, claims.SessionID) {
		return nil, domain.ErrSessionRevoked
	}
	return claims, nil
}

// Logout blocks the token's session until the token would have expired.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.cache == nil || claims == nil {
		return nil
	}

	ttl := s.tokens.TTL()
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}

	return s.cache.Set(ctx, blockedSessionKeyPrefix+claims.SessionID, "1", ttl)
}

func (s *Service) Me(userID int64) (*domain.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) issueToken(user *domain.User) (string, error) {
	sessionID, err := uid.GenerateSessionID()
	if err != nil {
		return "", err
	}
	token, err := s.tokens.GenerateAccessToken(user.ID, user.Username, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, nil
}

func (s *Service) isSessionBlocked(ctx context.Context, sessionID string) bool {
	if s.cache == nil {
		return false
	}
	val, err := s.cache.Get(ctx, blockedSessionKeyPrefix+sessionID)
	return err == nil && val != ""
}

func validateUsername(username string) error {
	if len(username) < MIN_USERNAME_LENGTH || len(username) > MAX_USERNAME_LENGTH {
		return domain.ErrInvalidUsername
	}
	if domain.IsBotName(username) {
		return domain.ErrInvalidUsername
	}
	return nil
}
