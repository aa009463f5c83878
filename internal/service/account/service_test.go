package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/iamasit07/tic-tac-toe/backend/pkg/auth"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: make(map[string]*domain.User)}
}

func (f *fakeUsers) CreateUser(username, passwordHash string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[username]; ok {
		return 0, domain.ErrUsernameTaken
	}
	f.nextID++
	f.byName[username] = &domain.User{ID: f.nextID, Username: username, PasswordHash: passwordHash}
	return f.nextID, nil
}

func (f *fakeUsers) CreateGoogleUser(username, googleID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[username]; ok {
		return 0, domain.ErrUsernameTaken
	}
	f.nextID++
	f.byName[username] = &domain.User{ID: f.nextID, Username: username, GoogleID: googleID}
	return f.nextID, nil
}

func (f *fakeUsers) GetUserByGoogleID(googleID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.GoogleID == googleID {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetUserByUsername(username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byName[username], nil
}

func (f *fakeUsers) GetUserByID(userID int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string)}
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	default:
		return errors.New("unsupported value")
	}
	return nil
}

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", errors.New("miss")
	}
	return v, nil
}

func (m *memCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func newTestService(cache CacheRepository) *Service {
	auth.HashCost = bcrypt.MinCost
	return NewService(newFakeUsers(), auth.NewTokenManager("test-secret", time.Hour), cache)
}

func TestRegister(t *testing.T) {
	s := newTestService(nil)

	t.Run("creates user and token", func(t *testing.T) {
		user, token, err := s.Register("  alice ", "password1")
		require.NoError(t, err)
		require.Equal(t, "alice", user.Username)
		require.NotEmpty(t, token)

		claims, err := s.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.UserID)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, _, err := s.Register("alice", "password1")
		require.ErrorIs(t, err, domain.ErrUsernameTaken)
	})

	t.Run("invalid usernames", func(t *testing.T) {
		for _, name := range []string{"ab", "Charles", "BOT"} {
			_, _, err := s.Register(name, "password1")
			require.ErrorIs(t, err, domain.ErrInvalidUsername, name)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		_, _, err := s.Register("bobby", "password")
		require.ErrorIs(t, err, domain.ErrWeakPassword)
		require.ErrorContains(t, err, "at least 1 digit")
	})
}

func TestLogin(t *testing.T) {
	s := newTestService(nil)
	_, _, err := s.Register("carol", "secret123")
	require.NoError(t, err)

	user, token, err := s.Login("carol", "secret123")
	require.NoError(t, err)
	require.Equal(t, "carol", user.Username)
	require.NotEmpty(t, token)

	_, _, err = s.Login("carol", "wrong1234")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = s.Login("nobody", "secret123")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	me, err := s.Me(user.ID)
	require.NoError(t, err)
	require.Equal(t, "carol", me.Username)
}

func TestLogoutBlocksSession(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newMemCache())

	_, token, err := s.Register("dave", "secret123")
	require.NoError(t, err)
	_, other, err := s.Login("dave", "secret123")
	require.NoError(t, err)

	claims, err := s.ValidateToken(ctx, token)
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx, claims))

	_, err = s.ValidateToken(ctx, token)
	require.ErrorIs(t, err, domain.ErrSessionRevoked)

	// other logins carry their own session ID
	_, err = s.ValidateToken(ctx, other)
	require.NoError(t, err)
}

func TestLoginWithGoogle(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users, auth.NewTokenManager("test", time.Hour), nil)
	profile := GoogleProfile{ID: "g-1", Email: "carol.k@example.com", Name: "Carol K"}

	t.Run("first sign-in creates the account", func(t *testing.T) {
		user, token, err := svc.LoginWithGoogle(profile)
		require.NoError(t, err)
		require.Equal(t, "carolk", user.Username)
		require.NotEmpty(t, token)

		claims, err := svc.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.UserID)
	})

	t.Run("later sign-ins reuse it", func(t *testing.T) {
		first, err := users.GetUserByGoogleID("g-1")
		require.NoError(t, err)

		user, _, err := svc.LoginWithGoogle(profile)
		require.NoError(t, err)
		require.Equal(t, first.ID, user.ID)
	})

	t.Run("taken username gets a suffix", func(t *testing.T) {
		user, _, err := svc.LoginWithGoogle(GoogleProfile{ID: "g-2", Email: "carolk@other.example"})
		require.NoError(t, err)
		require.Equal(t, "carolk2", user.Username)
	})

	t.Run("no password login", func(t *testing.T) {
		_, _, err := svc.Login("carolk", "")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("missing google id", func(t *testing.T) {
		_, _, err := svc.LoginWithGoogle(GoogleProfile{Email: "x@example.com"})
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestGoogleUsername(t *testing.T) {
	for name, tc := range map[string]struct {
		profile GoogleProfile
		want    string
	}{
		"email local part": {GoogleProfile{Email: "dave.smith+tag@example.com"}, "davesmithtag"},
		"name fallback":    {GoogleProfile{Name: "Eve Ng"}, "EveNg"},
		"too short":        {GoogleProfile{Email: "jo@example.com"}, "player_jo"},
		"bot name":         {GoogleProfile{Email: "Alice@example.com"}, "player_Alice"},
		"truncated":        {GoogleProfile{Email: "abcdefghijklmnopqrstuvwxyz0123456789@example.com"}, "abcdefghijklmnopqrstuvwxyz01"},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, googleUsername(tc.profile))
		})
	}
}
