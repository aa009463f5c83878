package matchmaking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/bot"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/game"
	"github.com/stretchr/testify/require"
)

func nextMatch(t *testing.T, q *Queue) Match {
	t.Helper()
	select {
	case m := <-q.Matches():
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no match")
		return Match{}
	}
}

func TestQueue(t *testing.T) {
	t.Run("pairs the second user with the first", func(t *testing.T) {
		q := NewQueue(0)
		require.False(t, q.Join(1, "alice"))
		require.False(t, q.Join(1, "alice"), "joining twice is a no-op")
		require.Equal(t, 1, q.Waiting())

		require.True(t, q.Join(2, "bob"))
		require.Zero(t, q.Waiting())

		m := nextMatch(t, q)
		require.Equal(t, game.Seat{UserID: 1, Username: "alice"}, m.Player1)
		require.NotNil(t, m.Player2)
		require.Equal(t, game.Seat{UserID: 2, Username: "bob"}, *m.Player2)
	})

	t.Run("leave", func(t *testing.T) {
		q := NewQueue(time.Hour)
		q.Join(1, "alice")
		require.True(t, q.Leave(1))
		require.False(t, q.Leave(1))

		require.False(t, q.Join(2, "bob"))
		require.Equal(t, 1, q.Waiting())
	})

	t.Run("timeout falls back to the bot", func(t *testing.T) {
		q := NewQueue(10 * time.Millisecond)
		q.Join(1, "alice")

		m := nextMatch(t, q)
		require.Equal(t, int64(1), m.Player1.UserID)
		require.Nil(t, m.Player2)
		require.Zero(t, q.Waiting())
	})

	t.Run("paired users do not time out", func(t *testing.T) {
		q := NewQueue(20 * time.Millisecond)
		q.Join(1, "alice")
		q.Join(2, "bob")
		nextMatch(t, q)

		select {
		case m := <-q.Matches():
			t.Fatalf("unexpected match %+v", m)
		case <-time.After(60 * time.Millisecond):
		}
	})
}

type recordingConn struct {
	mu   sync.Mutex
	sent map[int64][]domain.ServerMessage
}

func (r *recordingConn) SendMessage(userID int64, msg domain.ServerMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[userID] = append(r.sent[userID], msg)
	return nil
}

func (r *recordingConn) starts(userID int64) []domain.ServerMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ServerMessage
	for _, m := range r.sent[userID] {
		if m.Type == "game_start" {
			out = append(out, m)
		}
	}
	return out
}

func TestListen(t *testing.T) {
	conn := &recordingConn{sent: make(map[int64][]domain.ServerMessage)}
	sm := game.NewSessionManager(bot.NewEngine(), conn, nil, nil, time.Hour)
	q := NewQueue(30 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Listen(ctx, q, sm, bot.DifficultyEasy)

	q.Join(1, "alice")
	q.Join(2, "bob")
	require.Eventually(t, func() bool {
		return len(conn.starts(1)) == 1 && len(conn.starts(2)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	gs, ok := sm.GetSessionByUserID(1)
	require.True(t, ok)
	require.False(t, gs.IsBotGame())
	require.Equal(t, "bob", conn.starts(1)[0].Opponent)

	q.Join(3, "carol")
	require.Eventually(t, func() bool {
		return len(conn.starts(3)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	gs, ok = sm.GetSessionByUserID(3)
	require.True(t, ok)
	require.True(t, gs.IsBotGame())
	require.Equal(t, "Alice", conn.starts(3)[0].Opponent)
}
