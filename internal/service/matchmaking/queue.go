package matchmaking

import (
	"sync"
	"time"

	"github.com/iamasit07/tic-tac-toe/backend/internal/service/game"
	"github.com/rs/zerolog/log"
)

// Match pairs two waiting users. Player2 is nil when nobody else turned up
// in time and Player1 plays the bot instead.
type Match struct {
	Player1 game.Seat
	Player2 *game.Seat
}

// Queue holds users waiting for an opponent. A user who waits longer than
// botAfter is matched against the bot; a zero botAfter waits forever.
type Queue struct {
	waiting  []game.Seat
	timers   map[int64]*time.Timer
	mu       sync.Mutex
	matches  chan Match
	botAfter time.Duration
}

func NewQueue(botAfter time.Duration) *Queue {
	return &Queue{
		timers:   make(map[int64]*time.Timer),
		matches:  make(chan Match, 100),
		botAfter: botAfter,
	}
}

func (q *Queue) Matches() <-chan Match {
	return q.matches
}

// Join queues the user. It reports true when the user was paired with a
// waiting opponent straight away; joining twice is a no-op.
func (q *Queue) Join(userID int64, username string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, seat := range q.waiting {
		if seat.UserID == userID {
			return false
		}
	}

	seat := game.Seat{UserID: userID, Username: username}
	if len(q.waiting) > 0 {
		opponent := q.waiting[0]
		q.waiting = q.waiting[1:]
		q.stopTimer(opponent.UserID)

		log.Info().Msgf("[MATCHMAKING] Match found: %s (ID: %d) vs %s (ID: %d)",
			opponent.Username, opponent.UserID, username, userID)
		q.matches <- Match{Player1: opponent, Player2: &seat}
		return true
	}

	q.waiting = append(q.waiting, seat)
	if q.botAfter > 0 {
		q.timers[userID] = time.AfterFunc(q.botAfter, func() {
			q.handleTimeout(userID)
		})
	}
	log.Debug().Int64("user_id", userID).Msg("[MATCHMAKING] Waiting for an opponent")
	return false
}

// Leave removes the user from the queue and reports whether they were in it.
func (q *Queue) Leave(userID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.removeLocked(userID)
}

func (q *Queue) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.waiting)
}

func (q *Queue) handleTimeout(userID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var seat game.Seat
	for _, s := range q.waiting {
		if s.UserID == userID {
			seat = s
		}
	}
	if !q.removeLocked(userID) {
		return
	}

	log.Info().Int64("user_id", userID).Msgf("[MATCHMAKING] No opponent for %s, starting a bot game", seat.Username)
	q.matches <- Match{Player1: seat}
}

// removeLocked drops the user and their timer. Caller holds q.mu.
func (q *Queue) removeLocked(userID int64) bool {
	q.stopTimer(userID)
	for i, seat := range q.waiting {
		if seat.UserID == userID {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) stopTimer(userID int64) {
	if timer := q.timers[userID]; timer != nil {
		timer.Stop()
	}
	delete(q.timers, userID)
}
