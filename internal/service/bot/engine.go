package bot

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
)

// Result is the outcome of an optimal search from the mover's side.
type Result struct {
	Move  int `json:"move"`
	Score int `json:"score"`
	Nodes int `json:"nodes"`
}

// Engine picks moves by exhaustive minimax. It keeps no state between calls
// apart from its configuration and randomness source, so one Engine can serve
// many games. The board passed to a call must not be touched by anyone else
// until the call returns.
type Engine struct {
	pruning       bool
	randomOpening bool
	policies      map[Difficulty]Policy

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

type Option func(*Engine)

// WithRand sets the randomness source used by non-optimal policies and the
// opening move. Tests pass a seeded source to make random choices repeatable.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

func WithoutPruning() Option {
	return func(e *Engine) {
		e.pruning = false
	}
}

func WithPolicy(difficulty Difficulty, policy Policy) Option {
	return func(e *Engine) {
		e.policies[difficulty] = policy
	}
}

// WithRandomOpening toggles picking a random corner or centre on an empty
// board instead of searching when the policy plays optimally.
func WithRandomOpening(enabled bool) Option {
	return func(e *Engine) {
		e.randomOpening = enabled
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		pruning:       true,
		randomOpening: true,
		policies:      defaultPolicies(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return e
}

// Policy returns the move-selection policy configured for difficulty.
func (e *Engine) Policy(difficulty Difficulty) (Policy, bool) {
	p, ok := e.policies[difficulty]
	return p, ok
}

// BestMove returns the cell mover should play. Hard always returns the
// optimal move; easier tiers sometimes return a random empty cell instead.
// The random roll comes first, so on an empty board a random move may be
// any cell while an optimal one is a corner or the centre.
func (e *Engine) BestMove(board *domain.Board, mover, opponent domain.PlayerID, difficulty Difficulty) (int, error) {
	if err := checkSearchable(board, mover, opponent); err != nil {
		return NO_MOVE, err
	}

	policy, ok := e.policies[difficulty]
	if !ok {
		return NO_MOVE, fmt.Errorf("%w: %q", domain.ErrUnknownDifficulty, difficulty)
	}

	empty := board.EmptyCells()
	if !policy.IsOptimal() && e.chance(policy.RandomProbability()) {
		return e.pick(empty), nil
	}

	if e.randomOpening && len(empty) == board.Len() {
		return e.pick(domain.OpeningCells(board.Size())), nil
	}

	res, err := e.Evaluate(board, mover, opponent)
	if err != nil {
		return NO_MOVE, err
	}
	return res.Move, nil
}

// Evaluate runs the full search for mover and returns the optimal move with
// its score. The board is identical before and after the call.
func (e *Engine) Evaluate(board *domain.Board, mover, opponent domain.PlayerID) (Result, error) {
	if err := checkSearchable(board, mover, opponent); err != nil {
		return Result{Move: NO_MOVE}, err
	}

	s := &searcher{
		board:    board,
		mover:    mover,
		opponent: opponent,
		pruning:  e.pruning,
	}
	move, score, err := s.search(mover, -SCORE_INF, SCORE_INF)
	if err != nil {
		return Result{Move: NO_MOVE, Nodes: s.nodes}, err
	}

	return Result{Move: move, Score: score, Nodes: s.nodes}, nil
}

func checkSearchable(board *domain.Board, mover, opponent domain.PlayerID) error {
	if !mover.IsPlayer() || !opponent.IsPlayer() || mover == opponent {
		return domain.ErrInvalidPlayers
	}
	if winner := board.Winner(); winner != domain.Empty {
		return fmt.Errorf("%w: game already won by %s", domain.ErrNoLegalMove, winner.Symbol())
	}
	if board.IsFull() {
		return fmt.Errorf("%w: board is full", domain.ErrNoLegalMove)
	}
	return nil
}

func (e *Engine) chance(p float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64() < p
}

func (e *Engine) pick(cells []int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cells[e.rng.IntN(len(cells))]
}
