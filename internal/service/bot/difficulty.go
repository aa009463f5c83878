package bot

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty validates and returns the bot difficulty
// Defaults to Medium if invalid or empty
func ParseDifficulty(difficulty string) Difficulty {
	switch difficulty {
	case "easy":
		return DifficultyEasy
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

func (d Difficulty) String() string { return string(d) }

// Policy decides whether a search call returns the optimal move or a uniformly
// random empty cell. The zero value is Optimal.
type Policy struct {
	randomProbability float64
}

func Optimal() Policy {
	return Policy{}
}

// RandomWithProbability returns a policy that ignores the optimal move with
// probability p. p is clamped to [0, 1].
func RandomWithProbability(p float64) Policy {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return Policy{randomProbability: p}
}

func (p Policy) IsOptimal() bool {
	return p.randomProbability == 0
}

func (p Policy) RandomProbability() float64 {
	return p.randomProbability
}

const (
	DefaultEasyRandomProbability   = 0.7
	DefaultMediumRandomProbability = 0.3
)

func defaultPolicies() map[Difficulty]Policy {
	return map[Difficulty]Policy{
		DifficultyEasy:   RandomWithProbability(DefaultEasyRandomProbability),
		DifficultyMedium: RandomWithProbability(DefaultMediumRandomProbability),
		DifficultyHard:   Optimal(),
	}
}
