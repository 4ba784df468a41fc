// Package agent plays episodes against an environment through the Env contract.
package agent

import (
	"github.com/rocketscienceinc/tictactoe-gym/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-gym/internal/entity"
	"golang.org/x/exp/rand"
)

// Policy chooses an action from an observation.
type Policy interface {
	SelectAction(obs entity.Observation) (int, error)
}

// RandomPolicy picks uniformly among legal cells, or among all cells when
// illegal moves are allowed.
type RandomPolicy struct {
	rng          *rand.Rand
	allowIllegal bool
}

func NewRandom(seed uint64, allowIllegal bool) *RandomPolicy {
	return &RandomPolicy{
		rng:          rand.New(rand.NewSource(seed)),
		allowIllegal: allowIllegal,
	}
}

func (that *RandomPolicy) SelectAction(obs entity.Observation) (int, error) {
	if that.allowIllegal {
		return that.rng.Intn(entity.BoardSize), nil
	}

	legal := LegalActions(obs)
	if len(legal) == 0 {
		return 0, apperror.ErrNoAvailableMoves
	}

	return legal[that.rng.Intn(len(legal))], nil
}

// LegalActions - decodes the empty cells from an observation.
func LegalActions(obs entity.Observation) []int {
	actions := make([]int, 0, entity.BoardSize)
	for i := range entity.BoardSize {
		if obs[i] == 0 {
			actions = append(actions, i)
		}
	}

	return actions
}
