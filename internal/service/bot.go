package service

import (
	"github.com/rocketscienceinc/tictactoe-gym/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-gym/internal/entity"
	"golang.org/x/exp/rand"
)

// RandomBot plays a uniformly random empty cell.
type RandomBot struct {
	rng *rand.Rand
}

// NewRandomBot - creates a bot drawing from the given source. The source may be
// shared with the environment so that one seed governs the whole episode.
func NewRandomBot(rng *rand.Rand) *RandomBot {
	return &RandomBot{rng: rng}
}

// ChooseCell - picks one of the board's available actions.
func (that *RandomBot) ChooseCell(board entity.Board) (int, error) {
	availableCells := board.AvailableActions()
	if len(availableCells) == 0 {
		return 0, apperror.ErrNoAvailableMoves
	}

	return availableCells[that.rng.Intn(len(availableCells))], nil
}
