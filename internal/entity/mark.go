package entity

import (
	"fmt"
	"strconv"

	"github.com/rocketscienceinc/tictactoe-gym/internal/apperror"
)

// Mark is the content of a board cell or the identity of a side.
type Mark uint8

const (
	Empty Mark = iota
	PlayerOne
	PlayerTwo
)

// ParseMark - converts an external integer into a player mark.
func ParseMark(value int) (Mark, error) {
	switch value {
	case int(PlayerOne):
		return PlayerOne, nil
	case int(PlayerTwo):
		return PlayerTwo, nil
	default:
		return Empty, fmt.Errorf("%w: %d", apperror.ErrInvalidMark, value)
	}
}

func (that Mark) IsPlayer() bool {
	return that == PlayerOne || that == PlayerTwo
}

// Opponent - returns the other player's mark. Empty has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	default:
		return Empty
	}
}

func (that Mark) String() string {
	return strconv.Itoa(int(that))
}
