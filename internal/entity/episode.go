package entity

import "time"

const normalizer = 2

// Observation is the board followed by the controlled mark, scaled into [0, 1].
type Observation [BoardSize + 1]float64

// Episode holds the state of one game between two resets.
type Episode struct {
	Board     Board `json:"board"`
	Player    Mark  `json:"player"`
	Opponent  Mark  `json:"opponent"`
	TwoPlayer bool  `json:"two_player,omitempty"`
	Done      bool  `json:"done"`
	Plies     int   `json:"plies"`
}

// NewEpisode - creates an empty board for the given controlled mark.
func NewEpisode(player Mark, twoPlayer bool) Episode {
	return Episode{
		Player:    player,
		Opponent:  player.Opponent(),
		TwoPlayer: twoPlayer,
	}
}

// Place - writes the mark into an empty cell and counts the ply.
func (that *Episode) Place(cell int, mark Mark) {
	that.Board[cell] = mark
	that.Plies++
}

// Observation - builds a fresh observation vector from the current state.
func (that *Episode) Observation() Observation {
	var obs Observation
	for i, cell := range that.Board {
		obs[i] = float64(cell) / normalizer
	}
	obs[BoardSize] = float64(that.Player) / normalizer

	return obs
}

// Session is a server-side handle around one environment and its current episode.
type Session struct {
	ID        string    `json:"id"`
	Seed      uint64    `json:"seed"`
	Episode   Episode   `json:"episode"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
