package tictactoe

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-gym/internal/apperror"
)

const (
	columnSeparator = " | "
	rowDivider      = "---------"
)

// Render - writes the board for a human to the engine output.
func (that *Engine) Render(mode string) error {
	if mode != RenderHuman {
		return fmt.Errorf("%w: %q", apperror.ErrUnsupportedRenderMode, mode)
	}

	if _, err := fmt.Fprint(that.output, that.Format()); err != nil {
		return fmt.Errorf("failed to write board: %w", err)
	}

	return nil
}

// Format - returns the controlled mark followed by the grid.
func (that *Engine) Format() string {
	grid := that.episode.Board.Grid()

	rows := make([]string, 0, len(grid))
	for _, row := range grid {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell.String())
		}
		rows = append(rows, strings.Join(cells, columnSeparator))
	}

	var sb strings.Builder
	sb.WriteString("player: " + that.episode.Player.String() + "\n")
	sb.WriteString(strings.Join(rows, "\n"+rowDivider+"\n"))
	sb.WriteString("\n")

	return sb.String()
}
