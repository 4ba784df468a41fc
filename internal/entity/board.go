package entity

const (
	BoardSize = 9
	rowSize   = 3
)

// WinCombos - every row, column and diagonal of the 3x3 grid.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is a row-major 3x3 grid: cell i sits in row i/3, column i%3.
type Board [BoardSize]Mark

// Grid - returns the board reshaped into rows.
func (that Board) Grid() [rowSize][rowSize]Mark {
	var grid [rowSize][rowSize]Mark
	for i, cell := range that {
		grid[i/rowSize][i%rowSize] = cell
	}

	return grid
}

// Connections - counts the lines filled with one player's mark.
// Lines of empty cells never count.
func (that Board) Connections() int {
	connections := 0
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != Empty && a == b && b == c {
			connections++
		}
	}

	return connections
}

func (that Board) HasConnection() bool {
	return that.Connections() > 0
}

// AvailableActions - returns the indices of empty cells in ascending order.
func (that Board) AvailableActions() []int {
	actions := make([]int, 0, len(that))
	for i, cell := range that {
		if cell == Empty {
			actions = append(actions, i)
		}
	}

	return actions
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == Empty {
			return false
		}
	}

	return true
}

// IsValidCell - reports whether the index addresses a cell of the board.
func IsValidCell(cell int) bool {
	return cell >= 0 && cell < BoardSize
}
