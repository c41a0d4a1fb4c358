// Package ticket implements housie ticket generation and win-pattern
// evaluation. A ticket is a 3x9 grid holding 15 numbers from 1-90; each
// column only carries numbers from its own range of ten.
package ticket

const (
	// Rows and Cols describe the ticket grid.
	Rows = 3
	Cols = 9

	// Cells is the flat row-major cell count.
	Cells = Rows * Cols

	// NumbersPerRow is how many cells of each row hold a number.
	NumbersPerRow = 5

	// TotalNumbers is the populated cell count of a valid ticket.
	TotalNumbers = Rows * NumbersPerRow

	// MaxNumber is the highest callable number.
	MaxNumber = 90

	// Empty marks an unpopulated cell.
	Empty = 0
)

// Ticket is a flat row-major 27-cell grid. Populated cells hold 1-90,
// empty cells hold 0. Tickets are created once at join time and never
// mutated afterwards.
type Ticket [Cells]int

// At returns the cell at the given row and column.
func (t Ticket) At(row, col int) int {
	return t[row*Cols+col]
}

// Contains reports whether n appears anywhere on the ticket.
func (t Ticket) Contains(n int) bool {
	if n == Empty {
		return false
	}
	for _, cell := range t {
		if cell == n {
			return true
		}
	}
	return false
}

// Numbers returns the populated cell values in row-major order.
func (t Ticket) Numbers() []int {
	out := make([]int, 0, TotalNumbers)
	for _, cell := range t {
		if cell != Empty {
			out = append(out, cell)
		}
	}
	return out
}

// ColumnRange returns the inclusive number range for a column. Column 0
// holds 1-10, column 1 holds 11-20, and so on through column 8's 81-90.
func ColumnRange(col int) (lo, hi int) {
	lo = col*10 + 1
	return lo, lo + 9
}
