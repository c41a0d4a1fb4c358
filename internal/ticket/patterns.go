package ticket

// Pattern names a winning condition evaluated against a ticket and the
// numbers called so far.
type Pattern string

const (
	EarlyFive   Pattern = "earlyFive"
	TopLine     Pattern = "topLine"
	MiddleLine  Pattern = "middleLine"
	BottomLine  Pattern = "bottomLine"
	FourCorners Pattern = "fourCorners"
	FullHouse   Pattern = "fullHouse"
)

// AllPatterns lists every pattern in display order.
func AllPatterns() []Pattern {
	return []Pattern{EarlyFive, TopLine, MiddleLine, BottomLine, FourCorners, FullHouse}
}

// Valid reports whether p is one of the known patterns.
func (p Pattern) Valid() bool {
	switch p {
	case EarlyFive, TopLine, MiddleLine, BottomLine, FourCorners, FullHouse:
		return true
	}
	return false
}

func (p Pattern) String() string {
	return string(p)
}

// Wins holds the evaluation result, one flag per pattern. Patterns are
// independent: several can be satisfied at once.
type Wins struct {
	EarlyFive   bool
	TopLine     bool
	MiddleLine  bool
	BottomLine  bool
	FourCorners bool
	FullHouse   bool
}

// Has returns the flag for a single pattern.
func (w Wins) Has(p Pattern) bool {
	switch p {
	case EarlyFive:
		return w.EarlyFive
	case TopLine:
		return w.TopLine
	case MiddleLine:
		return w.MiddleLine
	case BottomLine:
		return w.BottomLine
	case FourCorners:
		return w.FourCorners
	case FullHouse:
		return w.FullHouse
	}
	return false
}

// cornerCells are the four corner positions of the grid.
var cornerCells = [4][2]int{{0, 0}, {0, Cols - 1}, {Rows - 1, 0}, {Rows - 1, Cols - 1}}

// Evaluate recomputes every pattern flag for a ticket against the set of
// called numbers. It is a pure function; flags are rebuilt from scratch
// on every call since a ticket is only 27 cells.
//
// earlyFive is a threshold on the ticket's total matched count, not a
// race on the first five calls: once five ticket numbers have been
// called the flag stays true.
func Evaluate(t Ticket, called map[int]bool) Wins {
	var w Wins

	matched := 0
	for _, cell := range t {
		if cell != Empty && called[cell] {
			matched++
		}
	}

	if matched >= NumbersPerRow {
		w.EarlyFive = true
	}
	if matched == TotalNumbers {
		w.FullHouse = true
	}

	for row := 0; row < Rows; row++ {
		populated, rowMatched := 0, 0
		for col := 0; col < Cols; col++ {
			n := t.At(row, col)
			if n == Empty {
				continue
			}
			populated++
			if called[n] {
				rowMatched++
			}
		}
		// A row with no numbers can never be a line win.
		if populated == 0 || rowMatched != populated {
			continue
		}
		switch row {
		case 0:
			w.TopLine = true
		case 1:
			w.MiddleLine = true
		case 2:
			w.BottomLine = true
		}
	}

	populated, cornersMatched := 0, 0
	for _, pos := range cornerCells {
		n := t.At(pos[0], pos[1])
		if n == Empty {
			continue
		}
		populated++
		if called[n] {
			cornersMatched++
		}
	}
	if populated > 0 && cornersMatched == populated {
		w.FourCorners = true
	}

	return w
}
