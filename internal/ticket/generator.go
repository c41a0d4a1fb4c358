package ticket

import rand "math/rand/v2"

// Generator produces random valid tickets from an injected random source.
// Injecting the source keeps ticket generation reproducible under a
// deterministic seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator backed by the given random source.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate produces one ticket. Each row independently selects five
// distinct columns by rejection sampling, then fills each selected cell
// with a uniform pick from the column's range excluding numbers the
// column already holds in other rows. A cell is left empty if its
// column's range is exhausted; with ten candidates for at most three
// slots this requires an adversarial random sequence, but the behaviour
// is kept rather than papered over.
func (g *Generator) Generate() Ticket {
	var t Ticket

	for row := 0; row < Rows; row++ {
		selected := make([]int, 0, NumbersPerRow)
		chosen := [Cols]bool{}
		for len(selected) < NumbersPerRow {
			col := g.rng.IntN(Cols)
			if chosen[col] {
				continue
			}
			chosen[col] = true
			selected = append(selected, col)
		}

		for _, col := range selected {
			lo, hi := ColumnRange(col)

			var taken [10]bool // indexed by n-lo within the 10-wide column range
			for r := 0; r < Rows; r++ {
				if n := t.At(r, col); n != Empty {
					taken[n-lo] = true
				}
			}

			available := make([]int, 0, hi-lo+1)
			for n := lo; n <= hi; n++ {
				if !taken[n-lo] {
					available = append(available, n)
				}
			}
			if len(available) == 0 {
				continue
			}
			t[row*Cols+col] = available[g.rng.IntN(len(available))]
		}
	}

	return t
}
