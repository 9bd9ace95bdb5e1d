package viterbi

import (
	"context"

	"github.com/aretw0/algoviz/pkg/replay"
)

// Matrix is a binary matrix, one row per slice.
type Matrix = [][]int

// Phases of the minimal span form construction.
const (
	PhaseBeginning = "beginning"
	PhaseEnding    = "ending"
)

// Cell is the argument of EventCheckCell and EventSkipColumn (Row is -1 there).
type Cell struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value int    `json:"value"`
	Phase string `json:"phase"`
}

// Swap is the argument of EventSwap.
type Swap struct {
	Row1  int    `json:"row1"`
	Row2  int    `json:"row2"`
	Col   int    `json:"col"`
	Phase string `json:"phase"`
}

// XOR is the argument of EventBeforeXOR: every target row gets the source row added.
type XOR struct {
	Source  int    `json:"source"`
	Targets []int  `json:"targets"`
	Col     int    `json:"col"`
	Phase   string `json:"phase"`
}

func xorRow(target, source []int) {
	for i := range target {
		target[i] ^= source[i]
	}
}

func cloneMatrix(m Matrix) Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// minimalSpan brings m, in place, to minimal span form: every nonzero row
// starts in a distinct column and ends in a distinct column.
// Rows are only swapped and added to each other, so the code is unchanged.
func minimalSpan(ctx context.Context, t replay.Tracer, m Matrix) error {
	rows, cols := len(m), len(m[0])

	// Distinct beginnings: forward elimination, one pivot column per row.
	col := 0
	for row := 0; row < rows && col < cols; row++ {
		if err := t.Here(ctx, EventCheckCell, Cell{Row: row, Col: col, Value: m[row][col], Phase: PhaseBeginning}); err != nil {
			return err
		}
		if m[row][col] == 0 {
			for i := row + 1; i < rows; i++ {
				if m[i][col] != 1 {
					continue
				}
				if err := t.Here(ctx, EventSwap, Swap{Row1: row, Row2: i, Col: col, Phase: PhaseBeginning}); err != nil {
					return err
				}
				m[i], m[row] = m[row], m[i]
				if err := t.Here(ctx, EventAfterSwap, cloneMatrix(m), PhaseBeginning); err != nil {
					return err
				}
				break
			}
		}
		if m[row][col] == 0 {
			if err := t.Here(ctx, EventSkipColumn, Cell{Row: -1, Col: col, Phase: PhaseBeginning}); err != nil {
				return err
			}
			row--
			col++
			continue
		}

		var targets []int
		for i := row + 1; i < rows; i++ {
			if m[i][col] == 1 {
				targets = append(targets, i)
			}
		}
		if len(targets) > 0 {
			if err := t.Here(ctx, EventBeforeXOR, XOR{Source: row, Targets: targets, Col: col, Phase: PhaseBeginning}); err != nil {
				return err
			}
			for _, i := range targets {
				xorRow(m[i], m[row])
			}
			if err := t.Here(ctx, EventAfterXOR, cloneMatrix(m), PhaseBeginning); err != nil {
				return err
			}
		}
		col++
	}

	// Distinct endings: walk columns right to left, clearing the column
	// above the lowest row that still ends here.
	unique := make([]bool, rows)
	col = cols - 1
	for remaining := rows; remaining > 0 && col >= 0; col-- {
		last := -1
		for r := rows - 1; r >= 0; r-- {
			if m[r][col] == 1 && !unique[r] {
				last = r
				break
			}
		}
		if last < 0 {
			if err := t.Here(ctx, EventSkipColumn, Cell{Row: -1, Col: col, Phase: PhaseEnding}); err != nil {
				return err
			}
			continue
		}
		if err := t.Here(ctx, EventCheckCell, Cell{Row: last, Col: col, Value: 1, Phase: PhaseEnding}); err != nil {
			return err
		}

		var targets []int
		for r := last - 1; r >= 0; r-- {
			if m[r][col] == 1 {
				targets = append(targets, r)
			}
		}
		if len(targets) > 0 {
			if err := t.Here(ctx, EventBeforeXOR, XOR{Source: last, Targets: targets, Col: col, Phase: PhaseEnding}); err != nil {
				return err
			}
			for _, r := range targets {
				xorRow(m[r], m[last])
			}
			if err := t.Here(ctx, EventAfterXOR, cloneMatrix(m), PhaseEnding); err != nil {
				return err
			}
		}
		unique[last] = true
		remaining--
	}
	return nil
}
