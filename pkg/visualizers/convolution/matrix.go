package convolution

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Grid is a read-only 2D view.
type Grid interface {
	Height() int
	Width() int
	At(row, col int) float64
}

// Matrix is a dense row-major matrix.
type Matrix [][]float64

// NewMatrix returns a zero matrix.
func NewMatrix(height, width int) Matrix {
	m := make(Matrix, height)
	for i := range m {
		m[i] = make([]float64, width)
	}
	return m
}

func (m Matrix) Height() int { return len(m) }

func (m Matrix) Width() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

func (m Matrix) At(row, col int) float64 { return m[row][col] }

// Validate checks that m is non-empty and rectangular.
func (m Matrix) Validate() error {
	if len(m) == 0 || len(m[0]) == 0 {
		return fmt.Errorf("%w: empty matrix", ErrInvalidArgs)
	}
	for i, row := range m {
		if len(row) != len(m[0]) {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidArgs, i, len(row), len(m[0]))
		}
	}
	return nil
}

// Padding selects how cells outside the source are filled.
type Padding string

const (
	PadReflect Padding = "reflect"
	PadWrap    Padding = "wrap"
	PadEdge    Padding = "edge"
	PadZero    Padding = "zero"
)

// Padded is a virtual view of Source surrounded by Size extra cells on every side.
type Padded struct {
	Source Matrix  `json:"source"`
	Size   int     `json:"size"`
	Type   Padding `json:"type"`
}

func (p Padded) Height() int { return p.Source.Height() + 2*p.Size }

func (p Padded) Width() int { return p.Source.Width() + 2*p.Size }

func (p Padded) At(row, col int) float64 {
	r, rok := index(row-p.Size, p.Source.Height(), p.Type)
	c, cok := index(col-p.Size, p.Source.Width(), p.Type)
	if !rok || !cok {
		return 0
	}
	return p.Source.At(r, c)
}

// MarshalJSON renders the padded matrix with its cells materialized.
func (p Padded) MarshalJSON() ([]byte, error) {
	return json.Marshal(Materialize(p))
}

// index maps a possibly out-of-range index into [0, length). ok is false for zero padding.
func index(i, length int, pad Padding) (int, bool) {
	if i >= 0 && i < length {
		return i, true
	}
	switch pad {
	case PadReflect:
		if i < 0 {
			return -i, true
		}
		return 2*length - i - 2, true
	case PadWrap:
		return ((i % length) + length) % length, true
	case PadEdge:
		if i < 0 {
			return 0, true
		}
		return length - 1, true
	}
	return 0, false
}

// Materialize copies any grid into a dense matrix.
func Materialize(g Grid) Matrix {
	m := NewMatrix(g.Height(), g.Width())
	for r := range m {
		for c := range m[r] {
			m[r][c] = g.At(r, c)
		}
	}
	return m
}

// Format renders g as aligned rows.
func Format(g Grid) string {
	var b strings.Builder
	for r := 0; r < g.Height(); r++ {
		for c := 0; c < g.Width(); c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%6.2f", g.At(r, c))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
