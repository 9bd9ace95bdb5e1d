package viterbi

import (
	"context"
	"math"
	"slices"

	"github.com/aretw0/algoviz/pkg/replay"
)

// Node is a trellis vertex. Zero and One are the indices, in the next layer,
// reached by the edges labelled 0 and 1, or -1 when there is no such edge.
type Node struct {
	Zero int `json:"zero"`
	One  int `json:"one"`
}

// Layer is the set of trellis states between two code positions.
// Bit i of a node index is the value of the generator row Active[i].
type Layer struct {
	Active []int  `json:"active"`
	Nodes  []Node `json:"nodes"`
}

func newLayer(active []int) Layer {
	nodes := make([]Node, 1<<len(active))
	for i := range nodes {
		nodes[i] = Node{Zero: -1, One: -1}
	}
	return Layer{Active: active, Nodes: nodes}
}

// Spans holds the first and last nonzero column of every row, -1 for zero rows.
type Spans struct {
	Starts []int `json:"starts"`
	Ends   []int `json:"ends"`
}

// SpanFound is the argument of EventStartFound and EventEndFound.
type SpanFound struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// ActiveColumn is the argument of EventActiveColumn.
type ActiveColumn struct {
	Column int   `json:"column"`
	Active []int `json:"active"`
}

// ColumnEdges is the argument of EventProcessColumn.
type ColumnEdges struct {
	Column int   `json:"column"`
	Now    []int `json:"now"`
	Next   []int `json:"next"`
	// Both are rows active on both sides, Any on either side.
	Both []int `json:"both"`
	Any  []int `json:"any"`
	// Coefficients are the column entries of the rows in Any.
	Coefficients []int `json:"coefficients"`
}

// Edge is the argument of EventAddEdge.
type Edge struct {
	Column int `json:"column"`
	From   int `json:"from"`
	To     int `json:"to"`
	Bit    int `json:"bit"`
}

// activeRows computes the row spans of msf and, for every column c, the rows
// whose span is open across the boundary after c (start <= c < end).
func activeRows(ctx context.Context, t replay.Tracer, msf Matrix) (Spans, [][]int, error) {
	rows, cols := len(msf), len(msf[0])
	spans := Spans{Starts: make([]int, rows), Ends: make([]int, rows)}
	for r := range rows {
		spans.Starts[r], spans.Ends[r] = -1, -1
	}
	t.Bind("spans", &spans)

	if err := t.Here(ctx, EventFindStarts); err != nil {
		return spans, nil, err
	}
	for c := range cols {
		for r := range rows {
			if msf[r][c] == 1 && spans.Starts[r] == -1 {
				spans.Starts[r] = c
				if err := t.Here(ctx, EventStartFound, SpanFound{Row: r, Column: c}); err != nil {
					return spans, nil, err
				}
			}
		}
	}

	if err := t.Here(ctx, EventFindEnds); err != nil {
		return spans, nil, err
	}
	for c := cols - 1; c >= 0; c-- {
		for r := range rows {
			if msf[r][c] == 1 && spans.Ends[r] == -1 {
				spans.Ends[r] = c
				if err := t.Here(ctx, EventEndFound, SpanFound{Row: r, Column: c}); err != nil {
					return spans, nil, err
				}
			}
		}
	}
	if err := t.Here(ctx, EventSpansReady); err != nil {
		return spans, nil, err
	}

	active := make([][]int, cols)
	for c := range cols {
		active[c] = []int{}
		for r := range rows {
			if spans.Starts[r] <= c && c < spans.Ends[r] {
				active[c] = append(active[c], r)
			}
		}
		if err := t.Here(ctx, EventActiveColumn, ActiveColumn{Column: c, Active: active[c]}); err != nil {
			return spans, nil, err
		}
	}
	return spans, active, nil
}

func bit(v, i int) int {
	return (v >> i) & 1
}

// buildTrellis builds the minimal trellis of the code spanned by msf.
// Layer 0 is the single initial state and layer c+1 follows code position c.
// A row whose span is the single column c is in no state; it makes the
// edges of column c come in parallel 0/1 pairs.
func buildTrellis(ctx context.Context, t replay.Tracer, msf Matrix) ([]Layer, error) {
	grid := []Layer{newLayer([]int{})}
	t.Bind("grid", &grid)
	if err := t.Here(ctx, EventGridInit); err != nil {
		return nil, err
	}

	spans, active, err := activeRows(ctx, t, msf)
	if err != nil {
		return nil, err
	}

	for c := range active {
		grid = append(grid, newLayer(active[c]))
		if err := t.Here(ctx, EventAddLayer, c, len(grid[c+1].Nodes)); err != nil {
			return nil, err
		}
	}

	for c := range active {
		now, next := grid[c], grid[c+1]
		info := ColumnEdges{Column: c, Now: now.Active, Next: next.Active, Both: []int{}, Any: []int{}}
		for _, r := range now.Active {
			if slices.Contains(next.Active, r) {
				info.Both = append(info.Both, r)
			}
		}
		info.Any = append(append(info.Any, now.Active...), next.Active...)
		slices.Sort(info.Any)
		info.Any = slices.Compact(info.Any)
		for _, r := range info.Any {
			info.Coefficients = append(info.Coefficients, msf[r][c])
		}
		parallel := false
		for r := range msf {
			if spans.Starts[r] == c && spans.Ends[r] == c {
				parallel = true
			}
		}
		if err := t.Here(ctx, EventProcessColumn, info); err != nil {
			return nil, err
		}

		for from := range now.Nodes {
			for to := range next.Nodes {
				if !compatible(now, next, info.Both, from, to) {
					continue
				}
				label := 0
				for i, r := range info.Any {
					label ^= info.Coefficients[i] & rowBit(now, next, r, from, to)
				}
				labels := []int{label}
				if parallel {
					labels = []int{0, 1}
				}
				for _, b := range labels {
					if b == 0 {
						grid[c].Nodes[from].Zero = to
					} else {
						grid[c].Nodes[from].One = to
					}
					if err := t.Here(ctx, EventAddEdge, Edge{Column: c, From: from, To: to, Bit: b}); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if err := t.Here(ctx, EventGridComplete); err != nil {
		return nil, err
	}
	return grid, nil
}

// compatible reports whether two states agree on every row active in both.
func compatible(now, next Layer, both []int, from, to int) bool {
	for _, r := range both {
		if bit(from, slices.Index(now.Active, r)) != bit(to, slices.Index(next.Active, r)) {
			return false
		}
	}
	return true
}

// rowBit is the value of row r along the edge from -> to.
func rowBit(now, next Layer, r, from, to int) int {
	if i := slices.Index(now.Active, r); i >= 0 {
		return bit(from, i)
	}
	return bit(to, slices.Index(next.Active, r))
}

// Relax is the argument of EventUpdateDistance.
type Relax struct {
	Column int `json:"column"`
	From   int `json:"from"`
	To     int `json:"to"`
	Bit    int `json:"bit"`
	// Old is the best known distance of To before the edge, nil while unreached.
	Old    *float64 `json:"old"`
	New    float64  `json:"new"`
	Better bool     `json:"better"`
}

// Distance is the best path into a node. Dist is nil for unreached nodes.
type Distance struct {
	Node int      `json:"node"`
	Dist *float64 `json:"dist"`
	Prev int      `json:"prev"`
	Bit  int      `json:"bit"`
}

// PathStep is one position of the surviving path.
type PathStep struct {
	Column int `json:"column"`
	Node   int `json:"node"`
	Bit    int `json:"bit"`
	Prev   int `json:"prev"`
}

func finite(d float64) *float64 {
	if math.IsInf(d, 0) {
		return nil
	}
	return &d
}

// decode runs the Viterbi algorithm over grid on the received soft values,
// where +1 stands for a sent 0 and -1 for a sent 1. An edge labelled b costs
// -r for b = 0 and +r for b = 1, so the cheapest path is the most correlated
// codeword.
func decode(ctx context.Context, t replay.Tracer, grid []Layer, received []float64) ([]int, error) {
	type cell struct {
		dist      float64
		prev, bit int
	}
	best := make([][]cell, len(received)+1)
	best[0] = []cell{{dist: 0, prev: -1, bit: -1}}

	var distances []Distance
	t.Bind("distances", &distances)
	if err := t.Here(ctx, EventDecodeInit); err != nil {
		return nil, err
	}

	for c, r := range received {
		now, next := grid[c], grid[c+1]
		best[c+1] = make([]cell, len(next.Nodes))
		for i := range best[c+1] {
			best[c+1][i] = cell{dist: math.Inf(1), prev: -1, bit: -1}
		}
		if err := t.Here(ctx, EventStartColumn, c, r); err != nil {
			return nil, err
		}

		for node := range now.Nodes {
			d := best[c][node].dist
			if math.IsInf(d, 1) {
				continue
			}
			for _, b := range []int{0, 1} {
				to := now.Nodes[node].Zero
				cost := -r
				if b == 1 {
					to, cost = now.Nodes[node].One, r
				}
				if to < 0 {
					continue
				}
				old := best[c+1][to].dist
				relax := Relax{Column: c, From: node, To: to, Bit: b, Old: finite(old), New: d + cost}
				if relax.New < old {
					best[c+1][to] = cell{dist: relax.New, prev: node, bit: b}
					relax.Better = true
				}
				if err := t.Here(ctx, EventUpdateDistance, relax); err != nil {
					return nil, err
				}
			}
		}

		distances = distances[:0]
		for i, cl := range best[c+1] {
			distances = append(distances, Distance{Node: i, Dist: finite(cl.dist), Prev: cl.prev, Bit: cl.bit})
		}
		if err := t.Here(ctx, EventEndColumn, c); err != nil {
			return nil, err
		}
	}

	var path []PathStep
	t.Bind("path", &path)
	if err := t.Here(ctx, EventStartBacktrack); err != nil {
		return nil, err
	}
	decoded := make([]int, len(received))
	node := 0
	for c := len(received); c > 0; c-- {
		cl := best[c][node]
		decoded[c-1] = cl.bit
		path = append(path, PathStep{Column: c, Node: node, Bit: cl.bit, Prev: cl.prev})
		if err := t.Here(ctx, EventBacktrackStep, c, node, cl.bit); err != nil {
			return nil, err
		}
		node = cl.prev
	}
	if err := t.Here(ctx, EventBacktrackDone, decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}
