// Package viterbi is the Viterbi decoding visualizer for binary linear block codes.
package viterbi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/replay"
)

// Checkpoint names, in the order a run emits them.
const (
	EventMakeMSF    = "make_msf"
	EventCheckCell  = "msf_check_cell"
	EventSwap       = "msf_swap"
	EventAfterSwap  = "msf_after_swap"
	EventSkipColumn = "msf_skip_column"
	EventBeforeXOR  = "msf_before_xor"
	EventAfterXOR   = "msf_after_xor"
	EventMSFReady   = "msf_ready"

	EventGridInit      = "make_grid_init"
	EventFindStarts    = "find_active_find_starts"
	EventStartFound    = "find_active_start_found"
	EventFindEnds      = "find_active_find_ends"
	EventEndFound      = "find_active_end_found"
	EventSpansReady    = "find_active_starts_ends"
	EventActiveColumn  = "find_active_column"
	EventAddLayer      = "make_grid_add_layer"
	EventProcessColumn = "make_grid_process_column"
	EventAddEdge       = "make_grid_add_edge"
	EventGridComplete  = "make_grid_complete"
	EventGridReady     = "grid_ready"

	EventEncoded  = "encoded"
	EventReceived = "received"

	EventDecodeInit     = "decode_init"
	EventStartColumn    = "decode_start_column"
	EventUpdateDistance = "decode_update_distance"
	EventEndColumn      = "decode_end_column"
	EventStartBacktrack = "decode_start_backtrack"
	EventBacktrackStep  = "decode_backtrack_step"
	EventBacktrackDone  = "decode_backtrack_complete"
	EventDecoded        = "decoded"
	EventDone           = "done"
)

// Size limits. A layer holds up to 2^MaxRows states.
const (
	MaxRows    = 8
	MaxColumns = 24
)

var (
	ErrInvalidMatrix  = errors.New("invalid generator matrix")
	ErrInvalidMessage = errors.New("invalid message")
)

// Args are the inputs of Decode.
type Args struct {
	// Generator is the k x n generator matrix of the code.
	Generator Matrix `json:"generator" yaml:"generator" mapstructure:"generator"`
	// Message holds the k information bits.
	Message []int `json:"message" yaml:"message" mapstructure:"message"`
	// SNR is the channel signal-to-noise ratio in dB. Zero leaves the channel noiseless.
	SNR float64 `json:"snr,omitempty" yaml:"snr,omitempty" mapstructure:"snr"`
	// Seed drives the channel noise.
	Seed uint64 `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// DefaultArgs seeds the start form with a [6,3] code.
func DefaultArgs() Args {
	return Args{
		Generator: Matrix{
			{1, 0, 1, 1, 0, 0},
			{0, 1, 0, 1, 1, 0},
			{0, 0, 1, 0, 1, 1},
		},
		Message: []int{1, 0, 1},
		Seed:    1,
	}
}

// Manifest describes the visualizer.
var Manifest = domain.Manifest{
	ID: "viterbi",
	Name: domain.Localized{
		En: "Viterbi Algorithm",
		Ru: "Алгоритм Витерби",
	},
	Description: domain.Localized{
		En: "Viterbi decoding algorithm for linear block codes",
		Ru: "Алгоритм декодирования Витерби для линейных блоковых кодов",
	},
	Author: domain.Localized{
		En: "Alzhanov Maksim",
		Ru: "Альжанов Максим",
	},
	Events: []string{
		EventMakeMSF, EventCheckCell, EventSwap, EventAfterSwap, EventSkipColumn,
		EventBeforeXOR, EventAfterXOR, EventMSFReady,
		EventGridInit, EventFindStarts, EventStartFound, EventFindEnds, EventEndFound,
		EventSpansReady, EventActiveColumn, EventAddLayer, EventProcessColumn,
		EventAddEdge, EventGridComplete, EventGridReady,
		EventEncoded, EventReceived,
		EventDecodeInit, EventStartColumn, EventUpdateDistance, EventEndColumn,
		EventStartBacktrack, EventBacktrackStep, EventBacktrackDone, EventDecoded, EventDone,
	},
	Tags: []string{"coding-theory"},
}

// Decode encodes args.Message with args.Generator, sends it through a
// BPSK channel with optional gaussian noise and decodes the received values
// over the minimal trellis of the code.
//
// State: "generator" (Matrix), "message" ([]int), "msf" (Matrix), "spans" (*Spans),
// "grid" (*[]Layer), "encoded" ([]int), "received" ([]float64),
// "distances" (*[]Distance), "path" (*[]PathStep), "decoded" ([]int), "correct" (bool).
func Decode(ctx context.Context, t replay.Tracer, args Args) error {
	if err := validate(args); err != nil {
		return err
	}
	t.Update("generator", cloneMatrix(args.Generator))
	t.Update("message", append([]int(nil), args.Message...))

	msf := cloneMatrix(args.Generator)
	t.Bind("msf", msf)
	if err := t.Here(ctx, EventMakeMSF); err != nil {
		return err
	}
	if err := minimalSpan(ctx, t, msf); err != nil {
		return err
	}
	if err := t.Here(ctx, EventMSFReady); err != nil {
		return err
	}

	grid, err := buildTrellis(ctx, t, msf)
	if err != nil {
		return err
	}
	if err := t.Here(ctx, EventGridReady, len(grid)); err != nil {
		return err
	}

	encoded := encode(args.Message, args.Generator)
	t.Update("encoded", encoded)
	if err := t.Here(ctx, EventEncoded, encoded); err != nil {
		return err
	}

	received := transmit(encoded, len(args.Generator), args.SNR, args.Seed)
	t.Update("received", received)
	if err := t.Here(ctx, EventReceived, received); err != nil {
		return err
	}

	decoded, err := decode(ctx, t, grid, received)
	if err != nil {
		return err
	}
	t.Update("decoded", decoded)
	if err := t.Here(ctx, EventDecoded, decoded); err != nil {
		return err
	}

	correct := true
	for i := range decoded {
		if decoded[i] != encoded[i] {
			correct = false
		}
	}
	t.Update("correct", correct)
	return t.Here(ctx, EventDone, correct)
}

func validate(args Args) error {
	k := len(args.Generator)
	if k == 0 || k > MaxRows {
		return fmt.Errorf("%w: need 1 to %d rows, got %d", ErrInvalidMatrix, MaxRows, k)
	}
	n := len(args.Generator[0])
	if n == 0 || n > MaxColumns {
		return fmt.Errorf("%w: need 1 to %d columns, got %d", ErrInvalidMatrix, MaxColumns, n)
	}
	for i, row := range args.Generator {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidMatrix, i, len(row), n)
		}
		if !binary(row) {
			return fmt.Errorf("%w: row %d is not binary", ErrInvalidMatrix, i)
		}
	}
	if len(args.Message) != k {
		return fmt.Errorf("%w: need %d bits, got %d", ErrInvalidMessage, k, len(args.Message))
	}
	if !binary(args.Message) {
		return fmt.Errorf("%w: bits must be 0 or 1", ErrInvalidMessage)
	}
	return nil
}

func binary(bits []int) bool {
	for _, b := range bits {
		if b != 0 && b != 1 {
			return false
		}
	}
	return true
}

// encode multiplies message by the generator over GF(2).
func encode(message []int, g Matrix) []int {
	out := make([]int, len(g[0]))
	for j := range out {
		for i := range g {
			out[j] ^= message[i] & g[i][j]
		}
	}
	return out
}

// transmit maps bits to +1/-1 and adds gaussian noise for a positive snr.
func transmit(codeword []int, k int, snr float64, seed uint64) []float64 {
	out := make([]float64, len(codeword))
	for i, b := range codeword {
		out[i] = float64(1 - 2*b)
	}
	if snr <= 0 {
		return out
	}
	n := float64(len(codeword))
	sigma := math.Sqrt(0.5 * math.Pow(10, -snr/10) * n / float64(k))
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range out {
		out[i] += rng.NormFloat64() * sigma
	}
	return out
}

// Describe renders one recorded step as a line of text.
func Describe(ev domain.StoredEvent) string {
	arg := func(i int) any {
		if i < len(ev.Args) {
			return ev.Args[i]
		}
		return nil
	}
	switch ev.Name {
	case EventCheckCell:
		if c, ok := arg(0).(Cell); ok {
			return fmt.Sprintf("%s: cell (%d,%d) = %d", c.Phase, c.Row, c.Col, c.Value)
		}
	case EventSwap:
		if s, ok := arg(0).(Swap); ok {
			return fmt.Sprintf("%s: swap rows %d and %d for column %d", s.Phase, s.Row1, s.Row2, s.Col)
		}
	case EventSkipColumn:
		if c, ok := arg(0).(Cell); ok {
			return fmt.Sprintf("%s: skip column %d", c.Phase, c.Col)
		}
	case EventBeforeXOR:
		if x, ok := arg(0).(XOR); ok {
			return fmt.Sprintf("%s: add row %d to rows %v", x.Phase, x.Source, x.Targets)
		}
	case EventMSFReady:
		msf, _ := ev.State["msf"].(Matrix)
		return fmt.Sprintf("minimal span form %v", msf)
	case EventActiveColumn:
		if a, ok := arg(0).(ActiveColumn); ok {
			return fmt.Sprintf("after column %d active rows %v", a.Column, a.Active)
		}
	case EventAddEdge:
		if e, ok := arg(0).(Edge); ok {
			return fmt.Sprintf("column %d: edge %d -> %d labelled %d", e.Column, e.From, e.To, e.Bit)
		}
	case EventUpdateDistance:
		if r, ok := arg(0).(Relax); ok {
			old := "inf"
			if r.Old != nil {
				old = fmt.Sprintf("%.2f", *r.Old)
			}
			verdict := "kept"
			if r.Better {
				verdict = "improved"
			}
			return fmt.Sprintf("column %d: %d -%d-> %d, %s vs %.2f, %s", r.Column, r.From, r.Bit, r.To, old, r.New, verdict)
		}
	case EventEncoded, EventDecoded:
		return fmt.Sprintf("%s %v", ev.Name, arg(0))
	case EventReceived:
		if rx, ok := arg(0).([]float64); ok {
			return fmt.Sprintf("received %.2f", rx)
		}
	case EventDone:
		if ok, _ := arg(0).(bool); ok {
			return "decoded the sent codeword"
		}
		return "decoding error"
	}
	return ev.Name
}
