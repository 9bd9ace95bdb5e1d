// Package convolution is the 2D convolution visualizer.
package convolution

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/replay"
)

// Checkpoint names.
const (
	EventStart      = "start"
	EventAddPadding = "add_padding"
	// EventStep carries a StepMeta.
	EventStep = "convolution_step"
	EventDone = "done"
)

var ErrInvalidArgs = errors.New("invalid convolution arguments")

// Args are the inputs of Convolve.
type Args struct {
	Input       Matrix  `json:"input" yaml:"input" mapstructure:"input"`
	Kernel      Matrix  `json:"kernel" yaml:"kernel" mapstructure:"kernel"`
	Padding     int     `json:"padding" yaml:"padding" mapstructure:"padding"`
	Stride      int     `json:"stride" yaml:"stride" mapstructure:"stride"`
	PaddingType Padding `json:"padding_type" yaml:"padding_type" mapstructure:"padding_type"`
}

// DefaultArgs seeds the start form.
func DefaultArgs() Args {
	return Args{
		Input: Matrix{
			{5, 4, 3, 2, 1},
			{4, 3, 2, 1, 0},
			{3, 2, 1, 0, 1},
			{2, 1, 0, 1, 2},
			{1, 0, 1, 2, 3},
		},
		Kernel: Matrix{
			{0, 1, 0},
			{1, 1, 1},
			{0, 1, 0},
		},
		Padding:     2,
		Stride:      3,
		PaddingType: PadEdge,
	}
}

// Manifest describes the visualizer.
var Manifest = domain.Manifest{
	ID: "convolution2d",
	Name: domain.Localized{
		En: "2D convolution",
		Ru: "Двумерная свёртка",
	},
	Description: domain.Localized{
		En: "Kernel convolution with padding and stride https://en.wikipedia.org/wiki/Kernel_(image_processing)",
		Ru: "Свёртка с ядром, дополнением и шагом",
	},
	Events: []string{EventStart, EventAddPadding, EventStep, EventDone},
	Tags:   []string{"image-processing"},
}

// StepMeta locates one output cell and the input window it was computed from.
// The To bounds are exclusive.
type StepMeta struct {
	InputXFrom int `json:"inputXFrom"`
	InputXTo   int `json:"inputXTo"`
	InputYFrom int `json:"inputYFrom"`
	InputYTo   int `json:"inputYTo"`
	OutputX    int `json:"outputX"`
	OutputY    int `json:"outputY"`
}

// Canvas holds the grid being convolved; padding swaps its Value.
type Canvas struct {
	Value Grid `json:"value"`
}

// OutputSize is the length of a convolution output along one axis.
func OutputSize(size, kernel, padding, stride int) int {
	return (size-kernel+2*padding)/stride + 1
}

// Convolve pads args.Input and slides args.Kernel over it.
//
// State: "matrix" (*Canvas), "kernel" (Matrix), "result" (Matrix).
func Convolve(ctx context.Context, t replay.Tracer, args Args) error {
	if err := validate(args); err != nil {
		return err
	}

	canvas := &Canvas{Value: args.Input}
	kernel := args.Kernel
	result := NewMatrix(
		OutputSize(args.Input.Height(), kernel.Height(), args.Padding, args.Stride),
		OutputSize(args.Input.Width(), kernel.Width(), args.Padding, args.Stride),
	)

	t.Bind("matrix", canvas)
	t.Bind("kernel", kernel)
	t.Bind("result", result)

	if err := t.Here(ctx, EventStart); err != nil {
		return err
	}

	canvas.Value = Padded{Source: args.Input, Size: args.Padding, Type: args.PaddingType}
	if err := t.Here(ctx, EventAddPadding, args.Padding); err != nil {
		return err
	}

	for y := range result {
		for x := range result[y] {
			var sum float64
			for ky := range kernel {
				for kx := range kernel[ky] {
					sum += kernel[ky][kx] * canvas.Value.At(y*args.Stride+ky, x*args.Stride+kx)
				}
			}
			result[y][x] = sum

			meta := StepMeta{
				InputXFrom: x * args.Stride,
				InputXTo:   x*args.Stride + kernel.Width(),
				InputYFrom: y * args.Stride,
				InputYTo:   y*args.Stride + kernel.Height(),
				OutputX:    x,
				OutputY:    y,
			}
			if err := t.Here(ctx, EventStep, meta); err != nil {
				return err
			}
		}
	}

	return t.Here(ctx, EventDone)
}

func validate(args Args) error {
	if err := args.Input.Validate(); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if err := args.Kernel.Validate(); err != nil {
		return fmt.Errorf("kernel: %w", err)
	}
	if args.Stride < 1 {
		return fmt.Errorf("%w: stride must be positive, got %d", ErrInvalidArgs, args.Stride)
	}
	if args.Padding < 0 {
		return fmt.Errorf("%w: padding must not be negative, got %d", ErrInvalidArgs, args.Padding)
	}
	switch args.PaddingType {
	case PadReflect, PadWrap, PadEdge, PadZero:
	default:
		return fmt.Errorf("%w: unknown padding type %q", ErrInvalidArgs, args.PaddingType)
	}
	if args.PaddingType == PadReflect && (args.Padding >= args.Input.Height() || args.Padding >= args.Input.Width()) {
		return fmt.Errorf("%w: reflect padding must be smaller than the input", ErrInvalidArgs)
	}
	h := args.Input.Height() + 2*args.Padding - args.Kernel.Height()
	w := args.Input.Width() + 2*args.Padding - args.Kernel.Width()
	if h < 0 || w < 0 {
		return fmt.Errorf("%w: kernel is larger than the padded input", ErrInvalidArgs)
	}
	return nil
}

// Describe renders one recorded step as a line of text.
func Describe(ev domain.StoredEvent) string {
	switch ev.Name {
	case EventAddPadding:
		if len(ev.Args) == 1 {
			return fmt.Sprintf("padded by %v", ev.Args[0])
		}
	case EventStep:
		if len(ev.Args) == 1 {
			if m, ok := ev.Args[0].(StepMeta); ok {
				value := 0.0
				if result, ok := ev.State["result"].(Matrix); ok {
					value = result[m.OutputY][m.OutputX]
				}
				return fmt.Sprintf("rows [%d,%d) cols [%d,%d) -> result[%d][%d] = %g",
					m.InputYFrom, m.InputYTo, m.InputXFrom, m.InputXTo, m.OutputY, m.OutputX, value)
			}
		}
	case EventDone:
		if result, ok := ev.State["result"].(Matrix); ok {
			return "result\n" + Format(result)
		}
	}
	return ev.Name
}
