package main

import (
	"fmt"

	"github.com/aretw0/algoviz"
	"github.com/aretw0/algoviz/internal/cli"
	"github.com/aretw0/algoviz/internal/presentation/graph"
	"github.com/aretw0/algoviz/pkg/registry"
	"github.com/aretw0/algoviz/pkg/visualizers/turing"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export a Turing machine program as a Mermaid diagram",
	Long: `Parses the turing-machine program (the default one unless --arg program=... or
--args-file is given) and prints its transition graph as a Mermaid flowchart.
With --run the machine is executed and the visited states are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := argsFromFlags(cmd)
		if err != nil {
			return err
		}

		source := turing.DefaultArgs().Program
		if p, ok := raw["program"].(string); ok {
			if source, err = registry.SanitizeString(p); err != nil {
				return err
			}
		}
		program, err := turing.Parse(source)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if run, _ := cmd.Flags().GetBool("run"); run {
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			snap, err := algoviz.Replay(ctx, turing.Manifest.ID, raw)
			if err != nil {
				return err
			}
			overlay = graph.OverlayFromSnapshot(snap)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(program, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addArgFlags(graphCmd)
	graphCmd.Flags().Bool("run", false, "Execute the program and highlight visited states")
}
