package main

import (
	"os"
	"strings"

	"github.com/aretw0/algoviz"
	"github.com/aretw0/algoviz/internal/cli"
	"github.com/aretw0/algoviz/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <visualizer>",
	Short: "Run a visualizer to completion and print every checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := environment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		raw, err := argsFromFlags(cmd)
		if err != nil {
			return err
		}
		opts, err := env.StoreOptions(nil)
		if err != nil {
			return err
		}
		sess, err := catalog().NewSession(args[0], opts...)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		jsonMode, _ := cmd.Flags().GetBool("json")
		return cli.Run(ctx, cmd.OutOrStdout(), sess, cli.RunOptions{Args: raw, JSON: jsonMode})
	},
}

var stepCmd = &cobra.Command{
	Use:   "step <visualizer>",
	Short: "Step through a visualizer interactively",
	Long: `Starts the visualizer and pauses at every checkpoint.
Keys: n, space or → step forward; b or ← step back through history; l back to live; q quit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := environment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		raw, err := argsFromFlags(cmd)
		if err != nil {
			return err
		}
		opts, err := env.StoreOptions(nil)
		if err != nil {
			return err
		}
		sess, err := catalog().NewSession(args[0], opts...)
		if err != nil {
			return err
		}
		defer sess.Close()

		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			tui.PrintBanner(cmd.OutOrStdout(), strings.TrimSpace(algoviz.Version))
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		stepper := &cli.Stepper{Session: sess, In: os.Stdin, Out: cmd.OutOrStdout()}
		return stepper.Run(ctx, raw)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stepCmd)

	addArgFlags(runCmd)
	runCmd.Flags().Bool("json", false, "Print the final snapshot as JSON")

	addArgFlags(stepCmd)
	stepCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
