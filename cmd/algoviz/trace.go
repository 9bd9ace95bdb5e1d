package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/algoviz/pkg/ports"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Manage exported run traces",
	Long:  `List, inspect, and remove the run traces written by the configured trace backend.`,
}

var traceLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List exported runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSink(cmd, func(sink ports.TraceSink) error {
			runs, err := sink.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing traces: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No traces found.")
				return nil
			}
			for _, id := range runs {
				fmt.Fprintln(cmd.OutOrStdout(), "- "+id)
			}
			return nil
		})
	},
}

var traceInspectCmd = &cobra.Command{
	Use:   "inspect <run-id>",
	Short: "Print the checkpoints of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSink(cmd, func(sink ports.TraceSink) error {
			entries, err := sink.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error loading trace '%s': %w", args[0], err)
			}

			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			// Round-trip through JSON so YAML keys match the wire names.
			data, err := json.Marshal(entries)
			if err != nil {
				return err
			}
			var generic any
			if err := yaml.Unmarshal(data, &generic); err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(generic)
		})
	},
}

var traceRmCmd = &cobra.Command{
	Use:   "rm <run-id>...",
	Short: "Remove one or more traces",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSink(cmd, func(sink ports.TraceSink) error {
			var errs []error
			for _, id := range args {
				if err := sink.Delete(cmd.Context(), id); err != nil {
					errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed trace '%s'\n", id)
			}
			return errors.Join(errs...)
		})
	},
}

func withSink(cmd *cobra.Command, fn func(ports.TraceSink) error) error {
	env, err := environment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	sink, err := env.Sink()
	if err != nil {
		return err
	}
	if sink == nil {
		return errors.New("tracing is disabled; set trace.backend in the config")
	}
	return fn(sink)
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.AddCommand(traceLsCmd)
	traceCmd.AddCommand(traceInspectCmd)
	traceCmd.AddCommand(traceRmCmd)

	traceInspectCmd.Flags().Bool("json", false, "Print JSON instead of YAML")
}
