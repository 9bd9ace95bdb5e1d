package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/algoviz/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available visualizers",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := environment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCHECKPOINTS")
		for _, m := range catalog().List() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Name.Get(env.Config.Lang), strings.Join(m.Events, ", "))
		}
		return tw.Flush()
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <visualizer>",
	Short: "Show a visualizer's manifest and default arguments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := environment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		v, err := catalog().Get(args[0])
		if err != nil {
			return err
		}
		defaults, err := v.DefaultArgs()
		if err != nil {
			return err
		}

		markdown := tui.ManifestMarkdown(v.Manifest(), defaults, env.Config.Lang)
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Fprint(cmd.OutOrStdout(), markdown)
			return nil
		}
		out, err := tui.NewRenderer()(markdown)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("raw", false, "Print markdown without terminal styling")
}
