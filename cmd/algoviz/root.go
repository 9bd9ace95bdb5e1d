package main

import (
	"fmt"
	"os"

	"github.com/aretw0/algoviz/internal/cli"
	"github.com/aretw0/algoviz/internal/config"
	"github.com/aretw0/algoviz/pkg/registry"
	"github.com/aretw0/algoviz/pkg/visualizers"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "algoviz",
	Short: "algoviz steps through instrumented algorithms",
	Long: `algoviz runs algorithms (sorting, clustering, a Turing machine, convolution,
Viterbi decoding) checkpoint by checkpoint, so every intermediate state can be
replayed and inspected.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the algoviz config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().String("lang", "", "Manifest language (en, ru); overrides the config")
}

// environment loads the config named by the persistent flags.
func environment(cmd *cobra.Command) (*cli.Environment, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	env, err := cli.NewEnvironment(path, debug)
	if err != nil {
		return nil, err
	}
	if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
		env.Config.Lang = lang
	}
	return env, nil
}

func catalog() *registry.Registry {
	return visualizers.Default()
}

// addArgFlags registers the flags that build algorithm arguments.
func addArgFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("arg", "a", nil, "Algorithm argument as key=value (YAML value), repeatable")
	cmd.Flags().String("args-file", "", "YAML or JSON file with algorithm arguments")
}

func argsFromFlags(cmd *cobra.Command) (map[string]any, error) {
	pairs, _ := cmd.Flags().GetStringArray("arg")
	path, _ := cmd.Flags().GetString("args-file")
	return cli.ParseArgs(path, pairs)
}
