package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/aretw0/algoviz"
	httpAdapter "github.com/aretw0/algoviz/pkg/adapters/http"
	"github.com/aretw0/algoviz/pkg/visualizers"
	"github.com/spf13/cobra"
)

// buildInfo is what `version --json` reports.
type buildInfo struct {
	Version     string `json:"version"`
	APIVersion  string `json:"apiVersion"`
	GoVersion   string `json:"goVersion"`
	Visualizers int    `json:"visualizers"`
}

func currentBuild(cmd *cobra.Command) buildInfo {
	info := buildInfo{
		Version:     strings.TrimSpace(algoviz.Version),
		APIVersion:  "unknown",
		GoVersion:   runtime.Version(),
		Visualizers: len(visualizers.All()),
	}
	if doc, err := httpAdapter.GetSwagger(cmd.Context()); err == nil && doc.Info != nil {
		info.APIVersion = doc.Info.Version
	}
	return info
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the algoviz release, HTTP API version and toolchain",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentBuild(cmd)
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "algoviz %s (api %s, %s, %d visualizers)\n",
			info.Version, info.APIVersion, info.GoVersion, info.Visualizers)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("json", false, "Print build information as JSON")
}
