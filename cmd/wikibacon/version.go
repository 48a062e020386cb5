package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the wikibacon version, module, and Go toolchain",
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := debug.ReadBuildInfo()
		fmt.Fprintln(cmd.OutOrStdout(), versionString(version, info))
	},
}

// versionString renders "wikibacon <version> (<module>, <go version>)".
// Without build info the module and toolchain are omitted.
func versionString(v string, info *debug.BuildInfo) string {
	if info == nil {
		return "wikibacon " + v
	}
	if v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}
	return fmt.Sprintf("wikibacon %s (%s, %s)", v, info.Main.Path, info.GoVersion)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
