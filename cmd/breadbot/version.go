package main

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is overridden with -ldflags "-X main.version=..." for release builds.
var version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version and database driver",
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := debug.ReadBuildInfo()
		printVersion(cmd.OutOrStdout(), info)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// printVersion reports the module version, VCS revision and the SQLite
// driver version. info may be nil when built without module support.
func printVersion(w io.Writer, info *debug.BuildInfo) {
	v := version
	if info == nil {
		if v == "" {
			v = "(devel)"
		}
		fmt.Fprintf(w, "breadbot %s\n", v)
		return
	}

	if v == "" {
		v = info.Main.Version
	}
	fmt.Fprintf(w, "%s %s (%s)\n", info.Main.Path, v, info.GoVersion)

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			fmt.Fprintf(w, "revision %s\n", s.Value)
		}
	}
	for _, dep := range info.Deps {
		if dep.Path == "modernc.org/sqlite" {
			fmt.Fprintf(w, "sqlite driver %s\n", dep.Version)
		}
	}
}
