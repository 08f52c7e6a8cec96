package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "embervm",
	SilenceUsage: true,
	Short:        "embervm runs compiled bytecode programs for the ember VM",
}

var configPath string
var nativesManifestPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML VM configuration file")
	rootCmd.PersistentFlags().StringVar(&nativesManifestPath, "natives", "natives/natives.yaml", "path to the validated-native arity manifest")
	rootCmd.PersistentFlags().BoolVar(&traceEnabled, "trace", false, "log CALL/RETURN traffic to stderr")
	rootCmd.PersistentFlags().StringVar(&traceFilter, "trace-filter", "", "comma-separated glob patterns restricting --trace to matching callee names")
	rootCmd.AddCommand(runCmd, disasmCmd, replCmd)
}
