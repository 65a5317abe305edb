// internal/cli/root.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/aom-sys/pkg/core"
)

// Version of the aom-sys tool
const Version = "0.1.0"

var (
	cfgFile        string
	linkMode       string
	precompiledDir string
	outDir         string
	rootDir        string
	debug          bool
	config         core.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aom-sys",
	Short: "libaom bindings generator",
	Long: `aom-sys - libaom bindings generator

Acquires libaom (built from the vendored source, found on the system with
pkg-config, or taken from a precompiled directory), generates the Go
declarations for its headers and the cgo flags that link it.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	// a config file that cannot be read must not fall back to defaults
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+core.DefaultConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&linkMode, "mode", "", "link mode: source, dynamic (shared-library), precompiled")
	rootCmd.PersistentFlags().StringVar(&precompiledDir, "precompiled", "", "precompiled libaom directory or bundle")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", "", "output directory for generated files")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "repository root relative paths resolve against")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add commands
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig layers the config file, the environment and flags, in that order
func initConfig() error {
	var err error
	config, err = core.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	config = core.FromEnv(config)

	// Override config with flags; --precompiled alone selects its mode
	if precompiledDir != "" {
		config.PrecompiledDir = precompiledDir
		config.LinkMode = "precompiled"
	}
	if linkMode != "" {
		config.LinkMode = linkMode
	}
	if outDir != "" {
		config.OutDir = outDir
	}
	if rootDir != "" {
		config.Root = rootDir
	}
	if debug {
		config.Debug = true
	}
	return nil
}
