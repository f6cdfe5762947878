// Command claude-hook-advisor reads one Claude Code hook event from stdin
// and writes the matching decision or diagnostic output, per event type.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sirmews/claude-hook-advisor/internal/directory"
	"github.com/sirmews/claude-hook-advisor/internal/hookevent"
)

const defaultConfigPath = ".claude-hook-advisor.toml"

var (
	cfgFile string
	replace bool
)

// rootCmd is also the hook entry point: reading a PreToolUse, UserPromptSubmit,
// or PostToolUse payload from stdin is its default action.
var rootCmd = &cobra.Command{
	Use:   "claude-hook-advisor",
	Short: "Command-mapping advisor for Claude Code hooks",
	Long: `claude-hook-advisor reads a single hook event JSON payload from stdin
and responds according to its hook_event_name:

  PreToolUse        block or replace a mapped shell command
  UserPromptSubmit   surface resolved directory aliases, learn new mappings
  PostToolUse        record the executed command's outcome

Mappings live in a TOML policy file (default .claude-hook-advisor.toml).`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			configPath = defaultConfigPath
		}
		opts := hookevent.Options{
			ConfigPath: configPath,
			Replace:    replace,
			Env:        directory.Env{},
		}
		code := hookevent.Route(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		if code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "policy file path (default \".claude-hook-advisor.toml\")")
	rootCmd.PersistentFlags().BoolVar(&replace, "replace", false, "emit a \"replace\" decision with the substituted command instead of \"block\"")
}

// GetConfigFile returns the resolved policy file path for use elsewhere.
func GetConfigFile() string {
	if cfgFile == "" {
		return defaultConfigPath
	}
	return cfgFile
}

// GetReplace returns whether replace mode is enabled.
func GetReplace() bool {
	return replace
}
