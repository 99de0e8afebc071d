package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/jsonpost/packages/core/config"
	"github.com/spf13/cobra"
)

var (
	forceInit  bool
	initFormat string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default jsonpost config file",
	Long: `Write a .jsonpost.yaml with the default settings to the current directory.
An existing file is only replaced when it still holds the defaults, unless
--force is given.

Examples:
  jsonpost init
  jsonpost init --format json
  jsonpost init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite a config file that has custom settings")
	initCmd.Flags().StringVar(&initFormat, "format", "yaml", "Config format (yaml, json)")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	return writeDefaultConfig(cmd, cwd)
}

func writeDefaultConfig(cmd *cobra.Command, dir string) error {
	var name string
	switch initFormat {
	case "yaml", "yml":
		name = ".jsonpost.yaml"
	case "json":
		name = ".jsonpost.json"
	default:
		return fmt.Errorf("unsupported format %q (use yaml or json)", initFormat)
	}

	configFile := filepath.Join(dir, name)
	if !forceInit {
		if _, err := os.Stat(configFile); err == nil {
			existing, err := config.LoadConfig(configFile)
			if err != nil || !existing.IsDefault() {
				return fmt.Errorf("file already exists with custom settings: %s (use --force to overwrite)", configFile)
			}
		}
	}

	if err := config.DefaultConfig().SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)
	return nil
}
