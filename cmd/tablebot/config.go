package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after the config file, environment overrides and
defaults are applied. Secrets are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig().Masked()

	if humanOutput {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("formatting config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	}
	return outputJSON(cfg)
}
