package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/genlower/internal/config"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a genlower configuration file",
		Long: `Generate a documented .genlower.yaml configuration file with sensible
defaults.

Examples:
  # Create .genlower.yaml in current directory
  genlower init

  # Custom output path
  genlower init --config custom.yaml

  # Overwrite an existing file without the confirmation prompt
  genlower init --force

  # Generate a smaller config with essential options only
  genlower init --minimal`,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", ".genlower.yaml", "Output path for the config file")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file without prompting")
	cmd.Flags().Bool("minimal", false, "Generate minimal config with essential options only")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")

	if _, err := os.Stat(configPath); err == nil && !force {
		overwrite, err := confirmOverwrite(configPath)
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Println("Aborted.")
			return nil
		}
	}

	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	var content string
	if minimal {
		content = config.GetMinimalConfigTemplate()
	} else {
		content = config.GetFullConfigTemplate()
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	displayPath := configPath
	if absPath, err := filepath.Abs(configPath); err == nil {
		displayPath = absPath
	}
	fmt.Printf("Created %s\n", displayPath)
	fmt.Println("\nRun 'genlower lower .' to lower generator functions in your project.")

	return nil
}

// confirmOverwrite prompts before clobbering an existing config file.
func confirmOverwrite(path string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("%s already exists. Overwrite", path),
		IsConfirm: true,
	}

	_, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrAbort {
			return false, nil
		}
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	return true, nil
}
