package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/jo-hoe/goclipart/internal/core"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "clipart",
		Short: "Browse clip art from your Activities and save it to the Journal",
		Long: `clipart scans the Activities directory for clip-art images,
shows them as a thumbnail gallery and saves the selected picture to the Journal.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (default $CONFIG_PATH, ./config.yaml or $XDG_CONFIG_HOME/clipart/config.yaml)")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newScanCmd(&configPath))
	cmd.AddCommand(newJournalCmd(&configPath))

	return cmd
}

func getConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	// Then check if config path is provided via environment variable
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath, nil
	}

	// Default to config.yaml in current working directory, then the XDG config dirs
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine working directory: %w", err)
	}
	local := filepath.Join(cwd, "config.yaml")
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	if found, err := xdg.SearchConfigFile(filepath.Join("clipart", "config.yaml")); err == nil {
		return found, nil
	}
	return local, nil
}

func homeDir() (string, error) {
	if xdg.Home == "" {
		return os.UserHomeDir()
	}
	return xdg.Home, nil
}

// loadConfig reads the configuration, installs the slog default handler and
// resolves the activities root.
func loadConfig(flagValue string) (*core.ServiceConfig, error) {
	configPath, err := getConfigPath(flagValue)
	if err != nil {
		return nil, err
	}
	config, err := core.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.SlogLevel(),
	})))

	root, err := config.ResolveActivitiesRoot(homeDir)
	if err != nil {
		return nil, err
	}
	config.ActivitiesRoot = root
	return config, nil
}
