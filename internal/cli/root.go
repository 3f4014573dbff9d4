// Package cli wires the clipline commands: the long-running daemon, a
// one-shot pipeline run, and state inspection.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"clipline/internal/config"
	"clipline/internal/logging"
)

var (
	configPath string
	verbose    bool
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "clipline",
	Short: "Turn long videos into captioned short-form clips",
	Long: `Clipline downloads a source video, transcribes it, asks a
text-generation oracle for the most engaging moments, and renders them
as short vertical clips with burned-in captions and generated titles
and hashtags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// API keys may live in a local .env; absence is fine.
		_ = godotenv.Load()

		logger = logging.New(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", config.DefaultConfigPath, "Path to the TOML config file")
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}
