package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"product-mockup-studio/internal/app"
	"product-mockup-studio/internal/config"
)

// buildApp is replaced in tests with a stub-backed wiring.
var buildApp = app.New

type globalFlags struct {
	verbose bool
}

func NewRootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   "studio",
		Short: "Product mockup generation from the command line",
		Long: `Studio turns a product photo into a styled studio mockup using Gemini image models.

It can also edit an image with a text instruction and add localized marketing
text that follows the layout of a reference design.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Debug logging to stderr")

	cmd.AddCommand(newGenerateCmd(&g))
	cmd.AddCommand(newModifyCmd(&g))
	cmd.AddCommand(newOverlayCmd(&g))
	cmd.AddCommand(newOptionsCmd())

	return cmd
}

func (g *globalFlags) setup() (*app.App, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if g.verbose {
		level = "debug"
	}
	logger := config.NewLogger(level, os.Stderr)
	return buildApp(cfg, logger), logger, nil
}
