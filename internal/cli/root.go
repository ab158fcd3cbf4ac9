package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/danmaku/internal/config"
	"github.com/mgpai22/danmaku/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	loader     *config.Loader
)

var rootCmd = &cobra.Command{
	Use:   "danmaku",
	Short: "Convert danmaku comment XML into ASS subtitles",
	Long: `Danmaku is a CLI tool that lays out scrolling, top and bottom overlay
comments from the <d p="..."> XML format on collision-free tracks and writes
them as an ASS subtitle script.

It can also burn the comments into a video, translate comment text with an
LLM provider, and serve conversions over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)
		loader = config.New()
		return loader.ReadFile(configPath)
	},
}

// Execute runs the root command; SIGINT and SIGTERM cancel the command context
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}
