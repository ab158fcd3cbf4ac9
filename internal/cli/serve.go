package cli

import (
	"github.com/spf13/cobra"

	"github.com/mgpai22/danmaku/internal/server"
)

var serverFlagKeys = map[string]string{
	"server.addr":           "addr",
	"server.rate_limit":     "rate-limit",
	"server.burst":          "burst",
	"server.max_body_bytes": "max-body-bytes",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conversions over HTTP",
	Long: `Start an HTTP server that converts danmaku XML posted to /v1/convert.

Conversion flags set the defaults; each request may override duration,
width, height, title, block, alpha and policy with query parameters.

Examples:
  danmaku serve
  danmaku serve --addr :9000 --rate-limit 2 --burst 5
  curl --data-binary @comments.xml 'localhost:8080/v1/convert?duration=600'`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addConvertFlags(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Float64("rate-limit", 5, "Requests per second per client (0 disables)")
	serveCmd.Flags().Int("burst", 10, "Burst size per client")
	serveCmd.Flags().Int64("max-body-bytes", 32<<20, "Maximum request body size")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, convertFlagKeys, serverFlagKeys)
	if err != nil {
		return err
	}

	// conversion defaults are validated per request, where the duration usually arrives
	measurer, err := newMeasurer(cfg.Convert)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, &server.Dependencies{
		Measurer: measurer,
		Defaults: cfg.Convert,
	}, logger)

	return srv.Run(cmd.Context())
}
