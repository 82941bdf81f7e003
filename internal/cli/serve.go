package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/judolscan/internal/metrics"
	"github.com/ppiankov/judolscan/internal/pipeline"
	"github.com/ppiankov/judolscan/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the detection HTTP API",
	Long: `Serve exposes every check over HTTP:

  GET  /                      health message
  POST /api/detect-text       {"text": "..."}
  POST /api/detect-image      multipart field "image"
  POST /api/detect-video      multipart field "video"
  POST /api/detect-url        {"url": "..."}
  POST /api/detect-web        {"url": "..."}
  POST /api/detect-youtube    {"youtube_url": "..."}
  GET  /api/fetch-webpage     ?url=...
  GET  /metrics               Prometheus metrics

Example:
  judolscan serve --addr :5000
  judolscan serve --profile precision`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	deps, err := pipeline.NewDeps(cfg)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}
	deps.Metrics = collector

	srv := server.New(pipeline.New(deps), server.Options{
		Profile:        cfg.Profile,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Metrics:        collector,
		Gatherer:       reg,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx, cfg.Server.Addr)
}
