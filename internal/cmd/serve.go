package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bioopenmcp/biomcp/internal/config"
	"github.com/bioopenmcp/biomcp/internal/mcp"
	"github.com/bioopenmcp/biomcp/internal/observability"
	"github.com/bioopenmcp/biomcp/internal/server"
	"github.com/bioopenmcp/biomcp/internal/server/handlers"
	"github.com/bioopenmcp/biomcp/pkg/fastq"
	"github.com/bioopenmcp/biomcp/pkg/tools"
)

var (
	serveHTTP     bool
	serveHTTPPort int
	serveHTTPHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP protocol on stdio",
	Long: `Serve MCP requests on stdin/stdout for clients like Claude Desktop.

Only protocol JSON is written to stdout; logs go to stderr. With --http
the REST API is served alongside the MCP transport, sharing one job
registry so jobs launched on either surface are visible on both.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "Also serve the REST API")
	serveCmd.Flags().IntVar(&serveHTTPPort, "http-port", 0, "REST API port (default from config)")
	serveCmd.Flags().StringVar(&serveHTTPHost, "http-host", "", "REST API host (default from config)")
}

// catalogHealthChecker fails when the embedded tool catalog is unusable.
type catalogHealthChecker struct {
	svc *tools.Service
}

func (c catalogHealthChecker) CheckHealth(ctx context.Context) error {
	if c.svc == nil || c.svc.Catalog() == nil {
		return fmt.Errorf("tool catalog not loaded")
	}
	if len(c.svc.Catalog().Names()) == 0 {
		return fmt.Errorf("tool catalog is empty")
	}
	return nil
}

// registryHealthChecker proves the job registry answers queries.
type registryHealthChecker struct {
	svc *tools.Service
}

func (c registryHealthChecker) CheckHealth(ctx context.Context) error {
	if c.svc == nil || c.svc.Registry() == nil {
		return fmt.Errorf("job registry not initialized")
	}
	_ = c.svc.List()
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	logger, err := observability.NewLogger(cfg.Logging.Level, observability.ProfileStructured)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, err := newService(logger)
	if err != nil {
		return err
	}
	finder := fastq.Finder{SearchDirs: cfg.Tools.SearchDirs}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	mcpServer := mcp.NewServer(svc, finder, logger, versionInfo.Version)
	g.Go(func() error {
		logger.Info("mcp server listening on stdio")
		return mcpServer.Serve(ctx, os.Stdin, os.Stdout)
	})

	if serveHTTP {
		handlers.InitHealthManager(versionInfo.Version)
		manager := handlers.GetHealthManager()
		manager.RegisterChecker("catalog", catalogHealthChecker{svc: svc})
		manager.RegisterChecker("registry", registryHealthChecker{svc: svc})
		handlers.SetVersionInfo(versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)

		host := cfg.Server.Host
		if serveHTTPHost != "" {
			host = serveHTTPHost
		}
		port := cfg.Server.Port
		if serveHTTPPort != 0 {
			port = serveHTTPPort
		}

		httpServer := server.New(host, port,
			server.WithService(svc),
			server.WithFinder(finder),
			server.WithLogger(logger),
			server.WithTimeouts(server.Timeouts{
				Read:     cfg.Server.ReadTimeout,
				Write:    cfg.Server.WriteTimeout,
				Idle:     cfg.Server.IdleTimeout,
				Shutdown: cfg.Server.ShutdownTimeout,
			}),
			server.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		)
		g.Go(func() error {
			return httpServer.Start(ctx)
		})
	}

	return g.Wait()
}
