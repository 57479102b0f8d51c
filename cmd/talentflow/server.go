package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/talentflow/internal/api"
	"github.com/kalambet/talentflow/internal/client"
	"github.com/kalambet/talentflow/internal/config"
	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/hiring"
	"github.com/kalambet/talentflow/internal/mockapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mock API server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running talentflow server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status and pipeline size",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("config error: %v", err)
			return nil
		}
		showStatus(cmd.Context(), cfg, client.New(cfg.Client.BaseURL, 2*time.Second))
		return nil
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve MCP tools over stdin/stdout")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func chaosConfig(cfg config.Config) mockapi.ChaosConfig {
	return mockapi.ChaosConfig{
		MinLatency:         cfg.Mock.LatencyMin,
		MaxLatency:         cfg.Mock.LatencyMax,
		FailureRate:        cfg.Mock.FailureRate,
		ReorderFailureRate: cfg.Mock.ReorderFailureRate,
		ReadFailureRate:    cfg.Mock.ReadFailureRate,
	}
}

func seedOptions(cfg config.Config) mockapi.SeedOptions {
	return mockapi.SeedOptions{
		Jobs:        cfg.Seed.Jobs,
		Candidates:  cfg.Seed.Candidates,
		Assessments: cfg.Seed.Assessments,
		RandomSeed:  uint64(cfg.Seed.RandomSeed),
	}
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "talentflow version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Refuse to start twice: a healthy server on our port wins.
	pidPath := cfg.PIDFile()
	running := client.New(cfg.Client.BaseURL, 2*time.Second)
	if err := running.Health(context.Background()); err == nil {
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("talentflow is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("talentflow is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs, err := docstore.Open(cfg.ServerDir(), docstore.DefaultSchema)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := docs.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	backend := mockapi.New(docs)
	restored, err := backend.Seed(ctx, seedOptions(cfg))
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	if !restored {
		printStep("Generated a fresh pipeline in %s", cfg.ServerDir())
	}

	handler := api.NewHandler(api.Deps{
		Backend: backend,
		Chaos:   mockapi.NewChaos(chaosConfig(cfg), uint64(cfg.Seed.RandomSeed)),
		Logger:  slog.Default(),
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if withMCP {
		stdioSrv := server.NewStdioServer(api.NewMCPServer(api.MCPDeps{Backend: backend}))
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "talentflow listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := cfg.PIDFile()
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("talentflow is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop talentflow (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to talentflow (PID %d)", pid)
	return nil
}

// pipelineCounts holds list totals. Each list is fetched one item per page.
type pipelineCounts struct {
	jobs, candidates int
}

func showStatus(ctx context.Context, cfg config.Config, c *client.Client) {
	if err := c.Health(ctx); err != nil {
		printStatus("Server", "stopped")
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		return
	}
	printStatus("Server", "running on %s", c.BaseURL())

	var counts pipelineCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := c.ListJobs(gctx, hiring.JobQuery{PageSize: 1})
		counts.jobs = page.Pagination.Total
		return err
	})
	g.Go(func() error {
		page, err := c.ListCandidates(gctx, hiring.CandidateQuery{PageSize: 1})
		counts.candidates = page.Pagination.Total
		return err
	})
	if err := g.Wait(); err != nil {
		printStatus("Pipeline", "unavailable (%v)", err)
	} else {
		printStatus("Jobs", "%d", counts.jobs)
		printStatus("Candidates", "%d", counts.candidates)
	}

	printStatus("Latency", "%s to %s", cfg.Mock.LatencyMin, cfg.Mock.LatencyMax)
	printStatus("Failure rates", "writes %.0f%%, reorders %.0f%%", cfg.Mock.FailureRate*100, cfg.Mock.ReorderFailureRate*100)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
}
