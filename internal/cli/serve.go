package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/specgraph/pkg/cache"
	"github.com/matzehuels/specgraph/pkg/errors"
	"github.com/matzehuels/specgraph/pkg/jobs"
	"github.com/matzehuels/specgraph/pkg/pipeline"
)

// jobKeyPrefix namespaces cache keys written by the job service so they can
// share a Redis instance with CLI runs.
const jobKeyPrefix = "jobs:"

type serveOpts struct {
	addr     string
	dataDir  string
	maxJobs  int
	maxQueue int
}

// serveCommand creates the serve command, which runs the HTTP job service
// until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout pipeline as an HTTP job service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(c.configPath, ".")
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("addr") || cfg.Serve.Addr == "" {
				cfg.Serve.Addr = opts.addr
			}
			if fs.Changed("data-dir") || cfg.Serve.DataDir == "" {
				cfg.Serve.DataDir = opts.dataDir
			}
			if fs.Changed("max-jobs") || cfg.Serve.MaxJobs == 0 {
				cfg.Serve.MaxJobs = opts.maxJobs
			}
			if fs.Changed("max-queued") || cfg.Serve.MaxQueued == 0 {
				cfg.Serve.MaxQueued = opts.maxQueue
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "job directory root (default: <cache dir>/jobs)")
	cmd.Flags().IntVar(&opts.maxJobs, "max-jobs", jobs.DefaultMaxJobs, "pipelines running at once")
	cmd.Flags().IntVar(&opts.maxQueue, "max-queued", jobs.DefaultMaxQueued, "jobs accepted but not finished")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg Config) error {
	timeout, err := cfg.Serve.shutdownTimeout()
	if err != nil {
		return err
	}
	opts, err := cfg.pipelineOptions()
	if err != nil {
		return err
	}
	dataDir := cfg.Serve.DataDir
	if dataDir == "" {
		base, err := cacheDir(cfg.Cache)
		if err != nil {
			return errors.Wrap(errors.ErrCodeConfig, err, "no data directory configured")
		}
		dataDir = filepath.Join(base, "jobs")
	}

	store, err := c.newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(store, cache.NewScopedKeyer(nil, jobKeyPrefix), c.Logger)
	defer runner.Close()

	svc, err := jobs.NewService(jobs.Config{
		DataDir:   dataDir,
		MaxJobs:   cfg.Serve.MaxJobs,
		MaxQueued: cfg.Serve.MaxQueued,
		Options:   opts,
	}, runner, c.Logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", cfg.Serve.Addr, "data_dir", dataDir, "max_jobs", cfg.Serve.MaxJobs)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(errors.ErrCodeUnavailable, err, "listen on %s", cfg.Serve.Addr)
		}
		return nil
	case <-ctx.Done():
	}

	printInfo("Shutting down, waiting up to %s for running jobs", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	jobsErr := svc.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.Logger.Warn("http shutdown", "err", err)
	}
	if jobsErr != nil {
		c.Logger.Warn("jobs canceled at shutdown", "err", jobsErr)
	}
	return ctx.Err()
}
