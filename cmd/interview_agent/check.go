package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/session"
)

const probeTimeout = 5 * time.Second

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration and dependencies",
	Long:  `Validates the configuration, then probes the database, Redis and the LLM key concurrently and prints one line per dependency.`,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// probe is one dependency check. A zero timeout means probeTimeout.
type probe struct {
	name    string
	timeout time.Duration
	run     func(ctx context.Context) error
}

type probeResult struct {
	name     string
	err      error
	duration time.Duration
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if err := readConfig(); err != nil {
		return err
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	results := runProbes(cmd.Context(), dependencyProbes(cfg, log))
	if err := writeProbeTable(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	for _, r := range results {
		if r.err != nil {
			return fmt.Errorf("%s check failed: %w", r.name, r.err)
		}
	}
	return nil
}

func dependencyProbes(cfg *config.Config, log *zap.Logger) []probe {
	attempts := max(cfg.Database.ConnectRetries, 1)
	dbTimeout := time.Duration(attempts)*cfg.Database.RetryInterval + probeTimeout

	return []probe{
		{name: "config", run: func(context.Context) error { return cfg.Validate() }},
		{name: "llm api key", run: func(context.Context) error { return config.ValidateAPIKey(cfg.LLM.APIKey) }},
		{name: "database", timeout: dbTimeout, run: func(ctx context.Context) error {
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}
			database, err := db.WaitForDB(ctx, cfg.Database.URL, attempts, cfg.Database.RetryInterval, log)
			if err != nil {
				return err
			}
			database.Close()
			return nil
		}},
		{name: "redis", run: func(ctx context.Context) error {
			if cfg.Redis.URL == "" {
				return fmt.Errorf("redis url is not set")
			}
			store := session.NewRedisStore(session.NewRedisPool(cfg.Redis.URL, 1), cfg.Redis.SessionTTL)
			defer func() { _ = store.Close() }()
			return store.Ping(ctx)
		}},
	}
}

// runProbes runs every probe concurrently. Results keep the probe order.
func runProbes(ctx context.Context, probes []probe) []probeResult {
	results := make([]probeResult, len(probes))
	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			timeout := p.timeout
			if timeout <= 0 {
				timeout = probeTimeout
			}
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := p.run(pctx)
			results[i] = probeResult{name: p.name, err: err, duration: time.Since(start)}
			return err
		})
	}
	_ = g.Wait()
	return results
}

func writeProbeTable(out io.Writer, results []probeResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tSTATUS\tTIME\tDETAIL")
	for _, r := range results {
		status, detail := "ok", ""
		if r.err != nil {
			status, detail = "FAIL", r.err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.name, status, r.duration.Round(time.Millisecond), detail)
	}
	return tw.Flush()
}
