package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/actionitems"
	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/evaluation"
	"github.com/jonathan/interview-coach/internal/interviewer"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/orchestrator"
	"github.com/jonathan/interview-coach/internal/plans"
	"github.com/jonathan/interview-coach/internal/server"
	"github.com/jonathan/interview-coach/internal/server/ratelimit"
	"github.com/jonathan/interview-coach/internal/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interview API server",
	Long: `Starts the HTTP server for mock interviews.

Endpoints:
  GET  /health                                 Health check
  POST /api/interviews                         Start an interview
  POST /api/interviews/{session_id}/answers    Submit an answer
  POST /api/interviews/{session_id}/complete   Complete and evaluate
  GET  /api/interviews/{session_id}/status     Session status
  GET  /api/interviews/{session_id}            Full session`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.WaitForDB(ctx, cfg.Database.URL, cfg.Database.ConnectRetries, cfg.Database.RetryInterval, log)
	if err != nil {
		return err
	}
	defer database.Close()

	store := session.NewRedisStore(session.NewRedisPool(cfg.Redis.URL, cfg.Redis.MaxIdle), cfg.Redis.SessionTTL)
	defer func() { _ = store.Close() }()
	if err := store.Ping(ctx); err != nil {
		return err
	}

	client, err := llm.NewClient(ctx, cfg.LLMClientConfig(), cfg.LLM.APIKey, log)
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}
	defer func() { _ = client.Close() }()

	repo, err := planRepository(cfg, database, log)
	if err != nil {
		return err
	}

	interviews := newOrchestrator(cfg, store, repo, client, database, log)

	srv := server.New(server.Config{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		RateLimit: ratelimit.NewConfig(ratelimit.Settings{
			Enabled:         cfg.RateLimit.Enabled,
			DefaultLimit:    cfg.RateLimit.DefaultLimit,
			DefaultWindow:   cfg.RateLimit.DefaultWindow,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
			Whitelist:       cfg.RateLimit.Whitelist,
			Blacklist:       cfg.RateLimit.Blacklist,
		}),
	}, interviews, log)

	return srv.Run(ctx)
}

// planRepository reads playbooks from the database, or from a YAML file when
// playbooks-file is set.
func planRepository(cfg *config.Config, database *db.DB, log *zap.Logger) (plans.Repository, error) {
	if cfg.PlaybooksFile == "" {
		return plans.NewRepository(database), nil
	}
	playbooks, err := plans.LoadPlaybooksFile(cfg.PlaybooksFile)
	if err != nil {
		return nil, err
	}
	log.Info("using playbooks from file",
		zap.String("path", cfg.PlaybooksFile),
		zap.Int("count", len(playbooks)))
	return plans.NewRepository(plans.NewMemorySource(playbooks...)), nil
}

func newOrchestrator(
	cfg *config.Config,
	store session.Store,
	repo plans.Repository,
	client llm.Client,
	durable orchestrator.DurableStore,
	log *zap.Logger,
) *orchestrator.Orchestrator {
	timeout := cfg.LLM.Timeout
	return orchestrator.New(
		session.NewMachine(store, session.WithLogger(log)),
		repo,
		interviewer.New(client, interviewer.WithLogger(log), interviewer.WithTimeout(timeout)),
		evaluation.New(client, evaluation.WithLogger(log), evaluation.WithTimeout(timeout)),
		actionitems.New(client,
			actionitems.WithLogger(log),
			actionitems.WithTimeout(timeout),
			actionitems.WithConcurrency(cfg.Interview.ActionItemConcurrency),
			actionitems.WithMaxItems(cfg.Interview.MaxActionItems)),
		orchestrator.WithLogger(log),
		orchestrator.WithDurableStore(durable),
		orchestrator.WithEstimatedDuration(cfg.Interview.EstimatedDurationMinutes),
	)
}

var (
	_ server.InterviewService   = (*orchestrator.Orchestrator)(nil)
	_ orchestrator.DurableStore = (*db.DB)(nil)
	_ plans.PlaybookSource      = (*db.DB)(nil)
	_ session.Store             = (*session.RedisStore)(nil)
)
