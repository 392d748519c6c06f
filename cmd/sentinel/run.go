package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"sentinel-hq/ceres/pkg/audit"
	"sentinel-hq/ceres/pkg/breaker"
	"sentinel-hq/ceres/pkg/cache"
	"sentinel-hq/ceres/pkg/config"
	"sentinel-hq/ceres/pkg/dispatcher"
	"sentinel-hq/ceres/pkg/escalation"
	"sentinel-hq/ceres/pkg/pattern"
	"sentinel-hq/ceres/pkg/policy"
	"sentinel-hq/ceres/pkg/server"
	"sentinel-hq/ceres/pkg/telemetry/logging"
	"sentinel-hq/ceres/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the validation gateway",
	Long: `Start the validation gateway with the specified configuration.

The gateway listens on the configured address and serves validation
decisions through the multi-tier dispatcher.

Examples:
  # Start with default config
  sentinel run

  # Start with custom config
  sentinel run --config /etc/sentinel/config.yaml

  # Override listen address
  sentinel run --listen 0.0.0.0:8080

  # Validate config without starting
  sentinel run --dry-run`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.Setup(cfg.Telemetry.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Sentinel Ceres v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics, nil)
	}

	// Audit log
	var auditor dispatcher.Auditor
	if cfg.Audit.Enabled {
		store, err := buildAuditStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize audit store: %w", err)
		}
		defer store.Close()

		appender := audit.NewAppender(store, &audit.AppenderConfig{
			Buffer:       cfg.Audit.Buffer,
			WriteTimeout: audit.DefaultAppenderConfig().WriteTimeout,
		}, logger)
		defer appender.Shutdown()
		auditor = appender

		pruner := audit.NewPruner(store, audit.RetentionConfig{
			Days:     cfg.Audit.RetentionDays,
			Schedule: cfg.Audit.PruneSchedule,
		}, logger)
		scheduler := audit.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start retention scheduler: %w", err)
		}
		defer scheduler.Stop()

		fmt.Printf("✓ Audit log initialized (%s backend)\n", cfg.Audit.Backend)
	}

	// Policy tier: rules engine with short-TTL memoization and optional
	// hot reload.
	source := policy.NewFileSource(cfg.Policy.RulesPath)
	engine, err := policy.NewEngine(ctx, source, logger)
	if err != nil {
		return fmt.Errorf("failed to load policy rules: %w", err)
	}
	evaluator := policy.NewMemoizedEvaluator(engine, cfg.Dispatcher.MemoTTL)
	fmt.Printf("✓ Policy rules loaded (%d rules)\n", len(engine.Rules()))

	if cfg.Policy.Watch {
		watcher, err := policy.NewWatcher(cfg.Policy.RulesPath, cfg.Policy.DebounceInterval, logger)
		if err != nil {
			return fmt.Errorf("failed to watch rules file: %w", err)
		}
		defer watcher.Stop()
		go func() {
			if err := watcher.Watch(ctx, func() error {
				return engine.Reload(ctx)
			}); err != nil {
				slog.Error("rules watcher stopped", "error", err)
			}
		}()
		fmt.Println("✓ Rules hot reload enabled")
	}

	// Pattern tier: heuristic scorer behind the same memoization.
	scorer := pattern.NewMemoizedScorer(pattern.NewHeuristicScorer(logger), cfg.Dispatcher.MemoTTL)

	// Breakers, one per tier.
	registry := breaker.NewRegistry(breaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Window:           cfg.Breaker.Window,
		Cooldown:         cfg.Breaker.Cooldown,
		MaxCooldown:      cfg.Breaker.MaxCooldown,
	}, logger)

	// Escalation: in-memory elicitation channel; answers arrive through
	// POST /v1/answers.
	channel := escalation.NewInMemoryChannel(cfg.Escalation.Buffer)
	defer channel.Close()
	escalator := escalation.NewCoordinator(channel, escalation.Config{
		TargetPool: cfg.Escalation.TargetPool,
		WaitBudget: cfg.Dispatcher.EscalationWaitBudget,
	}, logger)
	go logEscalations(ctx, channel)

	d, err := dispatcher.New(dispatcher.Config{
		TierCallTimeout: cfg.Dispatcher.TierCallTimeout,
		LowWatermark:    cfg.Dispatcher.LowWatermark,
		HighWatermark:   cfg.Dispatcher.HighWatermark,
		TTLPolicyMatch:  cfg.Dispatcher.Tier1TTLPolicyMatch,
		TTLPattern:      cfg.Dispatcher.Tier1TTLPattern,
	}, dispatcher.Deps{
		Cache:     cache.NewFingerprintCache(cfg.Dispatcher.Tier1Capacity, logger),
		Policy:    evaluator,
		Pattern:   scorer,
		Breakers:  registry,
		Escalator: escalator,
		Auditor:   auditor,
		Metrics:   collector,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build dispatcher: %w", err)
	}

	opts := server.Options{Logger: logger}
	if collector != nil {
		opts.Metrics = collector
		opts.MetricsPath = cfg.Telemetry.Metrics.Path
	}
	srv := server.NewServer(cfg.Server, d, escalator, opts)

	fmt.Printf("✓ Gateway listening on %s\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}

// buildAuditStore selects the audit backend from configuration.
func buildAuditStore(cfg *config.Config) (audit.Store, error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		sqliteCfg := audit.DefaultSQLiteConfig()
		sqliteCfg.Path = cfg.Audit.SQLitePath
		return audit.NewSQLiteStore(sqliteCfg)
	case "memory":
		return audit.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
	}
}

// logEscalations surfaces published tickets so operators can answer them via
// the answers endpoint.
func logEscalations(ctx context.Context, channel *escalation.InMemoryChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-channel.Requests():
			if !ok {
				return
			}
			slog.Info("escalation awaiting expert answer",
				"ticket_id", req.TicketID,
				"fingerprint", req.Fingerprint,
				"agent_id", req.AgentID,
				"command", req.Command,
				"deadline", req.Deadline,
			)
		}
	}
}
