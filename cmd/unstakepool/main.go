package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"unstakepool/internal/config"
	"unstakepool/internal/logger"
	"unstakepool/internal/registry"
	"unstakepool/internal/report"
	"unstakepool/internal/server"
	"unstakepool/internal/store"
	"unstakepool/internal/store/ddb"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// Build-time variables (set by ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load .env file if it exists (ignore errors for optional file)
	_ = godotenv.Load()

	app := &cli.Command{
		Name:    "unstakepool",
		Usage:   "Unstake liquidity pool service",
		Version: fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to unstakepool.yaml configuration file",
						Value:   "unstakepool.yaml",
						Sources: cli.EnvVars("UNSTAKEPOOL_CONFIG"),
					},
					&cli.IntFlag{
						Name:    "port",
						Usage:   "HTTP server port (overrides config file)",
						Value:   0,
						Sources: cli.EnvVars("UNSTAKEPOOL_PORT"),
					},
					&cli.StringFlag{
						Name:    "api-key",
						Usage:   "HTTP API key for authentication (overrides config file)",
						Sources: cli.EnvVars("UNSTAKEPOOL_API_KEY"),
					},
				},
			},
			{
				Name:   "init",
				Usage:  "Create sample unstakepool.yaml",
				Action: initCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "Path to write the sample configuration to",
						Value: "unstakepool.yaml",
					},
				},
			},
			{
				Name:   "simulate",
				Usage:  "Run a pool scenario and print a report",
				Action: simulateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scenario",
						Usage: "Path to a scenario YAML file (defaults to the built-in scenario)",
					},
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logLevel, err := logger.ParseLogLevel(cmd.String("log-level"))
	if err != nil {
		return ctx, fmt.Errorf("invalid log level: %w", err)
	}
	return logger.SetupContext(ctx, logLevel)
}

func serveCommand(ctx context.Context, cmd *cli.Command) error {
	ctx, err := setupLogging(ctx, cmd)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info("Starting unstakepool service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	cfg, err := config.LoadConfig(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	serverConfig := server.Config{
		Port:   cfg.Server.Port,
		APIKey: cfg.Server.APIKey,
	}
	if cmd.Int("port") != 0 {
		serverConfig.Port = int(cmd.Int("port"))
		log.Info("Overriding port from CLI flag", zap.Int("port", serverConfig.Port))
	}
	if cmd.String("api-key") != "" {
		serverConfig.APIKey = cmd.String("api-key")
		log.Info("Overriding API key from CLI flag")
	}

	snapshotStore, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("driver", cfg.Storage.Driver))

	reg := registry.New(snapshotStore)
	if err := reg.Load(ctx); err != nil {
		return fmt.Errorf("failed to restore pools: %w", err)
	}

	if err := bootstrapPools(ctx, reg, cfg); err != nil {
		return err
	}

	srv := server.NewServer(reg, serverConfig)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	log.Info("HTTP server started",
		zap.String("url", srv.GetURL()),
		zap.Int("port", srv.Port()))

	defer func() {
		if shutdownErr := srv.Stop(context.Background()); shutdownErr != nil {
			log.Error("Failed to stop HTTP server", zap.Error(shutdownErr))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Shutting down gracefully", zap.String("signal", sig.String()))
		cancel()
	case <-ctx.Done():
		log.Info("Context canceled, shutting down")
	}

	log.Info("Service shutdown completed")
	return nil
}

// buildStore creates the snapshot store selected by the configuration.
func buildStore(ctx context.Context, cfg *config.Config) (store.SnapshotStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverDynamoDB:
		return ddb.New(ctx, ddb.Config{
			Region:    cfg.Storage.Region,
			TableName: cfg.Storage.Table,
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
	default:
		return store.NewMemoryStore(), nil
	}
}

// bootstrapPools creates the pools listed in the configuration, skipping any
// that already exist in the store.
func bootstrapPools(ctx context.Context, reg *registry.Registry, cfg *config.Config) error {
	log := logger.FromContext(ctx)

	for _, poolCfg := range cfg.Pools {
		price, minFee, maxFee, target, err := poolCfg.Params()
		if err != nil {
			return fmt.Errorf("invalid pool config %q: %w", poolCfg.Name, err)
		}

		_, err = reg.Create(ctx, poolCfg.Name, registry.Params{
			Price:           price,
			MinFee:          minFee,
			MaxFee:          maxFee,
			LiquidityTarget: target,
		})
		if errors.Is(err, registry.ErrDuplicateName) {
			log.Debug("Pool already exists, skipping bootstrap", zap.String("name", poolCfg.Name))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create pool %q: %w", poolCfg.Name, err)
		}
	}

	return nil
}

func initCommand(ctx context.Context, cmd *cli.Command) error {
	output := cmd.String("output")
	if err := config.CreateSampleConfig(output); err != nil {
		return fmt.Errorf("failed to create sample config: %w", err)
	}

	fmt.Printf("Created sample %s\n", output)
	return nil
}

func simulateCommand(ctx context.Context, cmd *cli.Command) error {
	scenario := report.DefaultScenario()
	if path := cmd.String("scenario"); path != "" {
		var err error
		scenario, err = report.LoadScenario(path)
		if err != nil {
			return err
		}
	}

	sim, err := report.Run(scenario)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	if err := report.Render(os.Stdout, sim); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
