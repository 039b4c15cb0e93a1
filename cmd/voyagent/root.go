package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voyagent/voyagent/config"
	"github.com/voyagent/voyagent/mcptools"
	"github.com/voyagent/voyagent/model"
	"github.com/voyagent/voyagent/orchestrator"
	"github.com/voyagent/voyagent/policy"
	"github.com/voyagent/voyagent/registry"
	"github.com/voyagent/voyagent/store"
	"github.com/voyagent/voyagent/tools"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "voyagent",
	Short: "Conversational travel-planning assistant",
	Long: `voyagent is a conversational travel-planning assistant. It coordinates
a language model with flight, hotel, weather, and places tool servers,
and keeps every conversation resumable across restarts.

Usage:
  voyagent serve                 # start the HTTP API
  voyagent chat my-trip          # chat in a session from the terminal
  voyagent sessions              # list resumable sessions`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)
}

// app bundles the wired-up service objects shared by the serve and chat
// commands.
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	store        *store.SQLiteStore
	registry     *registry.Registry
	orchestrator *orchestrator.Orchestrator
	mcp          *mcptools.Manager
}

// buildApp loads config and constructs the full dependency graph:
// store, policy gate, tool registry (local plus discovered), model
// gateway, and orchestrator.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := createLogger(cfg.Log.Level)

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init policy engine: %w", err)
	}

	reg := registry.New(policyEngine, logger)
	for _, spec := range tools.Specs(nil) {
		if err := reg.Register(spec); err != nil {
			st.Close()
			return nil, fmt.Errorf("register local tool %s: %w", spec.Name, err)
		}
	}

	// Tool server discovery is best effort: a server that is down only
	// costs its own tools.
	mcp := mcptools.Discover(ctx, cfg.ToolServers, reg, logger)

	gateway := model.NewGateway(
		cfg.Model.Endpoint,
		cfg.Model.APIKey,
		cfg.Model.Name,
		cfg.Model.Temperature,
		time.Duration(cfg.Model.TimeoutSeconds)*time.Second,
	)

	orch := orchestrator.New(st, reg, gateway,
		orchestrator.WithMaxToolCycles(cfg.Orchestrator.MaxToolCycles),
		orchestrator.WithLogger(logger),
	)

	return &app{
		cfg:          cfg,
		logger:       logger,
		store:        st,
		registry:     reg,
		orchestrator: orch,
		mcp:          mcp,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.mcp != nil {
		if err := a.mcp.Close(); err != nil {
			a.logger.Warn("closing tool servers", zap.Error(err))
		}
	}
	if a.store != nil {
		a.store.Close()
	}
	a.logger.Sync()
}

// createLogger builds the logger at the configured level; --verbose
// overrides it with a debug-level development logger.
func createLogger(level string) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger, _ := cfg.Build()
	return logger
}
