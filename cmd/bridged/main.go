// Command bridged is the out-of-process capability adapter: it loads the
// configured backend modules at startup and serves them to the orchestrator
// over a local socket.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/config"
	"github.com/victorarias/modelbridge/bridge/providers"
	"github.com/victorarias/modelbridge/bridge/server"
	"github.com/victorarias/modelbridge/bridge/tools"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bridged:", err)
		os.Exit(1)
	}
}

func run() error {
	loadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	env := &bridge.Env{Logger: logger}
	registry, err := bridge.Discover(env, providers.Default(), cfg.Providers)
	if err != nil {
		return err
	}
	logger.Info("discovery complete", zap.Int("modules", registry.Len()))

	catalog := tools.NewCatalog(buildToolSpecs(cfg))

	srv := server.New(server.Config{
		SocketPath: cfg.SocketPath,
		Registry:   registry,
		Catalog:    catalog,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}

func buildToolSpecs(cfg config.Config) []tools.Spec {
	timeout := time.Duration(cfg.ToolTimeoutSeconds) * time.Second
	specs := tools.Builtin()
	for i := range specs {
		if specs[i].External != nil && specs[i].External.Timeout <= 0 {
			specs[i].External.Timeout = timeout
		}
	}
	for _, def := range cfg.ExtraTools {
		toolTimeout := timeout
		if def.TimeoutSeconds > 0 {
			toolTimeout = time.Duration(def.TimeoutSeconds) * time.Second
		}
		name := def.Name
		if name == "" {
			name = def.ID
		}
		specs = append(specs, tools.Spec{
			ID:          def.ID,
			Name:        name,
			Description: def.Description,
			External: &tools.Command{
				Bin:     def.Command,
				Args:    def.Args,
				Dir:     def.Dir,
				Timeout: toolTimeout,
			},
		})
	}
	return specs
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadDotEnv loads the nearest .env walking up from the working directory.
// Missing files are fine; the environment may already be populated.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
