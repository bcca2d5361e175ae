// cmd/iq-writer/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"iq-bot/internal/bootstrap"
	"iq-bot/internal/common/config"
	"iq-bot/internal/common/database"
	"iq-bot/internal/common/logger"
)

type app struct {
	configPath string
	logLevel   string

	cfg      *config.Config
	log      logger.Logger
	redis    *database.RedisClient
	services *bootstrap.Services
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := newRootCommand(a)
	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "iq-writer",
		Short:         "Expand prompt templates and generate cached responses",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config.yaml (default: search configs/)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newRunCommand(a),
		newInitCommand(a),
		newGenerateCommand(a),
		newValidateCommand(a),
		newPromptsCommand(a),
		newResponseCommand(a),
	)
	return root
}

func (a *app) loadConfig() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFromFile(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := a.cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.log = logger.NewStructured(level, a.cfg.Logging.Format)
	return nil
}

// connect opens Redis and builds the services on first use.
func (a *app) connect(ctx context.Context) (*bootstrap.Services, error) {
	if a.services != nil {
		return a.services, nil
	}

	a.redis = database.NewRedis(a.cfg.Database.Redis)
	if err := a.redis.Ping(ctx); err != nil {
		return nil, err
	}

	services, err := bootstrap.New(a.cfg, a.redis.Client, a.log)
	if err != nil {
		return nil, err
	}
	a.services = services
	return services, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
