// Command narractl runs maintenance jobs against the Narra database.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/usenarra/narra-backend/internal/config"
	"github.com/usenarra/narra-backend/pkg/database"
	applogger "github.com/usenarra/narra-backend/pkg/logger"
)

// env is what every subcommand needs: configuration, a logger and the database.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func setup() (*env, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading configuration from the environment")
	}
	cfg := config.LoadConfig()

	logger, err := applogger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "narractl",
		Short:         "Maintenance jobs for the Narra backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newSeedPlansCmd(),
		newResetUsageCmd(),
		newRefreshFollowsCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
