package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/usenarra/narra-backend/internal/repository"
	"github.com/usenarra/narra-backend/internal/service"
	"github.com/usenarra/narra-backend/pkg/database"
	"github.com/usenarra/narra-backend/pkg/scraper"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and seed the default plans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			if err := database.RunMigrations(e.db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			e.logger.Info("migrations applied")
			return nil
		},
	}
}

func newSeedPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-plans",
		Short: "Insert any missing default plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			if err := database.SeedDefaultPlans(e.db); err != nil {
				return err
			}
			e.logger.Info("default plans seeded")
			return nil
		},
	}
}

func newResetUsageCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "reset-usage",
		Short: "Reset monthly usage counters whose reset date has passed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
				now = parsed
			}

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			usage := service.NewUsageService(repository.NewUserRepository(e.db), e.logger)
			n, err := usage.ResetMonthlyUsageCounters(now)
			if err != nil {
				return err
			}
			e.logger.Info("usage counters reset", zap.Int64("users", n), zap.Time("at", now))
			fmt.Fprintf(cmd.OutOrStdout(), "reset usage for %d users\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "treat this RFC3339 time as now")
	return cmd
}

func newRefreshFollowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-follows",
		Short: "Refresh every followed profile and store new posts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			source := scraper.New(scraper.Config{
				APIKey:   e.cfg.Scraper.APIKey,
				BaseURL:  e.cfg.Scraper.BaseURL,
				CacheTTL: e.cfg.Scraper.CacheTTL,
				Timeout:  e.cfg.Scraper.Timeout,
			}, e.logger)
			profiles := service.NewProfileService(
				source,
				repository.NewProfileRepository(e.db),
				repository.NewFollowRepository(e.db),
				repository.NewPostRepository(e.db),
				e.logger,
			)
			ok, failed, err := profiles.RefreshAllFollows(cmd.Context())
			if err != nil {
				return err
			}
			e.logger.Info("follows refreshed", zap.Int("succeeded", ok), zap.Int("failed", failed))
			fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d follows, %d failed\n", ok, failed)
			return nil
		},
	}
}
