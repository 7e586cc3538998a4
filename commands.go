package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"releasedash/internal/channels"
	"releasedash/internal/db"
	"releasedash/internal/releasenotes"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		sqlDB, err := db.Connect(cfg)
		if err != nil {
			return fail("failed to connect database", err)
		}
		if err := db.Migrate(sqlDB); err != nil {
			return fail("migration failed", err)
		}
		logger.Info("schema up to date")
		return nil
	},
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import features from a YAML seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedFile == "" {
			return errors.New("--file is required")
		}
		features, err := db.LoadSeedFile(seedFile)
		if err != nil {
			return fail("invalid seed file", err)
		}

		sqlDB, err := db.Connect(cfg)
		if err != nil {
			return fail("failed to connect database", err)
		}
		if err := db.Migrate(sqlDB); err != nil {
			return fail("migration failed", err)
		}
		n, err := db.ImportSeed(cmd.Context(), db.NewFeatureStore(sqlDB), features)
		if err != nil {
			return fail("seed import failed", err)
		}
		logger.Info("seed imported", zap.String("file", seedFile), zap.Int("features", n))
		return nil
	},
}

var (
	notesMilestone int
	notesFormat    string
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Print the release notes of a milestone",
	Long:  "Print the release notes of a milestone. Without --milestone the stable channel version is used.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if notesFormat != "markdown" && notesFormat != "json" {
			return fmt.Errorf("unknown --format %q (markdown|json)", notesFormat)
		}
		sqlDB, err := db.Connect(cfg)
		if err != nil {
			return fail("failed to connect database", err)
		}

		client := channels.NewClient(cfg.ChannelsURL, logger, channels.WithFallback(cfg.DefaultMilestone))
		svc := releasenotes.NewService(db.NewFeatureStore(sqlDB), client, nil, logger)

		var requested *int
		if notesMilestone > 0 {
			requested = &notesMilestone
		}
		n, err := svc.Resolve(cmd.Context(), requested)
		if err != nil {
			return fail("release notes failed", err)
		}

		if notesFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(n)
		}
		_, err = fmt.Fprint(os.Stdout, n.Markdown())
		return err
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML seed file")
	notesCmd.Flags().IntVarP(&notesMilestone, "milestone", "m", 0, "Milestone (default: stable channel)")
	notesCmd.Flags().StringVar(&notesFormat, "format", "markdown", "Output format: markdown or json")
}
