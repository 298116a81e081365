package main

import (
	"errors"
	"fmt"

	"SpendSmart/internal/recorder"
	"SpendSmart/internal/report"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded calculations",
		RunE:  runHistory,
	}
	cmd.Flags().Int("limit", 20, "Number of calculations to show")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.SQLitePath == "" {
		return errors.New("database.sqlite_path is not configured")
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		return err
	}
	defer rec.Close()

	items, err := rec.Recent(limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), report.FormatHistory(items))
	return nil
}
