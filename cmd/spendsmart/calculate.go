package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"SpendSmart/internal/model"
	"SpendSmart/internal/report"

	"github.com/spf13/cobra"
)

func newCalculateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Project goals under the optimal allocation",
		Long:  "Optimizes the configured universe for the Sharpe ratio and projects each goal's future value against its inflation-adjusted target",
		RunE:  runCalculate,
	}
	cmd.Flags().Float64("monthly", 0, "Monthly contribution")
	cmd.Flags().Float64("growth", 0, "Annual contribution growth in percent")
	cmd.Flags().Float64("risk-free", 0.02, "Risk-free rate as a decimal fraction")
	cmd.Flags().StringArray("goal", nil, "Goal as target:years[:name], repeatable")
	cmd.Flags().String("format", "json", "Output format (json, text)")
	cmd.Flags().Bool("offline", false, "Use synthetic prices and the default inflation rate")
	cmd.Flags().Duration("timeout", 5*time.Minute, "Overall deadline")
	cmd.MarkFlagRequired("monthly")
	cmd.MarkFlagRequired("goal")
	return cmd
}

func runCalculate(cmd *cobra.Command, _ []string) error {
	monthly, _ := cmd.Flags().GetFloat64("monthly")
	growth, _ := cmd.Flags().GetFloat64("growth")
	riskFree, _ := cmd.Flags().GetFloat64("risk-free")
	goalFlags, _ := cmd.Flags().GetStringArray("goal")
	format, _ := cmd.Flags().GetString("format")
	offline, _ := cmd.Flags().GetBool("offline")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if format != "json" && format != "text" {
		return fmt.Errorf("unsupported format: %s (json or text)", format)
	}
	goals := make([]model.Goal, 0, len(goalFlags))
	for _, s := range goalFlags {
		g, err := parseGoal(s)
		if err != nil {
			return err
		}
		goals = append(goals, g)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, offline, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	res, err := a.engine.Calculate(ctx, model.CalculationRequest{
		MonthlyInvestment: monthly,
		GrowthRate:        growth,
		RiskFreeRate:      riskFree,
		Goals:             goals,
	})
	if err != nil {
		return fmt.Errorf("calculate: %w", err)
	}

	out := cmd.OutOrStdout()
	if format == "text" {
		fmt.Fprint(out, report.FormatResult(res))
		return nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// parseGoal parses "target:years[:name]".
func parseGoal(s string) (model.Goal, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return model.Goal{}, fmt.Errorf("goal %q: want target:years[:name]", s)
	}
	target, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Goal{}, fmt.Errorf("goal %q: target: %w", s, err)
	}
	years, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return model.Goal{}, fmt.Errorf("goal %q: years: %w", s, err)
	}
	g := model.Goal{Target: target, Years: years}
	if len(parts) == 3 {
		g.Name = strings.TrimSpace(parts[2])
	}
	return g, nil
}
