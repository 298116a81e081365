package report

import (
	"fmt"
	"sort"
	"strings"

	"SpendSmart/internal/model"
	"SpendSmart/internal/recorder"
)

// FormatResult renders a calculation result as a plain-text summary.
func FormatResult(res *model.CalculationResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 SpendSmart projection | %s\n\n", res.CalculatedAt.Format("2006-01-02 15:04")))

	b.WriteString(fmt.Sprintf("Allocation (%s):\n", res.OptimizationStatus))
	for _, aw := range orderedWeights(res) {
		b.WriteString(fmt.Sprintf("  %-16s %6.2f%%\n", aw.Asset, aw.Weight*100))
	}

	b.WriteString(fmt.Sprintf("\nInflation: %.2f%%", res.InflationRate))
	if res.InflationFallback {
		b.WriteString(" (default, provider unavailable)")
	}
	b.WriteString("\n\nGoals:\n")
	for _, g := range res.GoalsStatus {
		b.WriteString(formatGoal(g))
	}
	return b.String()
}

func formatGoal(g model.ProjectionResult) string {
	mark := "❌"
	if g.Achieved {
		mark = "✅"
	}
	name := g.Goal.Name
	if name == "" {
		name = "goal"
	}
	return fmt.Sprintf("  %s %s: %.0f in %dy → %.0f after inflation, projected %.0f (%+.0f)\n",
		mark, name, g.Goal.Target, g.Goal.Years, g.InflationAdjustedTarget,
		g.FutureValue, g.FutureValue-g.InflationAdjustedTarget)
}

// orderedWeights returns the allocation largest first, ties by asset name.
func orderedWeights(res *model.CalculationResult) model.Weights {
	w := make(model.Weights, 0, len(res.OptimalWeights))
	if len(res.Weights) > 0 {
		w = append(w, res.Weights...)
	} else {
		for a, v := range res.OptimalWeights {
			w = append(w, model.AssetWeight{Asset: a, Weight: v})
		}
	}
	sort.SliceStable(w, func(i, j int) bool {
		if w[i].Weight != w[j].Weight {
			return w[i].Weight > w[j].Weight
		}
		return w[i].Asset < w[j].Asset
	})
	return w
}

// FormatHistory renders stored calculations, one block per run.
func FormatHistory(items []recorder.CalculationSummary) string {
	if len(items) == 0 {
		return "No calculations recorded.\n"
	}
	var b strings.Builder
	for _, s := range items {
		achieved := 0
		for _, g := range s.Goals {
			if g.Achieved {
				achieved++
			}
		}
		b.WriteString(fmt.Sprintf("%s  %s  monthly %.0f  growth %.1f%%  %s  goals %d/%d\n",
			s.Timestamp.Format("2006-01-02 15:04"), s.RunID[:min(8, len(s.RunID))],
			s.MonthlyInvestment, s.GrowthRate, s.OptimizationStatus, achieved, len(s.Goals)))
	}
	return b.String()
}
