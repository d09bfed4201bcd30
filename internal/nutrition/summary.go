// internal/nutrition/summary.go
package nutrition

import (
	"sort"

	"mcp-nutrition-log/internal/models"
)

// DailyTotals is the aggregate for one calendar date.
type DailyTotals struct {
	Date    string `json:"date"`
	Entries int    `json:"entries"`
	models.NutritionValues
}

// MealGroup collects a day's entries sharing one meal label, in
// creation order, with their own subtotal.
type MealGroup struct {
	Meal    string                 `json:"meal"`
	Entries []models.LogEntry      `json:"entries"`
	Totals  models.NutritionValues `json:"totals"`
}

// DailyView is the full single-day report: rounded totals, per-goal
// progress, and entries grouped by meal in canonical order.
type DailyView struct {
	Date               string                 `json:"date"`
	EntryCount         int                    `json:"entry_count"`
	Totals             models.NutritionValues `json:"totals"`
	GoalProgress       []GoalDelta            `json:"goal_progress,omitempty"`
	CalorieGoalPercent *int                   `json:"calorie_goal_percent,omitempty"`
	Meals              []MealGroup            `json:"meals,omitempty"`
}

// RangeSummary is the multi-day report. Averages divide by the number
// of dates that have at least one entry, never by the span length.
type RangeSummary struct {
	StartDate          string                 `json:"start_date"`
	EndDate            string                 `json:"end_date"`
	DaysWithEntries    int                    `json:"days_with_entries"`
	TotalEntries       int                    `json:"total_entries"`
	DailyAverage       models.NutritionValues `json:"daily_average"`
	GoalProgress       []GoalDelta            `json:"goal_progress,omitempty"`
	CalorieGoalPercent *int                   `json:"calorie_goal_percent,omitempty"`
	Days               []DailyTotals          `json:"days"`
}

// ComputeDailyView aggregates one day's entries against the current
// goals. Pure, no I/O.
func ComputeDailyView(date string, entries []models.LogEntry, goals *models.Goals) DailyView {
	totals := Totals(entries)
	view := DailyView{
		Date:         date,
		EntryCount:   len(entries),
		Totals:       totals.Rounded(),
		GoalProgress: GoalRemaining(totals, goals),
		Meals:        groupByMeal(entries),
	}
	if goals != nil {
		if pct, ok := PercentOfGoal(view.Totals.Calories, goals.DailyCalories); ok {
			view.CalorieGoalPercent = &pct
		}
	}
	return view
}

// ComputeRangeView buckets entries by calendar date, aggregates each
// bucket, and averages across the non-empty buckets. Empty input
// reports zero days and zero entries without touching the averaging
// step; the caller surfaces that as a "no entries" outcome.
func ComputeRangeView(startDate, endDate string, entries []models.LogEntry, goals *models.Goals) RangeSummary {
	summary := RangeSummary{
		StartDate: startDate,
		EndDate:   endDate,
		Days:      []DailyTotals{},
	}
	if len(entries) == 0 {
		return summary
	}

	buckets := make(map[string][]models.LogEntry)
	dates := make([]string, 0)
	for _, e := range entries {
		if _, seen := buckets[e.Date]; !seen {
			dates = append(dates, e.Date)
		}
		buckets[e.Date] = append(buckets[e.Date], e)
	}
	// YYYY-MM-DD sorts lexicographically in chronological order.
	sort.Strings(dates)

	var sum models.NutritionValues
	for _, date := range dates {
		dayEntries := buckets[date]
		dayTotals := Totals(dayEntries)
		sum.Calories += dayTotals.Calories
		sum.ProteinG += dayTotals.ProteinG
		sum.CarbsG += dayTotals.CarbsG
		sum.FatG += dayTotals.FatG
		sum.FiberG += dayTotals.FiberG
		summary.Days = append(summary.Days, DailyTotals{
			Date:            date,
			Entries:         len(dayEntries),
			NutritionValues: dayTotals.Rounded(),
		})
		summary.TotalEntries += len(dayEntries)
	}

	days := float64(len(dates))
	summary.DaysWithEntries = len(dates)
	average := models.NutritionValues{
		Calories: sum.Calories / days,
		ProteinG: sum.ProteinG / days,
		CarbsG:   sum.CarbsG / days,
		FatG:     sum.FatG / days,
		FiberG:   sum.FiberG / days,
	}
	summary.DailyAverage = average.Rounded()
	summary.GoalProgress = GoalRemaining(average, goals)
	if goals != nil {
		if pct, ok := PercentOfGoal(summary.DailyAverage.Calories, goals.DailyCalories); ok {
			summary.CalorieGoalPercent = &pct
		}
	}
	return summary
}

// groupByMeal partitions entries by meal label in one pass, preserving
// intra-group order, and emits groups in canonical meal order with
// unlabeled entries last under "other".
func groupByMeal(entries []models.LogEntry) []MealGroup {
	if len(entries) == 0 {
		return nil
	}
	buckets := make(map[string][]models.LogEntry)
	for _, e := range entries {
		meal := e.Meal
		if meal == "" {
			meal = "other"
		}
		buckets[meal] = append(buckets[meal], e)
	}

	order := append(append([]string{}, models.MealOrder...), "other")
	seen := make(map[string]bool, len(order))
	for _, meal := range order {
		seen[meal] = true
	}
	// Non-canonical labels go last, in sorted order.
	extras := make([]string, 0)
	for meal := range buckets {
		if !seen[meal] {
			extras = append(extras, meal)
		}
	}
	sort.Strings(extras)
	order = append(order, extras...)

	groups := make([]MealGroup, 0, len(buckets))
	for _, meal := range order {
		mealEntries, ok := buckets[meal]
		if !ok {
			continue
		}
		groups = append(groups, MealGroup{
			Meal:    meal,
			Entries: mealEntries,
			Totals:  Totals(mealEntries).Rounded(),
		})
	}
	return groups
}
