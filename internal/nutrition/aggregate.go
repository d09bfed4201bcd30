// internal/nutrition/aggregate.go
package nutrition

import (
	"math"

	"mcp-nutrition-log/internal/models"
)

// Totals sums the five nutrition fields across entries. Values
// accumulate in full precision; callers round once at presentation.
// An empty input yields the zero value.
func Totals(entries []models.LogEntry) models.NutritionValues {
	var t models.NutritionValues
	for i := range entries {
		t.Calories += entries[i].Calories
		t.ProteinG += entries[i].ProteinG
		t.CarbsG += entries[i].CarbsG
		t.FatG += entries[i].FatG
		t.FiberG += entries[i].FiberG
	}
	return t
}

// GoalDelta compares one nutrition dimension against its goal.
// Remaining is always non-negative; Over flags an at-or-past-goal day
// so the amount reads as "X over goal" rather than a raw negative.
type GoalDelta struct {
	Field     string  `json:"field"`
	Goal      float64 `json:"goal"`
	Actual    float64 `json:"actual"`
	Remaining float64 `json:"remaining"`
	Over      bool    `json:"over"`
}

// GoalRemaining produces one delta per goal field that is actually set.
// A nil goals record yields no deltas. Actuals are rounded to display
// precision so the reported remainder matches the displayed totals.
func GoalRemaining(totals models.NutritionValues, goals *models.Goals) []GoalDelta {
	if goals == nil {
		return nil
	}
	deltas := make([]GoalDelta, 0, 4)
	add := func(field string, goal *float64, actual float64, round func(float64) float64) {
		if goal == nil {
			return
		}
		d := GoalDelta{Field: field, Goal: *goal, Actual: actual}
		remaining := round(*goal - actual)
		if remaining < 0 {
			d.Over = true
			remaining = -remaining
		}
		d.Remaining = remaining
		deltas = append(deltas, d)
	}
	// Each remainder carries the same precision as its field: whole
	// calories, one decimal for the gram fields.
	add("calories", goals.DailyCalories, math.Round(totals.Calories), math.Round)
	add("protein_g", goals.ProteinG, models.Round1(totals.ProteinG), models.Round1)
	add("carbs_g", goals.CarbsG, models.Round1(totals.CarbsG), models.Round1)
	add("fat_g", goals.FatG, models.Round1(totals.FatG), models.Round1)
	if len(deltas) == 0 {
		return nil
	}
	return deltas
}

// PercentOfGoal reports actual as a rounded percentage of goal. The
// second return is false when the goal is absent or not positive, so
// callers never divide by zero.
func PercentOfGoal(actual float64, goal *float64) (int, bool) {
	if goal == nil || *goal <= 0 {
		return 0, false
	}
	return int(math.Round(actual / *goal * 100)), true
}
