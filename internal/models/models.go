// internal/models/models.go
package models

import (
	"math"
	"time"
)

// Meal labels. Entries may also carry no label at all.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// MealOrder is the canonical presentation order for meal groups.
var MealOrder = []string{MealBreakfast, MealLunch, MealDinner, MealSnack}

func ValidMeal(meal string) bool {
	for _, m := range MealOrder {
		if m == meal {
			return true
		}
	}
	return false
}

// NutritionValues holds the five tracked nutrition fields. Absent values
// are zero; sums accumulate in full precision and are rounded once via
// Rounded at the presentation boundary.
type NutritionValues struct {
	Calories float64 `json:"calories" db:"calories"`
	ProteinG float64 `json:"protein_g" db:"protein_g"`
	CarbsG   float64 `json:"carbs_g" db:"carbs_g"`
	FatG     float64 `json:"fat_g" db:"fat_g"`
	FiberG   float64 `json:"fiber_g" db:"fiber_g"`
}

// Rounded returns a copy with calories rounded to the nearest whole
// number and the gram fields rounded to one decimal place.
func (n NutritionValues) Rounded() NutritionValues {
	return NutritionValues{
		Calories: math.Round(n.Calories),
		ProteinG: Round1(n.ProteinG),
		CarbsG:   Round1(n.CarbsG),
		FatG:     Round1(n.FatG),
		FiberG:   Round1(n.FiberG),
	}
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// LogEntry is one recorded food consumption event. Immutable once
// created, except for deletion. Date is the calendar day the entry
// counts toward and is independent of CreatedAt.
type LogEntry struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Date string `json:"date" db:"entry_date"`
	Meal string `json:"meal,omitempty" db:"meal"`
	NutritionValues
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Goals is the singleton per-user target record. Nil fields mean "no
// goal set" for that dimension, which is distinct from a zero target.
type Goals struct {
	DailyCalories *float64  `json:"daily_calories,omitempty" db:"daily_calories"`
	ProteinG      *float64  `json:"protein_g,omitempty" db:"protein_g"`
	CarbsG        *float64  `json:"carbs_g,omitempty" db:"carbs_g"`
	FatG          *float64  `json:"fat_g,omitempty" db:"fat_g"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// GoalsPatch carries a partial goals update. Only non-nil fields
// overwrite the stored record.
type GoalsPatch struct {
	DailyCalories *float64 `json:"daily_calories,omitempty"`
	ProteinG      *float64 `json:"protein_g,omitempty"`
	CarbsG        *float64 `json:"carbs_g,omitempty"`
	FatG          *float64 `json:"fat_g,omitempty"`
}

// Empty reports whether the patch carries no fields.
func (p GoalsPatch) Empty() bool {
	return p.DailyCalories == nil && p.ProteinG == nil && p.CarbsG == nil && p.FatG == nil
}
