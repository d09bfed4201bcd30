// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/google/uuid"

	"mcp-nutrition-log/internal/models"
	"mcp-nutrition-log/internal/nutrition"
	"mcp-nutrition-log/internal/storage"
)

const dateLayout = "2006-01-02"

type LogFoodParams struct {
	Name     string   `json:"name" description:"Name of the food eaten"`
	Date     string   `json:"date,omitempty" description:"Calendar day the entry counts toward (YYYY-MM-DD, defaults to today)"`
	Meal     string   `json:"meal,omitempty" description:"Meal label: breakfast, lunch, dinner or snack"`
	Calories *float64 `json:"calories,omitempty" description:"Calories consumed"`
	ProteinG *float64 `json:"protein_g,omitempty" description:"Protein in grams"`
	CarbsG   *float64 `json:"carbs_g,omitempty" description:"Carbohydrates in grams"`
	FatG     *float64 `json:"fat_g,omitempty" description:"Fat in grams"`
	FiberG   *float64 `json:"fiber_g,omitempty" description:"Fiber in grams"`
	ServingG *float64 `json:"serving_g,omitempty" description:"Serving size in grams, used to scale looked-up per-100g values"`
	Lookup   bool     `json:"lookup,omitempty" description:"Look up nutrition from the USDA database when no values are given"`
	Notes    string   `json:"notes,omitempty" description:"Free-form notes"`
}

type SearchFoodsParams struct {
	Query string `json:"query" description:"Food name to search for"`
	Limit int    `json:"limit,omitempty" description:"Maximum number of candidates to return"`
}

type GetDailySummaryParams struct {
	Date string `json:"date,omitempty" description:"Day to summarize (YYYY-MM-DD, defaults to today)"`
}

type GetNutritionStatsParams struct {
	Period    string `json:"period,omitempty" description:"Symbolic period: week or month"`
	StartDate string `json:"start_date,omitempty" description:"Explicit range start (YYYY-MM-DD)"`
	EndDate   string `json:"end_date,omitempty" description:"Explicit range end (YYYY-MM-DD)"`
}

type SetGoalsParams struct {
	DailyCalories *float64 `json:"daily_calories,omitempty" description:"Daily calorie target"`
	ProteinG      *float64 `json:"protein_g,omitempty" description:"Daily protein target in grams"`
	CarbsG        *float64 `json:"carbs_g,omitempty" description:"Daily carbohydrate target in grams"`
	FatG          *float64 `json:"fat_g,omitempty" description:"Daily fat target in grams"`
}

type DeleteEntryParams struct {
	ID string `json:"id" description:"Identifier of the entry to delete"`
}

type ListEntriesParams struct {
	Date      string `json:"date,omitempty" description:"Single day to list (YYYY-MM-DD)"`
	StartDate string `json:"start_date,omitempty" description:"Range start (YYYY-MM-DD)"`
	EndDate   string `json:"end_date,omitempty" description:"Range end (YYYY-MM-DD)"`
	Limit     int    `json:"limit,omitempty" description:"Maximum number of entries to return"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal parameters: %w", err)
	}

	return nil
}

func validateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return nil
}

// handleLogFood records one food consumption entry. When no nutrition
// values are supplied and lookup is requested, the top USDA candidate
// pre-fills them, scaled by the serving size.
func (s *NutritionLogServer) handleLogFood(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LogFoodParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.Name == "" {
		return nil, fmt.Errorf("food name is required")
	}
	if params.Date == "" {
		params.Date = time.Now().Format(dateLayout)
	}
	if err := validateDate(params.Date); err != nil {
		return nil, err
	}
	if params.Meal != "" && !models.ValidMeal(params.Meal) {
		return nil, fmt.Errorf("invalid meal %q (expected breakfast, lunch, dinner or snack)", params.Meal)
	}

	values := models.NutritionValues{}
	hasValues := false
	assign := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
			hasValues = true
		}
	}
	assign(&values.Calories, params.Calories)
	assign(&values.ProteinG, params.ProteinG)
	assign(&values.CarbsG, params.CarbsG)
	assign(&values.FatG, params.FatG)
	assign(&values.FiberG, params.FiberG)

	if !hasValues && params.Lookup {
		looked, err := s.lookupNutrition(params.Name, params.ServingG)
		if err != nil {
			// A failed lookup should not block the log; the entry is
			// saved with unknown nutrition and can be deleted and
			// re-logged later.
			slog.Warn("food lookup failed", "query", params.Name, "error", err)
		} else {
			values = looked
		}
	}

	entry := &models.LogEntry{
		ID:              uuid.NewString(),
		Name:            params.Name,
		Date:            params.Date,
		Meal:            params.Meal,
		NutritionValues: values,
		Notes:           params.Notes,
		CreatedAt:       time.Now(),
	}

	if err := s.storage.SaveEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	slog.Info("logged food", "id", entry.ID, "name", entry.Name, "date", entry.Date)
	return s.createJSONResponse(entry)
}

func (s *NutritionLogServer) lookupNutrition(query string, servingG *float64) (models.NutritionValues, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	candidates, err := s.foodSearch.SearchFoods(ctx, query, 1)
	if err != nil {
		return models.NutritionValues{}, err
	}
	if len(candidates) == 0 {
		return models.NutritionValues{}, fmt.Errorf("no nutrition data found for %q", query)
	}

	grams := 100.0
	if servingG != nil && *servingG > 0 {
		grams = *servingG
	}
	scale := grams / 100.0
	per100 := candidates[0].Per100g
	return models.NutritionValues{
		Calories: per100.Calories * scale,
		ProteinG: per100.ProteinG * scale,
		CarbsG:   per100.CarbsG * scale,
		FatG:     per100.FatG * scale,
		FiberG:   per100.FiberG * scale,
	}, nil
}

// handleSearchFoods proxies a query to the USDA database and returns
// ranked candidates with per-100g values.
func (s *NutritionLogServer) handleSearchFoods(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SearchFoodsParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.Query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	candidates, err := s.foodSearch.SearchFoods(ctx, params.Query, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search foods: %w", err)
	}

	return s.createJSONResponse(map[string]interface{}{
		"query":      params.Query,
		"candidates": candidates,
	})
}

// handleGetDailySummary reports one day's totals, goal progress and
// per-meal breakdown.
func (s *NutritionLogServer) handleGetDailySummary(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetDailySummaryParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.Date == "" {
		params.Date = time.Now().Format(dateLayout)
	}
	if err := validateDate(params.Date); err != nil {
		return nil, err
	}

	entries, err := s.storage.EntriesForDate(params.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}
	goals, err := s.storage.Goals()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve goals: %w", err)
	}

	view := nutrition.ComputeDailyView(params.Date, entries, goals)
	return s.createJSONResponse(view)
}

// handleGetNutritionStats reports multi-day averages and a per-day
// breakdown for a symbolic period or an explicit range.
func (s *NutritionLogServer) handleGetNutritionStats(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetNutritionStatsParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	startDate, endDate, err := nutrition.ResolvePeriod(params.Period, params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}

	entries, err := s.storage.EntriesForRange(startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}

	if len(entries) == 0 {
		return s.createJSONResponse(map[string]interface{}{
			"start_date":        startDate,
			"end_date":          endDate,
			"days_with_entries": 0,
			"total_entries":     0,
			"message":           fmt.Sprintf("no entries logged between %s and %s", startDate, endDate),
		})
	}

	goals, err := s.storage.Goals()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve goals: %w", err)
	}

	summary := nutrition.ComputeRangeView(startDate, endDate, entries, goals)
	return s.createJSONResponse(summary)
}

// handleSetGoals partially updates the singleton goals record; fields
// not supplied keep their prior value.
func (s *NutritionLogServer) handleSetGoals(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SetGoalsParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	patch := models.GoalsPatch{
		DailyCalories: params.DailyCalories,
		ProteinG:      params.ProteinG,
		CarbsG:        params.CarbsG,
		FatG:          params.FatG,
	}
	if patch.Empty() {
		return nil, fmt.Errorf("at least one goal field is required")
	}

	goals, err := s.storage.UpdateGoals(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update goals: %w", err)
	}

	slog.Info("updated goals")
	return s.createJSONResponse(goals)
}

func (s *NutritionLogServer) handleGetGoals(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	goals, err := s.storage.Goals()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve goals: %w", err)
	}
	if goals == nil {
		return s.createJSONResponse(map[string]interface{}{
			"message": "no goals set",
		})
	}
	return s.createJSONResponse(goals)
}

func (s *NutritionLogServer) handleDeleteEntry(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params DeleteEntryParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.ID == "" {
		return nil, fmt.Errorf("entry id is required")
	}

	if err := s.storage.DeleteEntry(params.ID); err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			return s.createJSONResponse(map[string]interface{}{
				"deleted": false,
				"message": fmt.Sprintf("entry %s not found", params.ID),
			})
		}
		return nil, fmt.Errorf("failed to delete entry: %w", err)
	}

	slog.Info("deleted entry", "id", params.ID)
	return s.createJSONResponse(map[string]interface{}{
		"deleted": true,
		"id":      params.ID,
	})
}

// handleListEntries returns raw entries for a single day or a range.
func (s *NutritionLogServer) handleListEntries(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ListEntriesParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	var entries []models.LogEntry
	var err error
	switch {
	case params.Date != "":
		if params.StartDate != "" || params.EndDate != "" {
			return nil, fmt.Errorf("date cannot be combined with start_date or end_date")
		}
		if err := validateDate(params.Date); err != nil {
			return nil, err
		}
		entries, err = s.storage.EntriesForDate(params.Date)
	default:
		var startDate, endDate string
		startDate, endDate, err = nutrition.ResolvePeriod("", params.StartDate, params.EndDate)
		if err != nil {
			return nil, err
		}
		entries, err = s.storage.EntriesForRange(startDate, endDate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}

	if params.Limit <= 0 {
		params.Limit = 50
	}
	if len(entries) > params.Limit {
		entries = entries[:params.Limit]
	}

	return s.createJSONResponse(map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}

// Register all tools - routing happens in the HTTP handler, this
// verifies the handler set is complete.
func (s *NutritionLogServer) registerTools() error {
	tools := map[string]func(*protocol.CallToolRequest) (*protocol.CallToolResult, error){
		"log_food":            s.handleLogFood,
		"search_foods":        s.handleSearchFoods,
		"get_daily_summary":   s.handleGetDailySummary,
		"get_nutrition_stats": s.handleGetNutritionStats,
		"set_goals":           s.handleSetGoals,
		"get_goals":           s.handleGetGoals,
		"delete_entry":        s.handleDeleteEntry,
		"list_entries":        s.handleListEntries,
	}

	for name := range tools {
		slog.Debug("registered tool", "name", name)
	}

	return nil
}
