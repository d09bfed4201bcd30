package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-nutrition-log/internal/nutrition"
)

func newTestServer(t *testing.T) *NutritionLogServer {
	t.Helper()
	return newTestServerWithUSDA(t, "")
}

func newTestServerWithUSDA(t *testing.T, usdaBaseURL string) *NutritionLogServer {
	t.Helper()
	cfg := &Config{
		Host:   "127.0.0.1",
		Port:   0,
		DBPath: filepath.Join(t.TempDir(), "nutrition-log.db"),
	}
	if usdaBaseURL != "" {
		cfg.USDAAPIKey = "demo"
		cfg.USDABaseURL = usdaBaseURL
	}
	srv, err := NewNutritionLogServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { srv.storage.Close() })
	return srv
}

func call(name string, args map[string]interface{}) *protocol.CallToolRequest {
	return &protocol.CallToolRequest{Name: name, Arguments: args}
}

func decodeResult(t *testing.T, result *protocol.CallToolResult, target interface{}) {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(protocol.TextContent)
	require.True(t, ok, "expected text content")
	require.NoError(t, json.Unmarshal([]byte(text.Text), target))
}

func TestLogFoodAndDailySummary(t *testing.T) {
	srv := newTestServer(t)

	_, err := srv.handleSetGoals(call("set_goals", map[string]interface{}{
		"daily_calories": 2000,
	}))
	require.NoError(t, err)

	_, err = srv.handleLogFood(call("log_food", map[string]interface{}{
		"name":      "oatmeal",
		"date":      "2025-01-15",
		"meal":      "breakfast",
		"calories":  150,
		"protein_g": 5,
	}))
	require.NoError(t, err)

	_, err = srv.handleLogFood(call("log_food", map[string]interface{}{
		"name":      "chicken breast",
		"date":      "2025-01-15",
		"meal":      "dinner",
		"calories":  400,
		"protein_g": 40,
	}))
	require.NoError(t, err)

	result, err := srv.handleGetDailySummary(call("get_daily_summary", map[string]interface{}{
		"date": "2025-01-15",
	}))
	require.NoError(t, err)

	var view nutrition.DailyView
	decodeResult(t, result, &view)

	assert.Equal(t, "2025-01-15", view.Date)
	assert.Equal(t, 2, view.EntryCount)
	assert.Equal(t, 550.0, view.Totals.Calories)
	assert.Equal(t, 45.0, view.Totals.ProteinG)

	require.Len(t, view.GoalProgress, 1)
	assert.Equal(t, 1450.0, view.GoalProgress[0].Remaining)
	assert.False(t, view.GoalProgress[0].Over)

	require.Len(t, view.Meals, 2)
	assert.Equal(t, "breakfast", view.Meals[0].Meal)
	assert.Equal(t, "dinner", view.Meals[1].Meal)
}

func TestLogFoodValidation(t *testing.T) {
	srv := newTestServer(t)

	_, err := srv.handleLogFood(call("log_food", map[string]interface{}{}))
	assert.Error(t, err)

	_, err = srv.handleLogFood(call("log_food", map[string]interface{}{
		"name": "toast",
		"date": "15-01-2025",
	}))
	assert.Error(t, err)

	_, err = srv.handleLogFood(call("log_food", map[string]interface{}{
		"name": "toast",
		"meal": "brunch",
	}))
	assert.Error(t, err)
}

func TestLogFoodLookupScalesServingSize(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "foods": [
    {
      "fdcId": 12345,
      "description": "Greek Yogurt",
      "foodNutrients": [
        {"nutrientName": "Energy", "value": 100},
        {"nutrientName": "Protein", "value": 10},
        {"nutrientName": "Carbohydrate, by difference", "value": 6},
        {"nutrientName": "Total lipid (fat)", "value": 4},
        {"nutrientName": "Fiber, total dietary", "value": 2}
      ]
    },
    {
      "fdcId": 67890,
      "description": "Yogurt, plain",
      "foodNutrients": [{"nutrientName": "Energy", "value": 61}]
    }
  ]
}`))
	}))
	defer ts.Close()

	srv := newTestServerWithUSDA(t, ts.URL)

	result, err := srv.handleLogFood(call("log_food", map[string]interface{}{
		"name":      "greek yogurt",
		"date":      "2025-01-15",
		"lookup":    true,
		"serving_g": 150,
	}))
	require.NoError(t, err)

	// Top candidate, scaled 1.5x from per-100g values.
	var logged map[string]interface{}
	decodeResult(t, result, &logged)
	assert.Equal(t, float64(150), logged["calories"])
	assert.Equal(t, float64(15), logged["protein_g"])
	assert.Equal(t, float64(9), logged["carbs_g"])
	assert.Equal(t, float64(6), logged["fat_g"])
	assert.Equal(t, float64(3), logged["fiber_g"])

	result, err = srv.handleGetDailySummary(call("get_daily_summary", map[string]interface{}{
		"date": "2025-01-15",
	}))
	require.NoError(t, err)

	var view nutrition.DailyView
	decodeResult(t, result, &view)
	assert.Equal(t, 150.0, view.Totals.Calories)
	assert.Equal(t, 15.0, view.Totals.ProteinG)
}

func TestLogFoodLookupDefaultsToHundredGrams(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "foods": [
    {
      "fdcId": 1,
      "description": "Apple",
      "foodNutrients": [{"nutrientName": "Energy", "value": 52}]
    }
  ]
}`))
	}))
	defer ts.Close()

	srv := newTestServerWithUSDA(t, ts.URL)

	result, err := srv.handleLogFood(call("log_food", map[string]interface{}{
		"name":   "apple",
		"date":   "2025-01-15",
		"lookup": true,
	}))
	require.NoError(t, err)

	var logged map[string]interface{}
	decodeResult(t, result, &logged)
	assert.Equal(t, float64(52), logged["calories"])
}

func TestLogFoodLookupFailureStillSavesEntry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	srv := newTestServerWithUSDA(t, ts.URL)

	result, err := srv.handleLogFood(call("log_food", map[string]interface{}{
		"name":   "mystery stew",
		"date":   "2025-01-15",
		"lookup": true,
	}))
	require.NoError(t, err)

	// The log event survives with unknown nutrition.
	var logged map[string]interface{}
	decodeResult(t, result, &logged)
	assert.Equal(t, float64(0), logged["calories"])

	result, err = srv.handleListEntries(call("list_entries", map[string]interface{}{
		"date": "2025-01-15",
	}))
	require.NoError(t, err)

	var payload map[string]interface{}
	decodeResult(t, result, &payload)
	assert.Equal(t, float64(1), payload["count"])
}

func TestNutritionStatsOverRange(t *testing.T) {
	srv := newTestServer(t)

	days := map[string]float64{
		"2025-01-14": 1800,
		"2025-01-15": 2200,
	}
	for date, calories := range days {
		_, err := srv.handleLogFood(call("log_food", map[string]interface{}{
			"name":     "meal",
			"date":     date,
			"calories": calories,
		}))
		require.NoError(t, err)
	}

	result, err := srv.handleGetNutritionStats(call("get_nutrition_stats", map[string]interface{}{
		"start_date": "2025-01-14",
		"end_date":   "2025-01-15",
	}))
	require.NoError(t, err)

	var summary nutrition.RangeSummary
	decodeResult(t, result, &summary)

	assert.Equal(t, 2, summary.DaysWithEntries)
	assert.Equal(t, 2, summary.TotalEntries)
	assert.Equal(t, 2000.0, summary.DailyAverage.Calories)
	require.Len(t, summary.Days, 2)
	assert.Equal(t, "2025-01-14", summary.Days[0].Date)
}

func TestNutritionStatsEmptyRangeIsAnOutcome(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleGetNutritionStats(call("get_nutrition_stats", map[string]interface{}{
		"start_date": "2025-01-01",
		"end_date":   "2025-01-07",
	}))
	require.NoError(t, err)

	var payload map[string]interface{}
	decodeResult(t, result, &payload)

	assert.Equal(t, float64(0), payload["days_with_entries"])
	assert.Equal(t, float64(0), payload["total_entries"])
	assert.Contains(t, payload["message"], "no entries")
}

func TestSetGoalsPartialUpdate(t *testing.T) {
	srv := newTestServer(t)

	_, err := srv.handleSetGoals(call("set_goals", map[string]interface{}{}))
	assert.Error(t, err, "empty patch must be rejected")

	_, err = srv.handleSetGoals(call("set_goals", map[string]interface{}{
		"daily_calories": 2000,
		"protein_g":      150,
	}))
	require.NoError(t, err)

	result, err := srv.handleSetGoals(call("set_goals", map[string]interface{}{
		"daily_calories": 1800,
	}))
	require.NoError(t, err)

	var goals map[string]interface{}
	decodeResult(t, result, &goals)
	assert.Equal(t, float64(1800), goals["daily_calories"])
	assert.Equal(t, float64(150), goals["protein_g"])
}

func TestGetGoalsUnset(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleGetGoals(call("get_goals", nil))
	require.NoError(t, err)

	var payload map[string]interface{}
	decodeResult(t, result, &payload)
	assert.Equal(t, "no goals set", payload["message"])
}

func TestDeleteEntry(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleLogFood(call("log_food", map[string]interface{}{
		"name":     "oatmeal",
		"date":     "2025-01-15",
		"calories": 150,
	}))
	require.NoError(t, err)

	var logged map[string]interface{}
	decodeResult(t, result, &logged)
	id, _ := logged["id"].(string)
	require.NotEmpty(t, id)

	result, err = srv.handleDeleteEntry(call("delete_entry", map[string]interface{}{"id": id}))
	require.NoError(t, err)

	var deleted map[string]interface{}
	decodeResult(t, result, &deleted)
	assert.Equal(t, true, deleted["deleted"])

	result, err = srv.handleDeleteEntry(call("delete_entry", map[string]interface{}{"id": id}))
	require.NoError(t, err)
	decodeResult(t, result, &deleted)
	assert.Equal(t, false, deleted["deleted"])
}

func TestListEntriesForDate(t *testing.T) {
	srv := newTestServer(t)

	for _, name := range []string{"eggs", "toast"} {
		_, err := srv.handleLogFood(call("log_food", map[string]interface{}{
			"name":     name,
			"date":     "2025-01-15",
			"calories": 100,
		}))
		require.NoError(t, err)
	}

	result, err := srv.handleListEntries(call("list_entries", map[string]interface{}{
		"date": "2025-01-15",
	}))
	require.NoError(t, err)

	var payload struct {
		Count   int                      `json:"count"`
		Entries []map[string]interface{} `json:"entries"`
	}
	decodeResult(t, result, &payload)
	assert.Equal(t, 2, payload.Count)
	require.Len(t, payload.Entries, 2)

	_, err = srv.handleListEntries(call("list_entries", map[string]interface{}{
		"date":       "2025-01-15",
		"start_date": "2025-01-01",
	}))
	assert.Error(t, err, "date and range filters are mutually exclusive")
}

func TestListEntriesHonorsLimit(t *testing.T) {
	srv := newTestServer(t)

	for _, name := range []string{"eggs", "toast", "coffee"} {
		_, err := srv.handleLogFood(call("log_food", map[string]interface{}{
			"name":     name,
			"date":     "2025-01-15",
			"calories": 100,
		}))
		require.NoError(t, err)
	}

	result, err := srv.handleListEntries(call("list_entries", map[string]interface{}{
		"date":  "2025-01-15",
		"limit": 2,
	}))
	require.NoError(t, err)

	var payload struct {
		Count   int                      `json:"count"`
		Entries []map[string]interface{} `json:"entries"`
	}
	decodeResult(t, result, &payload)
	assert.Equal(t, 2, payload.Count)
	require.Len(t, payload.Entries, 2)
}
