package usda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mcp-nutrition-log/internal/models"
)

const defaultBaseURL = "https://api.nal.usda.gov"

// FoodCandidate is one ranked search result with nutrient values per
// 100 g of the food.
type FoodCandidate struct {
	Name     string                 `json:"name"`
	Brand    string                 `json:"brand,omitempty"`
	Per100g  models.NutritionValues `json:"nutrition_per_100g"`
	SourceID int64                  `json:"source_id"`
}

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// SearchFoods queries the FoodData Central search endpoint and maps
// the response into per-100g candidates, preserving API ranking.
func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]FoodCandidate, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("missing USDA API key")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}

	reqBody := map[string]any{
		"query":    query,
		"dataType": []string{"Foundation", "SR Legacy", "Branded"},
		"pageSize": limit,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal USDA search payload: %w", err)
	}

	url := fmt.Sprintf("%s/fdc/v1/foods/search?api_key=%s", baseURL, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create USDA request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute USDA request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read USDA response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("USDA request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode USDA response: %w", err)
	}

	out := make([]FoodCandidate, 0, len(parsed.Foods))
	for _, food := range parsed.Foods {
		candidate := FoodCandidate{
			Name:     strings.TrimSpace(food.Description),
			Brand:    strings.TrimSpace(food.BrandOwner),
			SourceID: food.FDCID,
		}
		for _, n := range food.FoodNutrients {
			switch strings.ToLower(strings.TrimSpace(n.NutrientName)) {
			case "energy":
				candidate.Per100g.Calories = n.Value
			case "protein":
				candidate.Per100g.ProteinG = n.Value
			case "carbohydrate, by difference":
				candidate.Per100g.CarbsG = n.Value
			case "total lipid (fat)":
				candidate.Per100g.FatG = n.Value
			case "fiber, total dietary":
				candidate.Per100g.FiberG = n.Value
			}
		}
		out = append(out, candidate)
	}
	return out, nil
}

type searchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	FDCID         int64          `json:"fdcId"`
	Description   string         `json:"description"`
	BrandOwner    string         `json:"brandOwner"`
	FoodNutrients []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientName string  `json:"nutrientName"`
	UnitName     string  `json:"unitName"`
	Value        float64 `json:"value"`
}
