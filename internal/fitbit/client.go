// Package fitbit is the thin transport to the Fitbit nutrition API: OAuth2
// token exchange plus the three REST calls the bridge needs. It performs no
// retries and holds no state beyond the configured credentials; every
// non-success response surfaces as an UpstreamError.
package fitbit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// TokenProvider supplies a currently-valid bearer token for REST calls.
// Implemented by the token lifecycle service.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client performs authenticated REST calls against the Fitbit API.
type Client struct {
	apiBase string
	http    *http.Client
	tokens  TokenProvider
}

// NewClient creates a REST client. apiBase defaults to the real Fitbit host
// when empty; httpClient defaults to http.DefaultClient.
func NewClient(apiBase string, httpClient *http.Client, tokens TokenProvider) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{apiBase: apiBase, http: httpClient, tokens: tokens}
}

// CreateFoodRequest describes a private food to create upstream.
type CreateFoodRequest struct {
	Name          string
	DefaultUnitID int64
	DefaultAmount float64
	Calories      float64
	ProteinG      *float64
	CarbsG        *float64
	FatG          *float64
}

// CreateFood registers a private food upstream and returns its Fitbit food
// id.
func (c *Client) CreateFood(ctx context.Context, req CreateFoodRequest) (int64, error) {
	form := url.Values{
		"name":                         {req.Name},
		"defaultFoodMeasurementUnitId": {strconv.FormatInt(req.DefaultUnitID, 10)},
		"defaultServingSize":           {formatFloat(req.DefaultAmount)},
		"calories":                     {formatFloat(req.Calories)},
	}
	if req.ProteinG != nil {
		form.Set("protein", formatFloat(*req.ProteinG))
	}
	if req.CarbsG != nil {
		form.Set("carbs", formatFloat(*req.CarbsG))
	}
	if req.FatG != nil {
		form.Set("fat", formatFloat(*req.FatG))
	}

	body, err := c.request(ctx, http.MethodPost, "/1/foods.json", form)
	if err != nil {
		return 0, err
	}

	var parsed struct {
		Food struct {
			FoodID int64 `json:"foodId"`
		} `json:"food"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("decode create food response: %w", err)
	}
	return parsed.Food.FoodID, nil
}

// LogFoodRequest describes one food-log entry to record upstream.
type LogFoodRequest struct {
	FoodID     int64
	MealTypeID int64
	UnitID     int64
	Amount     float64
	Date       string
	FoodName   string
}

// FoodLogResult is the upstream-assigned identity of a logged entry.
type FoodLogResult struct {
	LogID int64
}

// LogFood records one food-log entry and returns the upstream log id.
func (c *Client) LogFood(ctx context.Context, req LogFoodRequest) (*FoodLogResult, error) {
	form := url.Values{
		"foodId":     {strconv.FormatInt(req.FoodID, 10)},
		"mealTypeId": {strconv.FormatInt(req.MealTypeID, 10)},
		"unitId":     {strconv.FormatInt(req.UnitID, 10)},
		"amount":     {formatFloat(req.Amount)},
		"date":       {req.Date},
	}
	if req.FoodName != "" {
		form.Set("foodName", req.FoodName)
	}

	body, err := c.request(ctx, http.MethodPost, "/1/user/-/foods/log.json", form)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		FoodLog struct {
			LogID int64 `json:"logId"`
		} `json:"foodLog"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode log food response: %w", err)
	}
	return &FoodLogResult{LogID: parsed.FoodLog.LogID}, nil
}

// ListUnits returns the raw Fitbit unit catalogue. The document is passed
// through to the caller untouched.
func (c *Client) ListUnits(ctx context.Context) (json.RawMessage, error) {
	body, err := c.request(ctx, http.MethodGet, "/1/foods/units.json", nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// request performs one bearer-authenticated call. Form bodies are
// url-encoded; responses are returned raw so each endpoint decodes only the
// fields it needs.
func (c *Client) request(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	accessToken, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
