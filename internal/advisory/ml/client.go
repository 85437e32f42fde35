package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Config holds the connection settings for the external crop/yield model API.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// LoadFromEnv loads ML API configuration from environment variables.
//
// Environment variables:
//   - ML_API_URL: base URL of the model service (default: http://localhost:8000)
func LoadFromEnv() Config {
	base := strings.TrimRight(strings.TrimSpace(os.Getenv("ML_API_URL")), "/")
	if base == "" {
		base = "http://localhost:8000"
	}
	return Config{
		BaseURL: base,
		Timeout: 30 * time.Second,
	}
}

// Client is an HTTP client for the model service. The service is a black
// box: this package only moves numbers in and out.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// YieldRequest matches the feature names the yield model was trained on.
type YieldRequest struct {
	Area         float64 `json:"Area"`
	StateName    string  `json:"State_Name"`
	DistrictName string  `json:"District_Name"`
	Season       string  `json:"Season"`
	Crop         string  `json:"Crop"`
}

type yieldResponse struct {
	PredictedYield *float64 `json:"predicted_yield"`
}

// PredictYield returns the model's per-hectare yield estimate.
func (c *Client) PredictYield(ctx context.Context, req YieldRequest) (float64, error) {
	var resp yieldResponse
	if err := c.post(ctx, "/api/predict-yield", req, &resp); err != nil {
		return 0, err
	}
	if resp.PredictedYield == nil {
		return 0, fmt.Errorf("yield model returned no predicted_yield")
	}
	return *resp.PredictedYield, nil
}

// RecommendationRequest matches the feature names of the crop
// recommendation model.
type RecommendationRequest struct {
	SoilPH           float64 `json:"SOIL_PH"`
	Temp             float64 `json:"TEMP"`
	RelativeHumidity float64 `json:"RELATIVE_HUMIDITY"`
	N                float64 `json:"N"`
	P                float64 `json:"P"`
	K                float64 `json:"K"`
	Soil             string  `json:"SOIL"`
	Season           string  `json:"SEASON"`
}

type recommendationResponse struct {
	TopCrops map[string]float64 `json:"top_crops"`
}

// RecommendCrops returns crop name -> probability, highest first when
// iterated via the caller's own ordering.
func (c *Client) RecommendCrops(ctx context.Context, req RecommendationRequest) (map[string]float64, error) {
	var resp recommendationResponse
	if err := c.post(ctx, "/", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.TopCrops) == 0 {
		return nil, fmt.Errorf("recommendation model returned no crops")
	}
	return resp.TopCrops, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model API returned HTTP %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding model response: %w", err)
	}
	return nil
}
