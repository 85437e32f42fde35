package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Place holds the administrative area a coordinate falls in.
type Place struct {
	State     string  `json:"state"`
	District  string  `json:"district"`
	Formatted string  `json:"formatted"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// Client wraps the Google Maps Geocoding API.
type Client struct {
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a geocoding client from the GOOGLE_MAPS_API_KEY env var.
// Returns nil, nil if the key is not set (graceful degradation).
func NewClient() (*Client, error) {
	key := os.Getenv("GOOGLE_MAPS_API_KEY")
	if key == "" {
		return nil, nil
	}
	return &Client{
		apiKey: key,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}, nil
}

type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
	Status  string          `json:"status"`
}

type geocodeResult struct {
	AddressComponents []addressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// ReverseGeocode resolves a coordinate to its state and district. District
// falls back through administrative_area_level_2 -> locality -> sublocality,
// matching what the capacity dataset was keyed from.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (*Place, error) {
	u := fmt.Sprintf("https://maps.googleapis.com/maps/api/geocode/json?latlng=%f,%f&language=en&key=%s",
		lat, lng, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding API returned HTTP %d: check that Geocoding API is enabled in Google Cloud Console", resp.StatusCode)
	}

	var geoResp geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if geoResp.Status != "OK" || len(geoResp.Results) == 0 {
		return nil, fmt.Errorf("geocoding failed: status=%s", geoResp.Status)
	}

	result := geoResp.Results[0]
	out := &Place{
		Formatted: result.FormattedAddress,
		Lat:       lat,
		Lng:       lng,
	}

	byType := func(want string) string {
		for _, comp := range result.AddressComponents {
			for _, t := range comp.Types {
				if t == want {
					return comp.LongName
				}
			}
		}
		return ""
	}

	out.State = byType("administrative_area_level_1")
	out.District = byType("administrative_area_level_2")
	if out.District == "" {
		out.District = byType("locality")
	}
	if out.District == "" {
		out.District = byType("sublocality")
	}

	if out.State == "" || out.District == "" {
		return nil, fmt.Errorf("no administrative area in geocoding result for %f,%f", lat, lng)
	}

	return out, nil
}
