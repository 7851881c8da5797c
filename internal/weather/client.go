// Package weather reads current conditions for station cities from an
// OpenWeatherMap-compatible API.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentCities = 6

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("weather API key is not configured")

// Current is the current weather of one city
type Current struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// CityResult is the outcome for one city of a ForCities call
type CityResult struct {
	City    string   `json:"city"`
	Weather *Current `json:"weather,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Client queries the weather API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a weather client
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type apiResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Message string `json:"message"`
}

// Current returns the current weather of city in metric units
func (c *Client) Current(ctx context.Context, city string) (Current, error) {
	if c.apiKey == "" {
		return Current{}, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return Current{}, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Current{}, fmt.Errorf("weather request for %s failed: %w", city, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Current{}, fmt.Errorf("failed to read weather response: %w", err)
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return Current{}, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if data.Message == "" {
			data.Message = http.StatusText(resp.StatusCode)
		}
		return Current{}, fmt.Errorf("weather for %s: %s (status %d)", city, data.Message, resp.StatusCode)
	}

	out := Current{
		City:        city,
		Temperature: data.Main.Temp,
		FeelsLike:   data.Main.FeelsLike,
		Humidity:    data.Main.Humidity,
		WindSpeed:   data.Wind.Speed,
	}
	if len(data.Weather) > 0 {
		out.Condition = data.Weather[0].Main
		out.Description = data.Weather[0].Description
		out.Icon = data.Weather[0].Icon
	}
	return out, nil
}

// ForCities fetches every city concurrently and joins the results in input order.
// A failing city carries its own error and does not fail the others.
func (c *Client) ForCities(ctx context.Context, cities []string) []CityResult {
	results := make([]CityResult, len(cities))

	var g errgroup.Group
	g.SetLimit(maxConcurrentCities)
	for i, city := range cities {
		i, city := i, city
		g.Go(func() error {
			results[i].City = city
			w, err := c.Current(ctx, city)
			if err != nil {
				c.logger.Warn("Failed to fetch weather", zap.String("city", city), zap.Error(err))
				results[i].Error = err.Error()
				return nil
			}
			results[i].Weather = &w
			return nil
		})
	}
	_ = g.Wait()

	return results
}
