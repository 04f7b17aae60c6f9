// Package maps wraps the Google Maps Places and Distance Matrix web APIs
// for store geocoding and drive time measurement.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
)

const baseURL = "https://maps.googleapis.com/maps/api"

var ErrNotConfigured = errors.New("maps: no api key configured")

// Place is one geocoded result from a text search.
type Place struct {
	PlaceID          string
	FormattedAddress string
	Lat              float64
	Lng              float64
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// get fetches one API endpoint with retries on transport errors and 5xx.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	params.Set("key", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	var body []byte
	backoff := retry.WithMaxRetries(2, retry.NewExponential(300*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("maps: status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("maps: status %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// FindPlace geocodes a free-form query via Places text search. Returns nil
// when nothing was found.
func (c *Client) FindPlace(ctx context.Context, query string) (*Place, error) {
	params := url.Values{}
	params.Set("query", query)

	body, err := c.get(ctx, "/place/textsearch/json", params)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Status  string `json:"status"`
		Results []struct {
			PlaceID          string `json:"place_id"`
			FormattedAddress string `json:"formatted_address"`
			Geometry         struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode place search: %w", err)
	}
	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return nil, nil
	}

	r := parsed.Results[0]
	return &Place{
		PlaceID:          r.PlaceID,
		FormattedAddress: r.FormattedAddress,
		Lat:              r.Geometry.Location.Lat,
		Lng:              r.Geometry.Location.Lng,
	}, nil
}

func latLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

// distanceMinutes runs one Distance Matrix request and returns driving
// minutes for the single origin/destination pair, or nil when the API could
// not route it.
func (c *Client) distanceMinutes(ctx context.Context, origin, destination string) (*float64, error) {
	params := url.Values{}
	params.Set("origins", origin)
	params.Set("destinations", destination)
	params.Set("mode", "driving")
	params.Set("units", "imperial")

	body, err := c.get(ctx, "/distancematrix/json", params)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Status string `json:"status"`
		Rows   []struct {
			Elements []struct {
				Status   string `json:"status"`
				Duration struct {
					Value float64 `json:"value"`
				} `json:"duration"`
			} `json:"elements"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode distance matrix: %w", err)
	}
	if parsed.Status != "OK" || len(parsed.Rows) == 0 || len(parsed.Rows[0].Elements) == 0 {
		return nil, nil
	}
	el := parsed.Rows[0].Elements[0]
	if el.Status != "OK" {
		return nil, nil
	}

	minutes := el.Duration.Value / 60
	return &minutes, nil
}

// DriveTimeFromText measures driving minutes from a free-form origin to a
// coordinate.
func (c *Client) DriveTimeFromText(ctx context.Context, origin string, lat, lng float64) (*float64, error) {
	return c.distanceMinutes(ctx, origin, latLng(lat, lng))
}

// DriveTimeBetween measures driving minutes between two coordinates.
func (c *Client) DriveTimeBetween(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (*float64, error) {
	return c.distanceMinutes(ctx, latLng(fromLat, fromLng), latLng(toLat, toLng))
}
