package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ReverseGeocoder resolves coordinates to a locality name.
type ReverseGeocoder struct {
	Endpoint   string
	HTTPClient *http.Client
	limiter    *rate.Limiter
}

type reverseGeocodeResponse struct {
	Locality string `json:"locality"`
}

func NewReverseGeocoder(endpoint string, rps int) *ReverseGeocoder {
	if rps <= 0 {
		rps = 1
	}
	return &ReverseGeocoder{
		Endpoint: endpoint,
		HTTPClient: &http.Client{
			Timeout: 8 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Locality returns the locality for lat/lng.
func (g *ReverseGeocoder) Locality(ctx context.Context, lat, lng float64) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrGeocodeFailed, err)
		}
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("localityLanguage", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeocodeFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	client := g.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeocodeFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: http %d", ErrGeocodeFailed, resp.StatusCode)
	}

	var out reverseGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrGeocodeFailed, err)
	}
	if strings.TrimSpace(out.Locality) == "" {
		return "", ErrLocalityNotFound
	}
	return out.Locality, nil
}

// LocationField formats a locality the way the settings form stores it.
func LocationField(locality string) string {
	return " " + locality
}
