package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coastwatch/coastal-hazard-alerts/internal/config"
)

// Geocoder resolves coordinates to a human-readable place name.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) string
}

const unknownLocation = "Unknown location"

// NominatimGeocoder queries the Nominatim reverse endpoint. Any failure
// degrades to "Unknown location"; geocoding never fails an upload.
type NominatimGeocoder struct {
	url    string
	client *http.Client
}

func NewNominatimGeocoder(cfg config.GeocoderConfig) *NominatimGeocoder {
	return &NominatimGeocoder{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	url := fmt.Sprintf("%s?format=json&lat=%f&lon=%f", g.url, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return unknownLocation
	}
	req.Header.Set("User-Agent", "coastal-hazard-alerts")

	resp, err := g.client.Do(req)
	if err != nil {
		slog.Warn("reverse geocoding failed", "error", err)
		return unknownLocation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("reverse geocoding failed", "status", resp.StatusCode)
		return unknownLocation
	}

	var data struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil || data.DisplayName == "" {
		return unknownLocation
	}
	return data.DisplayName
}

// NoopGeocoder is used when geocoding is disabled.
type NoopGeocoder struct{}

func (NoopGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	return unknownLocation
}
