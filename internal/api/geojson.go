package api

import (
	"strings"

	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func toGeoJSON(alerts []models.Alert) FeatureCollection {
	features := make([]Feature, 0, len(alerts))

	for _, a := range alerts {
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{a.Location.Longitude, a.Location.Latitude},
			},
			Properties: map[string]any{
				"id":          a.ID,
				"hazard_type": string(a.HazardType),
				"alert_level": strings.ToLower(a.Level.String()),
				"location":    a.Location.Name,
				"confidence":  a.Confidence,
				"description": a.Description,
				"timestamp":   a.Timestamp,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
