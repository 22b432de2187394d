package classifier

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

// Registry holds the loaded per-hazard models.
type Registry struct {
	models map[models.HazardType]*Model
}

// LoadRegistry loads one model file per hazard from dir. Every hazard type is
// required: a missing or unreadable file is a startup failure.
func LoadRegistry(dir string) (*Registry, error) {
	r := &Registry{models: make(map[models.HazardType]*Model)}

	for _, hazard := range models.Hazards() {
		path := filepath.Join(dir, string(hazard)+".json")
		m, err := LoadModel(path)
		if err != nil {
			return nil, fmt.Errorf("loading %s model: %w", hazard, err)
		}
		if m.HazardType != hazard {
			return nil, fmt.Errorf("model file %s declares hazard %q", path, m.HazardType)
		}
		r.models[hazard] = m
		slog.Info("model loaded", "hazard", hazard, "kind", m.Kind, "features", len(m.Features))
	}

	return r, nil
}

func (r *Registry) Model(hazard models.HazardType) (*Model, bool) {
	m, ok := r.models[hazard]
	return m, ok
}

// Loaded returns the hazard types with a loaded model, sorted.
func (r *Registry) Loaded() []string {
	names := make([]string, 0, len(r.models))
	for h := range r.models {
		names = append(names, string(h))
	}
	sort.Strings(names)
	return names
}

// Predict validates the feature map against the hazard's model and scores it.
// Missing keys produce a *MissingFeaturesError, never a panic.
func (r *Registry) Predict(hazard models.HazardType, features map[string]float64) (*models.Prediction, error) {
	m, ok := r.models[hazard]
	if !ok {
		return nil, fmt.Errorf("no model loaded for hazard %q", hazard)
	}

	if missing := m.MissingFeatures(features); len(missing) > 0 {
		return nil, &MissingFeaturesError{
			Hazard:   hazard,
			Missing:  missing,
			Required: m.Features,
		}
	}

	label, prob := m.Predict(features)
	return &models.Prediction{
		HazardType:   hazard,
		Label:        label,
		Probability:  prob,
		FeaturesUsed: m.Features,
	}, nil
}

// MissingFeaturesError lists the required keys absent from a request.
type MissingFeaturesError struct {
	Hazard   models.HazardType
	Missing  []string
	Required []string
}

func (e *MissingFeaturesError) Error() string {
	return fmt.Sprintf("missing features for %s: %v", e.Hazard, e.Missing)
}
