package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

type Kind string

const (
	// KindLogistic scores with a sigmoid over a weighted sum; the label is 1
	// when the probability reaches 0.5.
	KindLogistic Kind = "logistic"
	// KindLinear is a regression scorer whose output is clamped to [0,1].
	KindLinear Kind = "linear"
)

// Model is a pre-trained scorer exported as a JSON weight file.
type Model struct {
	HazardType models.HazardType `json:"hazard_type"`
	Kind       Kind              `json:"kind"`
	Features   []string          `json:"features"`
	Weights    []float64         `json:"weights"`
	Bias       float64           `json:"bias"`
}

func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading model file: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error decoding model file %s: %w", path, err)
	}

	if m.Kind != KindLogistic && m.Kind != KindLinear {
		return nil, fmt.Errorf("model %s: unknown kind %q", path, m.Kind)
	}
	if len(m.Features) == 0 {
		return nil, fmt.Errorf("model %s: no features declared", path)
	}
	if len(m.Weights) != len(m.Features) {
		return nil, fmt.Errorf("model %s: %d weights for %d features", path, len(m.Weights), len(m.Features))
	}

	return &m, nil
}

// MissingFeatures reports which required keys are absent, sorted.
func (m *Model) MissingFeatures(features map[string]float64) []string {
	var missing []string
	for _, name := range m.Features {
		if _, ok := features[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Predict scores a validated feature map. Callers are expected to have run
// MissingFeatures first; absent keys contribute zero.
func (m *Model) Predict(features map[string]float64) (int, float64) {
	x := make([]float64, len(m.Features))
	for i, name := range m.Features {
		x[i] = features[name]
	}
	return m.PredictVector(x)
}

// PredictVector scores an ordered feature vector. Vectors shorter than the
// model's feature list are treated as zero-padded; longer ones are truncated.
func (m *Model) PredictVector(x []float64) (int, float64) {
	score := m.Bias
	for i, w := range m.Weights {
		if i >= len(x) {
			break
		}
		score += w * x[i]
	}

	switch m.Kind {
	case KindLinear:
		p := math.Max(0, math.Min(1, score))
		label := 0
		if p >= 0.5 {
			label = 1
		}
		return label, p
	default:
		p := 1 / (1 + math.Exp(-score))
		label := 0
		if p >= 0.5 {
			label = 1
		}
		return label, p
	}
}
