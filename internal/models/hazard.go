package models

import "strings"

// HazardType is the category of detected event.
type HazardType string

const (
	HazardOilSpill       HazardType = "oil_spill"
	HazardAlgalBloom     HazardType = "algal_bloom"
	HazardCoastalErosion HazardType = "coastal_erosion"
	HazardNone           HazardType = "none"
)

// Hazards lists the hazard types a model must exist for.
func Hazards() []HazardType {
	return []HazardType{HazardOilSpill, HazardAlgalBloom, HazardCoastalErosion}
}

func ParseHazardType(s string) (HazardType, bool) {
	switch HazardType(strings.ToLower(strings.TrimSpace(s))) {
	case HazardOilSpill:
		return HazardOilSpill, true
	case HazardAlgalBloom:
		return HazardAlgalBloom, true
	case HazardCoastalErosion:
		return HazardCoastalErosion, true
	default:
		return HazardNone, false
	}
}

// Title renders the hazard for human-facing messages ("oil_spill" -> "Oil Spill").
func (h HazardType) Title() string {
	words := strings.Split(string(h), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Prediction is produced and consumed within one request.
type Prediction struct {
	HazardType   HazardType `json:"hazard_type"`
	Label        int        `json:"prediction"`
	Probability  float64    `json:"probability"`
	FeaturesUsed []string   `json:"features_used"`
}
