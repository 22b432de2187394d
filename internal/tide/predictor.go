package tide

import (
	"math"
	"time"
)

// Tide types.
const (
	TypeHigh    = "high"
	TypeLow     = "low"
	TypeRising  = "rising"
	TypeFalling = "falling"
)

// Weather is the simulated weather attached to each prediction so risk
// scoring has something to correlate against. No live weather feed exists in
// this demo; values are derived deterministically from the timestamp.
type Weather struct {
	Condition   string  `json:"condition"` // clear, cloudy, rainy, stormy
	Temperature float64 `json:"temperature_c"`
	WindSpeed   float64 `json:"wind_speed_ms"`
	Humidity    float64 `json:"humidity_pct"`
}

// Prediction is one hourly tide estimate.
type Prediction struct {
	Timestamp  time.Time `json:"timestamp"`
	Height     float64   `json:"height_meters"`
	Type       string    `json:"tide_type"`
	Confidence float64   `json:"confidence"`
	Lunar      LunarDay  `json:"lunar_factors"`
	Weather    Weather   `json:"weather"`
}

const (
	baseHeight = 1.5
	// Principal lunar semidiurnal constituent, hours.
	m2Period = 12.42

	minHeight = 0.1
	maxHeight = 5.0

	predictionConfidence = 0.85
)

// Predictor produces harmonic tide estimates for a fixed location.
type Predictor struct {
	Latitude  float64
	Longitude float64
}

func NewPredictor(lat, lon float64) *Predictor {
	return &Predictor{Latitude: lat, Longitude: lon}
}

// Predict returns hourly predictions covering days from start. Identical
// inputs always produce identical output.
func (p *Predictor) Predict(start time.Time, days int) []Prediction {
	out := make([]Prediction, 0, days*24)
	for i := 0; i < days*24; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		out = append(out, p.At(ts))
	}
	return out
}

// At computes the prediction for a single instant.
func (p *Predictor) At(ts time.Time) Prediction {
	lunar := lunarDayFor(ts)
	infl := influenceFor(lunar)

	height := heightAt(ts, infl)

	return Prediction{
		Timestamp:  ts,
		Height:     height,
		Type:       tideType(height, ts),
		Confidence: predictionConfidence,
		Lunar:      lunar,
		Weather:    weatherAt(ts),
	}
}

// heightAt is the M2 harmonic scaled by the calendar influence and clamped
// to the plausible range for a coastal station.
func heightAt(ts time.Time, infl Influence) float64 {
	hourFactor := float64(ts.Hour()) + float64(ts.Minute())/60
	astronomical := baseHeight + 0.5*math.Sin(2*math.Pi*hourFactor/m2Period)

	multiplier := 1.0
	switch infl.Strength {
	case "strong":
		multiplier = 1.3
	case "moderate":
		multiplier = 1.1
	case "weak":
		multiplier = 0.9
	}

	height := astronomical * multiplier * infl.Amplification
	height += 0.1 * math.Sin(float64(ts.Hour())*0.5)

	return math.Max(minHeight, math.Min(maxHeight, height))
}

func tideType(height float64, ts time.Time) string {
	switch {
	case height > baseHeight+0.5:
		return TypeHigh
	case height < baseHeight-0.5:
		return TypeLow
	case ts.Hour()%6 < 3:
		return TypeRising
	default:
		return TypeFalling
	}
}

// weatherAt synthesizes plausible weather from the timestamp alone.
func weatherAt(ts time.Time) Weather {
	hour := float64(ts.Hour())
	day := float64(ts.YearDay())

	temperature := 20 + 10*math.Sin(2*math.Pi*hour/24) + 2*math.Sin(day*0.3)
	windSpeed := 7.5 + 7.5*math.Sin(day*0.7+hour*0.25)
	humidity := 60 + 20*math.Sin(day*0.5+hour*0.1)

	var condition string
	switch int(day+hour) % 8 {
	case 0:
		condition = "stormy"
	case 1, 2:
		condition = "rainy"
	case 3, 4:
		condition = "cloudy"
	default:
		condition = "clear"
	}

	return Weather{
		Condition:   condition,
		Temperature: temperature,
		WindSpeed:   math.Max(0, windSpeed),
		Humidity:    humidity,
	}
}
