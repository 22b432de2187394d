package tide

import (
	"fmt"
	"time"

	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

// DailySummary condenses one day of hourly predictions.
type DailySummary struct {
	Date          string   `json:"date"`
	MaxHeight     float64  `json:"max_height"`
	MinHeight     float64  `json:"min_height"`
	AvgHeight     float64  `json:"avg_height"`
	HighTideCount int      `json:"high_tide_count"`
	LowTideCount  int      `json:"low_tide_count"`
	Lunar         LunarDay `json:"lunar_date"`
	Weather       Weather  `json:"weather_summary"`
}

// TideEvent marks a predicted high or low water.
type TideEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Height    float64   `json:"height_meters"`
	Lunar     LunarDay  `json:"lunar_factors"`
}

// Forecast is the multi-day outlook served by the API.
type Forecast struct {
	Location       models.Location `json:"location"`
	Period         string          `json:"forecast_period"`
	GeneratedAt    time.Time       `json:"generated_at"`
	DailySummaries []DailySummary  `json:"daily_summaries"`
	HighLowTides   []TideEvent     `json:"high_low_tides"`
	LunarCalendar  map[string]any  `json:"lunar_calendar_info"`
}

const maxTideEvents = 20

// Forecast builds the outlook for the next days (clamped to the cached
// 7-day window).
func (m *Monitor) Forecast(days int) Forecast {
	m.mu.Lock()
	defer m.mu.Unlock()

	if days < 1 {
		days = 1
	}
	if days > 7 {
		days = 7
	}

	now := m.now()
	predictions := m.rangeLocked(now, time.Duration(days)*24*time.Hour)

	return Forecast{
		Location:       m.location,
		Period:         fmt.Sprintf("%d days", days),
		GeneratedAt:    now,
		DailySummaries: dailySummaries(predictions),
		HighLowTides:   tideEvents(predictions),
		LunarCalendar:  lunarSummary(predictions),
	}
}

func dailySummaries(predictions []Prediction) []DailySummary {
	var out []DailySummary
	var day []Prediction
	var current string

	flush := func() {
		if len(day) == 0 {
			return
		}
		s := DailySummary{
			Date:      current,
			MaxHeight: day[0].Height,
			MinHeight: day[0].Height,
			Lunar:     day[0].Lunar,
			Weather:   day[0].Weather,
		}
		var sum float64
		for _, p := range day {
			sum += p.Height
			if p.Height > s.MaxHeight {
				s.MaxHeight = p.Height
			}
			if p.Height < s.MinHeight {
				s.MinHeight = p.Height
			}
			switch p.Type {
			case TypeHigh:
				s.HighTideCount++
			case TypeLow:
				s.LowTideCount++
			}
		}
		s.AvgHeight = sum / float64(len(day))
		out = append(out, s)
	}

	for _, p := range predictions {
		d := p.Timestamp.Format("2006-01-02")
		if d != current {
			flush()
			current = d
			day = day[:0]
		}
		day = append(day, p)
	}
	flush()
	return out
}

func tideEvents(predictions []Prediction) []TideEvent {
	var out []TideEvent
	for _, p := range predictions {
		if p.Type != TypeHigh && p.Type != TypeLow {
			continue
		}
		out = append(out, TideEvent{
			Timestamp: p.Timestamp,
			Type:      p.Type,
			Height:    p.Height,
			Lunar:     p.Lunar,
		})
		if len(out) == maxTideEvents {
			break
		}
	}
	return out
}

func lunarSummary(predictions []Prediction) map[string]any {
	nakshatras := map[string]bool{}
	tithis := map[string]bool{}
	for _, p := range predictions {
		nakshatras[p.Lunar.Nakshatra] = true
		tithis[p.Lunar.Tithi] = true
	}
	return map[string]any{
		"unique_nakshatras": keys(nakshatras),
		"unique_tithis":     keys(tithis),
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Statistics summarizes predicted heights over the forecast window.
type Statistics struct {
	MaxHeight   float64 `json:"max_height"`
	MinHeight   float64 `json:"min_height"`
	AvgHeight   float64 `json:"avg_height"`
	HeightRange float64 `json:"height_range"`
	Period      string  `json:"period"`
}

func (m *Monitor) Statistics() Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	predictions := m.forecastLocked()
	if len(predictions) == 0 {
		return Statistics{Period: "7 days"}
	}

	s := Statistics{
		MaxHeight: predictions[0].Height,
		MinHeight: predictions[0].Height,
		Period:    "7 days",
	}
	var sum float64
	for _, p := range predictions {
		sum += p.Height
		if p.Height > s.MaxHeight {
			s.MaxHeight = p.Height
		}
		if p.Height < s.MinHeight {
			s.MinHeight = p.Height
		}
	}
	s.AvgHeight = sum / float64(len(predictions))
	s.HeightRange = s.MaxHeight - s.MinHeight
	return s
}
