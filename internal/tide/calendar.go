package tide

import "time"

// LunarDay is the Hindu calendar position used for tide analysis: the tithi
// (lunar day), nakshatra (lunar mansion) and paksha (fortnight).
type LunarDay struct {
	Tithi     string `json:"tithi"`
	Nakshatra string `json:"nakshatra"`
	Paksha    string `json:"paksha"`
	DayNumber int    `json:"lunar_day"`
}

var nakshatras = []string{
	"Ashwini", "Bharani", "Krittika", "Rohini", "Mrigashira", "Ardra",
	"Punarvasu", "Pushya", "Ashlesha", "Magha", "Purva Phalguni", "Uttara Phalguni",
	"Hasta", "Chitra", "Swati", "Vishakha", "Anuradha", "Jyeshtha",
	"Mula", "Purva Ashadha", "Uttara Ashadha", "Shravana", "Dhanishta", "Shatabhisha",
	"Purva Bhadrapada", "Uttara Bhadrapada", "Revati",
}

var tithis = []string{
	"Pratipada", "Dwitiya", "Tritiya", "Chaturthi", "Panchami", "Shashthi",
	"Saptami", "Ashtami", "Navami", "Dashami", "Ekadashi", "Dwadashi",
	"Trayodashi", "Chaturdashi", "Purnima", "Pratipada", "Dwitiya", "Tritiya",
	"Chaturthi", "Panchami", "Shashthi", "Saptami", "Ashtami", "Navami",
	"Dashami", "Ekadashi", "Dwadashi", "Trayodashi", "Chaturdashi", "Amavasya",
}

// lunarDayFor derives the calendar position from the civil date. This is the
// simplified day-of-month mapping, not a proper astronomical ephemeris.
func lunarDayFor(t time.Time) LunarDay {
	day := t.Day()
	tithiNum := (day - 1) % 30

	paksha := "Shukla"
	if tithiNum >= 15 {
		paksha = "Krishna"
	}

	return LunarDay{
		Tithi:     tithis[tithiNum],
		Nakshatra: nakshatras[(day-1)%27],
		Paksha:    paksha,
		DayNumber: tithiNum + 1,
	}
}

// Influence describes how the calendar position shapes the tide.
type Influence struct {
	Strength       string  `json:"strength"`  // strong, moderate, weak
	Direction      string  `json:"direction"` // rising, falling, high, low, stable
	Risk           string  `json:"risk"`      // high, medium, low
	Amplification  float64 `json:"amplification"`
	Recommendation string  `json:"recommendation"`
}

type nakshatraTide struct {
	strength  string
	direction string
	risk      string
}

var nakshatraTides = map[string]nakshatraTide{
	"Ashwini":           {"strong", "rising", "high"},
	"Bharani":           {"moderate", "rising", "medium"},
	"Krittika":          {"strong", "high", "high"},
	"Rohini":            {"moderate", "falling", "medium"},
	"Mrigashira":        {"weak", "low", "low"},
	"Ardra":             {"strong", "rising", "high"},
	"Punarvasu":         {"moderate", "high", "medium"},
	"Pushya":            {"strong", "falling", "high"},
	"Ashlesha":          {"weak", "low", "low"},
	"Magha":             {"strong", "rising", "high"},
	"Purva Phalguni":    {"moderate", "high", "medium"},
	"Uttara Phalguni":   {"strong", "falling", "high"},
	"Hasta":             {"weak", "low", "low"},
	"Chitra":            {"strong", "rising", "high"},
	"Swati":             {"moderate", "high", "medium"},
	"Vishakha":          {"strong", "falling", "high"},
	"Anuradha":          {"weak", "low", "low"},
	"Jyeshtha":          {"strong", "rising", "high"},
	"Mula":              {"moderate", "high", "medium"},
	"Purva Ashadha":     {"strong", "falling", "high"},
	"Uttara Ashadha":    {"weak", "low", "low"},
	"Shravana":          {"strong", "rising", "high"},
	"Dhanishta":         {"moderate", "high", "medium"},
	"Shatabhisha":       {"strong", "falling", "high"},
	"Purva Bhadrapada":  {"weak", "low", "low"},
	"Uttara Bhadrapada": {"strong", "rising", "high"},
	"Revati":            {"moderate", "high", "medium"},
}

// Tithi phases that amplify the tide; full and new moon the most.
var tithiAmplification = map[string]float64{
	"Purnima":     1.5,
	"Amavasya":    1.4,
	"Chaturdashi": 1.3,
	"Ekadashi":    1.2,
	"Ashtami":     1.1,
}

func influenceFor(d LunarDay) Influence {
	base, ok := nakshatraTides[d.Nakshatra]
	if !ok {
		base = nakshatraTide{"moderate", "stable", "medium"}
	}

	amp, ok := tithiAmplification[d.Tithi]
	if !ok {
		amp = 1.0
	}

	var rec string
	switch base.risk {
	case "high":
		rec = "High tide alert - monitor coastal areas closely"
	case "medium":
		rec = "Moderate tides - normal coastal monitoring"
	default:
		rec = "Low tides - reduced coastal risk"
	}

	return Influence{
		Strength:       base.strength,
		Direction:      base.direction,
		Risk:           base.risk,
		Amplification:  amp,
		Recommendation: rec,
	}
}
