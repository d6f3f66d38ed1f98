package domain

// ConditionCode is the discrete weather state of a forecast day.
type ConditionCode int

const (
	Clear ConditionCode = iota
	PartlyCloudy
	Cloudy
	Rain
	HeavyRain
	Snow
	Thunderstorm
	Fog
	ExtremeHeat
	ExtremeCold
)

var conditionNames = [...]string{
	Clear:        "Clear",
	PartlyCloudy: "Partly Cloudy",
	Cloudy:       "Cloudy",
	Rain:         "Rain",
	HeavyRain:    "Heavy Rain",
	Snow:         "Snow",
	Thunderstorm: "Thunderstorm",
	Fog:          "Fog",
	ExtremeHeat:  "Extreme Heat",
	ExtremeCold:  "Extreme Cold",
}

func (c ConditionCode) String() string {
	if c < 0 || int(c) >= len(conditionNames) {
		return "Unknown"
	}
	return conditionNames[c]
}

// Valid reports whether c is within the 0–9 taxonomy.
func (c ConditionCode) Valid() bool {
	return c >= Clear && c <= ExtremeCold
}

// ClassifyCondition maps predicted precipitation (mm) and daily temperature
// extremes (°C) to a condition code. Rules are evaluated in order and the
// first match wins.
func ClassifyCondition(precip, tempMin, tempMax float64) ConditionCode {
	spread := tempMax - tempMin
	switch {
	case precip > 20:
		return HeavyRain
	case precip > 0 && tempMax < 2:
		return Snow
	case precip > 0:
		return Rain
	case tempMax > 35:
		return ExtremeHeat
	case tempMin < -10:
		return ExtremeCold
	case tempMin < 2 && tempMax < 5:
		return Fog
	case spread < 3:
		return Cloudy
	case spread < 7:
		return PartlyCloudy
	default:
		return Clear
	}
}
