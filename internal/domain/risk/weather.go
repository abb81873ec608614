package risk

import "math"

// WeatherFactor names one of the four weather-context multipliers.
type WeatherFactor string

const (
	FactorHistoricalFrequency WeatherFactor = "historical_frequency"
	FactorSeasonal            WeatherFactor = "seasonal_factor"
	FactorClimateTrend        WeatherFactor = "climate_trend"
	FactorCurrentConditions   WeatherFactor = "current_conditions"
)

// weatherFactorOrder is the declaration order used to break dominance ties.
var weatherFactorOrder = []WeatherFactor{
	FactorHistoricalFrequency,
	FactorSeasonal,
	FactorClimateTrend,
	FactorCurrentConditions,
}

// WeatherAdjustmentFactors carries the per-hazard weather multipliers supplied
// by the weather-context collaborator.  Each factor is centered at 1.0
// (neutral).  Combined, when non-zero, is the collaborator's pre-combined
// multiplier; when zero the engine combines the four factors multiplicatively.
type WeatherAdjustmentFactors struct {
	HistoricalFrequency float64 `json:"historical_frequency"`
	SeasonalFactor      float64 `json:"seasonal_factor"`
	ClimateTrend        float64 `json:"climate_trend"`
	CurrentConditions   float64 `json:"current_conditions"`
	Combined            float64 `json:"combined,omitempty"`
}

// factorValue returns the named factor, treating an unset (zero) factor as
// the neutral 1.0.
func (f WeatherAdjustmentFactors) factorValue(name WeatherFactor) float64 {
	var v float64
	switch name {
	case FactorHistoricalFrequency:
		v = f.HistoricalFrequency
	case FactorSeasonal:
		v = f.SeasonalFactor
	case FactorClimateTrend:
		v = f.ClimateTrend
	case FactorCurrentConditions:
		v = f.CurrentConditions
	}
	if v == 0 {
		return 1.0
	}
	return v
}

// CombinedMultiplier returns the multiplier to apply to a base score: the
// collaborator's pre-combined value when supplied, otherwise the product of
// the four factors.
func (f WeatherAdjustmentFactors) CombinedMultiplier() float64 {
	if f.Combined > 0 {
		return f.Combined
	}
	return f.factorValue(FactorHistoricalFrequency) *
		f.factorValue(FactorSeasonal) *
		f.factorValue(FactorClimateTrend) *
		f.factorValue(FactorCurrentConditions)
}

// WeatherAdjustment is the result of applying weather context to one hazard's
// base score, with the per-factor breakdown kept for explanation.
type WeatherAdjustment struct {
	BaseScore          int                       `json:"base_score"`
	AdjustedScore      int                       `json:"adjusted_score"`
	CombinedMultiplier float64                   `json:"combined_multiplier"`
	DominantFactor     WeatherFactor             `json:"dominant_factor"`
	Factors            map[WeatherFactor]float64 `json:"factors"`
}

// AdjustForWeather re-weights a hazard's base score using the supplied
// factors: adjusted = clamp(round(base × combinedMultiplier), 0, 100).
//
// The dominant factor — reported for human-readable explanations — is the
// factor with the largest |value − 1.0|; ties are broken by declaration order
// (historical_frequency, seasonal_factor, climate_trend, current_conditions).
func AdjustForWeather(baseScore int, factors WeatherAdjustmentFactors) WeatherAdjustment {
	multiplier := factors.CombinedMultiplier()
	adjusted := int(math.Round(clampScore(float64(baseScore) * multiplier)))

	dominant := weatherFactorOrder[0]
	maxDeviation := -1.0
	breakdown := make(map[WeatherFactor]float64, len(weatherFactorOrder))
	for _, name := range weatherFactorOrder {
		value := factors.factorValue(name)
		breakdown[name] = value
		if deviation := math.Abs(value - 1.0); deviation > maxDeviation {
			maxDeviation = deviation
			dominant = name
		}
	}

	return WeatherAdjustment{
		BaseScore:          baseScore,
		AdjustedScore:      adjusted,
		CombinedMultiplier: round2(multiplier),
		DominantFactor:     dominant,
		Factors:            breakdown,
	}
}
