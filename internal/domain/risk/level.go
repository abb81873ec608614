package risk

import (
	"fmt"

	"github.com/propshield/climarisk/pkg/errors"
)

// RiskLevel is the categorical label for a numeric 0-100 score.
type RiskLevel string

const (
	LevelVeryLow  RiskLevel = "very_low"
	LevelLow      RiskLevel = "low"
	LevelModerate RiskLevel = "moderate"
	LevelHigh     RiskLevel = "high"
	LevelVeryHigh RiskLevel = "very_high"

	// LevelUnknown is the sentinel for a hazard with no contributing sources.
	// A nil score always classifies to LevelUnknown, never to a numeric band.
	LevelUnknown RiskLevel = "unknown"
)

// RiskLevelBand is one inclusive integer range of the 0-100 scale with its
// display attributes.
type RiskLevelBand struct {
	Level       RiskLevel `mapstructure:"level" json:"level"`
	Min         int       `mapstructure:"min" json:"min"`
	Max         int       `mapstructure:"max" json:"max"`
	Color       string    `mapstructure:"color" json:"color"`
	Description string    `mapstructure:"description" json:"description"`
}

// RiskLevelBands is the ordered set of bands covering [0,100].
type RiskLevelBands []RiskLevelBand

// DefaultRiskLevelBands returns the standard five-band scale.
func DefaultRiskLevelBands() RiskLevelBands {
	return RiskLevelBands{
		{Level: LevelVeryLow, Min: 0, Max: 19, Color: "#2e7d32", Description: "Minimal exposure; no special mitigation indicated"},
		{Level: LevelLow, Min: 20, Max: 39, Color: "#8bc34a", Description: "Below-average exposure; standard precautions suffice"},
		{Level: LevelModerate, Min: 40, Max: 59, Color: "#fbc02d", Description: "Average exposure; mitigation worth evaluating"},
		{Level: LevelHigh, Min: 60, Max: 79, Color: "#f57c00", Description: "Elevated exposure; mitigation strongly recommended"},
		{Level: LevelVeryHigh, Min: 80, Max: 100, Color: "#c62828", Description: "Severe exposure; mitigation and insurance review required"},
	}
}

// Validate checks that the bands are ordered, non-overlapping, and cover the
// entire [0,100] range with no gaps.  A failure is a structural (fatal)
// configuration error.
func (b RiskLevelBands) Validate() error {
	if len(b) == 0 {
		return errors.New(errors.ErrCodeRiskBandsInvalid, "risk level bands are empty")
	}
	if b[0].Min != 0 {
		return errors.New(errors.ErrCodeRiskBandsInvalid,
			fmt.Sprintf("first band %s starts at %d, expected 0", b[0].Level, b[0].Min))
	}
	for i, band := range b {
		if band.Min > band.Max {
			return errors.New(errors.ErrCodeRiskBandsInvalid,
				fmt.Sprintf("band %s has min %d > max %d", band.Level, band.Min, band.Max))
		}
		if i > 0 && band.Min != b[i-1].Max+1 {
			return errors.New(errors.ErrCodeRiskBandsInvalid,
				fmt.Sprintf("band %s starts at %d, expected %d (contiguous with %s)",
					band.Level, band.Min, b[i-1].Max+1, b[i-1].Level))
		}
	}
	if last := b[len(b)-1]; last.Max != 100 {
		return errors.New(errors.ErrCodeRiskBandsInvalid,
			fmt.Sprintf("last band %s ends at %d, expected 100", last.Level, last.Max))
	}
	return nil
}

// Classify maps a score to its band's level.  A nil score maps to
// LevelUnknown; a missing hazard assessment is categorically different from a
// confirmed low-risk one.  Out-of-range scores are clamped into [0,100]
// before lookup.
func (b RiskLevelBands) Classify(score *int) RiskLevel {
	if score == nil {
		return LevelUnknown
	}
	s := *score
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	for _, band := range b {
		if s >= band.Min && s <= band.Max {
			return band.Level
		}
	}
	// Unreachable when Validate has passed.
	return LevelUnknown
}

// Band returns the band carrying the given level, or false when the level is
// not part of the scale (including LevelUnknown).
func (b RiskLevelBands) Band(level RiskLevel) (RiskLevelBand, bool) {
	for _, band := range b {
		if band.Level == level {
			return band, true
		}
	}
	return RiskLevelBand{}, false
}
