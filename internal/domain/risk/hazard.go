// Package risk contains the climate-hazard scoring domain: canonical source
// records, hazard configuration, risk-level bands, and the pure scoring
// functions that turn normalized provider data into per-hazard and overall
// risk scores.  The package performs no I/O; everything here is deterministic
// computation over already-fetched data.
package risk

import (
	"fmt"

	"github.com/propshield/climarisk/pkg/errors"
)

// HazardType identifies a category of climate risk.
type HazardType string

const (
	HazardFlood      HazardType = "flood"
	HazardWildfire   HazardType = "wildfire"
	HazardHurricane  HazardType = "hurricane"
	HazardEarthquake HazardType = "earthquake"
	HazardHeat       HazardType = "heat"
	HazardDrought    HazardType = "drought"
	HazardTornado    HazardType = "tornado"
)

// AllHazardTypes returns the canonical ordered list of supported hazard types.
func AllHazardTypes() []HazardType {
	return []HazardType{
		HazardFlood,
		HazardWildfire,
		HazardHurricane,
		HazardEarthquake,
		HazardHeat,
		HazardDrought,
		HazardTornado,
	}
}

// HazardTypeConfig is the operator-maintained configuration for one hazard
// type: which providers are authoritative, how much the hazard contributes to
// the overall score, and an optional scaling multiplier on the raw weighted
// score.
type HazardTypeConfig struct {
	// PrimarySources lists sourceIDs whose reports carry full weight.
	PrimarySources []string `mapstructure:"primary_sources" json:"primary_sources"`

	// SecondarySources lists sourceIDs whose reports are down-weighted by
	// exactly half before recency is applied.  Must be disjoint from
	// PrimarySources.
	SecondarySources []string `mapstructure:"secondary_sources" json:"secondary_sources"`

	// Weight is the hazard's importance in the overall score, in [0,1].
	// Weights across hazard types need not sum to 1; the aggregator
	// renormalizes.
	Weight float64 `mapstructure:"weight" json:"weight"`

	// ScalingFactor multiplies the raw weighted score.  Zero means "unset"
	// and is treated as 1.0.
	ScalingFactor float64 `mapstructure:"scaling_factor" json:"scaling_factor"`
}

// EffectiveScalingFactor returns ScalingFactor, defaulting to 1.0 when unset.
func (c HazardTypeConfig) EffectiveScalingFactor() float64 {
	if c.ScalingFactor == 0 {
		return 1.0
	}
	return c.ScalingFactor
}

// Validate checks the structural invariants of a single hazard config.
func (c HazardTypeConfig) Validate(hazard HazardType) error {
	if c.Weight < 0 || c.Weight > 1 {
		return errors.NewConfiguration(
			fmt.Sprintf("hazard %s: weight %.3f is out of range [0,1]", hazard, c.Weight))
	}
	if c.ScalingFactor < 0 {
		return errors.NewConfiguration(
			fmt.Sprintf("hazard %s: scaling_factor %.3f is negative", hazard, c.ScalingFactor))
	}
	primary := make(map[string]struct{}, len(c.PrimarySources))
	for _, id := range c.PrimarySources {
		if _, dup := primary[id]; dup {
			return errors.NewConfiguration(
				fmt.Sprintf("hazard %s: source %q listed twice in primary_sources", hazard, id))
		}
		primary[id] = struct{}{}
	}
	for _, id := range c.SecondarySources {
		if _, overlap := primary[id]; overlap {
			return errors.NewConfiguration(
				fmt.Sprintf("hazard %s: source %q appears in both primary and secondary sources", hazard, id))
		}
	}
	return nil
}

// HazardConfigSet maps hazard types to their configuration.  It is static for
// the lifetime of an engine instance.
type HazardConfigSet map[HazardType]HazardTypeConfig

// Validate checks every hazard config and rejects an empty set.  A validation
// failure here is a structural (fatal) error: it must abort before any
// scoring occurs.
func (s HazardConfigSet) Validate() error {
	if len(s) == 0 {
		return errors.New(errors.ErrCodeHazardConfigInvalid, "hazard configuration is empty")
	}
	for hazard, cfg := range s {
		if err := cfg.Validate(hazard); err != nil {
			return err
		}
	}
	return nil
}

// SourceReliability maps a sourceID to a reliability weight in (0,1].
type SourceReliability map[string]float64

// unknownSourceReliability is the weight assigned to sources that have no
// configured reliability.
const unknownSourceReliability = 0.5

// Reliability returns the configured weight for sourceID, defaulting to 0.5
// for unknown sources.
func (r SourceReliability) Reliability(sourceID string) float64 {
	if w, ok := r[sourceID]; ok {
		return w
	}
	return unknownSourceReliability
}

// Validate rejects reliability weights outside (0,1].
func (r SourceReliability) Validate() error {
	for id, w := range r {
		if w <= 0 || w > 1 {
			return errors.NewConfiguration(
				fmt.Sprintf("source %q: reliability %.3f is out of range (0,1]", id, w))
		}
	}
	return nil
}

// DefaultHazardConfigs returns the built-in hazard configuration used when the
// operator supplies none.  Source names follow the well-known public and
// commercial hazard data providers.
func DefaultHazardConfigs() HazardConfigSet {
	return HazardConfigSet{
		HazardFlood: {
			PrimarySources:   []string{"FEMA_NRI", "FirstStreet"},
			SecondarySources: []string{"ClimateCheck"},
			Weight:           0.25,
		},
		HazardWildfire: {
			PrimarySources:   []string{"USFS_WHP", "FirstStreet"},
			SecondarySources: []string{"ClimateCheck"},
			Weight:           0.20,
		},
		HazardHurricane: {
			PrimarySources:   []string{"NOAA_HURDAT", "FEMA_NRI"},
			SecondarySources: []string{"ClimateCheck"},
			Weight:           0.15,
		},
		HazardEarthquake: {
			PrimarySources:   []string{"USGS_SHM", "FEMA_NRI"},
			SecondarySources: nil,
			Weight:           0.10,
		},
		HazardHeat: {
			PrimarySources:   []string{"NOAA_NORMALS", "FirstStreet"},
			SecondarySources: []string{"ClimateCheck"},
			Weight:           0.15,
		},
		HazardDrought: {
			PrimarySources:   []string{"USDM", "NOAA_NORMALS"},
			SecondarySources: nil,
			Weight:           0.10,
		},
		HazardTornado: {
			PrimarySources:   []string{"NOAA_SPC", "FEMA_NRI"},
			SecondarySources: nil,
			Weight:           0.05,
		},
	}
}

// DefaultSourceReliabilities returns the built-in reliability table.
func DefaultSourceReliabilities() SourceReliability {
	return SourceReliability{
		"FEMA_NRI":     0.95,
		"USGS_SHM":     0.95,
		"NOAA_HURDAT":  0.93,
		"NOAA_SPC":     0.92,
		"NOAA_NORMALS": 0.90,
		"USFS_WHP":     0.90,
		"USDM":         0.90,
		"FirstStreet":  0.90,
		"ClimateCheck": 0.80,
	}
}
