package score

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds every tunable threshold used by the scorers.
// The leeward floor and the melt half-life are heuristics, not physics.
type Config struct {
	Rime    RimeConfig    `json:"rime" yaml:"rime"`
	Verglas VerglasConfig `json:"verglas" yaml:"verglas"`
}

// RimeConfig holds the rime scorer thresholds.
type RimeConfig struct {
	// TempViableMin is the coldest temperature (°C) at which rime still forms.
	TempViableMin float64 `json:"temp_viable_min" yaml:"temp_viable_min"`
	// TempOptimalMin is the cold edge of the optimal band (°C).
	TempOptimalMin float64 `json:"temp_optimal_min" yaml:"temp_optimal_min" validate:"gtfield=TempViableMin"`
	// TempOptimalMax is the warm edge of the optimal band (°C).
	TempOptimalMax float64 `json:"temp_optimal_max" yaml:"temp_optimal_max" validate:"gtefield=TempOptimalMin"`
	// TempViableMax is the warmest temperature (°C) at which rime still forms.
	TempViableMax float64 `json:"temp_viable_max" yaml:"temp_viable_max" validate:"gtfield=TempOptimalMax"`
	// HumidityThreshold is the relative humidity (%) below which no rime forms.
	HumidityThreshold float64 `json:"humidity_threshold" yaml:"humidity_threshold" validate:"gte=0,lt=100"`
	// WindSaturation is the wind speed (m/s) at which the wind factor reaches 1.
	WindSaturation float64 `json:"wind_saturation_ms" yaml:"wind_saturation_ms" validate:"gt=0"`
	// LeewardFloor is the aspect factor of faces pointing away from the wind.
	LeewardFloor float64 `json:"leeward_floor" yaml:"leeward_floor" validate:"gte=0,lte=1"`
}

// VerglasConfig holds the melt-freeze detector thresholds.
type VerglasConfig struct {
	// RefreezeStart is the temperature (°C) at and above which nothing refreezes.
	RefreezeStart float64 `json:"refreeze_start_c" yaml:"refreeze_start_c"`
	// RefreezeFull is the temperature (°C) at and below which refreeze is complete.
	RefreezeFull float64 `json:"refreeze_full_c" yaml:"refreeze_full_c" validate:"ltfield=RefreezeStart"`
	// LookbackHours is the trailing window inspected for melt.
	LookbackHours int `json:"lookback_hours" yaml:"lookback_hours" validate:"gt=0"`
	// MinHistoryHours is the history the window must cover before scoring.
	MinHistoryHours int `json:"min_history_hours" yaml:"min_history_hours" validate:"gte=0,ltefield=LookbackHours"`
	// MeltThreshold is the temperature (°C) above which a sample counts as melt.
	MeltThreshold float64 `json:"melt_threshold_c" yaml:"melt_threshold_c"`
	// MeltHalfLifeHours is the age at which a melt sample weighs half.
	MeltHalfLifeHours float64 `json:"melt_half_life_hours" yaml:"melt_half_life_hours" validate:"gt=0"`
	// MeltIntensityScale is the melt temperature excess (°C) counted as full intensity.
	MeltIntensityScale float64 `json:"melt_intensity_scale_c" yaml:"melt_intensity_scale_c" validate:"gt=0"`
	// MeltSaturation is the decayed melt sum that saturates the melt factor.
	MeltSaturation float64 `json:"melt_saturation" yaml:"melt_saturation" validate:"gt=0"`
	// RainSaturationMM is the rain during melt (mm) giving the full rain boost.
	RainSaturationMM float64 `json:"rain_saturation_mm" yaml:"rain_saturation_mm" validate:"gt=0"`
	// DryFloor bounds the share of the base score reachable without rain.
	DryFloor float64 `json:"dry_floor" yaml:"dry_floor" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the thresholds tuned for Scottish winter climbing.
func DefaultConfig() Config {
	return Config{
		Rime: RimeConfig{
			TempViableMin:     -15,
			TempOptimalMin:    -10,
			TempOptimalMax:    -2,
			TempViableMax:     0,
			HumidityThreshold: 85,
			WindSaturation:    25,
			LeewardFloor:      0.1,
		},
		Verglas: VerglasConfig{
			RefreezeStart:      0,
			RefreezeFull:       -3,
			LookbackHours:      24,
			MinHistoryHours:    12,
			MeltThreshold:      0,
			MeltHalfLifeHours:  18,
			MeltIntensityScale: 5,
			MeltSaturation:     1,
			RainSaturationMM:   2,
			DryFloor:           0.7,
		},
	}
}

// Validate checks the thresholds are usable by the scorers.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid scoring config: %w", err)
	}
	return nil
}
