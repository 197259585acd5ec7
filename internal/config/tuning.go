package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Tuning holds the scoring constants. Every field can be overridden from a TOML file.
type Tuning struct {
	YearsHistory    int     `toml:"years_history"`
	HorizonsMonths  []int   `toml:"horizons_months"`
	MinAvgVolume    float64 `toml:"min_avg_volume"`
	VolPenalty      float64 `toml:"vol_penalty"`
	LogVolWeight    float64 `toml:"logvol_weight"`
	TopN            int     `toml:"top_n"`
	TargetMultiple  float64 `toml:"target_multiple"`
	StopATRMultiple float64 `toml:"stop_atr_multiple"`
	ATRWindow       int     `toml:"atr_window"`
	VolWindow       int     `toml:"vol_window"`
	MinRows         int     `toml:"min_rows"`
}

// DefaultTuning returns the stock scoring constants.
func DefaultTuning() Tuning {
	return Tuning{
		YearsHistory:    8,
		HorizonsMonths:  []int{6, 12, 18, 24, 48},
		MinAvgVolume:    30000,
		VolPenalty:      0.5,
		LogVolWeight:    0.005,
		TopN:            10,
		TargetMultiple:  3.0,
		StopATRMultiple: 1.5,
		ATRWindow:       14,
		VolWindow:       21,
		MinRows:         10,
	}
}

// LoadTuning decodes path on top of DefaultTuning. A missing file yields the defaults.
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()
	if path == "" {
		return tuning, nil
	}

	if _, err := toml.DecodeFile(path, &tuning); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultTuning(), nil
		}
		return Tuning{}, fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}

	return tuning, nil
}

// Validate checks the tuning values for errors.
func (t Tuning) Validate() error {
	if len(t.HorizonsMonths) == 0 {
		return fmt.Errorf("at least one horizon is required")
	}
	seen := make(map[int]bool, len(t.HorizonsMonths))
	for _, h := range t.HorizonsMonths {
		if h <= 0 {
			return fmt.Errorf("horizon must be positive, got %d", h)
		}
		if seen[h] {
			return fmt.Errorf("duplicate horizon %d", h)
		}
		seen[h] = true
	}
	if t.TopN < 1 {
		return fmt.Errorf("top_n must be at least 1")
	}
	if t.MinAvgVolume < 0 {
		return fmt.Errorf("min_avg_volume must not be negative")
	}
	if t.YearsHistory < 1 {
		return fmt.Errorf("years_history must be at least 1")
	}
	if t.ATRWindow < 1 || t.VolWindow < 1 {
		return fmt.Errorf("indicator windows must be at least 1")
	}
	if t.MinRows < 2 {
		return fmt.Errorf("min_rows must be at least 2")
	}
	return nil
}
