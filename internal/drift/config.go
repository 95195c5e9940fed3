package drift

import (
	"github.com/inferloop/datadrift/internal/validation/tests"
	"github.com/inferloop/datadrift/pkg/constants"
)

// DriftConfig holds the thresholds used for per-column verdicts and the
// aggregate decision
type DriftConfig struct {
	SignificanceLevel       float64 `json:"significance_level" mapstructure:"significance_level"`
	KSScoreThreshold        float64 `json:"ks_score_threshold" mapstructure:"ks_score_threshold"`
	ChiSquareScoreThreshold float64 `json:"chi_square_score_threshold" mapstructure:"chi_square_score_threshold"`
	DriftShareThreshold     float64 `json:"drift_share_threshold" mapstructure:"drift_share_threshold"`
	OverallScoreThreshold   float64 `json:"overall_score_threshold" mapstructure:"overall_score_threshold"`
	MinSamples              int     `json:"min_samples" mapstructure:"min_samples"`
	PSIBins                 int     `json:"psi_bins" mapstructure:"psi_bins"`
	PSISmoothing            float64 `json:"psi_smoothing" mapstructure:"psi_smoothing"`
	Workers                 int     `json:"workers" mapstructure:"workers"`
}

// DefaultDriftConfig returns the default thresholds
func DefaultDriftConfig() *DriftConfig {
	return &DriftConfig{
		SignificanceLevel:       constants.DefaultSignificanceLevel,
		KSScoreThreshold:        constants.DefaultKSScoreThreshold,
		ChiSquareScoreThreshold: constants.DefaultChiSquareScoreThreshold,
		DriftShareThreshold:     constants.DefaultDriftShareThreshold,
		OverallScoreThreshold:   constants.DefaultOverallScoreThreshold,
		MinSamples:              constants.MinDriftSamples,
		PSIBins:                 constants.DefaultPSIBins,
		PSISmoothing:            constants.DefaultPSISmoothing,
	}
}

// normalize fills unset fields with defaults
func (c *DriftConfig) normalize() {
	d := DefaultDriftConfig()
	if c.SignificanceLevel <= 0 || c.SignificanceLevel >= 1 {
		c.SignificanceLevel = d.SignificanceLevel
	}
	if c.KSScoreThreshold <= 0 {
		c.KSScoreThreshold = d.KSScoreThreshold
	}
	if c.ChiSquareScoreThreshold <= 0 {
		c.ChiSquareScoreThreshold = d.ChiSquareScoreThreshold
	}
	if c.DriftShareThreshold <= 0 {
		c.DriftShareThreshold = d.DriftShareThreshold
	}
	if c.OverallScoreThreshold <= 0 {
		c.OverallScoreThreshold = d.OverallScoreThreshold
	}
	if c.MinSamples < 1 {
		c.MinSamples = d.MinSamples
	}
	if c.PSIBins < 1 {
		c.PSIBins = d.PSIBins
	}
	if c.PSISmoothing <= 0 {
		c.PSISmoothing = d.PSISmoothing
	}
}

func (c *DriftConfig) psiConfig() tests.PSIConfig {
	return tests.PSIConfig{Bins: c.PSIBins, Smoothing: c.PSISmoothing}
}
