package models

import "math"

// ThresholdPolicy maps a zoom level to a path percentile threshold.
type ThresholdPolicy struct {
	BaseZoom         float64 `yaml:"base_zoom" json:"baseZoom"`
	InitialThreshold float64 `yaml:"initial_threshold" json:"initialThreshold"`
	Sensitivity      float64 `yaml:"sensitivity" json:"sensitivity"`
}

// RadiusFormula sizes a bubble marker as Offset + sqrt(count * Scale).
type RadiusFormula struct {
	Offset float64 `yaml:"offset" json:"offset"`
	Scale  float64 `yaml:"scale" json:"scale"`
}

// Radius returns the marker radius for count.
func (f RadiusFormula) Radius(count int) float64 {
	return f.Offset + math.Sqrt(float64(count)*f.Scale)
}

// ThicknessScale maps a colour bucket to a line weight.
type ThicknessScale struct {
	Base float64 `yaml:"base" json:"base"`
	Step float64 `yaml:"step" json:"step"`
}

// Weight returns the line weight for bucket.
func (s ThicknessScale) Weight(bucket int) float64 {
	return s.Base + float64(bucket)*s.Step
}

// RenderProfile is one versioned set of renderer options.
type RenderProfile struct {
	Name        string          `yaml:"name" json:"name"`
	Threshold   ThresholdPolicy `yaml:"threshold" json:"threshold"`
	Radius      RadiusFormula   `yaml:"marker_radius" json:"markerRadius"`
	Thickness   ThicknessScale  `yaml:"thickness" json:"thickness"`
	ColorSteps  int             `yaml:"color_steps" json:"colorSteps"`
	RankingSize int             `yaml:"ranking_size" json:"rankingSize"`
}
