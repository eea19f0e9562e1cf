package render

// CumulativeScale is the cumulative total rendered with the top color.
const CumulativeScale = 5.0

// NoneColor is used for a rate of zero.
const NoneColor = "#e8e8e8"

// Step is one band of the color ramp.
type Step struct {
	Below float64 `json:"below"`
	Color string  `json:"color"`
	Label string  `json:"label"`
}

// Ramp lists the bands above zero, lowest first. The last band is open ended.
var Ramp = []Step{
	{Below: 0.2, Color: "#a8e6cf", Label: "Low"},
	{Below: 0.4, Color: "#dcedc1", Label: "Light"},
	{Below: 0.6, Color: "#ffd3a5", Label: "Moderate"},
	{Below: 0.8, Color: "#ffaaa5", Label: "High"},
	{Below: 0, Color: "#ff6b6b", Label: "Very high"},
}

// ColorFor maps a rate to its ramp color. Cumulative totals are scaled down
// by CumulativeScale first.
func ColorFor(rate float64, cumulative bool) string {
	if cumulative {
		rate = min(rate/CumulativeScale, 1)
	}
	if rate <= 0 {
		return NoneColor
	}
	for _, s := range Ramp[:len(Ramp)-1] {
		if rate < s.Below {
			return s.Color
		}
	}
	return Ramp[len(Ramp)-1].Color
}
