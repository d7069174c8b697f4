// Package aqi derives display data from a prediction: the status band, the
// health advice that goes with it, and the pollutant comparison chart.
package aqi

import "math"

// Band is one contiguous AQI range. A value belongs to the first band whose
// MaxAQI it does not exceed.
type Band struct {
	MaxAQI float64 `json:"maxAqi"`
	Label  string  `json:"label"`
	Hint   string  `json:"hint"`
	Emoji  string  `json:"emoji"`
	Advice string  `json:"advice"`
}

// Bands is ordered by ascending MaxAQI. The last band is unbounded.
var Bands = []Band{
	{MaxAQI: 50, Label: "Good", Hint: "green", Emoji: "🏃", Advice: "Air is great! Perfect time for a run or outdoor yoga."},
	{MaxAQI: 100, Label: "Satisfactory", Hint: "lime", Emoji: "🙂", Advice: "Air is okay. Sensitive people should be careful."},
	{MaxAQI: 200, Label: "Moderate", Hint: "yellow", Emoji: "😷", Advice: "Wear a mask if you have asthma. Reduce long outdoor activities."},
	{MaxAQI: 300, Label: "Poor", Hint: "orange", Emoji: "⚠️", Advice: "Unhealthy! Avoid outdoor exercise. Keep windows closed."},
	{MaxAQI: 400, Label: "Very Poor", Hint: "red", Emoji: "☠️", Advice: "Very Poor! Stay indoors. Use an Air Purifier immediately."},
	{MaxAQI: math.Inf(1), Label: "Severe", Hint: "purple", Emoji: "☣️", Advice: "Hazardous! Emergency conditions. Do not go outside."},
}

// Classify returns the band for value. Values that compare false against every
// threshold (NaN) land in the last band.
func Classify(value float64) Band {
	for _, b := range Bands[:len(Bands)-1] {
		if value <= b.MaxAQI {
			return b
		}
	}
	return Bands[len(Bands)-1]
}

// Advice returns the health advice for value. It reads the same table as Classify.
func Advice(value float64) string {
	return Classify(value).Advice
}

// DisplayAQI rounds a predicted AQI for the result card.
func DisplayAQI(value float64) int {
	return int(math.Round(value))
}
