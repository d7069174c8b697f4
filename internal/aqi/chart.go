package aqi

import "github.com/kjstillabower/airlytics/internal/models"

// Pollutant is a chart row key together with its display name and safe limit.
type Pollutant struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	SafeLimit float64 `json:"safeLimit"`
}

// SafeLimits is the static reference table, in form order.
var SafeLimits = []Pollutant{
	{Key: "pm25", Name: "PM2.5", SafeLimit: 40},
	{Key: "pm10", Name: "PM10", SafeLimit: 75},
	{Key: "no2", Name: "NO2", SafeLimit: 30},
	{Key: "co", Name: "CO", SafeLimit: 1},
	{Key: "so2", Name: "SO2", SafeLimit: 15},
	{Key: "o3", Name: "O3", SafeLimit: 40},
}

// ChartPoint pairs a submitted pollutant value with its safe limit.
type ChartPoint struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	UserValue float64 `json:"userValue"`
	SafeLimit float64 `json:"safeLimit"`
	Unsafe    bool    `json:"unsafe"`
}

// ChartSeries builds one point per pollutant in SafeLimits order.
func ChartSeries(req models.PredictionRequest) []ChartPoint {
	values := map[string]float64{
		"pm25": req.PM25,
		"pm10": req.PM10,
		"no2":  req.NO2,
		"co":   req.CO,
		"so2":  req.SO2,
		"o3":   req.O3,
	}
	points := make([]ChartPoint, 0, len(SafeLimits))
	for _, p := range SafeLimits {
		v := values[p.Key]
		points = append(points, ChartPoint{
			Key:       p.Key,
			Name:      p.Name,
			UserValue: v,
			SafeLimit: p.SafeLimit,
			Unsafe:    v > p.SafeLimit,
		})
	}
	return points
}
