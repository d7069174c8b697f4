package models

import "time"

// TemperatureReading is the ambient temperature last fetched for a region.
type TemperatureReading struct {
	Region    string    `json:"region"`
	Celsius   float64   `json:"celsius"`
	FetchedAt time.Time `json:"fetchedAt"`
}
