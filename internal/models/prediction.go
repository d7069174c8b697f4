package models

// PredictionRequest is the body sent to the prediction service. Field names
// follow the service contract; Region travels as "state".
type PredictionRequest struct {
	Region string  `json:"state" validate:"required"`
	Month  int     `json:"month" validate:"gte=1,lte=12"`
	PM25   float64 `json:"pm25" validate:"gte=0"`
	PM10   float64 `json:"pm10" validate:"gte=0"`
	NO2    float64 `json:"no2" validate:"gte=0"`
	CO     float64 `json:"co" validate:"gte=0"`
	SO2    float64 `json:"so2" validate:"gte=0"`
	O3     float64 `json:"o3" validate:"gte=0"`
}

// PredictionResult is the prediction service response, trusted as decoded.
type PredictionResult struct {
	PredictedAQI     float64 `json:"predicted_aqi"`
	AirQualityStatus string  `json:"air_quality_status"`
	InputCity        string  `json:"input_city"`
}
