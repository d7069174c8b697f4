package service

import (
	"github.com/kjstillabower/airlytics/internal/aqi"
	"github.com/kjstillabower/airlytics/internal/controller"
	"github.com/kjstillabower/airlytics/internal/models"
	"github.com/kjstillabower/airlytics/internal/theme"
)

// View is everything the front end needs to render one frame.
type View struct {
	Phase          string           `json:"phase"`
	Generation     uint64           `json:"generation"`
	LoadingMessage string           `json:"loadingMessage,omitempty"`
	Error          string           `json:"error,omitempty"`
	Result         *ResultCard      `json:"result,omitempty"`
	Advice         *AdviceCard      `json:"advice,omitempty"`
	Chart          []aqi.ChartPoint `json:"chart,omitempty"`
	Placeholder    bool             `json:"placeholder"`
	Temperature    *Temperature     `json:"temperature"`
	Theme          theme.Preference `json:"theme"`
	SafeLimits     []aqi.Pollutant  `json:"safeLimits"`
}

// ResultCard is the headline of a successful prediction.
type ResultCard struct {
	DisplayAQI   int     `json:"displayAqi"`
	PredictedAQI float64 `json:"predictedAqi"`
	Status       string  `json:"status"`
	InputCity    string  `json:"inputCity"`
	Band         string  `json:"band"`
	Hint         string  `json:"hint"`
}

// AdviceCard is the health guidance for the predicted band.
type AdviceCard struct {
	Text  string `json:"text"`
	Emoji string `json:"emoji"`
}

// Temperature is the lookup reading as shown next to the region selector.
type Temperature struct {
	Region  string  `json:"region"`
	Celsius float64 `json:"celsius"`
}

// Derive builds a View from a controller snapshot, the current temperature
// reading and the theme. It has no side effects.
func Derive(st controller.State, reading models.TemperatureReading, hasReading bool, pref theme.Preference) View {
	v := View{
		Phase:      st.Phase.String(),
		Generation: st.Generation,
		Theme:      pref,
		SafeLimits: aqi.SafeLimits,
	}
	if hasReading {
		v.Temperature = &Temperature{Region: reading.Region, Celsius: reading.Celsius}
	}

	switch st.Phase {
	case controller.PhaseLoading:
		v.LoadingMessage = st.LoadingMessage
	case controller.PhaseError:
		v.Error = st.Err
	case controller.PhaseSuccess:
		if st.Result == nil {
			break
		}
		band := aqi.Classify(st.Result.PredictedAQI)
		v.Result = &ResultCard{
			DisplayAQI:   aqi.DisplayAQI(st.Result.PredictedAQI),
			PredictedAQI: st.Result.PredictedAQI,
			Status:       st.Result.AirQualityStatus,
			InputCity:    st.Result.InputCity,
			Band:         band.Label,
			Hint:         band.Hint,
		}
		v.Advice = &AdviceCard{Text: band.Advice, Emoji: band.Emoji}
		if st.Input != nil {
			v.Chart = aqi.ChartSeries(*st.Input)
		}
	}
	v.Placeholder = st.Phase != controller.PhaseLoading && v.Result == nil && v.Error == ""
	return v
}
