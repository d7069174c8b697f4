package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/airlytics/internal/controller"
	"github.com/kjstillabower/airlytics/internal/models"
	"github.com/kjstillabower/airlytics/internal/payload"
	"github.com/kjstillabower/airlytics/internal/temperature"
	"github.com/kjstillabower/airlytics/internal/theme"
)

type mockPredictor struct {
	result models.PredictionResult
	err    error
}

func (m *mockPredictor) Predict(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error) {
	if m.err != nil {
		return models.PredictionResult{}, m.err
	}
	res := m.result
	res.InputCity = req.Region
	return res, nil
}

type mockFetcher struct {
	celsius float64
	err     error
}

func (m *mockFetcher) Temperature(ctx context.Context, region string) (float64, error) {
	return m.celsius, m.err
}

func newTestDashboard(t *testing.T, p *mockPredictor, f *mockFetcher) (*Dashboard, theme.Store) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.November, 2, 8, 0, 0, 0, time.UTC))
	ctrl := controller.New(p, controller.WithClock(clock))
	t.Cleanup(ctrl.Close)

	store := theme.NewInMemoryStore()
	th := theme.New(store, nil)
	th.Load(context.Background())

	d := NewDashboard(payload.NewBuilder(clock), ctrl, temperature.New(f, clock, nil), th, nil)
	return d, store
}

func form() url.Values {
	return url.Values{
		"state": {"Delhi"},
		"pm25":  {"35"},
		"pm10":  {"70"},
		"no2":   {"25"},
		"co":    {"0.8"},
		"so2":   {"10"},
		"o3":    {"35"},
	}
}

func TestDashboard_SubmitSuccess(t *testing.T) {
	d, _ := newTestDashboard(t, &mockPredictor{result: models.PredictionResult{PredictedAQI: 45, AirQualityStatus: "Good"}}, &mockFetcher{})

	gen, view, err := d.Submit(context.Background(), form())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)
	assert.Contains(t, []string{"loading", "success"}, view.Phase)

	require.Eventually(t, func() bool { return d.View().Phase == "success" }, 2*time.Second, time.Millisecond)
	v := d.View()
	require.NotNil(t, v.Result)
	assert.Equal(t, 45, v.Result.DisplayAQI)
	assert.Equal(t, "Delhi", v.Result.InputCity)
	assert.False(t, v.Placeholder)
}

func TestDashboard_SubmitValidationError(t *testing.T) {
	d, _ := newTestDashboard(t, &mockPredictor{}, &mockFetcher{})

	f := form()
	f.Set("co", "abc")
	gen, view, err := d.Submit(context.Background(), f)

	var verr *payload.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "co", verr.Field)
	assert.Zero(t, gen)
	assert.Equal(t, "idle", view.Phase, "rejected form never enters loading")
}

func TestDashboard_SubmitFailureShowsFixedMessage(t *testing.T) {
	d, _ := newTestDashboard(t, &mockPredictor{err: errors.New("connection refused")}, &mockFetcher{})

	_, _, err := d.Submit(context.Background(), form())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return d.View().Phase == "error" }, 2*time.Second, time.Millisecond)
	v := d.View()
	assert.Equal(t, controller.ErrorMessage, v.Error)
	assert.Nil(t, v.Result)

	assert.True(t, d.Reset())
	assert.Equal(t, "idle", d.View().Phase)
}

func TestDashboard_SelectRegion(t *testing.T) {
	fetcher := &mockFetcher{celsius: 31}
	d, _ := newTestDashboard(t, &mockPredictor{}, fetcher)

	got := d.SelectRegion(context.Background(), "Delhi")
	require.NotNil(t, got)
	assert.Equal(t, 31.0, got.Celsius)
	assert.Equal(t, "Delhi", d.View().Temperature.Region)

	fetcher.err = errors.New("down")
	assert.Nil(t, d.SelectRegion(context.Background(), "Mumbai"))
	assert.Nil(t, d.View().Temperature)
}

func TestDashboard_ToggleTheme(t *testing.T) {
	d, store := newTestDashboard(t, &mockPredictor{}, &mockFetcher{})
	assert.Equal(t, theme.Dark, d.Theme())

	assert.Equal(t, theme.Light, d.ToggleTheme(context.Background()))
	stored, ok, err := store.Get(context.Background(), theme.Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "light", stored)
	assert.Equal(t, theme.Light, d.View().Theme)
}

func TestDashboard_Regions(t *testing.T) {
	d, _ := newTestDashboard(t, &mockPredictor{}, &mockFetcher{})
	regions := d.Regions()
	assert.Contains(t, regions, "Delhi")
	assert.Len(t, regions, len(payload.SupportedRegions()))
}
