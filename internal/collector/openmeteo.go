package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

var (
	ErrCityNotFound = errors.New("city not found")
	errUnexpected   = errors.New("unexpected status code")
	errServerError  = errors.New("server error")
)

// Place is a geocoded city.
type Place struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Current is the subset of an Open-Meteo forecast the collector publishes.
type Current struct {
	Time               string
	TemperatureC       float64
	WindSpeedKmh       float64
	WeatherCode        int
	HumidityPct        *float64
	RainProbabilityPct *float64
}

// OpenMeteo talks to the Open-Meteo geocoding and forecast APIs.
type OpenMeteo struct {
	forecastURL string
	geocodeURL  string
	client      *http.Client
	circuit     *gobreaker.CircuitBreaker
}

func NewOpenMeteo(forecastURL, geocodeURL string, client *http.Client) *OpenMeteo {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	})
	return &OpenMeteo{
		forecastURL: forecastURL,
		geocodeURL:  geocodeURL,
		client:      client,
		circuit:     cb,
	}
}

// Geocode resolves name to the best matching place.
func (o *OpenMeteo) Geocode(ctx context.Context, name string) (Place, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("format", "json")

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := o.getJSON(ctx, o.geocodeURL+"?"+q.Encode(), &payload); err != nil {
		return Place{}, fmt.Errorf("geocode %q: %w", name, err)
	}
	if len(payload.Results) == 0 {
		return Place{}, fmt.Errorf("%w: %s", ErrCityNotFound, name)
	}
	r := payload.Results[0]
	return Place{Name: r.Name, Latitude: r.Latitude, Longitude: r.Longitude}, nil
}

// Current fetches current weather for p. Humidity and rain probability come
// from the hourly series entry matching the current time, when there is one.
func (o *OpenMeteo) Current(ctx context.Context, p Place) (Current, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(p.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(p.Longitude, 'f', -1, 64))
	q.Set("current_weather", "true")
	q.Set("hourly", "precipitation_probability,relativehumidity_2m")

	var payload struct {
		CurrentWeather struct {
			Time        string  `json:"time"`
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
		Hourly struct {
			Time                     []string   `json:"time"`
			PrecipitationProbability []*float64 `json:"precipitation_probability"`
			RelativeHumidity2m       []*float64 `json:"relativehumidity_2m"`
		} `json:"hourly"`
	}
	if err := o.getJSON(ctx, o.forecastURL+"?"+q.Encode(), &payload); err != nil {
		return Current{}, fmt.Errorf("forecast: %w", err)
	}

	cw := payload.CurrentWeather
	cur := Current{
		Time:         cw.Time,
		TemperatureC: cw.Temperature,
		WindSpeedKmh: cw.WindSpeed,
		WeatherCode:  cw.WeatherCode,
	}
	for i, t := range payload.Hourly.Time {
		if t != cw.Time {
			continue
		}
		cur.RainProbabilityPct = at(payload.Hourly.PrecipitationProbability, i)
		cur.HumidityPct = at(payload.Hourly.RelativeHumidity2m, i)
		break
	}
	return cur, nil
}

func at(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

func (o *OpenMeteo) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	result, err := o.circuit.Execute(func() (interface{}, error) {
		resp, err := o.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	})
	if err != nil {
		return err
	}

	body, ok := result.([]byte)
	if !ok {
		return fmt.Errorf("unexpected result type from circuit breaker")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
