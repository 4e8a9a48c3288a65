package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

// WeatherClient talks to a gridded-forecast weather API keyed by coordinates.
// Resolution is two-hop: a point lookup yields forecast and station URLs,
// then the forecast and the best nearby station observation are fetched.
type WeatherClient struct {
	client  *http.Client
	apiBase string
}

func NewWeatherClient(apiBase string) *WeatherClient {
	apiBase = strings.TrimSpace(apiBase)
	if apiBase == "" {
		apiBase = "https://api.weather.gov"
	}
	return &WeatherClient{
		client:  &http.Client{Timeout: 25 * time.Second},
		apiBase: strings.TrimRight(apiBase, "/"),
	}
}

type ForecastPeriod struct {
	Name             string `json:"name"`
	DetailedForecast string `json:"detailedForecast"`
	ShortForecast    string `json:"shortForecast"`
	Temperature      int    `json:"temperature"`
	TemperatureUnit  string `json:"temperatureUnit"`
	WindSpeed        string `json:"windSpeed"`
	IsDaytime        bool   `json:"isDaytime"`
}

type Observation struct {
	StationID    string
	StationName  string
	Description  string
	TemperatureC *float64
	WindSpeedKmh *float64
}

type WeatherReport struct {
	Summary     string
	Periods     []ForecastPeriod
	Observation *Observation
}

type pointResponse struct {
	Properties struct {
		Forecast            string `json:"forecast"`
		ObservationStations string `json:"observationStations"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []ForecastPeriod `json:"periods"`
	} `json:"properties"`
}

type stationsResponse struct {
	Features []struct {
		Properties struct {
			StationIdentifier string `json:"stationIdentifier"`
			Name              string `json:"name"`
			Elevation         struct {
				Value float64 `json:"value"`
			} `json:"elevation"`
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // lon, lat
		} `json:"geometry"`
	} `json:"features"`
}

type observationResponse struct {
	Properties struct {
		TextDescription string `json:"textDescription"`
		Temperature     struct {
			Value *float64 `json:"value"`
		} `json:"temperature"`
		WindSpeed struct {
			Value *float64 `json:"value"`
		} `json:"windSpeed"`
	} `json:"properties"`
}

// Fetch returns the forecast for the coordinates plus, best-effort, the
// latest observation from the most representative nearby station.
func (c *WeatherClient) Fetch(ctx context.Context, pointName string, lat, lon float64) (WeatherReport, error) {
	if c == nil || c.client == nil {
		return WeatherReport{}, fmt.Errorf("nil weather client")
	}

	pointURL := fmt.Sprintf("%s/points/%.4f,%.4f", c.apiBase, lat, lon)
	body, err := httpGetJSON(ctx, c.client, pointURL, 2)
	if err != nil {
		return WeatherReport{}, fmt.Errorf("weather point lookup: %w", err)
	}
	var pt pointResponse
	if err := json.Unmarshal(body, &pt); err != nil {
		return WeatherReport{}, fmt.Errorf("weather point decode: %w", err)
	}
	if strings.TrimSpace(pt.Properties.Forecast) == "" {
		return WeatherReport{}, fmt.Errorf("weather point lookup: no forecast url")
	}

	body, err = httpGetJSON(ctx, c.client, pt.Properties.Forecast, 2)
	if err != nil {
		return WeatherReport{}, fmt.Errorf("weather forecast: %w", err)
	}
	var fc forecastResponse
	if err := json.Unmarshal(body, &fc); err != nil {
		return WeatherReport{}, fmt.Errorf("weather forecast decode: %w", err)
	}
	if len(fc.Properties.Periods) == 0 {
		return WeatherReport{}, fmt.Errorf("weather forecast: empty periods")
	}

	report := WeatherReport{Periods: fc.Properties.Periods}

	// Observation is optional enrichment: forecast alone is a valid answer.
	if stURL := strings.TrimSpace(pt.Properties.ObservationStations); stURL != "" {
		if obs, err := c.fetchObservation(ctx, stURL, pointName, lat, lon); err == nil {
			report.Observation = obs
		}
	}

	report.Summary = summarizeWeather(report)
	return report, nil
}

func (c *WeatherClient) fetchObservation(ctx context.Context, stationsURL, pointName string, lat, lon float64) (*Observation, error) {
	body, err := httpGetJSON(ctx, c.client, stationsURL, 1)
	if err != nil {
		return nil, err
	}
	var st stationsResponse
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, err
	}

	bestID, bestName := "", ""
	bestScore := math.Inf(-1)
	for _, f := range st.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		id := strings.TrimSpace(f.Properties.StationIdentifier)
		if id == "" {
			continue
		}
		score := scoreStation(pointName, f.Properties.Name, f.Properties.Elevation.Value,
			distanceKm(lat, lon, f.Geometry.Coordinates[1], f.Geometry.Coordinates[0]))
		if score > bestScore {
			bestScore = score
			bestID = id
			bestName = strings.TrimSpace(f.Properties.Name)
		}
	}
	if bestID == "" {
		return nil, fmt.Errorf("no usable station")
	}

	obsURL := fmt.Sprintf("%s/stations/%s/observations/latest", c.apiBase, bestID)
	body, err = httpGetJSON(ctx, c.client, obsURL, 1)
	if err != nil {
		return nil, err
	}
	var obs observationResponse
	if err := json.Unmarshal(body, &obs); err != nil {
		return nil, err
	}

	return &Observation{
		StationID:    bestID,
		StationName:  bestName,
		Description:  strings.TrimSpace(obs.Properties.TextDescription),
		TemperatureC: obs.Properties.Temperature.Value,
		WindSpeedKmh: obs.Properties.WindSpeed.Value,
	}, nil
}

// scoreStation favors higher-elevation stations (mountain points sit above
// valley airports), closer proximity, and a name match with the point.
func scoreStation(pointName, stationName string, elevationM, distKm float64) float64 {
	score := 0.0

	if distKm < 50 {
		score += 50 - distKm
	}
	score += elevationM / 100

	pn := strings.ToLower(strings.TrimSpace(pointName))
	sn := strings.ToLower(strings.TrimSpace(stationName))
	if pn != "" && sn != "" {
		for _, tok := range strings.Fields(pn) {
			if len(tok) >= 4 && strings.Contains(sn, tok) {
				score += 25
				break
			}
		}
	}
	return score
}

func summarizeWeather(r WeatherReport) string {
	var parts []string
	if r.Observation != nil && r.Observation.Description != "" {
		obs := "Currently " + r.Observation.Description
		if r.Observation.TemperatureC != nil {
			obs += fmt.Sprintf(", %.0f°C", *r.Observation.TemperatureC)
		}
		parts = append(parts, obs+".")
	}
	for i, p := range r.Periods {
		if i >= 2 {
			break
		}
		short := strings.TrimSpace(p.ShortForecast)
		if short == "" {
			short = strings.TrimSpace(p.DetailedForecast)
		}
		if short == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s, %d°%s.", p.Name, short, p.Temperature, p.TemperatureUnit))
	}
	return strings.Join(parts, " ")
}

const earthRadiusKm = 6371.0

func distanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
