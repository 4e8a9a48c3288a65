package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newWeatherTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"properties":{"forecast":"%s/forecast","observationStations":"%s/stations"}}`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"properties":{"periods":[
			{"name":"Tonight","shortForecast":"Snow showers","temperature":28,"temperatureUnit":"F","isDaytime":false},
			{"name":"Thursday","shortForecast":"Partly sunny","temperature":41,"temperatureUnit":"F","isDaytime":true},
			{"name":"Thursday Night","shortForecast":"Clear","temperature":25,"temperatureUnit":"F","isDaytime":false}
		]}}`)
	})
	mux.HandleFunc("/stations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[
			{"properties":{"stationIdentifier":"KVLY","name":"Valley Airport","elevation":{"value":120}},
			 "geometry":{"coordinates":[-121.05,48.50]}},
			{"properties":{"stationIdentifier":"ERDG1","name":"up-slope Eagle Ridge site","elevation":{"value":1450}},
			 "geometry":{"coordinates":[-121.07,48.52]}}
		]}`)
	})
	mux.HandleFunc("/stations/ERDG1/observations/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"properties":{"textDescription":"Light Snow","temperature":{"value":-2.5},"windSpeed":{"value":18}}}`)
	})

	srv = httptest.NewServer(mux)
	return srv
}

func TestWeatherFetchTwoHop(t *testing.T) {
	srv := newWeatherTestServer(t)
	defer srv.Close()

	c := NewWeatherClient(srv.URL)
	report, err := c.Fetch(context.Background(), "Eagle Ridge Trailhead", 48.5126, -121.0601)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(report.Periods) != 3 {
		t.Errorf("periods = %d, want 3", len(report.Periods))
	}
	if report.Observation == nil {
		t.Fatalf("expected observation enrichment")
	}
	if report.Observation.StationID != "ERDG1" {
		t.Errorf("station = %s, want the higher name-matched station", report.Observation.StationID)
	}
	if !strings.Contains(report.Summary, "Light Snow") {
		t.Errorf("summary missing observation: %q", report.Summary)
	}
	if !strings.Contains(report.Summary, "Tonight: Snow showers") {
		t.Errorf("summary missing lead period: %q", report.Summary)
	}
	if strings.Contains(report.Summary, "Thursday Night") {
		t.Errorf("summary should only carry the first two periods: %q", report.Summary)
	}
}

func TestWeatherFetchNoForecastURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"properties":{}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewWeatherClient(srv.URL)
	if _, err := c.Fetch(context.Background(), "Nowhere", 40.0, -110.0); err == nil {
		t.Fatalf("expected error when point lookup carries no forecast url")
	}
}

func TestWeatherFetchObservationOptional(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"properties":{"forecast":"%s/forecast"}}`, srv.URL)
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"properties":{"periods":[{"name":"Today","shortForecast":"Sunny","temperature":70,"temperatureUnit":"F"}]}}`)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := NewWeatherClient(srv.URL)
	report, err := c.Fetch(context.Background(), "Somewhere", 40.0, -110.0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if report.Observation != nil {
		t.Errorf("expected no observation without a stations url")
	}
	if !strings.Contains(report.Summary, "Today: Sunny") {
		t.Errorf("summary = %q", report.Summary)
	}
}

func TestScoreStationPrefersElevationAndNameMatch(t *testing.T) {
	valley := scoreStation("Eagle Ridge Trailhead", "Valley Airport", 120, 2)
	ridge := scoreStation("Eagle Ridge Trailhead", "Eagle Ridge RAWS", 1450, 6)
	if ridge <= valley {
		t.Errorf("ridge station should outrank valley airport: %f vs %f", ridge, valley)
	}

	far := scoreStation("Eagle Ridge Trailhead", "Distant Site", 1450, 200)
	near := scoreStation("Eagle Ridge Trailhead", "Distant Site", 1450, 10)
	if far >= near {
		t.Errorf("distance beyond 50km should not earn proximity points: %f vs %f", far, near)
	}
}

func TestDistanceKm(t *testing.T) {
	if d := distanceKm(48.5, -121.0, 48.5, -121.0); d != 0 {
		t.Errorf("zero distance, got %f", d)
	}
	// One degree of latitude is ~111 km.
	d := distanceKm(48.0, -121.0, 49.0, -121.0)
	if d < 105 || d > 117 {
		t.Errorf("degree of latitude = %f km, want ~111", d)
	}
}
