package source

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIncidentFetchSendsBoundingBox(t *testing.T) {
	var gotBbox string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/incidents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotBbox = r.URL.Query().Get("bbox")
		fmt.Fprint(w, `{"incidents":[{"route":"SR 20","description":"Road closed due to avalanche control"}]}`)
	}))
	defer srv.Close()

	c := NewIncidentClient(srv.URL)
	box := BoxAround(48.5126, -121.0601, 50)
	incidents, err := c.Fetch(context.Background(), box)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	want := fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", box.MinLon, box.MinLat, box.MaxLon, box.MaxLat)
	if gotBbox != want {
		t.Errorf("bbox = %q, want %q", gotBbox, want)
	}
	if len(incidents) != 1 || incidents[0].Route != "SR 20" {
		t.Errorf("incidents = %+v", incidents)
	}
}

func TestIncidentFetchEmptyListIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"incidents":[]}`)
	}))
	defer srv.Close()

	c := NewIncidentClient(srv.URL)
	incidents, err := c.Fetch(context.Background(), BoxAround(40, -110, 50))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(incidents) != 0 {
		t.Errorf("expected empty result, got %d", len(incidents))
	}
}

func TestIncidentFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewIncidentClient(srv.URL)
	if _, err := c.Fetch(context.Background(), BoxAround(40, -110, 50)); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestNewIncidentClientRequiresBase(t *testing.T) {
	if c := NewIncidentClient("   "); c != nil {
		t.Errorf("expected nil client without a base url")
	}
}

func TestBoxAround(t *testing.T) {
	box := BoxAround(48.0, -121.0, 50)

	if box.MinLat >= 48.0 || box.MaxLat <= 48.0 {
		t.Errorf("latitude range does not bracket the point: %+v", box)
	}
	if box.MinLon >= -121.0 || box.MaxLon <= -121.0 {
		t.Errorf("longitude range does not bracket the point: %+v", box)
	}

	// Longitude degrees shrink with latitude, so the box must be wider in
	// degrees east-west than north-south.
	latSpan := box.MaxLat - box.MinLat
	lonSpan := box.MaxLon - box.MinLon
	if lonSpan <= latSpan {
		t.Errorf("lon span %f should exceed lat span %f at this latitude", lonSpan, latSpan)
	}
	if math.Abs(latSpan-2*50/111.0) > 1e-9 {
		t.Errorf("lat span = %f", latSpan)
	}
}
