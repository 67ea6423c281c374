package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeocodeCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/geocode-city" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("city"); got != "Berlin" {
			t.Errorf("city = %q", got)
		}
		if got := r.URL.Query().Get("country"); got != "Germany" {
			t.Errorf("country = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"latitude": 52.52, "longitude": 13.405}`))
	}))
	defer srv.Close()

	s := NewService(srv.URL)
	coords, err := s.GeocodeCity(context.Background(), "Berlin", "Germany")
	if err != nil {
		t.Fatalf("GeocodeCity: %v", err)
	}
	if coords.Latitude != 52.52 || coords.Longitude != 13.405 {
		t.Errorf("coords = %+v", coords)
	}
}

func TestGeocodeCityMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := NewService(srv.URL)
	coords, err := s.GeocodeCity(context.Background(), "Nowhereville", "Atlantis")
	if err != nil {
		t.Fatalf("GeocodeCity: %v", err)
	}
	if coords.Latitude != 0 || coords.Longitude != 0 {
		t.Errorf("coords = %+v, want zero", coords)
	}
}

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/reverse-geocode-client" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("localityLanguage"); got != "en" {
			t.Errorf("localityLanguage = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"city": "Berlin", "locality": "Mitte", "countryName": "Germany"}`))
	}))
	defer srv.Close()

	s := NewService(srv.URL)
	place, err := s.ReverseGeocode(context.Background(), 52.52, 13.405)
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}
	if place.CityName() != "Berlin" {
		t.Errorf("CityName() = %q", place.CityName())
	}
	if place.CountryName != "Germany" {
		t.Errorf("country = %q", place.CountryName)
	}
}

func TestCityNameFallback(t *testing.T) {
	p := Place{Locality: "Mitte"}
	if p.CityName() != "Mitte" {
		t.Errorf("CityName() = %q, want locality fallback", p.CityName())
	}
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewService(srv.URL)
	if _, err := s.GeocodeCity(context.Background(), "Berlin", "Germany"); err == nil {
		t.Error("expected error for 502 response")
	}
	if _, err := s.ReverseGeocode(context.Background(), 1, 2); err == nil {
		t.Error("expected error for 502 response")
	}
}
