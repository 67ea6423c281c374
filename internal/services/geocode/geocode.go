// Package geocode is a thin client for the bigdatacloud geocoding API,
// used to resolve provider city/country pairs to coordinates and to turn
// captured coordinates back into a city/country for display.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Service struct {
	Client  *http.Client
	BaseURL string
}

func NewService(baseURL string) *Service {
	if baseURL == "" {
		baseURL = "https://api.bigdatacloud.net"
	}
	return &Service{
		Client:  &http.Client{Timeout: 10 * time.Second},
		BaseURL: baseURL,
	}
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeocodeCity resolves a city/country pair to coordinates. A miss is not
// an error: the zero Coordinates are returned when the API has no match.
func (s *Service) GeocodeCity(ctx context.Context, city, country string) (Coordinates, error) {
	var out Coordinates

	q := url.Values{}
	q.Set("city", city)
	q.Set("country", country)

	if err := s.getJSON(ctx, "/data/geocode-city?"+q.Encode(), &out); err != nil {
		return Coordinates{}, err
	}
	return out, nil
}

type Place struct {
	City        string `json:"city"`
	Locality    string `json:"locality"`
	CountryName string `json:"countryName"`
}

// CityName prefers the city field and falls back to locality.
func (p Place) CityName() string {
	if p.City != "" {
		return p.City
	}
	return p.Locality
}

// ReverseGeocode turns coordinates into a city/country.
func (s *Service) ReverseGeocode(ctx context.Context, lat, lng float64) (Place, error) {
	var out Place

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%f", lat))
	q.Set("longitude", fmt.Sprintf("%f", lng))
	q.Set("localityLanguage", "en")

	if err := s.getJSON(ctx, "/data/reverse-geocode-client?"+q.Encode(), &out); err != nil {
		return Place{}, err
	}
	return out, nil
}

func (s *Service) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
