package routing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourorg/rotafacil/internal/config"
	"github.com/yourorg/rotafacil/internal/geo"
)

func TestNewClientFromSettings(t *testing.T) {
	c := NewClientFromSettings(config.Settings{PublicBaseURL: "https://abc.ngrok.io"})
	if !c.publicAPI {
		t.Error("URL pública deveria selecionar o backend alternativo")
	}
	if c.baseURL != "https://abc.ngrok.io" {
		t.Errorf("baseURL = %q", c.baseURL)
	}

	c = NewClientFromSettings(config.Settings{Port: "8080"})
	if c.publicAPI {
		t.Error("sem URL pública o cliente usa /rota")
	}
	if c.baseURL != "http://127.0.0.1:8080" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
}

func TestGeocodeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geocoding" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req map[string]string
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &req)
		if req["address"] != "Av. Paulista, 1000" {
			t.Errorf("address = %q", req["address"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"lon": -46.656, "lat": -23.563}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false)
	coord, err := c.Geocode(context.Background(), "Av. Paulista, 1000")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if coord.Lon != -46.656 || coord.Lat != -23.563 {
		t.Errorf("coordenada = %+v", coord)
	}
}

func TestGeocodeErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"erro": "Endereço não encontrado"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false)
	_, err := c.Geocode(context.Background(), "xyzzy")
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("esperava ErrAddressNotFound, veio %v", err)
	}
	var be *BackendError
	if !errors.As(err, &be) || be.Detail != "Endereço não encontrado" {
		t.Errorf("detalhe = %+v", be)
	}
}

func TestGeocodeMissingBaseURL(t *testing.T) {
	c := NewClient("", false)
	if _, err := c.Geocode(context.Background(), "a"); !errors.Is(err, ErrBaseURLMissing) {
		t.Errorf("esperava ErrBaseURLMissing, veio %v", err)
	}
}

func TestRouteDefaultEndpoint(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Write([]byte(encodedBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false)
	origin := geo.Coordinate{Lon: -46.63, Lat: -23.55}
	dest := geo.Coordinate{Lon: -46.62, Lat: -23.54}
	doc, err := c.Route(context.Background(), origin, dest, nil)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if gotPath != "/rota" {
		t.Errorf("endpoint = %s, esperado /rota", gotPath)
	}
	coords, ok := gotBody["coordinates"].([]interface{})
	if !ok || len(coords) != 2 {
		t.Fatalf("coordinates = %v", gotBody["coordinates"])
	}
	first := coords[0].([]interface{})
	if first[0].(float64) != -46.63 || first[1].(float64) != -23.55 {
		t.Errorf("ordem lon,lat violada: %v", first)
	}
	if doc.Shape() != ShapeEncodedGeometry {
		t.Errorf("shape = %v", doc.Shape())
	}
}

func TestRouteAlternativeEndpoint(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Write([]byte(featureCollectionBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, true)
	origin := geo.Coordinate{Lon: -46.63, Lat: -23.55}
	dest := geo.Coordinate{Lon: -46.62, Lat: -23.54}
	if _, err := c.Route(context.Background(), origin, dest, nil); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if gotPath != "/calculate_route" {
		t.Errorf("endpoint = %s, esperado /calculate_route", gotPath)
	}
	o, ok := gotBody["origin"].(map[string]interface{})
	if !ok || o["lat"].(float64) != -23.55 || o["lon"].(float64) != -46.63 {
		t.Errorf("origin = %v", gotBody["origin"])
	}
}

func TestRouteOmitsEmptyConstraints(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Write([]byte(encodedBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false)
	origin := geo.Coordinate{Lon: 0, Lat: 0}
	dest := geo.Coordinate{Lon: 1, Lat: 1}

	// Constraints vazias (não-nil) viram ausência do campo, igual a nil.
	if _, err := c.Route(context.Background(), origin, dest, &Constraints{}); err != nil {
		t.Fatal(err)
	}
	if _, present := gotBody["constraints"]; present {
		t.Error("constraints vazias deveriam ser omitidas do payload")
	}

	if _, err := c.Route(context.Background(), origin, dest, &Constraints{Avoid: []string{"toll"}}); err != nil {
		t.Fatal(err)
	}
	cons, ok := gotBody["constraints"].(map[string]interface{})
	if !ok {
		t.Fatal("constraints presentes deveriam ir no payload")
	}
	avoid := cons["avoid"].([]interface{})
	if len(avoid) != 1 || avoid[0] != "toll" {
		t.Errorf("avoid = %v", avoid)
	}
}

func TestRouteErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
		detail string
	}{
		{403, `{"detalhe": "chave inválida"}`, ErrAccessDenied, "chave inválida"},
		{401, `{"error": "sem autorização"}`, ErrAccessDenied, "sem autorização"},
		{500, `{"erro": "falha interna"}`, ErrRouteFailed, "falha interna"},
		{400, `{"message": "payload ruim"}`, ErrRouteFailed, "payload ruim"},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body))
		}))
		c := NewClient(srv.URL, false)
		_, err := c.Route(context.Background(), geo.Coordinate{}, geo.Coordinate{Lon: 1, Lat: 1}, nil)
		srv.Close()
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: esperava %v, veio %v", tc.status, tc.want, err)
			continue
		}
		var be *BackendError
		if !errors.As(err, &be) || be.Detail != tc.detail {
			t.Errorf("status %d: detalhe = %+v", tc.status, be)
		}
	}
}

func TestRouteConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // derruba o servidor antes da chamada

	c := NewClient(srv.URL, false)
	_, err := c.Route(context.Background(), geo.Coordinate{}, geo.Coordinate{Lon: 1, Lat: 1}, nil)
	if !errors.Is(err, ErrConnectivity) {
		t.Errorf("esperava ErrConnectivity, veio %v", err)
	}
}
