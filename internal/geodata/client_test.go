package geodata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Query(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("data") == "" {
			t.Errorf("expected query in data form field")
		}
		w.Write([]byte(`{"elements":[{"type":"node","id":42,"lat":52.37,"lon":4.89,"tags":{"name":"Cafe Centraal","amenity":"cafe"}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "test-agent")
	elements, err := client.Query(context.Background(), "[out:json];")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(elements))
	}
	if elements[0].ExternalID() != "node/42" {
		t.Fatalf("unexpected external id: %s", elements[0].ExternalID())
	}
}

func TestClient_QueryRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "")
	_, err := client.Query(context.Background(), "query")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestClient_QueryHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "")
	_, err := client.Query(context.Background(), "query")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusBadGateway {
		t.Fatalf("expected StatusError 502, got %v", err)
	}
}

func TestClient_QueryInvalidResponse(t *testing.T) {
	// Overpass serves HTML error pages with status 200 on server-side
	// timeouts; those must not be treated as an empty result.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>runtime error</body></html>"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "")
	_, err := client.Query(context.Background(), "query")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestElement_Position(t *testing.T) {
	node := Element{Lat: 52.0, Lon: 4.5}
	lat, lon, ok := node.Position()
	if !ok || lat != 52.0 || lon != 4.5 {
		t.Fatalf("unexpected node position: %v %v %v", lat, lon, ok)
	}

	way := Element{Center: &Coordinates{Lat: 51.9, Lon: 4.4}}
	lat, lon, ok = way.Position()
	if !ok || lat != 51.9 || lon != 4.4 {
		t.Fatalf("unexpected way position: %v %v %v", lat, lon, ok)
	}

	empty := Element{}
	if _, _, ok := empty.Position(); ok {
		t.Fatalf("expected no position for empty element")
	}
}
