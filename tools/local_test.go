package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildItinerary(t *testing.T) {
	out, err := BuildItinerary(context.Background(), json.RawMessage(`{"destination":"Goa","days":5,"budget":800}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Goa")
	assert.Contains(t, out, "5 days")
	assert.Contains(t, out, "$800.00")
	assert.Contains(t, out, "search_hotels")
	assert.Contains(t, out, "get_weather_forecast")
}

func TestBuildItineraryDefaults(t *testing.T) {
	out, err := BuildItinerary(context.Background(), json.RawMessage(`{"destination":"Lisbon"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "10 days")
	assert.Contains(t, out, "$1000.00")

	out, err = BuildItinerary(context.Background(), json.RawMessage(`{"destination":"Lisbon","days":-3}`))
	require.NoError(t, err)
	assert.Contains(t, out, "10 days")
}

func TestBuildItineraryRequiresDestination(t *testing.T) {
	_, err := BuildItinerary(context.Background(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination")

	_, err = BuildItinerary(context.Background(), json.RawMessage(`{bad json`))
	assert.Error(t, err)
}

func TestSearchPrefersDirectAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "goa weather", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		json.NewEncoder(w).Encode(map[string]any{
			"Answer":       "32C and humid",
			"AbstractText": "ignored",
		})
	}))
	defer server.Close()

	s := NewSearcherWithEndpoint(server.URL)
	out, err := s.Search(context.Background(), json.RawMessage(`{"query":"goa weather"}`))
	require.NoError(t, err)
	assert.Equal(t, "32C and humid", out)
}

func TestSearchFallsBackToAbstract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"AbstractText": "Goa is a state on the west coast of India.",
		})
	}))
	defer server.Close()

	s := NewSearcherWithEndpoint(server.URL)
	out, err := s.Search(context.Background(), json.RawMessage(`{"query":"goa"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "west coast of India")
}

func TestSearchListsRelatedTopics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"RelatedTopics": []map[string]string{
				{"Text": "Baga Beach"},
				{"Text": ""},
				{"Text": "Fort Aguada"},
			},
		})
	}))
	defer server.Close()

	s := NewSearcherWithEndpoint(server.URL)
	out, err := s.Search(context.Background(), json.RawMessage(`{"query":"goa beaches"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "- Baga Beach")
	assert.Contains(t, out, "- Fort Aguada")
}

func TestSearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer server.Close()

	s := NewSearcherWithEndpoint(server.URL)
	out, err := s.Search(context.Background(), json.RawMessage(`{"query":"zzzz"}`))
	require.NoError(t, err)
	assert.Equal(t, "No results found.", out)
}

func TestSearchRequiresQuery(t *testing.T) {
	s := NewSearcher()
	_, err := s.Search(context.Background(), json.RawMessage(`{"query":"  "}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}

func TestSpecs(t *testing.T) {
	specs := Specs(nil)
	require.Len(t, specs, 2)
	assert.Equal(t, "build_itinerary", specs[0].Name)
	assert.Equal(t, "web_search", specs[1].Name)
	for _, spec := range specs {
		assert.NotNil(t, spec.Invoke)
		assert.NotEmpty(t, spec.Description)
		assert.Equal(t, "object", spec.Parameters["type"])
	}
}

func TestSearchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := NewSearcherWithEndpoint(server.URL)
	_, err := s.Search(context.Background(), json.RawMessage(`{"query":"goa"}`))
	assert.Error(t, err)
}
