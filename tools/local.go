// Package tools provides the locally-defined tools that back the travel
// assistant when no tool server covers a request.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const searchEndpoint = "https://api.duckduckgo.com/"

// ItineraryArgs are the arguments to the build_itinerary tool.
type ItineraryArgs struct {
	Destination string  `json:"destination"`
	Days        int     `json:"days"`
	Budget      float64 `json:"budget"`
}

// BuildItinerary produces the structured outline the model fills in after
// it has gathered flights, hotels, weather, and places from the tool
// servers.
func BuildItinerary(_ context.Context, args json.RawMessage) (string, error) {
	in := ItineraryArgs{Days: 10, Budget: 1000}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return "", fmt.Errorf("decode arguments: %w", err)
		}
	}
	if in.Destination == "" {
		return "", fmt.Errorf("destination is required")
	}
	if in.Days <= 0 {
		in.Days = 10
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Itinerary outline for %s (%d days, budget $%.2f):\n\n", in.Destination, in.Days, in.Budget)
	sb.WriteString("Fill each section from tool results only, never from prior knowledge:\n")
	sb.WriteString("1. Hotels: recommended stays within budget (from search_hotels).\n")
	sb.WriteString("2. Weather: a 3-5 day forecast summary (from get_weather_forecast).\n")
	sb.WriteString("3. Places: 5-7 must-visit attractions (from search_tourism_destinations).\n")
	fmt.Fprintf(&sb, "4. Day-by-day plan: one major attraction per day across %d days, with a hotel suggestion and weather adjustment per day.\n", in.Days)
	return sb.String(), nil
}

// SearchArgs are the arguments to the web_search tool.
type SearchArgs struct {
	Query string `json:"query"`
}

// Searcher answers general queries through the DuckDuckGo Instant Answer
// API. It is the fallback when no tool server covers a question.
type Searcher struct {
	endpoint   string
	httpClient *http.Client
}

// NewSearcher creates a searcher against the public endpoint.
func NewSearcher() *Searcher {
	return &Searcher{
		endpoint:   searchEndpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewSearcherWithEndpoint creates a searcher against a custom endpoint.
func NewSearcherWithEndpoint(endpoint string) *Searcher {
	s := NewSearcher()
	s.endpoint = endpoint
	return s
}

type instantAnswer struct {
	AbstractText  string `json:"AbstractText"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

// Search runs one instant-answer query.
func (s *Searcher) Search(ctx context.Context, args json.RawMessage) (string, error) {
	var in SearchArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return "", fmt.Errorf("decode arguments: %w", err)
		}
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", fmt.Errorf("query is required")
	}

	q := url.Values{}
	q.Set("q", in.Query)
	q.Set("format", "json")
	q.Set("no_html", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}

	var answer instantAnswer
	if err := json.Unmarshal(body, &answer); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	switch {
	case answer.Answer != "":
		return answer.Answer, nil
	case answer.AbstractText != "":
		return answer.AbstractText, nil
	}

	var sb strings.Builder
	for i, topic := range answer.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		sb.WriteString("- ")
		sb.WriteString(topic.Text)
		sb.WriteString("\n")
		if i >= 4 {
			break
		}
	}
	if sb.Len() == 0 {
		return "No results found.", nil
	}
	return sb.String(), nil
}
