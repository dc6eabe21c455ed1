package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Weather answers current-conditions questions from a canned per-city table.
// TODO: swap the table for a real backend (OpenWeatherMap has a free tier).
type Weather struct{}

// NewWeather creates the weather tool.
func NewWeather() *Weather { return &Weather{} }

func (w *Weather) Name() string { return "weather" }

func (w *Weather) Description() string {
	return "Gets current weather information for a location."
}

func (w *Weather) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"location": {
				"type": "string",
				"description": "City name or location to get weather for"
			}
		},
		"required": ["location"]
	}`)
}

type weatherEntry struct {
	temp      int
	condition string
	humidity  int
}

var mockWeather = map[string]weatherEntry{
	"new york": {72, "Sunny", 45},
	"london":   {62, "Cloudy", 70},
	"tokyo":    {78, "Clear", 55},
	"paris":    {68, "Partly Cloudy", 60},
	"sydney":   {75, "Sunny", 50},
}

// Run looks args["location"] up in the table.
func (w *Weather) Run(_ context.Context, args map[string]string) (map[string]any, error) {
	location := strings.TrimSpace(args["location"])
	if location == "" {
		return nil, fmt.Errorf("missing required parameter: location")
	}

	entry, ok := mockWeather[strings.ToLower(location)]
	if !ok {
		return nil, fmt.Errorf("weather data not available for %s", location)
	}
	return map[string]any{
		"success":     true,
		"location":    location,
		"temperature": entry.temp,
		"condition":   entry.condition,
		"humidity":    entry.humidity,
	}, nil
}
