// Package query turns free-text weather questions into an Interpreted query.
package query

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Intent says whether a query asks for current conditions or a forecast.
type Intent int

const (
	IntentCurrent Intent = iota
	IntentForecast
)

func (i Intent) String() string {
	if i == IntentForecast {
		return "forecast"
	}
	return "current"
}

// MarshalText renders the intent as "current" or "forecast".
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// Interpreted is a query reduced to a city and an intent.
type Interpreted struct {
	City   string `json:"city"`
	Intent Intent `json:"intent"`
}

// ErrEmptyCity is returned when no city remains after stripping phrases,
// punctuation and filler words.
var ErrEmptyCity = errors.New("city not resolved")

// edgePunct is stripped, along with any Unicode space, from both ends of a
// forecast city.
const edgePunct = "?.,!;:\"'"

func isEdge(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(edgePunct, r)
}

// blank reports whether s holds nothing but spaces and punctuation.
func blank(s string) bool {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) == ""
}

// forecastPhrases are matched longest first.
var forecastPhrases = compilePhrases(
	"weather forecast for",
	"weather forecast in",
	"forecast for",
	"forecast in",
	"forecast of",
)

var (
	leadingFiller  = compileFiller(`^the\s+city\s+of(\s+|$)`)
	trailingFiller = compileFiller(`\s+(please|today|tomorrow|this\s+week)$`)
)

func compilePhrases(phrases ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, regexp.MustCompile(`(?i)\b`+strings.Join(strings.Fields(p), `\s+`)+`\b`))
	}
	return out
}

func compileFiller(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// Interpret extracts the city and intent from raw. It is a pure function.
func Interpret(raw string) (Interpreted, error) {
	for _, re := range forecastPhrases {
		loc := re.FindStringIndex(raw)
		if loc == nil {
			continue
		}
		city := cleanCity(raw[loc[1]:])
		if blank(city) {
			return Interpreted{}, ErrEmptyCity
		}
		return Interpreted{City: city, Intent: IntentForecast}, nil
	}

	city := strings.TrimFunc(raw, unicode.IsSpace)
	if blank(city) {
		return Interpreted{}, ErrEmptyCity
	}
	return Interpreted{City: city, Intent: IntentCurrent}, nil
}

func cleanCity(s string) string {
	s = strings.TrimFunc(s, isEdge)
	for {
		next := leadingFiller.ReplaceAllString(s, "")
		next = strings.TrimFunc(trailingFiller.ReplaceAllString(next, ""), isEdge)
		if next == s {
			return s
		}
		s = next
	}
}
