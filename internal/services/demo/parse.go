package demo

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tripmind/assistant/internal/sdui"
)

const (
	// defaultLeadDays is how far out an unparseable trip starts.
	defaultLeadDays = 7
	// defaultTripDays is the length of an unparseable trip.
	defaultTripDays = 3

	defaultPartyType  = "couple"
	defaultPassengers = 2
)

var numberPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// party keywords in match order, with the traveller count each implies
var parties = []struct {
	Type     string
	Count    int
	Keywords []string
}{
	{Type: "solo", Count: 1, Keywords: []string{"solo", "alone", "myself", "just me"}},
	{Type: "couple", Count: 2, Keywords: []string{"couple", "partner", "wife", "husband", "honeymoon"}},
	{Type: "family", Count: 4, Keywords: []string{"family", "kids", "children"}},
	{Type: "friends", Count: 3, Keywords: []string{"friends", "group", "buddies"}},
}

// dateRange is a parsed trip window.
type dateRange struct {
	Start time.Time
	End   time.Time
}

// parseDates reads a {start_date,end_date} payload. Anything else becomes a
// trip starting a week after now.
func parseDates(message string, now time.Time) dateRange {
	var payload sdui.DateRangeSubmission
	if decodeObject(message, &payload) {
		start, errStart := time.Parse(sdui.DateLayout, payload.StartDate)
		end, errEnd := time.Parse(sdui.DateLayout, payload.EndDate)
		if errStart == nil && errEnd == nil && !end.Before(start) {
			return dateRange{Start: start, End: end}
		}
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := day.AddDate(0, 0, defaultLeadDays)
	return dateRange{Start: start, End: start.AddDate(0, 0, defaultTripDays-1)}
}

// parseBudget reads a {budget} payload, then the first number in message,
// then falls back to the default budget.
func parseBudget(message string) float64 {
	var payload sdui.BudgetSubmission
	if decodeObject(message, &payload) && payload.Budget > 0 {
		return payload.Budget
	}

	if match := numberPattern.FindString(message); match != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64); err == nil && v > 0 {
			return v
		}
	}

	return sdui.DefaultBudget
}

// parseParty reads a {type,count} payload or a party keyword; it defaults to
// a couple. A structured payload is tried first since it also carries the
// count.
func parseParty(message string) (string, int) {
	var payload sdui.CompanionSubmission
	if decodeObject(message, &payload) && payload.Type != "" {
		partyType := strings.ToLower(payload.Type)
		count := payload.Count
		if count <= 0 {
			count = partyCount(partyType)
		}
		return partyType, clampPassengers(count)
	}

	text := normalizeText(message)
	for _, p := range parties {
		for _, kw := range p.Keywords {
			if containsPhrase(text, kw) {
				return p.Type, p.Count
			}
		}
	}

	return defaultPartyType, defaultPassengers
}

func partyCount(partyType string) int {
	for _, p := range parties {
		if p.Type == partyType {
			return p.Count
		}
	}
	return 1
}

func clampPassengers(n int) int {
	if n < 1 {
		return 1
	}
	if n > sdui.DefaultMaxTravelers {
		return sdui.DefaultMaxTravelers
	}
	return n
}

// decodeObject decodes message into v when it is a JSON object.
func decodeObject(message string, v interface{}) bool {
	trimmed := strings.TrimSpace(message)
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	return json.Unmarshal([]byte(trimmed), v) == nil
}
