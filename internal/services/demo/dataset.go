package demo

import (
	"strings"
	"unicode"

	"github.com/tripmind/assistant/internal/sdui"
)

// OriginCity is a departure city offered by the demo.
type OriginCity struct {
	Name    string
	Code    string
	Aliases []string
}

// FlightTemplate is a flight option before slot values and pricing are applied.
type FlightTemplate struct {
	Airline       string
	FlightNumber  string
	DepartureTime string
	ArrivalTime   string
	Duration      string
	Stops         int
	Class         string
	BasePrice     float64
}

// Place is an itinerary activity with its map position.
type Place struct {
	Time        string
	Title       string
	Description string
	Location    string
	Cost        float64
	Position    sdui.LatLng
}

// DayPlan is one day of a destination's itinerary.
type DayPlan struct {
	Title  string
	Places []Place
}

// Destination is a trip the demo can plan.
type Destination struct {
	Key      string
	Name     string
	Code     string
	Keywords []string
	Center   sdui.LatLng
	Flights  []FlightTemplate
	Days     []DayPlan
}

// Catalog is the data the demo plans from.
type Catalog struct {
	Destinations  []Destination
	Origins       []OriginCity
	DefaultOrigin string
	Currency      string
}

// MatchDestination returns the first destination one of whose keywords
// appears as a word sequence in message.
func (c *Catalog) MatchDestination(message string) *Destination {
	text := normalizeText(message)
	for i := range c.Destinations {
		for _, kw := range c.Destinations[i].Keywords {
			if containsPhrase(text, kw) {
				return &c.Destinations[i]
			}
		}
	}
	return nil
}

// Destination returns the destination with key.
func (c *Catalog) Destination(key string) *Destination {
	for i := range c.Destinations {
		if c.Destinations[i].Key == key {
			return &c.Destinations[i]
		}
	}
	return nil
}

// MatchOrigin returns the origin city named in message, or the default one.
func (c *Catalog) MatchOrigin(message string) *OriginCity {
	text := normalizeText(message)
	for i := range c.Origins {
		city := &c.Origins[i]
		if containsPhrase(text, city.Name) || containsPhrase(text, city.Code) {
			return city
		}
		for _, alias := range city.Aliases {
			if containsPhrase(text, alias) {
				return city
			}
		}
	}
	return c.Origin(c.DefaultOrigin)
}

// Origin returns the origin city with name.
func (c *Catalog) Origin(name string) *OriginCity {
	for i := range c.Origins {
		if strings.EqualFold(c.Origins[i].Name, name) {
			return &c.Origins[i]
		}
	}
	if len(c.Origins) > 0 {
		return &c.Origins[0]
	}
	return &OriginCity{Name: name}
}

// normalizeText lowercases s and reduces it to space separated words with a
// leading and trailing space.
func normalizeText(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(words, " ") + " "
}

func containsPhrase(text, phrase string) bool {
	p := normalizeText(phrase)
	return p != "  " && strings.Contains(text, p)
}

// DefaultCatalog returns the built-in demo data.
func DefaultCatalog() *Catalog {
	return &Catalog{
		DefaultOrigin: "Mumbai",
		Currency:      sdui.DefaultCurrency,
		Origins: []OriginCity{
			{Name: "Mumbai", Code: "BOM", Aliases: []string{"bombay"}},
			{Name: "Delhi", Code: "DEL", Aliases: []string{"new delhi"}},
			{Name: "Bangalore", Code: "BLR", Aliases: []string{"bengaluru"}},
			{Name: "Chennai", Code: "MAA", Aliases: []string{"madras"}},
			{Name: "Kolkata", Code: "CCU", Aliases: []string{"calcutta"}},
			{Name: "Hyderabad", Code: "HYD"},
		},
		Destinations: []Destination{
			tokyo(),
			paris(),
			bali(),
			dubai(),
		},
	}
}

func tokyo() Destination {
	return Destination{
		Key:      "tokyo",
		Name:     "Tokyo",
		Code:     "HND",
		Keywords: []string{"tokyo", "japan"},
		Center:   sdui.LatLng{Lat: 35.6762, Lng: 139.6503},
		Flights: []FlightTemplate{
			{Airline: "Japan Airlines", FlightNumber: "JL 68", DepartureTime: "20:05", ArrivalTime: "07:40", Duration: "8h 05m", Stops: 0, Class: "Economy", BasePrice: 42000},
			{Airline: "Air India", FlightNumber: "AI 306", DepartureTime: "13:30", ArrivalTime: "01:15", Duration: "8h 15m", Stops: 0, Class: "Economy", BasePrice: 38500},
			{Airline: "Singapore Airlines", FlightNumber: "SQ 423", DepartureTime: "23:55", ArrivalTime: "16:20", Duration: "12h 55m", Stops: 1, Class: "Economy", BasePrice: 35200},
		},
		Days: []DayPlan{
			{
				Title: "Shibuya and Harajuku",
				Places: []Place{
					{Time: "09:00", Title: "Meiji Jingu", Description: "Forest shrine walk", Location: "Shibuya", Cost: 0, Position: sdui.LatLng{Lat: 35.6764, Lng: 139.6993}},
					{Time: "12:30", Title: "Takeshita Street", Description: "Street food and shops", Location: "Harajuku", Cost: 1500, Position: sdui.LatLng{Lat: 35.6717, Lng: 139.7030}},
					{Time: "18:00", Title: "Shibuya Sky", Description: "Sunset over the scramble", Location: "Shibuya", Cost: 2200, Position: sdui.LatLng{Lat: 35.6585, Lng: 139.7021}},
				},
			},
			{
				Title: "Old Tokyo",
				Places: []Place{
					{Time: "08:30", Title: "Senso-ji", Description: "Tokyo's oldest temple", Location: "Asakusa", Cost: 0, Position: sdui.LatLng{Lat: 35.7148, Lng: 139.7967}},
					{Time: "11:30", Title: "Sumida river cruise", Description: "Boat to Hamarikyu", Location: "Asakusa", Cost: 1200, Position: sdui.LatLng{Lat: 35.7113, Lng: 139.7966}},
					{Time: "15:00", Title: "Ueno Park", Description: "Museums and gardens", Location: "Ueno", Cost: 1000, Position: sdui.LatLng{Lat: 35.7156, Lng: 139.7745}},
				},
			},
			{
				Title: "Markets and lights",
				Places: []Place{
					{Time: "07:00", Title: "Toyosu Market", Description: "Breakfast sushi", Location: "Koto", Cost: 3500, Position: sdui.LatLng{Lat: 35.6455, Lng: 139.7850}},
					{Time: "13:00", Title: "teamLab Planets", Description: "Immersive digital art", Location: "Toyosu", Cost: 2600, Position: sdui.LatLng{Lat: 35.6492, Lng: 139.7898}},
					{Time: "19:00", Title: "Shinjuku Omoide Yokocho", Description: "Yakitori alleys", Location: "Shinjuku", Cost: 2500, Position: sdui.LatLng{Lat: 35.6938, Lng: 139.6995}},
				},
			},
		},
	}
}

func paris() Destination {
	return Destination{
		Key:      "paris",
		Name:     "Paris",
		Code:     "CDG",
		Keywords: []string{"paris", "france"},
		Center:   sdui.LatLng{Lat: 48.8566, Lng: 2.3522},
		Flights: []FlightTemplate{
			{Airline: "Air France", FlightNumber: "AF 217", DepartureTime: "01:40", ArrivalTime: "07:45", Duration: "9h 35m", Stops: 0, Class: "Economy", BasePrice: 52000},
			{Airline: "Air India", FlightNumber: "AI 143", DepartureTime: "14:15", ArrivalTime: "19:50", Duration: "9h 05m", Stops: 0, Class: "Economy", BasePrice: 48000},
			{Airline: "Emirates", FlightNumber: "EK 501", DepartureTime: "04:30", ArrivalTime: "13:25", Duration: "12h 25m", Stops: 1, Class: "Economy", BasePrice: 44500},
		},
		Days: []DayPlan{
			{
				Title: "Left Bank",
				Places: []Place{
					{Time: "09:30", Title: "Musée d'Orsay", Description: "Impressionist masters", Location: "7e", Cost: 1500, Position: sdui.LatLng{Lat: 48.8600, Lng: 2.3266}},
					{Time: "13:00", Title: "Saint-Germain lunch", Description: "Café terrace", Location: "6e", Cost: 2500, Position: sdui.LatLng{Lat: 48.8540, Lng: 2.3330}},
					{Time: "19:30", Title: "Eiffel Tower", Description: "Summit at dusk", Location: "7e", Cost: 2600, Position: sdui.LatLng{Lat: 48.8584, Lng: 2.2945}},
				},
			},
			{
				Title: "Right Bank",
				Places: []Place{
					{Time: "09:00", Title: "Louvre", Description: "Early entry", Location: "1er", Cost: 1900, Position: sdui.LatLng{Lat: 48.8606, Lng: 2.3376}},
					{Time: "14:00", Title: "Le Marais", Description: "Galleries and falafel", Location: "4e", Cost: 1200, Position: sdui.LatLng{Lat: 48.8590, Lng: 2.3620}},
					{Time: "20:00", Title: "Seine dinner cruise", Description: "Bateaux along the river", Location: "Seine", Cost: 7500, Position: sdui.LatLng{Lat: 48.8610, Lng: 2.3050}},
				},
			},
			{
				Title: "Montmartre",
				Places: []Place{
					{Time: "10:00", Title: "Sacré-Cœur", Description: "Views from the butte", Location: "18e", Cost: 0, Position: sdui.LatLng{Lat: 48.8867, Lng: 2.3431}},
					{Time: "12:30", Title: "Place du Tertre", Description: "Painters' square", Location: "18e", Cost: 1800, Position: sdui.LatLng{Lat: 48.8865, Lng: 2.3408}},
					{Time: "18:00", Title: "Canal Saint-Martin", Description: "Evening stroll", Location: "10e", Cost: 0, Position: sdui.LatLng{Lat: 48.8710, Lng: 2.3650}},
				},
			},
		},
	}
}

func bali() Destination {
	return Destination{
		Key:      "bali",
		Name:     "Bali",
		Code:     "DPS",
		Keywords: []string{"bali", "ubud", "indonesia"},
		Center:   sdui.LatLng{Lat: -8.4095, Lng: 115.1889},
		Flights: []FlightTemplate{
			{Airline: "IndiGo", FlightNumber: "6E 1601", DepartureTime: "23:30", ArrivalTime: "09:10", Duration: "7h 10m", Stops: 0, Class: "Economy", BasePrice: 24000},
			{Airline: "Malaysia Airlines", FlightNumber: "MH 195", DepartureTime: "23:55", ArrivalTime: "11:40", Duration: "9h 15m", Stops: 1, Class: "Economy", BasePrice: 21500},
			{Airline: "Singapore Airlines", FlightNumber: "SQ 421", DepartureTime: "08:35", ArrivalTime: "21:05", Duration: "10h 00m", Stops: 1, Class: "Economy", BasePrice: 27800},
		},
		Days: []DayPlan{
			{
				Title: "Ubud",
				Places: []Place{
					{Time: "08:00", Title: "Tegallalang rice terraces", Description: "Morning light on the paddies", Location: "Ubud", Cost: 400, Position: sdui.LatLng{Lat: -8.4312, Lng: 115.2793}},
					{Time: "11:30", Title: "Sacred Monkey Forest", Description: "Temple sanctuary", Location: "Ubud", Cost: 450, Position: sdui.LatLng{Lat: -8.5188, Lng: 115.2585}},
					{Time: "19:00", Title: "Legong dance", Description: "Ubud Palace performance", Location: "Ubud", Cost: 500, Position: sdui.LatLng{Lat: -8.5069, Lng: 115.2625}},
				},
			},
			{
				Title: "Temples of the south",
				Places: []Place{
					{Time: "09:00", Title: "Tirta Empul", Description: "Holy spring water temple", Location: "Tampaksiring", Cost: 300, Position: sdui.LatLng{Lat: -8.4153, Lng: 115.3153}},
					{Time: "16:30", Title: "Uluwatu Temple", Description: "Clifftop sunset", Location: "Uluwatu", Cost: 350, Position: sdui.LatLng{Lat: -8.8291, Lng: 115.0849}},
					{Time: "18:30", Title: "Kecak fire dance", Description: "Dance at the cliff edge", Location: "Uluwatu", Cost: 700, Position: sdui.LatLng{Lat: -8.8290, Lng: 115.0860}},
				},
			},
			{
				Title: "Beaches",
				Places: []Place{
					{Time: "10:00", Title: "Nusa Dua beach", Description: "Calm water swim", Location: "Nusa Dua", Cost: 0, Position: sdui.LatLng{Lat: -8.7950, Lng: 115.2320}},
					{Time: "14:00", Title: "Seminyak spa", Description: "Balinese massage", Location: "Seminyak", Cost: 2000, Position: sdui.LatLng{Lat: -8.6913, Lng: 115.1683}},
					{Time: "19:30", Title: "Jimbaran seafood", Description: "Grill on the sand", Location: "Jimbaran", Cost: 2500, Position: sdui.LatLng{Lat: -8.7900, Lng: 115.1600}},
				},
			},
		},
	}
}

func dubai() Destination {
	return Destination{
		Key:      "dubai",
		Name:     "Dubai",
		Code:     "DXB",
		Keywords: []string{"dubai", "uae", "emirates"},
		Center:   sdui.LatLng{Lat: 25.2048, Lng: 55.2708},
		Flights: []FlightTemplate{
			{Airline: "Emirates", FlightNumber: "EK 501", DepartureTime: "04:30", ArrivalTime: "06:10", Duration: "3h 10m", Stops: 0, Class: "Economy", BasePrice: 18500},
			{Airline: "IndiGo", FlightNumber: "6E 1451", DepartureTime: "19:45", ArrivalTime: "21:20", Duration: "3h 05m", Stops: 0, Class: "Economy", BasePrice: 14200},
			{Airline: "Air India Express", FlightNumber: "IX 245", DepartureTime: "10:20", ArrivalTime: "12:05", Duration: "3h 15m", Stops: 0, Class: "Economy", BasePrice: 12800},
		},
		Days: []DayPlan{
			{
				Title: "Downtown",
				Places: []Place{
					{Time: "10:00", Title: "Dubai Mall", Description: "Aquarium and souks", Location: "Downtown", Cost: 0, Position: sdui.LatLng{Lat: 25.1985, Lng: 55.2796}},
					{Time: "17:30", Title: "Burj Khalifa", Description: "At the top at sunset", Location: "Downtown", Cost: 4500, Position: sdui.LatLng{Lat: 25.1972, Lng: 55.2744}},
					{Time: "20:00", Title: "Dubai Fountain", Description: "Evening show", Location: "Downtown", Cost: 0, Position: sdui.LatLng{Lat: 25.1955, Lng: 55.2755}},
				},
			},
			{
				Title: "Old Dubai",
				Places: []Place{
					{Time: "09:00", Title: "Al Fahidi", Description: "Wind tower quarter", Location: "Bur Dubai", Cost: 0, Position: sdui.LatLng{Lat: 25.2637, Lng: 55.2972}},
					{Time: "11:00", Title: "Abra across the Creek", Description: "Wooden water taxi", Location: "Dubai Creek", Cost: 50, Position: sdui.LatLng{Lat: 25.2650, Lng: 55.2990}},
					{Time: "12:00", Title: "Gold and spice souks", Description: "Deira markets", Location: "Deira", Cost: 1000, Position: sdui.LatLng{Lat: 25.2700, Lng: 55.2970}},
				},
			},
			{
				Title: "Desert",
				Places: []Place{
					{Time: "15:00", Title: "Desert safari", Description: "Dune bashing and camp dinner", Location: "Lahbab", Cost: 6000, Position: sdui.LatLng{Lat: 24.9960, Lng: 55.7500}},
					{Time: "21:00", Title: "Stargazing", Description: "Night in the dunes", Location: "Lahbab", Cost: 0, Position: sdui.LatLng{Lat: 24.9950, Lng: 55.7510}},
				},
			},
		},
	}
}
