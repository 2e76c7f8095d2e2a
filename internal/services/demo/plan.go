package demo

import (
	"fmt"
	"math"
	"time"

	"github.com/tripmind/assistant/internal/sdui"
)

// Budget tiers scale every fare.
const (
	lowBudgetLimit  = 30000
	midBudgetLimit  = 80000
	highBudgetLimit = 100000

	lowTierMultiplier  = 0.7
	midTierMultiplier  = 1.0
	highTierMultiplier = 1.4

	// optionMarkup compounds per listed flight option.
	optionMarkup = 1.08
)

type tripPlan struct {
	Flights   sdui.FlightCardProps
	Itinerary sdui.ItineraryCardProps
	Map       sdui.MapViewProps
}

// TierMultiplier is the fare multiplier of a budget.
func TierMultiplier(budget float64) float64 {
	switch {
	case budget < lowBudgetLimit:
		return lowTierMultiplier
	case budget < midBudgetLimit:
		return midTierMultiplier
	}
	return highTierMultiplier
}

// FarePrice is the price of the option at index for a budget.
func FarePrice(base, budget float64, index int) float64 {
	return math.Round(base * TierMultiplier(budget) * math.Pow(optionMarkup, float64(index)))
}

// fareClass relabels the booking class at the budget extremes.
func fareClass(class string, budget float64, index int) string {
	switch {
	case budget > highBudgetLimit:
		if index == 0 {
			return "Business"
		}
		return "Premium Economy"
	case budget < lowBudgetLimit:
		return "Economy Saver"
	}
	return class
}

func buildPlan(catalog *Catalog, dest *Destination, origin *OriginCity, state State) tripPlan {
	start, err := time.Parse(sdui.DateLayout, state.StartDate)
	if err != nil {
		start = time.Now().UTC()
	}

	flights := make([]sdui.FlightOption, 0, len(dest.Flights))
	for i, f := range dest.Flights {
		flights = append(flights, sdui.FlightOption{
			ID:            fmt.Sprintf("%s-%d", dest.Key, i+1),
			Airline:       f.Airline,
			FlightNumber:  f.FlightNumber,
			Origin:        origin.Code,
			Destination:   dest.Code,
			Date:          state.StartDate,
			DepartureTime: f.DepartureTime,
			ArrivalTime:   f.ArrivalTime,
			Duration:      f.Duration,
			Stops:         f.Stops,
			Class:         fareClass(f.Class, state.Budget, i),
			Passengers:    state.Passengers,
			Price:         FarePrice(f.BasePrice, state.Budget, i),
			Currency:      catalog.Currency,
		})
	}

	days := make([]sdui.ItineraryDay, 0, len(dest.Days))
	markers := []sdui.MapMarker{{Position: dest.Center, Label: dest.Name, Kind: "destination"}}
	var activityCost float64
	for i, d := range dest.Days {
		activities := make([]sdui.Activity, 0, len(d.Places))
		for _, p := range d.Places {
			activities = append(activities, sdui.Activity{
				Time:        p.Time,
				Title:       p.Title,
				Description: p.Description,
				Location:    p.Location,
				Cost:        p.Cost,
			})
			markers = append(markers, sdui.MapMarker{Position: p.Position, Label: p.Title, Kind: "activity", Day: i + 1})
			activityCost += p.Cost
		}
		days = append(days, sdui.ItineraryDay{
			Day:        i + 1,
			Date:       start.AddDate(0, 0, i).Format(sdui.DateLayout),
			Title:      d.Title,
			Activities: activities,
		})
	}

	total := activityCost * float64(state.Passengers)
	if len(flights) > 0 {
		total += flights[0].Price * float64(state.Passengers)
	}

	return tripPlan{
		Flights: sdui.FlightCardProps{Flights: flights},
		Itinerary: sdui.ItineraryCardProps{
			Destination: dest.Name,
			Days:        days,
			TotalCost:   total,
			Currency:    catalog.Currency,
		},
		Map: sdui.MapViewProps{
			Center:  dest.Center,
			Zoom:    11,
			Markers: markers,
		},
	}
}
