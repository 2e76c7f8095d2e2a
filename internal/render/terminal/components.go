package terminal

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tripmind/assistant/internal/sdui"
)

// NewRegistry returns a registry with a terminal renderer for every known
// component type.
func NewRegistry() *sdui.Registry {
	reg := sdui.NewRegistry()
	Register(reg)
	return reg
}

// Register binds the terminal renderers to reg.
func Register(reg *sdui.Registry) {
	reg.Register(sdui.TypeBudgetSlider, card("Budget", budgetSlider))
	reg.Register(sdui.TypeDateRangePicker, card("Travel dates", dateRangePicker))
	reg.Register(sdui.TypePreferenceChips, card("Choose", preferenceChips))
	reg.Register(sdui.TypeCompanionSelector, card("Who's travelling?", companionSelector))
	reg.Register(sdui.TypeRatingFeedback, card("Rate this", ratingFeedback))
	reg.Register(sdui.TypeItineraryCard, card("Itinerary", itineraryCard))
	reg.Register(sdui.TypeQuickActions, card("Quick actions", quickActions))
	reg.Register(sdui.TypeFlightCard, card("Flights", flightCard))
	reg.Register(sdui.TypeMapView, card("Map", mapView))
	reg.Register(sdui.TypeRouteView, card("Route", routeView))
}

// card frames the body drawn by fn. Props that fail to decode draw nothing.
func card(title string, fn func(c *sdui.Component) (string, error)) sdui.Renderer {
	return sdui.RendererFunc(func(c *sdui.Component, handled bool) string {
		body, err := fn(c)
		if err != nil {
			return ""
		}

		style := cardStyle
		heading := titleStyle.Render(title)
		if handled {
			style = inertCardStyle
			heading = mutedStyle.Render(title + " (answered)")
		} else if c.Type.Interactive() {
			heading += mutedStyle.Render("  /submit <value>")
		}
		return style.Render(lipgloss.JoinVertical(lipgloss.Left, heading, body))
	})
}

func money(currency string, v float64) string {
	amount := humanize.Comma(int64(math.Round(v)))
	if currency == "INR" {
		return "₹" + amount
	}
	return amount + " " + currency
}

func budgetSlider(c *sdui.Component) (string, error) {
	p, err := c.BudgetSlider()
	if err != nil {
		return "", err
	}
	lines := []string{
		fmt.Sprintf("%s to %s, default %s", money(p.Currency, p.Min), money(p.Currency, p.Max), accentStyle.Render(money(p.Currency, p.Default))),
	}
	for _, preset := range p.Presets {
		lines = append(lines, fmt.Sprintf("  • %s: %s", preset.Label, money(p.Currency, preset.Value)))
	}
	return strings.Join(lines, "\n"), nil
}

func dateRangePicker(c *sdui.Component) (string, error) {
	p, err := c.DateRangePicker()
	if err != nil {
		return "", err
	}
	lines := []string{fmt.Sprintf("Suggested %s to %s", accentStyle.Render(p.DefaultStart), accentStyle.Render(p.DefaultEnd))}
	if p.MinDate != "" && p.MaxDate != "" {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("Between %s and %s, %d to %d nights", p.MinDate, p.MaxDate, p.MinNights, p.MaxNights)))
	}
	lines = append(lines, mutedStyle.Render("Answer with: YYYY-MM-DD YYYY-MM-DD"))
	return strings.Join(lines, "\n"), nil
}

func preferenceChips(c *sdui.Component) (string, error) {
	p, err := c.PreferenceChips()
	if err != nil {
		return "", err
	}
	var lines []string
	if p.Question != "" {
		lines = append(lines, p.Question)
	}
	for _, o := range p.Options {
		lines = append(lines, "  "+chip(o))
	}
	if p.MultiSelect {
		lines = append(lines, mutedStyle.Render("Several allowed, separate with commas"))
	}
	return strings.Join(lines, "\n"), nil
}

func chip(o sdui.Option) string {
	label := o.Label
	if o.Icon != "" {
		label = o.Icon + " " + label
	}
	if o.Selected {
		return accentStyle.Render("[x] " + label)
	}
	return "[ ] " + label
}

func companionSelector(c *sdui.Component) (string, error) {
	p, err := c.CompanionSelector()
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(p.Options)+1)
	for _, o := range p.Options {
		line := fmt.Sprintf("  %s (%s)", o.Label, o.ID)
		if p.ShowCount && o.Count > 0 {
			line += mutedStyle.Render(fmt.Sprintf(" %d", o.Count))
		}
		lines = append(lines, line)
	}
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("Answer with: <type> [count], up to %d travellers", p.MaxTravelers)))
	return strings.Join(lines, "\n"), nil
}

func ratingFeedback(c *sdui.Component) (string, error) {
	p, err := c.RatingFeedback()
	if err != nil {
		return "", err
	}
	question := p.Question
	if question == "" {
		question = "How did we do?"
	}
	return fmt.Sprintf("%s\n%s", question, strings.Repeat("☆ ", p.MaxRating)), nil
}

func itineraryCard(c *sdui.Component) (string, error) {
	p, err := c.ItineraryCard()
	if err != nil {
		return "", err
	}
	lines := []string{accentStyle.Render(p.Destination)}
	for _, day := range p.Days {
		heading := fmt.Sprintf("Day %d: %s", day.Day, day.Title)
		if day.Date != "" {
			heading += mutedStyle.Render(" " + day.Date)
		}
		lines = append(lines, heading)
		for _, a := range day.Activities {
			line := fmt.Sprintf("  %s %s", a.Time, a.Title)
			if a.Location != "" {
				line += mutedStyle.Render(" @ " + a.Location)
			}
			if a.Cost > 0 {
				line += mutedStyle.Render(" " + money(p.Currency, a.Cost))
			}
			lines = append(lines, line)
		}
	}
	if p.TotalCost > 0 {
		lines = append(lines, "Total "+accentStyle.Render(money(p.Currency, p.TotalCost)))
	}
	return strings.Join(lines, "\n"), nil
}

func quickActions(c *sdui.Component) (string, error) {
	p, err := c.QuickActions()
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(p.Actions))
	for _, a := range p.Actions {
		lines = append(lines, fmt.Sprintf("  %s %s", accentStyle.Render(a.ID), a.Label))
	}
	return strings.Join(lines, "\n"), nil
}

func flightCard(c *sdui.Component) (string, error) {
	p, err := c.FlightCard()
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(p.Flights))
	for _, f := range p.Flights {
		stops := "non-stop"
		if f.Stops > 0 {
			stops = fmt.Sprintf("%d stop", f.Stops)
			if f.Stops > 1 {
				stops += "s"
			}
		}
		lines = append(lines, fmt.Sprintf("%s %s  %s %s → %s %s  %s, %s  %s",
			f.Airline, f.FlightNumber,
			f.Origin, f.DepartureTime, f.Destination, f.ArrivalTime,
			f.Duration, stops, accentStyle.Render(money(f.Currency, f.Price))))
	}
	return strings.Join(lines, "\n"), nil
}

func mapView(c *sdui.Component) (string, error) {
	p, err := c.MapView()
	if err != nil {
		return "", err
	}
	lines := []string{mutedStyle.Render(fmt.Sprintf("Centered on %.4f, %.4f (zoom %d)", p.Center.Lat, p.Center.Lng, p.Zoom))}
	for _, m := range p.Markers {
		line := "  📍 " + m.Label
		if m.Day > 0 {
			line += mutedStyle.Render(fmt.Sprintf(" day %d", m.Day))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func routeView(c *sdui.Component) (string, error) {
	p, err := c.RouteView()
	if err != nil {
		return "", err
	}
	stops := append([]string{p.Origin}, p.Waypoints...)
	stops = append(stops, p.Destination)
	return fmt.Sprintf("%s\n%s", strings.Join(stops, " → "), mutedStyle.Render("by "+p.Mode)), nil
}
