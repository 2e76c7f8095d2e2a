package demo

import (
	"fmt"
	"math"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/tripmind/assistant/internal/sdui"
)

const (
	typingBase    = 600 * time.Millisecond
	typingPerChar = 8 * time.Millisecond
	typingMax     = 2500 * time.Millisecond
)

// ThinkingStep is a status line shown before the reply, for Delay.
type ThinkingStep struct {
	Message string
	Tool    string
	Delay   time.Duration
}

// RevealStage is one component of a multi-part reply, revealed as a task of
// its own after a pause.
type RevealStage struct {
	TaskID    string
	Label     string
	Thinking  string
	Tool      string
	Pause     time.Duration
	Component sdui.Component
}

// Result is the reply to one demo message.
type Result struct {
	// Handled is false when the message is outside the flow.
	Handled       bool
	Text          string
	Components    []sdui.Component
	ThinkingSteps []ThinkingStep
	TypingDelay   time.Duration
	// Reveal is set for the results step; it holds Components in reveal order.
	Reveal []RevealStage
	// Title names the chat once a destination is known.
	Title string
}

// FlowConfig holds the configuration for a demo flow.
type FlowConfig struct {
	Catalog *Catalog
	// Now returns the current time; dates are derived from it.
	Now func() time.Time
	// State resumes a previous conversation.
	State State
}

// Flow is the demo dialogue state machine. Each Flow owns its state.
type Flow struct {
	mu      sync.Mutex
	catalog *Catalog
	now     func() time.Time
	state   State
}

// NewFlow creates a demo flow.
func NewFlow(cfg *FlowConfig) *Flow {
	f := &Flow{
		catalog: DefaultCatalog(),
		now:     time.Now,
		state:   State{Step: StepIdle},
	}
	if cfg == nil {
		return f
	}
	if cfg.Catalog != nil {
		f.catalog = cfg.Catalog
	}
	if cfg.Now != nil {
		f.now = cfg.Now
	}
	if cfg.State.Step != "" {
		f.state = cfg.State
	}
	return f
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// InFlow reports whether the flow is waiting on an answer.
func (f *Flow) InFlow() bool {
	return f.State().InFlow()
}

// MatchesDestination reports whether message names a demo destination.
func (f *Flow) MatchesDestination(message string) bool {
	return f.catalog.MatchDestination(message) != nil
}

// Reset returns the flow to idle and forgets every slot.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = State{Step: StepIdle}
}

// Process advances the flow with message. Every answer advances: input that
// cannot be parsed is replaced by a default value.
func (f *Flow) Process(message string) Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state.Step {
	case StepIdle, StepDestinationDetected, "":
		if dest := f.catalog.MatchDestination(message); dest != nil {
			return f.askOrigin(dest)
		}
		return Result{}

	case StepAwaitingOrigin:
		return f.askDates(f.catalog.MatchOrigin(message))

	case StepAwaitingDates:
		return f.askBudget(parseDates(message, f.now()))

	case StepAwaitingBudget:
		return f.askParty(parseBudget(message))

	case StepAwaitingPassengers:
		partyType, count := parseParty(message)
		return f.showResults(partyType, count)

	case StepShowingResults:
		// A new destination starts over; anything else is not ours.
		if dest := f.catalog.MatchDestination(message); dest != nil {
			f.state = State{Step: StepIdle}
			return f.askOrigin(dest)
		}
	}

	return Result{}
}

// Fallback is the reply to a message outside the flow when the demo must
// answer anyway. It offers the demo destinations as quick actions.
func (f *Flow) Fallback() Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	actions := make([]sdui.QuickAction, 0, len(f.catalog.Destinations))
	names := make([]string, 0, len(f.catalog.Destinations))
	for _, d := range f.catalog.Destinations {
		actions = append(actions, sdui.QuickAction{
			ID:      d.Key,
			Label:   d.Name,
			Message: fmt.Sprintf("I want to go to %s", d.Name),
		})
		names = append(names, d.Name)
	}

	text := fmt.Sprintf("I'm running in demo mode and can plan trips to %s. Where would you like to go?", joinList(names))
	return f.reply(text, []ThinkingStep{
		{Message: "Reading your message...", Delay: 400 * time.Millisecond},
	}, sdui.MustComponent(sdui.TypeQuickActions, sdui.QuickActionsProps{Actions: actions}))
}

func (f *Flow) askOrigin(dest *Destination) Result {
	f.state.Destination = dest.Key

	options := make([]sdui.Option, 0, len(f.catalog.Origins))
	for _, city := range f.catalog.Origins {
		options = append(options, sdui.Option{ID: city.Code, Label: city.Name})
	}

	f.state.Step = StepAwaitingOrigin
	return f.reply(
		fmt.Sprintf("%s, great choice! Which city will you be flying from?", dest.Name),
		[]ThinkingStep{
			{Message: fmt.Sprintf("Recognising %s as your destination...", dest.Name), Tool: "destinations", Delay: 500 * time.Millisecond},
			{Message: "Checking departure cities...", Tool: "flights", Delay: 700 * time.Millisecond},
		},
		sdui.MustComponent(sdui.TypePreferenceChips, sdui.PreferenceChipsProps{
			Question:      "Departing from",
			Options:       options,
			MultiSelect:   false,
			MaxSelections: 1,
		}),
	)
}

func (f *Flow) askDates(origin *OriginCity) Result {
	dest := f.destination()
	f.state.Origin = origin.Name
	f.state.Step = StepAwaitingDates

	defaults := parseDates("", f.now())
	today := defaults.Start.AddDate(0, 0, -defaultLeadDays)
	return f.reply(
		fmt.Sprintf("Flying from %s to %s. When would you like to travel?", origin.Name, dest.Name),
		[]ThinkingStep{
			{Message: fmt.Sprintf("Looking up routes from %s...", origin.Name), Tool: "flights", Delay: 600 * time.Millisecond},
		},
		sdui.MustComponent(sdui.TypeDateRangePicker, sdui.DateRangePickerProps{
			MinDate:      today.Format(sdui.DateLayout),
			MaxDate:      today.AddDate(1, 0, 0).Format(sdui.DateLayout),
			DefaultStart: defaults.Start.Format(sdui.DateLayout),
			DefaultEnd:   defaults.End.Format(sdui.DateLayout),
			MinNights:    sdui.DefaultMinNights,
			MaxNights:    14,
		}),
	)
}

func (f *Flow) askBudget(dates dateRange) Result {
	f.state.StartDate = dates.Start.Format(sdui.DateLayout)
	f.state.EndDate = dates.End.Format(sdui.DateLayout)
	f.state.Step = StepAwaitingBudget

	return f.reply(
		fmt.Sprintf("%s to %s it is. What's your budget for the trip?", dates.Start.Format("Jan 2"), dates.End.Format("Jan 2")),
		[]ThinkingStep{
			{Message: "Checking availability for your dates...", Tool: "calendar", Delay: 600 * time.Millisecond},
		},
		sdui.MustComponent(sdui.TypeBudgetSlider, sdui.BudgetSliderProps{
			Min:      sdui.DefaultBudgetMin,
			Max:      sdui.DefaultBudgetMax,
			Step:     sdui.DefaultBudgetStep,
			Default:  sdui.DefaultBudget,
			Currency: f.catalog.Currency,
			Presets: []sdui.BudgetPreset{
				{Label: "Budget", Value: 25000},
				{Label: "Comfort", Value: 50000},
				{Label: "Luxury", Value: 150000},
			},
		}),
	)
}

func (f *Flow) askParty(budget float64) Result {
	f.state.Budget = budget
	f.state.Step = StepAwaitingPassengers

	return f.reply(
		fmt.Sprintf("A budget of %s works. Who's coming along?", formatAmount(f.catalog.Currency, budget)),
		[]ThinkingStep{
			{Message: "Tuning options to your budget...", Tool: "pricing", Delay: 500 * time.Millisecond},
		},
		sdui.MustComponent(sdui.TypeCompanionSelector, sdui.CompanionSelectorProps{
			Options:      sdui.DefaultCompanionOptions(),
			ShowCount:    true,
			MaxTravelers: sdui.DefaultMaxTravelers,
		}),
	)
}

func (f *Flow) showResults(partyType string, passengers int) Result {
	f.state.PartyType = partyType
	f.state.Passengers = passengers
	f.state.Step = StepShowingResults

	dest := f.destination()
	origin := f.catalog.Origin(f.state.Origin)
	plan := buildPlan(f.catalog, dest, origin, f.state)

	text := fmt.Sprintf(
		"Here's your %d-day %s trip from %s for %s. I found %d flights and put together a day-by-day plan, estimated at %s in total.",
		len(plan.Itinerary.Days), dest.Name, origin.Name, describeParty(partyType, passengers),
		len(plan.Flights.Flights), formatAmount(f.catalog.Currency, plan.Itinerary.TotalCost),
	)

	stages := []RevealStage{
		{
			TaskID: "flights", Label: "Search flights", Tool: "flights",
			Thinking:  fmt.Sprintf("Comparing fares from %s to %s...", origin.Name, dest.Name),
			Pause:     1200 * time.Millisecond,
			Component: *sdui.MustComponent(sdui.TypeFlightCard, plan.Flights),
		},
		{
			TaskID: "itinerary", Label: "Build itinerary", Tool: "itinerary",
			Thinking:  fmt.Sprintf("Planning %d days in %s...", len(plan.Itinerary.Days), dest.Name),
			Pause:     1600 * time.Millisecond,
			Component: *sdui.MustComponent(sdui.TypeItineraryCard, plan.Itinerary),
		},
		{
			TaskID: "map", Label: "Map the trip", Tool: "maps",
			Thinking:  "Pinning every stop on the map...",
			Pause:     2000 * time.Millisecond,
			Component: *sdui.MustComponent(sdui.TypeMapView, plan.Map),
		},
	}

	components := make([]sdui.Component, 0, len(stages))
	for _, s := range stages {
		components = append(components, s.Component)
	}

	return Result{
		Handled:    true,
		Text:       text,
		Components: components,
		ThinkingSteps: []ThinkingStep{
			{Message: "Gathering everything you told me...", Delay: 600 * time.Millisecond},
			{Message: fmt.Sprintf("Putting together your %s trip...", dest.Name), Tool: "planner", Delay: 900 * time.Millisecond},
		},
		TypingDelay: TypingDelay(text),
		Reveal:      stages,
		Title:       Title(dest.Name),
	}
}

func (f *Flow) reply(text string, thinking []ThinkingStep, component *sdui.Component) Result {
	res := Result{
		Handled:       true,
		Text:          text,
		ThinkingSteps: thinking,
		TypingDelay:   TypingDelay(text),
	}
	if component != nil {
		res.Components = []sdui.Component{*component}
	}
	if dest := f.destination(); dest != nil {
		res.Title = Title(dest.Name)
	}
	return res
}

func (f *Flow) destination() *Destination {
	return f.catalog.Destination(f.state.Destination)
}

// TypingDelay is how long a reply of text takes to start appearing.
func TypingDelay(text string) time.Duration {
	d := typingBase + time.Duration(utf8.RuneCountInString(text))*typingPerChar
	if d > typingMax {
		return typingMax
	}
	return d
}

// Title is the chat title of a trip to destination.
func Title(destination string) string {
	return "Trip to " + destination
}

func formatAmount(currency string, v float64) string {
	amount := humanize.Comma(int64(math.Round(v)))
	if currency == "INR" {
		return "₹" + amount
	}
	return amount + " " + currency
}

func describeParty(partyType string, passengers int) string {
	if passengers == 1 {
		return "one traveller"
	}
	return fmt.Sprintf("%d travellers (%s)", passengers, partyType)
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	out := ""
	for i, item := range items {
		switch {
		case i == 0:
			out = item
		case i == len(items)-1:
			out += " and " + item
		default:
			out += ", " + item
		}
	}
	return out
}
