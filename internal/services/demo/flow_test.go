package demo_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripmind/assistant/internal/sdui"
	"github.com/tripmind/assistant/internal/services/demo"
)

var fixedNow = time.Date(2026, time.March, 1, 10, 30, 0, 0, time.UTC)

func newFlow() *demo.Flow {
	return demo.NewFlow(&demo.FlowConfig{Now: func() time.Time { return fixedNow }})
}

// walk feeds messages in order and returns the last result.
func walk(t *testing.T, f *demo.Flow, messages ...string) demo.Result {
	t.Helper()
	var res demo.Result
	for _, m := range messages {
		res = f.Process(m)
		require.True(t, res.Handled, "message %q was not handled", m)
	}
	return res
}

func component(t *testing.T, res demo.Result, typ sdui.Type) *sdui.Component {
	t.Helper()
	for i := range res.Components {
		if res.Components[i].Type == typ {
			return &res.Components[i]
		}
	}
	t.Fatalf("no %s component in result", typ)
	return nil
}

func TestFlow_DestinationAsksForOrigin(t *testing.T) {
	f := newFlow()

	res := f.Process("I want to go to Tokyo")

	require.True(t, res.Handled)
	assert.Equal(t, demo.StepAwaitingOrigin, f.State().Step)
	assert.Equal(t, "tokyo", f.State().Destination)
	assert.Equal(t, "Trip to Tokyo", res.Title)
	require.Len(t, res.Components, 1)
	assert.Equal(t, sdui.TypePreferenceChips, res.Components[0].Type)

	props, err := res.Components[0].PreferenceChips()
	require.NoError(t, err)
	assert.False(t, props.MultiSelect)

	var labels []string
	for _, o := range props.Options {
		labels = append(labels, o.Label)
	}
	var want []string
	for _, city := range demo.DefaultCatalog().Origins {
		want = append(want, city.Name)
	}
	assert.Equal(t, want, labels)
}

func TestFlow_EndToEndTokyo(t *testing.T) {
	f := newFlow()

	res := walk(t, f, "Tokyo", "Mumbai", "sometime next month please", "50000", "solo")

	state := f.State()
	assert.Equal(t, demo.StepShowingResults, state.Step)
	assert.Equal(t, "Mumbai", state.Origin)
	assert.Equal(t, "2026-03-08", state.StartDate)
	assert.Equal(t, "2026-03-10", state.EndDate)
	assert.Equal(t, float64(50000), state.Budget)
	assert.Equal(t, "solo", state.PartyType)
	assert.Equal(t, 1, state.Passengers)

	require.Len(t, res.Components, 3)
	require.Len(t, res.Reveal, 3)
	assert.Equal(t, sdui.TypeFlightCard, res.Reveal[0].Component.Type)
	assert.Equal(t, sdui.TypeItineraryCard, res.Reveal[1].Component.Type)
	assert.Equal(t, sdui.TypeMapView, res.Reveal[2].Component.Type)

	tokyo := demo.DefaultCatalog().Destination("tokyo")
	require.NotNil(t, tokyo)

	flights, err := component(t, res, sdui.TypeFlightCard).FlightCard()
	require.NoError(t, err)
	require.Len(t, flights.Flights, len(tokyo.Flights))
	for i, fl := range flights.Flights {
		want := math.Round(tokyo.Flights[i].BasePrice * 1.0 * math.Pow(1.08, float64(i)))
		assert.Equal(t, want, fl.Price, "flight %d", i)
		assert.Equal(t, "BOM", fl.Origin)
		assert.Equal(t, "HND", fl.Destination)
		assert.Equal(t, "2026-03-08", fl.Date)
		assert.Equal(t, 1, fl.Passengers)
		assert.Equal(t, "Economy", fl.Class)
		assert.Equal(t, "INR", fl.Currency)
	}

	itinerary, err := component(t, res, sdui.TypeItineraryCard).ItineraryCard()
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", itinerary.Destination)
	require.Len(t, itinerary.Days, 3)
	for i, day := range itinerary.Days {
		assert.Equal(t, i+1, day.Day)
		assert.Equal(t, tokyo.Days[i].Title, day.Title)
		assert.Len(t, day.Activities, len(tokyo.Days[i].Places))
	}
	assert.Equal(t, "2026-03-08", itinerary.Days[0].Date)
	assert.Equal(t, "2026-03-10", itinerary.Days[2].Date)

	mapView, err := component(t, res, sdui.TypeMapView).MapView()
	require.NoError(t, err)
	assert.Equal(t, tokyo.Center, mapView.Center)
	assert.NotEmpty(t, mapView.Markers)
}

func TestFlow_EachStepReturnsItsWidget(t *testing.T) {
	f := newFlow()

	steps := []struct {
		message string
		step    demo.Step
		widget  sdui.Type
	}{
		{"Let's do Paris", demo.StepAwaitingOrigin, sdui.TypePreferenceChips},
		{"Delhi", demo.StepAwaitingDates, sdui.TypeDateRangePicker},
		{"next week", demo.StepAwaitingBudget, sdui.TypeBudgetSlider},
		{"60000", demo.StepAwaitingPassengers, sdui.TypeCompanionSelector},
	}

	for _, s := range steps {
		res := f.Process(s.message)
		require.True(t, res.Handled)
		assert.NotEmpty(t, res.Text)
		assert.NotEmpty(t, res.ThinkingSteps)
		assert.Equal(t, demo.TypingDelay(res.Text), res.TypingDelay)
		assert.Equal(t, s.step, f.State().Step)
		require.Len(t, res.Components, 1)
		assert.Equal(t, s.widget, res.Components[0].Type)
	}
}

func TestFlow_OriginFallsBackToMumbai(t *testing.T) {
	f := newFlow()

	walk(t, f, "Bali", "somewhere up north")

	assert.Equal(t, "Mumbai", f.State().Origin)
}

func TestFlow_OriginAliases(t *testing.T) {
	f := newFlow()

	walk(t, f, "Bali", "from Bengaluru")

	assert.Equal(t, "Bangalore", f.State().Origin)
}

func TestFlow_StructuredAnswers(t *testing.T) {
	f := newFlow()

	walk(t, f,
		"Dubai",
		"Chennai",
		`{"start_date":"2026-04-10","end_date":"2026-04-14"}`,
		`{"budget":150000,"currency":"INR"}`,
		`{"type":"family","count":5}`,
	)

	state := f.State()
	assert.Equal(t, "2026-04-10", state.StartDate)
	assert.Equal(t, "2026-04-14", state.EndDate)
	assert.Equal(t, float64(150000), state.Budget)
	assert.Equal(t, "family", state.PartyType)
	assert.Equal(t, 5, state.Passengers)
}

func TestFlow_ReversedDatesUseDefault(t *testing.T) {
	f := newFlow()

	walk(t, f, "Dubai", "Chennai", `{"start_date":"2026-04-14","end_date":"2026-04-10"}`)

	assert.Equal(t, "2026-03-08", f.State().StartDate)
	assert.Equal(t, "2026-03-10", f.State().EndDate)
}

func TestFlow_BudgetParsing(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    float64
	}{
		{name: "plain number", message: "50000", want: 50000},
		{name: "number in text", message: "about 1,20,000 rupees", want: 120000},
		{name: "json payload", message: `{"budget":75000}`, want: 75000},
		{name: "no number", message: "not sure yet", want: 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFlow()
			walk(t, f, "Tokyo", "Mumbai", "whenever", tt.message)
			assert.Equal(t, tt.want, f.State().Budget)
		})
	}
}

func TestFlow_PartyParsing(t *testing.T) {
	tests := []struct {
		message   string
		wantType  string
		wantCount int
	}{
		{message: "solo", wantType: "solo", wantCount: 1},
		{message: "me and my wife", wantType: "couple", wantCount: 2},
		{message: "the whole family", wantType: "family", wantCount: 4},
		{message: "a few friends", wantType: "friends", wantCount: 3},
		{message: "no idea", wantType: "couple", wantCount: 2},
		{message: `{"type":"friends","count":40}`, wantType: "friends", wantCount: 10},
		{message: `{"type":"friends","count":6}`, wantType: "friends", wantCount: 6},
		{message: `{"type":"couple","count":2,"note":"family trip"}`, wantType: "couple", wantCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			f := newFlow()
			walk(t, f, "Tokyo", "Mumbai", "whenever", "50000", tt.message)
			assert.Equal(t, tt.wantType, f.State().PartyType)
			assert.Equal(t, tt.wantCount, f.State().Passengers)
		})
	}
}

func TestFlow_BudgetTiers(t *testing.T) {
	tests := []struct {
		name      string
		budget    string
		mult      float64
		wantClass []string
	}{
		{name: "low", budget: "20000", mult: 0.7, wantClass: []string{"Economy Saver", "Economy Saver", "Economy Saver"}},
		{name: "mid", budget: "79999", mult: 1.0, wantClass: []string{"Economy", "Economy", "Economy"}},
		{name: "high", budget: "90000", mult: 1.4, wantClass: []string{"Economy", "Economy", "Economy"}},
		{name: "premium", budget: "150000", mult: 1.4, wantClass: []string{"Business", "Premium Economy", "Premium Economy"}},
	}

	tokyo := demo.DefaultCatalog().Destination("tokyo")
	require.NotNil(t, tokyo)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFlow()
			res := walk(t, f, "Tokyo", "Mumbai", "whenever", tt.budget, "couple")

			flights, err := component(t, res, sdui.TypeFlightCard).FlightCard()
			require.NoError(t, err)

			for i, fl := range flights.Flights {
				assert.Equal(t, math.Round(tokyo.Flights[i].BasePrice*tt.mult*math.Pow(1.08, float64(i))), fl.Price)
				assert.Equal(t, tt.wantClass[i], fl.Class)
				assert.Equal(t, 2, fl.Passengers)
			}
		})
	}
}

func TestFlow_OutsideFlow(t *testing.T) {
	f := newFlow()

	res := f.Process("hello there")

	assert.False(t, res.Handled)
	assert.Equal(t, demo.StepIdle, f.State().Step)
	assert.False(t, f.InFlow())
}

func TestFlow_ShowingResults(t *testing.T) {
	f := newFlow()
	walk(t, f, "Tokyo", "Mumbai", "whenever", "50000", "solo")

	res := f.Process("thanks!")
	assert.False(t, res.Handled)
	assert.Equal(t, demo.StepShowingResults, f.State().Step)
	assert.False(t, f.InFlow())

	res = f.Process("now plan Paris")
	assert.True(t, res.Handled)
	assert.Equal(t, demo.StepAwaitingOrigin, f.State().Step)
	assert.Equal(t, "paris", f.State().Destination)
	assert.Empty(t, f.State().Origin)
}

func TestFlow_Reset(t *testing.T) {
	f := newFlow()
	walk(t, f, "Tokyo", "Mumbai")
	require.True(t, f.InFlow())

	f.Reset()

	assert.Equal(t, demo.State{Step: demo.StepIdle}, f.State())
}

func TestFlow_InstancesAreIndependent(t *testing.T) {
	a := newFlow()
	b := newFlow()

	walk(t, a, "Tokyo")

	assert.True(t, a.InFlow())
	assert.False(t, b.InFlow())
	assert.False(t, b.Process("Mumbai").Handled)
}

func TestFlow_ResumesState(t *testing.T) {
	f := demo.NewFlow(&demo.FlowConfig{
		Now:   func() time.Time { return fixedNow },
		State: demo.State{Step: demo.StepAwaitingBudget, Destination: "bali", Origin: "Delhi", StartDate: "2026-05-01", EndDate: "2026-05-03"},
	})

	res := f.Process("40000")

	require.True(t, res.Handled)
	assert.Equal(t, demo.StepAwaitingPassengers, f.State().Step)
	assert.Equal(t, "Trip to Bali", res.Title)
}

func TestFlow_MatchesDestination(t *testing.T) {
	f := newFlow()

	assert.True(t, f.MatchesDestination("Thinking about JAPAN in spring"))
	assert.True(t, f.MatchesDestination("bali!"))
	assert.False(t, f.MatchesDestination("Balinese food"))
	assert.False(t, f.MatchesDestination("hello"))
}

func TestFlow_Fallback(t *testing.T) {
	f := newFlow()

	res := f.Fallback()

	require.True(t, res.Handled)
	require.Len(t, res.Components, 1)
	props, err := res.Components[0].QuickActions()
	require.NoError(t, err)
	require.Len(t, props.Actions, len(demo.DefaultCatalog().Destinations))
	assert.Equal(t, "I want to go to Tokyo", props.Actions[0].Message)
	assert.True(t, f.MatchesDestination(props.Actions[0].Message))
}

func TestTypingDelay(t *testing.T) {
	assert.Equal(t, 600*time.Millisecond, demo.TypingDelay(""))
	assert.Equal(t, 680*time.Millisecond, demo.TypingDelay("0123456789"))
	assert.Equal(t, 2500*time.Millisecond, demo.TypingDelay(string(make([]byte, 1000))))
}
