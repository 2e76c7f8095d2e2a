package sdui

// Option is a selectable entry of a chip or companion widget.
type Option struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Icon     string `json:"icon,omitempty"`
	Selected bool   `json:"selected"`
	Count    int    `json:"count,omitempty"`
}

// BudgetPreset is a shortcut value on the budget slider.
type BudgetPreset struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BudgetSliderProps configures a budget_slider.
type BudgetSliderProps struct {
	Min      float64        `json:"min"`
	Max      float64        `json:"max"`
	Step     float64        `json:"step"`
	Default  float64        `json:"default"`
	Currency string         `json:"currency"`
	Presets  []BudgetPreset `json:"presets,omitempty"`
}

// DateRangePickerProps configures a date_range_picker. Dates are YYYY-MM-DD.
type DateRangePickerProps struct {
	MinDate      string `json:"minDate,omitempty"`
	MaxDate      string `json:"maxDate,omitempty"`
	DefaultStart string `json:"defaultStart,omitempty"`
	DefaultEnd   string `json:"defaultEnd,omitempty"`
	MinNights    int    `json:"minNights"`
	MaxNights    int    `json:"maxNights"`
}

// PreferenceChipsProps configures preference_chips.
type PreferenceChipsProps struct {
	Question      string   `json:"question,omitempty"`
	Options       []Option `json:"options"`
	MultiSelect   bool     `json:"multiSelect"`
	MaxSelections int      `json:"maxSelections,omitempty"`
}

// CompanionSelectorProps configures a companion_selector.
type CompanionSelectorProps struct {
	Options      []Option `json:"options"`
	ShowCount    bool     `json:"showCount"`
	MaxTravelers int      `json:"maxTravelers"`
}

// RatingFeedbackProps configures rating_feedback.
type RatingFeedbackProps struct {
	Question  string `json:"question,omitempty"`
	MaxRating int    `json:"maxRating"`
}

// Activity is one entry of an itinerary day.
type Activity struct {
	Time        string  `json:"time"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
}

// ItineraryDay groups the activities of a single day.
type ItineraryDay struct {
	Day        int        `json:"day"`
	Date       string     `json:"date,omitempty"`
	Title      string     `json:"title"`
	Activities []Activity `json:"activities"`
}

// ItineraryCardProps configures an itinerary_card.
type ItineraryCardProps struct {
	Destination string         `json:"destination"`
	Days        []ItineraryDay `json:"days"`
	TotalCost   float64        `json:"totalCost,omitempty"`
	Currency    string         `json:"currency,omitempty"`
}

// QuickAction is a one-tap reply.
type QuickAction struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Message string `json:"message,omitempty"`
}

// QuickActionsProps configures quick_actions.
type QuickActionsProps struct {
	Actions []QuickAction `json:"actions"`
}

// FlightOption is one bookable flight on a flight_card.
type FlightOption struct {
	ID            string  `json:"id"`
	Airline       string  `json:"airline"`
	FlightNumber  string  `json:"flightNumber"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	Date          string  `json:"date"`
	DepartureTime string  `json:"departureTime"`
	ArrivalTime   string  `json:"arrivalTime"`
	Duration      string  `json:"duration"`
	Stops         int     `json:"stops"`
	Class         string  `json:"class"`
	Passengers    int     `json:"passengers"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
}

// FlightCardProps configures a flight_card.
type FlightCardProps struct {
	Flights []FlightOption `json:"flights"`
}

// LatLng is a geographic coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MapMarker is a labelled point on a map_view.
type MapMarker struct {
	Position LatLng `json:"position"`
	Label    string `json:"label"`
	Kind     string `json:"kind,omitempty"`
	Day      int    `json:"day,omitempty"`
}

// MapViewProps configures a map_view.
type MapViewProps struct {
	Center  LatLng      `json:"center"`
	Zoom    int         `json:"zoom"`
	Markers []MapMarker `json:"markers"`
}

// RouteViewProps configures a route_view.
type RouteViewProps struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Waypoints   []string `json:"waypoints,omitempty"`
	Mode        string   `json:"mode"`
}

// Defaults for optional props.
const (
	DefaultBudgetMin      = 10000
	DefaultBudgetMax      = 500000
	DefaultBudgetStep     = 5000
	DefaultBudget         = 50000
	DefaultCurrency       = "INR"
	DefaultMinNights      = 1
	DefaultMaxNights      = 30
	DefaultMaxTravelers   = 10
	DefaultMaxRating      = 5
	DefaultMapZoom        = 12
	DefaultRouteTransport = "driving"
)

// DefaultCompanionOptions is used when a companion_selector carries no options.
func DefaultCompanionOptions() []Option {
	return []Option{
		{ID: "solo", Label: "Solo", Count: 1},
		{ID: "couple", Label: "Couple", Count: 2},
		{ID: "family", Label: "Family", Count: 4},
		{ID: "friends", Label: "Friends", Count: 3},
	}
}

// BudgetSlider decodes budget_slider props with defaults applied.
func (c *Component) BudgetSlider() (BudgetSliderProps, error) {
	var p BudgetSliderProps
	if err := c.DecodeProps(&p); err != nil {
		return p, err
	}
	if p.Min <= 0 {
		p.Min = DefaultBudgetMin
	}
	if p.Max <= p.Min {
		p.Max = DefaultBudgetMax
	}
	if p.Step <= 0 {
		p.Step = DefaultBudgetStep
	}
	if p.Default < p.Min || p.Default > p.Max {
		p.Default = clamp(DefaultBudget, p.Min, p.Max)
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return p, nil
}

// DateRangePicker decodes date_range_picker props with defaults applied.
func (c *Component) DateRangePicker() (DateRangePickerProps, error) {
	var p DateRangePickerProps
	if err := c.DecodeProps(&p); err != nil {
		return p, err
	}
	if p.MinNights <= 0 {
		p.MinNights = DefaultMinNights
	}
	if p.MaxNights < p.MinNights {
		p.MaxNights = DefaultMaxNights
	}
	return p, nil
}

// PreferenceChips decodes preference_chips props.
func (c *Component) PreferenceChips() (PreferenceChipsProps, error) {
	var p PreferenceChipsProps
	if err := c.DecodeProps(&p); err != nil {
		return p, err
	}
	if !p.MultiSelect {
		p.MaxSelections = 1
	}
	return p, nil
}

// CompanionSelector decodes companion_selector props with defaults applied.
func (c *Component) CompanionSelector() (CompanionSelectorProps, error) {
	p := CompanionSelectorProps{ShowCount: true}
	if err := c.DecodeProps(&p); err != nil {
		return p, err
	}
	if len(p.Options) == 0 {
		p.Options = DefaultCompanionOptions()
	}
	if p.MaxTravelers <= 0 {
		p.MaxTravelers = DefaultMaxTravelers
	}
	return p, nil
}

// RatingFeedback decodes rating_feedback props with defaults applied.
func (c *Component) RatingFeedback() (RatingFeedbackProps, error) {
	var p RatingFeedbackProps
	if err := c.DecodeProps(&p); err != nil {
		return p, err
	}
	if p.MaxRating <= 0 {
		p.MaxRating = DefaultMaxRating
	}
	return p, nil
}

// ItineraryCard decodes itinerary_card props.
func (c *Component) ItineraryCard() (ItineraryCardProps, error) {
	var p ItineraryCardProps
	if err := c.DecodeProps(&p); err != nil {
		return p, err
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return p, nil
}

// QuickActions decodes quick_actions props.
func (c *Component) QuickActions() (QuickActionsProps, error) {
	var p QuickActionsProps
	err := c.DecodeProps(&p)
	return p, err
}

// FlightCard decodes flight_card props.
func (c *Component) FlightCard() (FlightCardProps, error) {
	var p FlightCardProps
	if err := c.DecodeProps(&p); err != nil {
		return p, err
	}
	for i := range p.Flights {
		if p.Flights[i].Currency == "" {
			p.Flights[i].Currency = DefaultCurrency
		}
	}
	return p, nil
}

// MapView decodes map_view props with defaults applied.
func (c *Component) MapView() (MapViewProps, error) {
	var p MapViewProps
	if err := c.DecodeProps(&p); err != nil {
		return p, err
	}
	if p.Zoom <= 0 {
		p.Zoom = DefaultMapZoom
	}
	return p, nil
}

// RouteView decodes route_view props with defaults applied.
func (c *Component) RouteView() (RouteViewProps, error) {
	var p RouteViewProps
	if err := c.DecodeProps(&p); err != nil {
		return p, err
	}
	if p.Mode == "" {
		p.Mode = DefaultRouteTransport
	}
	return p, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
