// Package sdui defines the server-driven UI contract: the closed set of widget
// types a reply may carry, their typed props, the normalizer that reconciles
// loosely shaped payloads, and the renderer registry.
package sdui

import (
	"encoding/json"
	"fmt"
)

// Type is the discriminant of a UI component.
type Type string

const (
	TypeBudgetSlider      Type = "budget_slider"
	TypeDateRangePicker   Type = "date_range_picker"
	TypePreferenceChips   Type = "preference_chips"
	TypeCompanionSelector Type = "companion_selector"
	TypeRatingFeedback    Type = "rating_feedback"
	TypeItineraryCard     Type = "itinerary_card"
	TypeQuickActions      Type = "quick_actions"

	// Display-only variants.
	TypeFlightCard Type = "flight_card"
	TypeMapView    Type = "map_view"
	TypeRouteView  Type = "route_view"
)

var interactiveTypes = map[Type]bool{
	TypeBudgetSlider:      true,
	TypeDateRangePicker:   true,
	TypePreferenceChips:   true,
	TypeCompanionSelector: true,
	TypeRatingFeedback:    true,
	TypeItineraryCard:     true,
	TypeQuickActions:      true,
}

var displayTypes = map[Type]bool{
	TypeFlightCard: true,
	TypeMapView:    true,
	TypeRouteView:  true,
}

// IsValidType reports whether t names a component variant this client knows.
func IsValidType(t string) bool {
	return interactiveTypes[Type(t)] || displayTypes[Type(t)]
}

// Interactive reports whether components of this type accept a submission.
func (t Type) Interactive() bool {
	return interactiveTypes[t]
}

// Component is a server-driven widget descriptor attached to a message.
// Props are treated as immutable once the component is attached; callers
// replace components rather than edit them.
type Component struct {
	Type     Type                   `json:"type" bson:"type" firestore:"type"`
	Props    map[string]interface{} `json:"props" bson:"props" firestore:"props"`
	Required bool                   `json:"required,omitempty" bson:"required,omitempty" firestore:"required,omitempty"`
}

// NewComponent builds a component from typed props. The props value is
// flattened to its JSON shape so components built locally compare equal to
// components decoded from the wire.
func NewComponent(t Type, props interface{}) (*Component, error) {
	flat := map[string]interface{}{}
	if props != nil {
		data, err := json.Marshal(props)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s props: %w", t, err)
		}
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, fmt.Errorf("props for %s must be an object: %w", t, err)
		}
	}
	return &Component{Type: t, Props: flat}, nil
}

// MustComponent is NewComponent for props known to be valid at compile time.
func MustComponent(t Type, props interface{}) *Component {
	c, err := NewComponent(t, props)
	if err != nil {
		panic(err)
	}
	return c
}

// Clone returns a deep copy of the component.
func (c *Component) Clone() *Component {
	if c == nil {
		return nil
	}
	out := &Component{Type: c.Type, Required: c.Required}
	if c.Props != nil {
		out.Props = cloneValue(c.Props).(map[string]interface{})
	}
	return out
}

// DecodeProps decodes the component props into out.
func (c *Component) DecodeProps(out interface{}) error {
	data, err := json.Marshal(c.Props)
	if err != nil {
		return fmt.Errorf("failed to marshal props: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s props: %w", c.Type, err)
	}
	return nil
}

// CloneComponents deep-copies a component slice.
func CloneComponents(in []Component) []Component {
	if in == nil {
		return nil
	}
	out := make([]Component, len(in))
	for i := range in {
		out[i] = *in[i].Clone()
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[k] = cloneValue(item)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(val))
		for i, item := range val {
			s[i] = cloneValue(item)
		}
		return s
	default:
		return val
	}
}
