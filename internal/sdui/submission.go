package sdui

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of dates in props and submissions.
const DateLayout = "2006-01-02"

var (
	// ErrNotInteractive is returned when submitting to a display-only component.
	ErrNotInteractive = errors.New("component does not accept submissions")
	// ErrInvalidSubmission is returned when the value does not fit the component.
	ErrInvalidSubmission = errors.New("invalid submission value")
)

// DateRangeSubmission is the synthesized message for a date_range_picker.
type DateRangeSubmission struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// BudgetSubmission is the synthesized message for a budget_slider.
type BudgetSubmission struct {
	Budget   float64 `json:"budget"`
	Currency string  `json:"currency,omitempty"`
}

// CompanionSubmission is the synthesized message for a companion_selector.
type CompanionSubmission struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// DateRange is the value a date_range_picker produces.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// FormatSubmission turns a widget value into the user message that answers it.
//
// Accepted values per type:
//   - preference_chips: string or []string of labels
//   - date_range_picker: DateRange
//   - budget_slider: int or float64
//   - companion_selector: CompanionSubmission
//   - rating_feedback: int
//   - quick_actions: action id (string)
//   - itinerary_card: string
func FormatSubmission(c *Component, value interface{}) (string, error) {
	if c == nil || !c.Type.Interactive() {
		return "", ErrNotInteractive
	}

	switch c.Type {
	case TypePreferenceChips:
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return "", ErrInvalidSubmission
			}
			return v, nil
		case []string:
			if len(v) == 0 {
				return "", ErrInvalidSubmission
			}
			return strings.Join(v, ", "), nil
		}

	case TypeDateRangePicker:
		if v, ok := value.(DateRange); ok {
			if v.End.Before(v.Start) {
				return "", fmt.Errorf("%w: end date before start date", ErrInvalidSubmission)
			}
			return marshalSubmission(DateRangeSubmission{
				StartDate: v.Start.Format(DateLayout),
				EndDate:   v.End.Format(DateLayout),
			})
		}

	case TypeBudgetSlider:
		props, err := c.BudgetSlider()
		if err != nil {
			return "", err
		}
		var amount float64
		switch v := value.(type) {
		case int:
			amount = float64(v)
		case float64:
			amount = v
		default:
			return "", ErrInvalidSubmission
		}
		return marshalSubmission(BudgetSubmission{
			Budget:   clamp(amount, props.Min, props.Max),
			Currency: props.Currency,
		})

	case TypeCompanionSelector:
		if v, ok := value.(CompanionSubmission); ok && v.Type != "" {
			if v.Count <= 0 {
				v.Count = 1
			}
			return marshalSubmission(v)
		}

	case TypeRatingFeedback:
		props, err := c.RatingFeedback()
		if err != nil {
			return "", err
		}
		if v, ok := value.(int); ok && v >= 1 && v <= props.MaxRating {
			return fmt.Sprintf("Rated %d/%d", v, props.MaxRating), nil
		}

	case TypeQuickActions:
		props, err := c.QuickActions()
		if err != nil {
			return "", err
		}
		if id, ok := value.(string); ok {
			for _, action := range props.Actions {
				if action.ID != id {
					continue
				}
				if action.Message != "" {
					return action.Message, nil
				}
				return action.Label, nil
			}
		}

	case TypeItineraryCard:
		if v, ok := value.(string); ok && strings.TrimSpace(v) != "" {
			return v, nil
		}
	}

	return "", fmt.Errorf("%w for %s: %v", ErrInvalidSubmission, c.Type, value)
}

func marshalSubmission(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal submission: %w", err)
	}
	return string(data), nil
}
