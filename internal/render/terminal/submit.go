package terminal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tripmind/assistant/internal/sdui"
)

// ParseSubmission turns what the user typed after /submit into the value the
// widget c expects.
func ParseSubmission(c *sdui.Component, input string) (interface{}, error) {
	input = strings.TrimSpace(input)
	if c == nil {
		return nil, sdui.ErrNotInteractive
	}
	if input == "" {
		return nil, fmt.Errorf("%w: empty value", sdui.ErrInvalidSubmission)
	}

	switch c.Type {
	case sdui.TypePreferenceChips:
		var labels []string
		for _, part := range strings.Split(input, ",") {
			if part = strings.TrimSpace(part); part != "" {
				labels = append(labels, part)
			}
		}
		if len(labels) == 1 {
			return labels[0], nil
		}
		return labels, nil

	case sdui.TypeDateRangePicker:
		fields := strings.Fields(strings.ReplaceAll(input, "..", " "))
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: want two dates", sdui.ErrInvalidSubmission)
		}
		start, err := time.Parse(sdui.DateLayout, fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sdui.ErrInvalidSubmission, err)
		}
		end, err := time.Parse(sdui.DateLayout, fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sdui.ErrInvalidSubmission, err)
		}
		return sdui.DateRange{Start: start, End: end}, nil

	case sdui.TypeBudgetSlider:
		amount, err := strconv.ParseFloat(strings.NewReplacer(",", "", "₹", "").Replace(input), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sdui.ErrInvalidSubmission, err)
		}
		return amount, nil

	case sdui.TypeCompanionSelector:
		return parseCompanions(c, strings.Fields(input))

	case sdui.TypeRatingFeedback:
		n, err := strconv.Atoi(input)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sdui.ErrInvalidSubmission, err)
		}
		return n, nil

	case sdui.TypeQuickActions, sdui.TypeItineraryCard:
		return input, nil
	}

	return nil, sdui.ErrNotInteractive
}

func parseCompanions(c *sdui.Component, fields []string) (interface{}, error) {
	props, err := c.CompanionSelector()
	if err != nil {
		return nil, err
	}

	sub := sdui.CompanionSubmission{Type: strings.ToLower(fields[0])}
	for _, o := range props.Options {
		if strings.EqualFold(o.ID, sub.Type) || strings.EqualFold(o.Label, sub.Type) {
			sub.Type = o.ID
			sub.Count = o.Count
			break
		}
	}
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > props.MaxTravelers {
			return nil, fmt.Errorf("%w: count must be 1 to %d", sdui.ErrInvalidSubmission, props.MaxTravelers)
		}
		sub.Count = n
	}
	return sub, nil
}
