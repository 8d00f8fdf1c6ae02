package submit

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"zipli/internal/wizard"
)

// ValidationError blocks a submission before any write is attempted. Fields
// maps a field key to a user-presentable message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return fmt.Sprintf("validation failed: %s", strings.Join(keys, ", "))
}

func validate(state wizard.State, opts Options, now time.Time) *ValidationError {
	fields := map[string]string{}

	if strings.TrimSpace(opts.Address) == "" {
		fields["address"] = "A pickup address is required."
	}

	switch state.Flow {
	case wizard.FlowRequest:
		if state.Request == nil || strings.TrimSpace(state.Request.Description) == "" {
			fields["description"] = "Describe what kind of food you need."
		}
		if state.Request == nil || state.Request.PeopleCount < 1 {
			fields["people_count"] = "How many people are you requesting for?"
		}
	default:
		if len(state.Items) == 0 {
			fields["items"] = "Add at least one food item."
		}
		for _, item := range state.Items {
			if strings.TrimSpace(item.Name) == "" {
				fields["items"] = "Every item needs a name."
				break
			}
			if strings.TrimSpace(item.Quantity) == "" {
				fields["items"] = "Every item needs a quantity."
				break
			}
			if len(item.Allergens) == 0 {
				fields["items"] = "Every item needs allergen information."
				break
			}
		}
	}

	if len(state.Slots) == 0 && state.Recurring == nil {
		fields["slots"] = "Add at least one pickup time."
	}

	for _, slot := range state.Slots {
		if err := slot.Validate(now); err != nil {
			fields["slots"] = "One of the pickup times is invalid."
			break
		}
	}

	if state.Recurring != nil {
		if err := state.Recurring.Validate(); err != nil {
			fields["slots"] = "The recurring pickup schedule is invalid."
		}
	}

	if len(fields) == 0 {
		return nil
	}

	return &ValidationError{Fields: fields}
}
