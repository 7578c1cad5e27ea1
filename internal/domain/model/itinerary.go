package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"travel-itinerary-ai/internal/domain"
)

type ItineraryStatus string

const (
	ItineraryStatusProcessing ItineraryStatus = "processing"
	ItineraryStatusCompleted  ItineraryStatus = "completed"
	ItineraryStatusFailed     ItineraryStatus = "failed"
)

// Itinerary is the durable, externally queryable document for one job.
// Destination and DurationDays are copied from the request at creation and
// never change; the document is updated exactly once to a terminal state.
type Itinerary struct {
	ID           string
	Status       ItineraryStatus
	Destination  string
	DurationDays int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
	// Itinerary holds the generated day plans as an opaque serialized
	// string; it is expanded into []DayPlan only at the status-query
	// boundary. Nil until the document is completed.
	Itinerary *string
	Error     *string
}

type Activity struct {
	Time        string `json:"time"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type DayPlan struct {
	Day        int        `json:"day"`
	Theme      string     `json:"theme"`
	Activities []Activity `json:"activities"`
}

// DecodeDayPlans validates that raw is a non-empty JSON array of day plans
// and converts it into structured form. All violations are collected in one
// pass and returned as a single *domain.ValidationError.
func DecodeDayPlans(raw []byte) ([]DayPlan, error) {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}

	verr := &domain.ValidationError{}
	days, ok := root.([]any)
	if !ok {
		verr.Add("itinerary", "must be an array of day plans")
		return nil, verr
	}
	if len(days) == 0 {
		verr.Add("itinerary", "must contain at least one day plan")
		return nil, verr
	}

	plans := make([]DayPlan, 0, len(days))
	for i, d := range days {
		path := fmt.Sprintf("itinerary[%d]", i)
		obj, ok := d.(map[string]any)
		if !ok {
			verr.Add(path, "must be a day-plan object")
			continue
		}
		plan := DayPlan{}
		if day, ok := asInt(obj["day"]); !ok {
			verr.Add(path+".day", "must be an integer")
		} else if day < 1 {
			verr.Add(path+".day", "must be at least 1")
		} else {
			plan.Day = day
		}
		if theme, ok := obj["theme"].(string); !ok {
			verr.Add(path+".theme", "must be a string")
		} else {
			plan.Theme = theme
		}

		acts, ok := obj["activities"].([]any)
		if !ok {
			verr.Add(path+".activities", "must be an array of activities")
			continue
		}
		if len(acts) == 0 {
			verr.Add(path+".activities", "must contain at least one activity")
			continue
		}
		for k, a := range acts {
			apath := fmt.Sprintf("%s.activities[%d]", path, k)
			aobj, ok := a.(map[string]any)
			if !ok {
				verr.Add(apath, "must be an activity object")
				continue
			}
			act := Activity{}
			for _, f := range []struct {
				name string
				dst  *string
			}{
				{"time", &act.Time},
				{"description", &act.Description},
				{"location", &act.Location},
			} {
				if s, ok := aobj[f.name].(string); ok {
					*f.dst = s
				} else {
					verr.Add(apath+"."+f.name, "must be a string")
				}
			}
			plan.Activities = append(plan.Activities, act)
		}
		plans = append(plans, plan)
	}

	if len(verr.Violations) > 0 {
		return nil, verr
	}
	return plans, nil
}

// asInt accepts only integral JSON numbers.
func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
