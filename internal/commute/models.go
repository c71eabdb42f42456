package commute

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LeadTime is the fixed offset before a commute window at which the
// background rain check runs. Not user-configurable.
const LeadTime = 30 * time.Minute

// Label identifies one of the two daily commute windows.
type Label string

const (
	LabelMorning Label = "morning"
	LabelEvening Label = "evening"
)

// ParseLabel validates a label string coming from the API.
func ParseLabel(s string) (Label, error) {
	switch Label(s) {
	case LabelMorning, LabelEvening:
		return Label(s), nil
	}
	return "", fmt.Errorf("unknown commute label %q", s)
}

// Vehicle is the user's commute vehicle, sent to the weather backend as-is.
type Vehicle string

const (
	VehicleBike      Vehicle = "bike"
	VehicleMotorbike Vehicle = "motorbike"
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "H:MM" or "HH:MM", the format the settings
// file has always used.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// String formats as zero-padded "HH:MM", which is also what the gocron
// At() clause expects.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MinuteOfDay returns minutes since midnight.
func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("time of day must be a JSON string")
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Window is one of the two daily commute slots.
type Window struct {
	Enabled bool      `json:"enabled"`
	At      TimeOfDay `json:"time"`
}

// DaySelection is an explicit per-weekday toggle set. The JSON keys match
// the settings format the existing clients write.
type DaySelection struct {
	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
	Sunday    bool `json:"sunday"`
}

// On reports whether the given weekday is selected.
func (d DaySelection) On(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return d.Monday
	case time.Tuesday:
		return d.Tuesday
	case time.Wednesday:
		return d.Wednesday
	case time.Thursday:
		return d.Thursday
	case time.Friday:
		return d.Friday
	case time.Saturday:
		return d.Saturday
	case time.Sunday:
		return d.Sunday
	}
	return false
}

// Weekdays returns the selected days in Monday-first order.
func (d DaySelection) Weekdays() []time.Weekday {
	order := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday, time.Sunday,
	}
	var out []time.Weekday
	for _, day := range order {
		if d.On(day) {
			out = append(out, day)
		}
	}
	return out
}

// Config is the user's commute schedule, read as a snapshot from the
// settings store. The core never mutates it; external updates go through
// the settings API, which persists and then replans.
type Config struct {
	HomeAddress          string       `json:"home_address"`
	WorkAddress          string       `json:"work_address"`
	Days                 DaySelection `json:"commute_days"`
	Morning              Window       `json:"morning_commute"`
	Evening              Window       `json:"evening_commute"`
	Vehicle              Vehicle      `json:"vehicle"`
	NotificationsEnabled bool         `json:"notifications_enabled"`
}

// Window returns the window for a label.
func (c Config) Window(label Label) Window {
	if label == LabelEvening {
		return c.Evening
	}
	return c.Morning
}

// HasAddresses reports whether both route endpoints are set. Checked by
// the dispatcher, not the evaluator.
func (c Config) HasAddresses() bool {
	return c.HomeAddress != "" && c.WorkAddress != ""
}

// DefaultConfig is what an absent settings record means: weekday commutes,
// morning 08:00, evening 17:30, notifications on, no addresses yet.
func DefaultConfig() Config {
	return Config{
		Days: DaySelection{
			Monday: true, Tuesday: true, Wednesday: true,
			Thursday: true, Friday: true,
		},
		Morning:              Window{Enabled: true, At: TimeOfDay{Hour: 8}},
		Evening:              Window{Enabled: true, At: TimeOfDay{Hour: 17, Minute: 30}},
		Vehicle:              VehicleBike,
		NotificationsEnabled: true,
	}
}
