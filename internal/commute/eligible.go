package commute

import "time"

// Eligible returns the commute labels whose scheduled time lies within the
// lead-time tolerance of now: the window instant is at most 30 minutes away,
// inclusive, on a selected commute day. A window within the tolerance of
// midnight matches from the adjacent calendar day, so the day-selection
// check applies to the day the commute falls on, not to now's weekday.
// Addresses are deliberately not checked here; that is the dispatcher's
// precondition.
//
// A degenerate configuration can make both windows eligible at once; they
// are returned together and dispatched independently.
func Eligible(now time.Time, cfg Config) []Label {
	var labels []Label
	for _, label := range []Label{LabelMorning, LabelEvening} {
		w := cfg.Window(label)
		if !w.Enabled {
			continue
		}
		if withinLead(now, cfg.Days, w.At) {
			labels = append(labels, label)
		}
	}
	return labels
}

// withinLead reports whether now is within the lead-time tolerance of the
// window time on a selected commute day, at minute granularity. The
// commute instant can sit on the calendar day before or after now when the
// window is near midnight, so both neighbours of now's day are candidates.
func withinLead(now time.Time, days DaySelection, at TimeOfDay) bool {
	now = time.Date(now.Year(), now.Month(), now.Day(),
		now.Hour(), now.Minute(), 0, 0, now.Location())

	for _, offset := range []int{-1, 0, 1} {
		day := now.AddDate(0, 0, offset)
		if !days.On(day.Weekday()) {
			continue
		}
		commuteAt := time.Date(day.Year(), day.Month(), day.Day(),
			at.Hour, at.Minute, 0, 0, now.Location())
		diff := now.Sub(commuteAt)
		if diff < 0 {
			diff = -diff
		}
		if diff <= LeadTime {
			return true
		}
	}
	return false
}

// IsEligible reports whether a single label is in the eligible set.
func IsEligible(now time.Time, cfg Config, label Label) bool {
	for _, l := range Eligible(now, cfg) {
		if l == label {
			return true
		}
	}
	return false
}

// TriggerSlot shifts a commute window's weekday and time-of-day back by the
// lead time, yielding the slot at which the check must fire. Crossing
// midnight moves the trigger onto the previous weekday.
func TriggerSlot(day time.Weekday, at TimeOfDay) (time.Weekday, TimeOfDay) {
	minute := at.MinuteOfDay() - int(LeadTime.Minutes())
	if minute < 0 {
		minute += 24 * 60
		day = prevWeekday(day)
	}
	return day, TimeOfDay{Hour: minute / 60, Minute: minute % 60}
}

// NextOccurrence returns the first instant at or after now that falls on
// the given weekday at the given time-of-day, in now's location.
func NextOccurrence(now time.Time, day time.Weekday, at TimeOfDay) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(),
		at.Hour, at.Minute, 0, 0, now.Location())

	daysAhead := (int(day) - int(now.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, daysAhead)
	if candidate.Before(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

func prevWeekday(day time.Weekday) time.Weekday {
	if day == time.Sunday {
		return time.Saturday
	}
	return day - 1
}
