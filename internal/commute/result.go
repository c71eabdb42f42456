package commute

import "time"

// FailureReason classifies why a rain check could not produce a result.
type FailureReason string

const (
	// ReasonConfigIncomplete means one or both route addresses are missing.
	ReasonConfigIncomplete FailureReason = "configuration_incomplete"
	// ReasonServiceUnavailable means the weather backend could not be reached.
	ReasonServiceUnavailable FailureReason = "service_unavailable"
	// ReasonServiceError means the backend answered with an error status.
	ReasonServiceError FailureReason = "service_error"
	// ReasonMalformedResponse means the backend answer was missing expected fields.
	ReasonMalformedResponse FailureReason = "malformed_response"
)

// Failure is the single normalized form every dispatch-time error takes.
// It never propagates as a raw error into the trigger loop.
type Failure struct {
	Reason  FailureReason `json:"reason"`
	Message string        `json:"message"`
}

func (f *Failure) Error() string {
	return string(f.Reason) + ": " + f.Message
}

// CheckResult is one completed rain check for a commute window. Ephemeral;
// only the most recent one per label is cached for the API.
type CheckResult struct {
	Label     Label     `json:"label"`
	WillRain  bool      `json:"will_rain"`
	Condition string    `json:"weather_condition"`
	MapImage  []byte    `json:"map_image,omitempty"` // annotated radar map, may be empty
	Timestamp time.Time `json:"timestamp"`
}
