package reconcile

import (
	"encoding/json"

	"github.com/arogya-health/booking-platform/internal/dinodial"
)

// Outcome is the normalized evaluation payload of a finished call. The
// provider reports it either at the top level or nested under
// call_details.callOutcomesData depending on proxy version; both shapes
// normalize to this.
type Outcome struct {
	Booked       bool   `json:"booked"`
	Name         string `json:"name"`
	Symptoms     string `json:"symptoms"`
	Specialty    string `json:"specialty"`
	TimeSlot     string `json:"time"`
	SpecialNotes string `json:"special_notes"`

	// Raw is the payload as received, stored on the call log verbatim.
	Raw json.RawMessage `json:"-"`
}

// ParseOutcome extracts the evaluation payload from a call detail, probing
// the nested location when the top-level one is empty.
func ParseOutcome(detail *dinodial.CallDetail) Outcome {
	raw := detail.EvaluationResult
	if emptyJSON(raw) && len(detail.CallDetails) > 0 {
		var nested struct {
			CallOutcomes json.RawMessage `json:"callOutcomesData"`
		}
		if err := json.Unmarshal(detail.CallDetails, &nested); err == nil && !emptyJSON(nested.CallOutcomes) {
			raw = nested.CallOutcomes
		}
	}

	var o Outcome
	if !emptyJSON(raw) {
		// Malformed payloads degrade to an empty outcome; the sync still
		// records the call.
		_ = json.Unmarshal(raw, &o)
		o.Raw = raw
	}
	return o
}

func emptyJSON(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return true
	}
	return len(m) == 0
}
