package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/arogya-health/booking-platform/internal/dinodial"
)

func TestParseOutcomeTopLevel(t *testing.T) {
	detail := &dinodial.CallDetail{
		EvaluationResult: json.RawMessage(`{"booked":true,"name":"Asha Rao","symptoms":"chest pain","specialty":"Cardiology","time":"11:30 AM","special_notes":"wheelchair access"}`),
	}
	o := ParseOutcome(detail)
	if !o.Booked || o.Name != "Asha Rao" || o.Specialty != "Cardiology" || o.TimeSlot != "11:30 AM" {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	if o.SpecialNotes != "wheelchair access" {
		t.Fatalf("special notes not parsed: %+v", o)
	}
	if len(o.Raw) == 0 {
		t.Fatal("raw payload should be preserved")
	}
}

func TestParseOutcomeNestedFallback(t *testing.T) {
	detail := &dinodial.CallDetail{
		EvaluationResult: json.RawMessage(`{}`),
		CallDetails:      json.RawMessage(`{"callOutcomesData":{"booked":true,"name":"Ravi Kumar"}}`),
	}
	o := ParseOutcome(detail)
	if !o.Booked || o.Name != "Ravi Kumar" {
		t.Fatalf("nested outcome not picked up: %+v", o)
	}
}

func TestParseOutcomeEmpty(t *testing.T) {
	o := ParseOutcome(&dinodial.CallDetail{})
	if o.Booked || o.Name != "" || len(o.Raw) != 0 {
		t.Fatalf("expected zero outcome, got %+v", o)
	}
}

func TestParseOutcomeMalformed(t *testing.T) {
	detail := &dinodial.CallDetail{
		EvaluationResult: json.RawMessage(`"not an object"`),
		CallDetails:      json.RawMessage(`{"callOutcomesData":{"booked":false,"symptoms":"fever"}}`),
	}
	o := ParseOutcome(detail)
	if o.Booked || o.Symptoms != "fever" {
		t.Fatalf("malformed top level should fall back to nested: %+v", o)
	}
}
