package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingPromptIncludesRoster(t *testing.T) {
	roster := []RosterEntry{
		{Name: "Dr. Mehta", Specialty: "Cardiology", Slots: "4pm-6pm"},
		{Name: "Dr. Iyer", Specialty: "ENT"},
	}
	prompt := BookingPrompt("+919970208412", nil, roster)

	assert.Contains(t, prompt, "+919970208412")
	assert.Contains(t, prompt, "<name>Dr. Mehta</name>")
	// missing slots default
	assert.Contains(t, prompt, "<doc><name>Dr. Iyer</name><spec>ENT</spec><slots>9am-5pm</slots></doc>")
	assert.NotContains(t, prompt, "<target_doctor>")
}

func TestBookingPromptFallbackRoster(t *testing.T) {
	prompt := BookingPrompt("+911234567890", nil, nil)
	assert.Contains(t, prompt, "Dr. Sharma")
	assert.Contains(t, prompt, "Pediatrics")
}

func TestBookingPromptTargetDoctor(t *testing.T) {
	target := &DoctorInfo{Name: "Dr. Mehta", Specialty: "Cardiology", Time: "4:00 PM"}
	prompt := BookingPrompt("+911234567890", target, nil)
	assert.Contains(t, prompt, "<target_doctor>")
	assert.Contains(t, prompt, "<date>tomorrow</date>")
}

func TestBookingPromptIgnoresGenericTarget(t *testing.T) {
	target := &DoctorInfo{Name: "Available Doctor"}
	prompt := BookingPrompt("+911234567890", target, nil)
	assert.NotContains(t, prompt, "<target_doctor>")
}

func TestReminderPrompt(t *testing.T) {
	prompt := ReminderPrompt("Rahul Verma", "Dr. Mehta", "2025-03-02", "4:00 PM")
	for _, want := range []string{"Rahul Verma", "Dr. Mehta", "2025-03-02", "4:00 PM"} {
		assert.True(t, strings.Contains(prompt, want), "missing %q", want)
	}
}

func TestEvaluationToolShape(t *testing.T) {
	tool := EvaluationTool()
	assert.Equal(t, "call_outcomes", tool["name"])
	assert.Equal(t, "BLOCKING", tool["behavior"])

	params, ok := tool["parameters"].(map[string]any)
	assert.True(t, ok)
	props, ok := params["properties"].(map[string]any)
	assert.True(t, ok)
	for _, field := range []string{"appointment_confirmed", "patient_name", "symptoms", "specialty_needed"} {
		assert.Contains(t, props, field)
	}
}
