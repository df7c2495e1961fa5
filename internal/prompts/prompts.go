// Package prompts builds the natural-language instructions and the structured
// evaluation schema handed to the voice provider. Pure templating, no control
// logic.
package prompts

import (
	"fmt"
	"strings"
	"time"
)

// DoctorInfo is the optional target doctor for a booking call.
type DoctorInfo struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Clinic    string `json:"clinic"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// RosterEntry is one doctor in the hospital roster presented to the caller.
type RosterEntry struct {
	Name      string
	Specialty string
	Slots     string
}

// placeholder doctor names that should not be treated as an explicit target
var genericTargets = map[string]bool{
	"the duty doctor":  true,
	"Dr.Sharma":        true,
	"Available Doctor": true,
}

// BookingPrompt generates the booking-call instructions for a patient phone
// number, optionally steering toward a target doctor and embedding the live
// hospital roster.
func BookingPrompt(phoneNumber string, target *DoctorInfo, roster []RosterEntry) string {
	var targetBlock strings.Builder
	if target != nil && target.Name != "" && !genericTargets[target.Name] {
		date := target.Date
		if date == "" {
			date = "tomorrow"
		}
		fmt.Fprintf(&targetBlock, "    <target_doctor>\n")
		fmt.Fprintf(&targetBlock, "      <name>%s</name>\n", target.Name)
		fmt.Fprintf(&targetBlock, "      <spec>%s</spec>\n", target.Specialty)
		fmt.Fprintf(&targetBlock, "      <time>%s</time>\n", target.Time)
		fmt.Fprintf(&targetBlock, "      <date>%s</date>\n", date)
		fmt.Fprintf(&targetBlock, "    </target_doctor>\n")
	}

	return fmt.Sprintf(`Hospital booking assistant. Speak naturally in Indian English.

PATIENT: %s
%s%s
CRITICAL: Get BOTH first AND last name. If patient says only "Rahul", ask "And your surname?" NO single names.

WORKFLOW:
1. "Your first name?" -> "And last name?"
2. "What brings you in today?"
3. Match symptoms: Fever->General Medicine, Chest->Cardiology, Skin->Dermatology, Joint->Orthopedics
4. Check time: Current=%s. Doctor hours per roster.
   - If patient asks for a past time or after hours: suggest the next open slot.
5. Suggest: "Dr.[Name], [Specialty], free at [realistic times]"
6. Get preference: "Today, tomorrow, or which date?"
7. CONFIRM: "[Full Name], Dr.[Doctor], [Date] [Time] for [symptoms]"
8. "Arrive 10 min early. SMS confirmation coming."
9. end_call with "Appointment booked"

RULES:
- Get BOTH names. A surname alone is NOT valid.
- Time logic: never offer past times or slots outside doctor hours.
- Explain if unavailable: "that slot is booked" or "the doctor has left".
- Under 15 words per response.
`, phoneNumber, targetBlock.String(), rosterXML(roster), time.Now().Format("03:04 PM"))
}

// ReminderPrompt generates the instructions for a follow-up reminder call.
func ReminderPrompt(patientName, doctorName, date, timeSlot string) string {
	return fmt.Sprintf(`Hospital reminder assistant. Speak naturally in Indian English. Keep the call short.

You are calling %s to remind them about their upcoming appointment.

DETAILS:
- Doctor: %s
- Date: %s
- Time: %s

WORKFLOW:
1. Greet the patient by name and state this is an appointment reminder.
2. Read out the doctor, date and time.
3. Ask them to arrive 10 minutes early.
4. If they want to reschedule, tell them to call the hospital desk.
5. end_call with "Reminder delivered"

RULES:
- Under 15 words per response.
- Do not book or change anything on this call.
`, patientName, doctorName, date, timeSlot)
}

func rosterXML(roster []RosterEntry) string {
	if len(roster) == 0 {
		// Fallback roster when the doctor table has not been seeded yet.
		roster = []RosterEntry{
			{Name: "Dr. Sharma", Specialty: "General Medicine", Slots: "10am-2pm"},
			{Name: "Dr. Anita", Specialty: "Cardiology", Slots: "4pm-6pm"},
			{Name: "Dr. Raj", Specialty: "Dermatology", Slots: "11am-1pm"},
			{Name: "Dr. Priya", Specialty: "Orthopedics", Slots: "2pm-5pm"},
			{Name: "Dr. Khan", Specialty: "Pediatrics", Slots: "9am-12pm"},
		}
	}
	var b strings.Builder
	b.WriteString("    <hospital_roster>\n")
	for _, doc := range roster {
		slots := doc.Slots
		if slots == "" {
			slots = "9am-5pm"
		}
		fmt.Fprintf(&b, "      <doc><name>%s</name><spec>%s</spec><slots>%s</slots></doc>\n", doc.Name, doc.Specialty, slots)
	}
	b.WriteString("    </hospital_roster>\n")
	return b.String()
}

// EvaluationTool returns the structured schema the provider's evaluation
// engine fills in after the call.
func EvaluationTool() map[string]any {
	return map[string]any{
		"name":        "call_outcomes",
		"behavior":    "BLOCKING",
		"description": "Capture appointment details: name, symptoms, specialty, doctor, date, time",
		"parameters": map[string]any{
			"type":     "OBJECT",
			"required": []string{"appointment_confirmed", "patient_name", "specialty_needed", "symptoms"},
			"properties": map[string]any{
				"appointment_confirmed": map[string]any{
					"type":        "BOOLEAN",
					"description": "Appointment booked successfully",
				},
				"patient_name": map[string]any{
					"type":        "STRING",
					"description": "Patient's exact full name (first + last, as spoken - NO placeholders)",
				},
				"symptoms": map[string]any{
					"type":        "STRING",
					"description": "Health problem/symptoms described",
				},
				"specialty_needed": map[string]any{
					"type":        "STRING",
					"description": "Medical specialty: Cardiology|Dermatology|Pediatrics|Orthopedics|General Medicine|ENT (match to symptoms)",
				},
				"preferred_doctor": map[string]any{
					"type":        "STRING",
					"description": "Doctor name chosen",
				},
				"appointment_date": map[string]any{
					"type":        "STRING",
					"description": "Date (YYYY-MM-DD)",
				},
				"appointment_time": map[string]any{
					"type":        "STRING",
					"description": "Time slot",
				},
				"special_notes": map[string]any{
					"type":        "STRING",
					"description": "Allergies/special requirements",
				},
			},
		},
	}
}
