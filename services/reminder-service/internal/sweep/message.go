package sweep

import "fmt"

// Message renders the WhatsApp-style reminder text for one tier.
func Message(appt Appointment, tier Tier) string {
	when := appt.StartTime.UTC().Format("Monday, Jan 2 at 15:04")
	switch tier {
	case Tier24h:
		return fmt.Sprintf("Hi %s! Just a reminder that your appointment is tomorrow: %s.", appt.ClientName, when)
	case Tier1h:
		return fmt.Sprintf("Hi %s! Your appointment is in about an hour, %s. See you soon!", appt.ClientName, when)
	case Tier30m:
		return fmt.Sprintf("Hi %s! Your appointment starts in 30 minutes (%s).", appt.ClientName, when)
	}
	return fmt.Sprintf("Hi %s! Reminder for your appointment: %s.", appt.ClientName, when)
}
