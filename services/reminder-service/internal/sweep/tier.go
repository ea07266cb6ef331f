package sweep

// Tier identifies one of the fixed reminder offsets before an appointment's
// start. A tier fires at most once per appointment.
type Tier string

const (
	Tier24h Tier = "24h"
	Tier1h  Tier = "1h"
	Tier30m Tier = "30min"
)

// Tiers in chronological firing order.
var Tiers = []Tier{Tier24h, Tier1h, Tier30m}

func (t Tier) Valid() bool {
	switch t {
	case Tier24h, Tier1h, Tier30m:
		return true
	}
	return false
}

// Firing windows in minutes before start, each gated by a minimum lead time
// so a tier only applies when the appointment was booked far enough in
// advance to make it meaningful. The thresholds are deliberately constants,
// not configuration: shifting them changes which appointments receive which
// reminders.
const (
	tier24hWindowMin = 1380 // 23h
	tier24hWindowMax = 1500 // 25h
	tier24hMinLead   = 1440 // booked more than a day ahead

	tier1hWindowMin = 55
	tier1hWindowMax = 65
	tier1hMinLead   = 60
	tier1hMaxLead   = 1440

	tier30mWindowMin = 25
	tier30mWindowMax = 35
	tier30mMaxLead   = 60
)

// TierFor selects the reminder tier for an appointment given minutes until
// its start and the booking lead time in minutes. The second return is false
// when no window matches this sweep.
func TierFor(minutesUntil, leadMinutes int) (Tier, bool) {
	switch {
	case minutesUntil >= tier24hWindowMin && minutesUntil <= tier24hWindowMax && leadMinutes > tier24hMinLead:
		return Tier24h, true
	case minutesUntil >= tier1hWindowMin && minutesUntil <= tier1hWindowMax &&
		leadMinutes > tier1hMinLead && leadMinutes <= tier1hMaxLead:
		return Tier1h, true
	case minutesUntil >= tier30mWindowMin && minutesUntil <= tier30mWindowMax && leadMinutes <= tier30mMaxLead:
		return Tier30m, true
	}
	return "", false
}
