package engine

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"opticost/core/types"
)

// travelProfile is the crew's travel situation derived from logistics data
type travelProfile struct {
	distanceKm float64

	// oneWayHours is the crew's one-way duration (drive, or public transport + last mile)
	oneWayHours float64

	// driveHours is the one-way drive duration, used for the crane truck
	driveHours float64

	trasferta       bool
	publicTransport bool

	hotelPerNight   decimal.Decimal
	ticketPerPerson decimal.Decimal
}

func resolveTravel(in types.JobInputs, rates types.RateConfig) travelProfile {
	l := in.Logistics
	t := travelProfile{hotelPerNight: defaultHotelPerNight, ticketPerPerson: decimal.Zero}
	if !l.Fetched {
		return t
	}

	t.distanceKm = math.Max(0, l.DistanceKm)
	t.driveHours = math.Max(0, l.DriveDurationMinutes) / 60
	t.oneWayHours = t.driveHours
	t.trasferta = t.distanceKm > rates.TravelThresholdKm

	if l.AvgHotelPrice.IsPositive() {
		t.hotelPerNight = l.AvgHotelPrice
	}

	if in.UsePublicTransport {
		t.publicTransport = true
		modeMinutes, modePrice := l.TrainDurationMinutes, l.TrainPrice
		if in.PublicTransportMode == types.TransportPlane {
			modeMinutes, modePrice = l.PlaneDurationMinutes, l.PlanePrice
		}
		t.oneWayHours = math.Max(0, modeMinutes+l.LastMileDurationMinutes) / 60
		if ticket := modePrice.Add(l.LastMilePrice); ticket.IsPositive() {
			t.ticketPerPerson = ticket
		}
	}
	return t
}

// schedule is the outcome of the day/night travel simulation
type schedule struct {
	arrival     float64
	lostDay     bool
	finish      float64
	returnClock float64
	extraNight  bool

	// narrative is display-only and never feeds billing
	narrative []string
}

// totalDays adds the lost travel day to the working days
func (s schedule) totalDays(w workload) int {
	if s.lostDay {
		return w.workDays + 1
	}
	return w.workDays
}

// simulateInstall runs the crew schedule for a full installation.
// Nothing is simulated when no working day is needed.
func simulateInstall(t travelProfile, w workload) schedule {
	if w.workDays == 0 {
		return schedule{}
	}

	s := schedule{arrival: crewDepartureClock + t.oneWayHours}
	s.lostDay = s.arrival > lostDayArrivalClock

	techs := float64(w.techs())
	available := w.dailyHours * techs
	remaining := math.Mod(w.hours, available)
	if remaining == 0 {
		remaining = available
	}

	start := hotelDepartureClock
	if s.totalDays(w) == 1 && !s.lostDay {
		start = s.arrival
	}
	s.finish = start + remaining/techs
	s.returnClock = s.finish + t.oneWayHours
	s.extraNight = s.returnClock > lateReturnClock

	if s.lostDay {
		s.narrative = append(s.narrative, fmt.Sprintf(
			"Day 1: depart 07:00, arrive on site %s (after 14:00, travel only).", formatClock(s.arrival)))
	} else {
		s.narrative = append(s.narrative, fmt.Sprintf(
			"Day 1: depart 07:00, arrive on site %s, work starts.", formatClock(s.arrival)))
	}
	if w.workDays > 1 {
		s.narrative = append(s.narrative, fmt.Sprintf(
			"Full working days (%d): %gh per technician.", w.workDays-1, w.dailyHours))
	}
	s.narrative = append(s.narrative, fmt.Sprintf(
		"Last day: work ends at %s, back at headquarters at %s.", formatClock(s.finish), formatClock(s.returnClock)))
	if s.extraNight {
		s.narrative = append(s.narrative, "Return after 19:00: one extra hotel night included.")
	}
	return s
}

// simulateSupport assumes every support day ends at 17:00
func simulateSupport(t travelProfile, w workload) schedule {
	if w.workDays == 0 {
		return schedule{}
	}

	s := schedule{arrival: crewDepartureClock + t.oneWayHours}
	s.lostDay = s.arrival > lostDayArrivalClock
	s.finish = supportEndClock
	s.returnClock = supportEndClock + t.oneWayHours
	s.extraNight = s.returnClock > lateReturnClock

	s.narrative = append(s.narrative, fmt.Sprintf(
		"Day 1: depart 07:00, arrive on site %s.", formatClock(s.arrival)))
	s.narrative = append(s.narrative, fmt.Sprintf(
		"Support days (%d): work ends at 17:00, back at headquarters at %s.", w.workDays, formatClock(s.returnClock)))
	if s.extraNight {
		s.narrative = append(s.narrative, "Return after 19:00: one extra hotel night included.")
	}
	return s
}

// formatClock renders decimal hours as HH:MM, wrapping past midnight
func formatClock(hours float64) string {
	normalized := math.Mod(hours, 24)
	if normalized < 0 {
		normalized += 24
	}
	h := int(math.Floor(normalized))
	m := int(math.Round((normalized - float64(h)) * 60))
	if m == 60 {
		return fmt.Sprintf("%02d:00", (h+1)%24)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}
