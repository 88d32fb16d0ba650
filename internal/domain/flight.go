package domain

import "time"

type Flight struct {
	ID                 int64
	Code               string
	DepartureAirportID int64
	ArrivalAirportID   int64
	DepartureTime      time.Time
	ArrivalTime        time.Time
}

// Upcoming reports whether the flight has not landed yet at now.
func (f Flight) Upcoming(now time.Time) bool {
	return f.ArrivalTime.After(now)
}
