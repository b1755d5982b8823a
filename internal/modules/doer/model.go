// README: Doer aggregate: profile, services, availability schedule, ratings.
package doer

import (
	"errors"
	"strings"
	"time"

	"taskhive/internal/types"
)

type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "available"
	StatusBusy        AvailabilityStatus = "busy"
	StatusUnavailable AvailabilityStatus = "unavailable"
)

// DefaultServiceRadiusKm applies when a doer never declared a travel radius.
const DefaultServiceRadiusKm = 20.0

type HourRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ScheduleEntry is one weekly recurring availability window. Day is a
// lowercase English weekday name ("monday" .. "sunday").
type ScheduleEntry struct {
	Day       string    `json:"day"`
	Available bool      `json:"available"`
	Hours     HourRange `json:"hours"`
}

type Availability struct {
	Status   AvailabilityStatus `json:"status"`
	Schedule []ScheduleEntry    `json:"schedule"`
}

type ServiceOffering struct {
	Category  string `json:"category"`
	BasePrice int64  `json:"base_price"`
}

type Ratings struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Profile struct {
	CurrentLocation types.Point       `json:"current_location"`
	Services        []ServiceOffering `json:"services"`
	Availability    Availability      `json:"availability"`
	ActiveTask      *types.ID         `json:"active_task,omitempty"`
	Ratings         Ratings           `json:"ratings"`
	CompletedTasks  int               `json:"completed_tasks"`
	// ServiceRadiusKm is the doer's self-declared maximum travel distance;
	// zero means "never set" and falls back to DefaultServiceRadiusKm.
	ServiceRadiusKm float64 `json:"service_radius_km"`
	HourlyRate      int64   `json:"hourly_rate"`
}

type Doer struct {
	ID           types.ID  `json:"id"`
	FullName     string    `json:"full_name"`
	ProfilePhoto string    `json:"profile_photo"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	ErrNotFound   = errors.New("doer not found")
	ErrBadRequest = errors.New("bad request")
	// ErrMalformedRecord marks a stored record that fails boundary validation.
	ErrMalformedRecord = errors.New("malformed doer record")
)

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// EffectiveServiceRadiusKm returns the declared travel radius or the default.
func (p Profile) EffectiveServiceRadiusKm() float64 {
	if p.ServiceRadiusKm > 0 {
		return p.ServiceRadiusKm
	}
	return DefaultServiceRadiusKm
}

// OffersCategory reports whether any service offering matches the category,
// case-insensitively.
func (p Profile) OffersCategory(category string) bool {
	for _, s := range p.Services {
		if strings.EqualFold(s.Category, category) {
			return true
		}
	}
	return false
}

// Validate is the store-read boundary check: the matching engine must never
// see a partially-shaped record.
func (d *Doer) Validate() error {
	if d.ID == "" {
		return ErrMalformedRecord
	}
	if err := d.Profile.CurrentLocation.Validate(); err != nil {
		return ErrMalformedRecord
	}
	switch d.Profile.Availability.Status {
	case StatusAvailable, StatusBusy, StatusUnavailable:
	default:
		return ErrMalformedRecord
	}
	for _, e := range d.Profile.Availability.Schedule {
		if !weekdays[e.Day] {
			return ErrMalformedRecord
		}
		if e.Available && (!ValidClock(e.Hours.From) || !ValidClock(e.Hours.To)) {
			return ErrMalformedRecord
		}
	}
	if d.Profile.CompletedTasks < 0 || d.Profile.ServiceRadiusKm < 0 {
		return ErrMalformedRecord
	}
	return nil
}

// ValidClock reports whether s is a zero-padded 24h "HH:MM" string.
func ValidClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	min := int(s[3]-'0')*10 + int(s[4]-'0')
	return hour < 24 && min < 60
}
