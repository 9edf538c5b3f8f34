package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Delivery services the tracker knows about.
const (
	ServiceGrubHub  = "GrubHub"
	ServiceDoorDash = "DoorDash"
	ServiceUberEats = "UberEats"
)

// Segments holds the duration of each timed phase of a shift, in whole
// seconds. A value stays zero until its phase completes.
type Segments struct {
	ToRestaurant    int `json:"toRestaurant"`
	AtRestaurant    int `json:"atRestaurant"`
	ToCustomer      int `json:"toCustomer"`
	ReturnToHotspot int `json:"returnToHotspot"`
}

// Order is one delivery, completed or in progress. Time-of-day fields are
// HH:MM strings and stay empty until the matching phase transition happens;
// TotalDuration is HH:MM:SS and is only set once the full cycle completes.
type Order struct {
	Date              string   `json:"date"`
	Service           string   `json:"service"`
	Restaurant        string   `json:"restaurant"`
	Pay               float64  `json:"pay"`
	Miles             float64  `json:"miles"`
	StartTime         string   `json:"startTime"`
	RestArrivalTime   string   `json:"restArrivalTime"`
	RestDepartureTime string   `json:"restDepartureTime"`
	DeliveryTime      string   `json:"deliveryTime"`
	Segments          Segments `json:"segments"`
	TotalDuration     string   `json:"totalDuration"`
	GrossHourlyPay    float64  `json:"grossHourlyPay"`
	NetHourlyPay      float64  `json:"netHourlyPay"`
}

// StoredOrder is an Order persisted in the collection, carrying the
// generated identifier and the save timestamp (set once at creation).
type StoredOrder struct {
	Order
	ID      string    `json:"id"`
	SavedAt time.Time `json:"savedAt"`
}

// OrderPatch is a partial update of a stored order. Only non-nil fields are
// applied, so a patch can never accidentally clear a field it did not name.
type OrderPatch struct {
	Date              *string   `json:"date,omitempty"`
	Service           *string   `json:"service,omitempty"`
	Restaurant        *string   `json:"restaurant,omitempty"`
	Pay               *float64  `json:"pay,omitempty"`
	Miles             *float64  `json:"miles,omitempty"`
	StartTime         *string   `json:"startTime,omitempty"`
	RestArrivalTime   *string   `json:"restArrivalTime,omitempty"`
	RestDepartureTime *string   `json:"restDepartureTime,omitempty"`
	DeliveryTime      *string   `json:"deliveryTime,omitempty"`
	Segments          *Segments `json:"segments,omitempty"`
	TotalDuration     *string   `json:"totalDuration,omitempty"`
	GrossHourlyPay    *float64  `json:"grossHourlyPay,omitempty"`
	NetHourlyPay      *float64  `json:"netHourlyPay,omitempty"`
}

// OrderEntryDraft is the unsubmitted manual-entry form, exactly as typed.
// Validation happens at submit time, not here.
type OrderEntryDraft struct {
	SelectedService string `json:"selectedService"`
	TripDate        string `json:"tripDate"`
	TripTime        string `json:"tripTime"`
	TripPay         string `json:"tripPay"`
	TripMiles       string `json:"tripMiles"`
	TripRestaurant  string `json:"tripRestaurant"`
	TripDuration    string `json:"tripDuration"`
}

// FormatClock renders a non-negative duration in milliseconds as HH:MM:SS.
func FormatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSec := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", totalSec/3600, (totalSec%3600)/60, totalSec%60)
}

// ParseClock parses an HH:MM:SS duration into milliseconds. A two-part
// HH:MM value is accepted with seconds taken as zero, since older records
// were saved that way.
func ParseClock(s string) (int64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	var units [3]int64
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		units[i] = int64(n)
	}
	return (units[0]*3600 + units[1]*60 + units[2]) * 1000, nil
}

// FormatTimeOfDay renders a wall-clock instant as HH:MM.
func FormatTimeOfDay(t time.Time) string {
	return t.Format("15:04")
}
