package metrics

import (
	"fmt"
	"math"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/models"
)

const msPerHour = 3_600_000

// DefaultCostPerMile is the fallback per-mile operating cost deducted from
// gross pay when estimating net earnings.
const DefaultCostPerMile = 0.67

// Summary is the dashboard aggregate over a collection of stored orders.
type Summary struct {
	TotalGross     float64 `json:"totalGross"`
	TotalMiles     float64 `json:"totalMiles"`
	EstimatedNet   float64 `json:"estimatedNet"`
	TotalHours     float64 `json:"totalHours"`
	HourlyGross    float64 `json:"hourlyGross"`
	HourlyNet      float64 `json:"hourlyNet"`
	IdleMinutes    int     `json:"idleMinutes"`
	AcceptanceRate float64 `json:"acceptanceRate"`
}

// Compute folds a collection of records into a Summary. It is a pure
// function: an empty collection yields the zero Summary, and records whose
// totalDuration is empty or malformed simply contribute no tracked time.
// Segment values are seconds; the idle figure is the only consumer that
// wants minutes, so the conversion happens here and nowhere else.
func Compute(records []*models.StoredOrder, costPerMile float64) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	var totalGross, totalMiles float64
	var totalDurationMs, idleSeconds int64
	for _, r := range records {
		totalGross += r.Pay
		totalMiles += r.Miles
		if r.TotalDuration != "" {
			if ms, err := models.ParseClock(r.TotalDuration); err == nil {
				totalDurationMs += ms
			}
		}
		idleSeconds += int64(r.Segments.AtRestaurant)
	}

	estimatedNet := totalGross - totalMiles*costPerMile
	totalHours := float64(totalDurationMs) / msPerHour

	summary := Summary{
		TotalGross:     totalGross,
		TotalMiles:     totalMiles,
		EstimatedNet:   estimatedNet,
		TotalHours:     totalHours,
		IdleMinutes:    int(math.Round(float64(idleSeconds) / 60)),
		AcceptanceRate: 100, // no rejection data is tracked
	}
	if totalHours > 0 {
		summary.HourlyGross = totalGross / totalHours
		summary.HourlyNet = estimatedNet / totalHours
	}
	return summary
}

// HourlyGross is the instantaneous gross rate for a live shift.
func HourlyGross(pay float64, elapsedMs int64) float64 {
	if elapsedMs <= 0 {
		return 0
	}
	return pay / (float64(elapsedMs) / msPerHour)
}

// HourlyNet is the instantaneous net rate for a live shift, after the
// per-mile cost deduction.
func HourlyNet(pay, miles, costPerMile float64, elapsedMs int64) float64 {
	if elapsedMs <= 0 {
		return 0
	}
	return (pay - miles*costPerMile) / (float64(elapsedMs) / msPerHour)
}

// FormatIdleMinutes renders an idle-minutes total as HH:MM for display.
func FormatIdleMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
