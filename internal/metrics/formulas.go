package metrics

import (
	"math"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

// Slow-mover thresholds in days on hand.
const (
	SlowMoverFloorDays   = 60
	SlowMoverCeilingDays = 180
)

// DailyRunRate is units sold per day over the window. It is exactly 0
// without sales.
func DailyRunRate(unitsSold, windowDays int) float64 {
	if unitsSold <= 0 || windowDays <= 0 {
		return 0
	}
	return float64(unitsSold) / float64(windowDays)
}

// DaysOnHand is stock runway. Out-of-stock is 0 regardless of velocity;
// stock without velocity is unbounded.
func DaysOnHand(onHand int, runRate float64) domain.DaysOnHand {
	if onHand <= 0 {
		return domain.FiniteDOH(0)
	}
	if runRate <= 0 {
		return domain.UnboundedDOH()
	}
	return domain.FiniteDOH(float64(onHand) / runRate)
}

// AvgWeeklySales is units sold per 7 days of the window.
func AvgWeeklySales(unitsSold, windowDays int) float64 {
	if unitsSold <= 0 || windowDays <= 0 {
		return 0
	}
	return float64(unitsSold) / (float64(windowDays) / 7)
}

// SlowMoverScore grades excess stock from 0 to 100: 0 up to the 60 day
// floor, linear up to the 180 day ceiling, 100 beyond it and for stock
// that is not selling at all.
func SlowMoverScore(onHand int, doh domain.DaysOnHand) float64 {
	if onHand <= 0 {
		return 0
	}
	if doh.Unbounded {
		return 100
	}
	switch {
	case doh.Days <= SlowMoverFloorDays:
		return 0
	case doh.Days >= SlowMoverCeilingDays:
		return 100
	}
	score := (doh.Days - SlowMoverFloorDays) / (SlowMoverCeilingDays - SlowMoverFloorDays) * 100
	return roundFloat(score, 1)
}

// SuggestedDiscount maps days on hand to a markdown tier.
func SuggestedDiscount(doh domain.DaysOnHand) string {
	switch {
	case doh.Above(180):
		return "30-50% (Urgent)"
	case doh.Above(120):
		return "20-30% (High Priority)"
	case doh.Above(90):
		return "15-20% (Medium Priority)"
	case doh.Above(60):
		return "10-15% (Low Priority)"
	}
	return "No discount needed"
}

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
