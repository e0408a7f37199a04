package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// UnboundedLabel is how an unbounded DaysOnHand is rendered in JSON and exports.
const UnboundedLabel = "unbounded"

// DaysOnHand is stock runway in days. Unbounded marks stock with no sales
// velocity; it compares greater than every finite value.
type DaysOnHand struct {
	Days      float64
	Unbounded bool
}

// FiniteDOH returns a bounded DaysOnHand.
func FiniteDOH(days float64) DaysOnHand {
	return DaysOnHand{Days: days}
}

// UnboundedDOH returns the no-velocity sentinel.
func UnboundedDOH() DaysOnHand {
	return DaysOnHand{Unbounded: true}
}

// Compare returns -1, 0 or 1.
func (d DaysOnHand) Compare(o DaysOnHand) int {
	switch {
	case d.Unbounded && o.Unbounded:
		return 0
	case d.Unbounded:
		return 1
	case o.Unbounded:
		return -1
	case d.Days < o.Days:
		return -1
	case d.Days > o.Days:
		return 1
	}
	return 0
}

// AtLeast reports d >= days.
func (d DaysOnHand) AtLeast(days float64) bool {
	return d.Unbounded || d.Days >= days
}

// AtMost reports d <= days. Unbounded is never at most anything.
func (d DaysOnHand) AtMost(days float64) bool {
	return !d.Unbounded && d.Days <= days
}

// Above reports d > days.
func (d DaysOnHand) Above(days float64) bool {
	return d.Unbounded || d.Days > days
}

// Weeks converts to weeks of supply.
func (d DaysOnHand) Weeks() DaysOnHand {
	if d.Unbounded {
		return d
	}
	return FiniteDOH(d.Days / 7)
}

// Round rounds the finite value to the given number of decimals.
func (d DaysOnHand) Round(decimals int) DaysOnHand {
	if d.Unbounded {
		return d
	}
	factor := math.Pow(10, float64(decimals))
	return FiniteDOH(math.Round(d.Days*factor) / factor)
}

func (d DaysOnHand) String() string {
	if d.Unbounded {
		return UnboundedLabel
	}
	return strconv.FormatFloat(d.Days, 'f', 1, 64)
}

func (d DaysOnHand) MarshalJSON() ([]byte, error) {
	if d.Unbounded {
		return []byte(`"` + UnboundedLabel + `"`), nil
	}
	return json.Marshal(d.Days)
}

func (d *DaysOnHand) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte(`"`+UnboundedLabel+`"`)) {
		*d = UnboundedDOH()
		return nil
	}
	var days float64
	if err := json.Unmarshal(data, &days); err != nil {
		return fmt.Errorf("days on hand: expected number or %q: %w", UnboundedLabel, err)
	}
	*d = FiniteDOH(days)
	return nil
}
