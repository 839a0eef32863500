package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Duration is the access a plan grants: either a day count or a
// symbolic perk such as "antiafk". It persists as a JSON number for
// day counts and a JSON string for perks, matching the historical
// order files.
type Duration struct {
	days int
	perk string
}

// Days builds a day-count duration.
func Days(n int) Duration { return Duration{days: n} }

// Perk builds a symbolic perk duration.
func Perk(id string) Duration { return Duration{perk: id} }

// IsPerk reports whether the duration is a perk rather than a day count.
func (d Duration) IsPerk() bool { return d.perk != "" }

// DayCount returns the day count; 0 for perks.
func (d Duration) DayCount() int { return d.days }

// String renders "7d" for day counts and the perk id otherwise.
func (d Duration) String() string {
	if d.IsPerk() {
		return d.perk
	}
	return strconv.Itoa(d.days) + "d"
}

func (d Duration) MarshalJSON() ([]byte, error) {
	if d.IsPerk() {
		return json.Marshal(d.perk)
	}
	return json.Marshal(d.days)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*d = Days(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*d = Perk(s)
		return nil
	}
	return fmt.Errorf("duration: expected number or string, got %s", string(b))
}
