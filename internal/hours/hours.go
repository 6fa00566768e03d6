// Package hours parses the constrained OSM-style opening_hours dialect found
// on map features into a weekday map. Parsing is best-effort enrichment:
// malformed input yields fewer entries, never an error.
package hours

import "strings"

// dayOrder is the canonical Mon-Sun week used for range expansion. Ranges do
// not wrap across the week boundary.
var dayOrder = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

var dayNames = map[string]string{
	"Mo": "Monday",
	"Tu": "Tuesday",
	"We": "Wednesday",
	"Th": "Thursday",
	"Fr": "Friday",
	"Sa": "Saturday",
	"Su": "Sunday",
}

const allDay = "00:00-24:00"

// Parse converts a value like "Mo-Fr 09:00-17:00; Sa 10:00-14:00" into a map
// from full day name to time-range string. The literal "24/7" maps every day
// to an all-day range. Segments that cannot be understood are dropped; later
// segments override earlier ones for the same day. Empty or unparseable input
// returns an empty map.
func Parse(value string) map[string]string {
	result := make(map[string]string)

	value = strings.TrimSpace(value)
	if value == "" {
		return result
	}
	if value == "24/7" {
		for _, code := range dayOrder {
			result[dayNames[code]] = allDay
		}
		return result
	}

	for _, segment := range strings.Split(value, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		fields := strings.Fields(segment)
		if len(fields) < 2 {
			continue
		}
		daySpec := fields[0]
		timeRange := strings.Join(fields[1:], " ")

		for _, code := range expandDays(daySpec) {
			result[dayNames[code]] = timeRange
		}
	}

	return result
}

// expandDays resolves a day-list token ("Mo", "Mo,We", "Mo-Fr") to two-letter
// day codes. Unknown codes and inverted ranges expand to nothing.
func expandDays(spec string) []string {
	var days []string

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)

		if from, to, ok := strings.Cut(part, "-"); ok {
			start := dayIndex(from)
			end := dayIndex(to)
			if start < 0 || end < 0 || start > end {
				continue
			}
			days = append(days, dayOrder[start:end+1]...)
			continue
		}

		if dayIndex(part) >= 0 {
			days = append(days, part)
		}
	}

	return days
}

func dayIndex(code string) int {
	for i, d := range dayOrder {
		if d == code {
			return i
		}
	}
	return -1
}
