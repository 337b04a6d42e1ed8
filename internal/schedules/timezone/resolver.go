// Package timezone converts zone-naive local schedule times to UTC.
package timezone

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	// Embedded zone database so LoadLocation works on minimal images.
	_ "time/tzdata"
)

// Supported zones.
const (
	ZoneMountain = "America/Denver"
	ZonePacific  = "America/Los_Angeles"
	DefaultZone  = ZoneMountain
)

// UTCLayout is the wire format of resolved timestamps.
const UTCLayout = "2006-01-02 15:04:05"

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	// fallbackOffsetMinutes is Mountain Standard Time. It is applied when no
	// offset can be determined for a zone.
	fallbackOffsetMinutes = -7 * 60
)

// OffsetSource records how an offset was determined.
type OffsetSource string

const (
	SourceZoneDatabase OffsetSource = "zone_database"
	SourceAbbreviation OffsetSource = "abbreviation"
	SourceFallback     OffsetSource = "fallback"
)

// abbreviationOffsets covers standard and daylight variants of both regions.
var abbreviationOffsets = map[string]int{
	"PST": -8 * 60,
	"PDT": -7 * 60,
	"MST": -7 * 60,
	"MDT": -6 * 60,
}

var (
	gmtOffsetRegex  = regexp.MustCompile(`^GMT([+-])(\d{2}):(\d{2})$`)
	stateCodeRegex  = regexp.MustCompile(`\bCA\b`)
	pacificMarkers  = []string{"san luis obispo", "camarillo"}
	pacificCodeWord = regexp.MustCompile(`\bSLO\b`)
)

// Resolution is a resolved UTC instant and how its offset was found.
type Resolution struct {
	UTC           time.Time
	OffsetMinutes int
	Source        OffsetSource
	Zone          string
}

// Formatted returns the UTC instant in UTCLayout.
func (r Resolution) Formatted() string {
	return r.UTC.Format(UTCLayout)
}

// SelectZone picks the zone for a record: an explicit zone wins, otherwise
// Pacific region markers in the project name select Pacific time, and
// everything else is Mountain time.
func SelectZone(explicit, projectName string) string {
	if z := strings.TrimSpace(explicit); z != "" {
		return z
	}
	lower := strings.ToLower(projectName)
	for _, marker := range pacificMarkers {
		if strings.Contains(lower, marker) {
			return ZonePacific
		}
	}
	if pacificCodeWord.MatchString(projectName) || stateCodeRegex.MatchString(projectName) {
		return ZonePacific
	}
	return DefaultZone
}

// ToUTC converts local date and clock in zone to a UTCLayout string.
func ToUTC(date, clock, zone string) (string, error) {
	res, err := Resolve(date, clock, zone)
	if err != nil {
		return "", err
	}
	return res.Formatted(), nil
}

// Resolve converts local date (YYYY-MM-DD) and clock (HH:MM) in zone to UTC.
// Unknown zones never fail: the abbreviation table and then the fallback
// offset are used instead. Only malformed date or clock input is an error.
func Resolve(date, clock, zone string) (Resolution, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return Resolution{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	wall, err := time.Parse(clockLayout, NormalizeClock(clock))
	if err != nil {
		return Resolution{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}

	offset, source := offsetFor(day, wall, zone)
	utc := ShiftWallClock(day, wall.Hour(), wall.Minute(), -offset)

	return Resolution{UTC: utc, OffsetMinutes: offset, Source: source, Zone: zone}, nil
}

// ShiftWallClock adds minutes to a wall-clock time on day, carrying into the
// next (or previous) day, month and year as needed.
func ShiftWallClock(day time.Time, hour, minute, addMinutes int) time.Time {
	// time.Date normalizes out-of-range fields, so Jan 31 + 25h lands on Feb 1
	// and Dec 31 rolls into the next year.
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute+addMinutes, 0, 0, time.UTC)
}

// offsetFor returns the zone's UTC offset in minutes at the local wall-clock
// instant, falling back through the abbreviation table and then the default.
// The offset is read at the requested time rather than at noon, so a 01:30
// slot on a spring-forward day still gets the pre-transition offset.
func offsetFor(day, wall time.Time, zone string) (int, OffsetSource) {
	zone = strings.TrimSpace(zone)
	if loc, err := time.LoadLocation(zone); err == nil && zone != "" {
		local := time.Date(day.Year(), day.Month(), day.Day(), wall.Hour(), wall.Minute(), 0, 0, loc)
		if minutes, ok := parseGMTOffset(local.Format("GMT-07:00")); ok {
			return minutes, SourceZoneDatabase
		}
		abbr, _ := local.Zone()
		if minutes, ok := abbreviationOffsets[abbr]; ok {
			return minutes, SourceAbbreviation
		}
	}
	if minutes, ok := abbreviationOffsets[strings.ToUpper(zone)]; ok {
		return minutes, SourceAbbreviation
	}
	return fallbackOffsetMinutes, SourceFallback
}

// parseGMTOffset parses "GMT-06:00" style strings into signed minutes.
func parseGMTOffset(s string) (int, bool) {
	m := gmtOffsetRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	total := hours*60 + minutes
	if m[1] == "-" {
		total = -total
	}
	return total, true
}

// NormalizeClock accepts "H:MM" and "HH:MM:SS" in addition to "HH:MM".
func NormalizeClock(clock string) string {
	clock = strings.TrimSpace(clock)
	if parts := strings.Split(clock, ":"); len(parts) >= 2 {
		if len(parts[0]) == 1 {
			parts[0] = "0" + parts[0]
		}
		return parts[0] + ":" + parts[1]
	}
	return clock
}
