package clockify

import (
	"regexp"
	"strconv"
	"time"
)

// DurationKind discriminates the three wire representations of an entry
// duration.
type DurationKind int

const (
	// DurationISO is an ISO-8601 period string such as "PT1H30M".
	DurationISO DurationKind = iota
	// DurationSeconds is a raw count of elapsed seconds.
	DurationSeconds
	// DurationInterval is a start instant with an optional end instant; a
	// zero end means the entry is still running.
	DurationInterval
)

// Duration is a tagged union over the provider's duration representations.
// Exactly the fields of the active Kind are meaningful.
type Duration struct {
	Kind    DurationKind
	ISO     string
	Seconds float64
	Start   time.Time
	End     time.Time
}

var isoPeriodPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// Hours normalizes the duration to fractional hours. Results are never
// negative: an end before its start is a data anomaly and reported as 0.
// now supplies the current instant for still-running interval entries.
func (d Duration) Hours(now func() time.Time) float64 {
	switch d.Kind {
	case DurationISO:
		return isoPeriodHours(d.ISO)
	case DurationSeconds:
		if d.Seconds < 0 {
			return 0
		}
		return d.Seconds / 3600
	case DurationInterval:
		if d.Start.IsZero() {
			return 0
		}
		end := d.End
		if end.IsZero() {
			end = now()
		}
		elapsed := end.Sub(d.Start)
		if elapsed < 0 {
			return 0
		}
		return elapsed.Hours()
	default:
		return 0
	}
}

func isoPeriodHours(iso string) float64 {
	match := isoPeriodPattern.FindStringSubmatch(iso)
	if match == nil {
		return 0
	}
	hours := parseGroup(match[1])
	minutes := parseGroup(match[2])
	seconds := parseGroup(match[3])
	return hours + minutes/60 + seconds/3600
}

func parseGroup(value string) float64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}
