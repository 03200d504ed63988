package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var offsetPattern = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)

// ParseTimezone accepts IANA names ("America/Mexico_City", "UTC") and fixed
// offsets ("-06:00"). An empty string means UTC.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}

	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}

	return parseOffsetTimezone(tz)
}

// Location returns the configured input timezone, UTC when unset or invalid
func (c *InputConfig) Location() *time.Location {
	loc, err := ParseTimezone(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// parseOffsetTimezone parses timezone offset format like "+09:00", "-05:00"
func parseOffsetTimezone(offset string) (*time.Location, error) {
	matches := offsetPattern.FindStringSubmatch(offset)
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid offset format: %s", offset)
	}

	sign := 1
	if matches[1] == "-" {
		sign = -1
	}

	hours, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, fmt.Errorf("invalid hours: %s", matches[2])
	}

	minutes, err := strconv.Atoi(matches[3])
	if err != nil {
		return nil, fmt.Errorf("invalid minutes: %s", matches[3])
	}

	return time.FixedZone(offset, sign*(hours*3600+minutes*60)), nil
}
